/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

// Package sdpinfo summarizes session descriptions.
package sdpinfo

import (
	"fmt"
	"strings"

	"github.com/pion/rtp"
	"github.com/pion/sdp/v3"

	"stash.kopano.io/kwm/sdpguard/internal/candidate"
)

const (
	attrKeyExtMapAllowMixed = "extmap-allow-mixed"

	maxOneByteExtensionID = 14
)

// Extension is a negotiated RTP header extension.
type Extension struct {
	ID         int    `json:"id"`
	URI        string `json:"uri"`
	Attributes string `json:"attributes,omitempty"`
}

// Media describes a media section.
type Media struct {
	Kind       string                 `json:"kind"`
	Mid        string                 `json:"mid,omitempty"`
	Port       int                    `json:"port"`
	Protocol   string                 `json:"protocol"`
	Formats    []string               `json:"formats"`
	Codecs     map[string]string      `json:"codecs,omitempty"`
	Extensions []*Extension           `json:"extensions,omitempty"`
	Candidates []*candidate.Candidate `json:"candidates,omitempty"`
}

// Summary is the result of inspecting a session description.
type Summary struct {
	Media      []*Media `json:"media"`
	AllowMixed bool     `json:"allowMixed"`

	// ExtensionProfile is the RTP header extension profile required by
	// the highest extension ID, 0 if there are no extensions.
	ExtensionProfile uint16 `json:"extensionProfile,omitempty"`
}

// Inspect parses the provided session description and returns its summary.
func Inspect(raw string) (*Summary, error) {
	sd := &sdp.SessionDescription{}
	if err := sd.Unmarshal([]byte(raw)); err != nil {
		return nil, fmt.Errorf("failed to parse session description: %w", err)
	}

	summary := &Summary{
		Media: make([]*Media, 0, len(sd.MediaDescriptions)),
	}
	for _, a := range sd.Attributes {
		if a.Key == attrKeyExtMapAllowMixed {
			summary.AllowMixed = true
		}
	}

	maxID := 0
	for _, md := range sd.MediaDescriptions {
		media, err := inspectMedia(md)
		if err != nil {
			return nil, err
		}
		for _, ext := range media.Extensions {
			if ext.ID > maxID {
				maxID = ext.ID
			}
		}
		if _, ok := md.Attribute(attrKeyExtMapAllowMixed); ok {
			summary.AllowMixed = true
		}
		summary.Media = append(summary.Media, media)
	}

	switch {
	case maxID > maxOneByteExtensionID:
		summary.ExtensionProfile = rtp.ExtensionProfileTwoByte
	case maxID > 0:
		summary.ExtensionProfile = rtp.ExtensionProfileOneByte
	}

	return summary, nil
}

func inspectMedia(md *sdp.MediaDescription) (*Media, error) {
	media := &Media{
		Kind:     md.MediaName.Media,
		Port:     md.MediaName.Port.Value,
		Protocol: strings.Join(md.MediaName.Protos, "/"),
		Formats:  md.MediaName.Formats,
		Codecs:   make(map[string]string),
	}
	if mid, ok := md.Attribute(sdp.AttrKeyMID); ok {
		media.Mid = mid
	}

	for _, a := range md.Attributes {
		switch {
		case a.Key == "rtpmap":
			fields := strings.SplitN(a.Value, " ", 2)
			if len(fields) == 2 {
				media.Codecs[fields[0]] = fields[1]
			}

		case a.Key == sdp.AttrKeyExtMap:
			ext := sdp.ExtMap{}
			if err := ext.Unmarshal(a.String()); err != nil {
				return nil, fmt.Errorf("invalid extmap %q: %w", a.Value, err)
			}
			extension := &Extension{
				ID: ext.Value,
			}
			if ext.URI != nil {
				extension.URI = ext.URI.String()
			}
			if ext.ExtAttr != nil {
				extension.Attributes = *ext.ExtAttr
			}
			media.Extensions = append(media.Extensions, extension)

		case a.IsICECandidate():
			c, err := candidate.Parse(a.Value)
			if err != nil {
				return nil, err
			}
			media.Candidates = append(media.Candidates, c)
		}
	}

	return media, nil
}
