/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package patcher

import (
	"github.com/pion/webrtc/v4"

	api "stash.kopano.io/kwm/sdpguard/guard/api-v0"
	"stash.kopano.io/kwm/sdpguard/internal/candidate"
	"stash.kopano.io/kwm/sdpguard/internal/sdpinfo"
	"stash.kopano.io/kwm/sdpguard/internal/sdppatch"
)

// PatchRequest asks for a session description to be patched. Local marks
// descriptions created by the local peer connection.
type PatchRequest struct {
	Transaction string `json:"transaction,omitempty"`

	Type  webrtc.SDPType `json:"type"`
	SDP   string         `json:"sdp"`
	Local bool           `json:"local"`

	HeaderExtensions *sdppatch.HeaderExtensionPolicy `json:"headerExtensions,omitempty"`
}

// Mode returns the patch mode implied by the request.
func (r *PatchRequest) Mode() sdppatch.Mode {
	if r.Local && r.Type == webrtc.SDPTypeOffer {
		return sdppatch.ModeLocalOffer
	}
	return sdppatch.ModeLocalAnswerOrRemote
}

// PatchResponse carries the patched session description.
type PatchResponse struct {
	Transaction string `json:"transaction,omitempty"`

	Type    webrtc.SDPType   `json:"type"`
	SDP     string           `json:"sdp"`
	Mode    string           `json:"mode"`
	Summary *sdpinfo.Summary `json:"summary,omitempty"`
}

// ErrorResponse is sent on the websocket when a request fails.
type ErrorResponse struct {
	Transaction string `json:"transaction,omitempty"`

	Error *api.ErrorWithCodeAndMessage `json:"error"`
}

// CandidatesRequest carries candidate lines, or a full session description
// to collect them from.
type CandidatesRequest struct {
	Candidates []string `json:"candidates,omitempty"`
	SDP        string   `json:"sdp,omitempty"`
}

// CandidateResource is a parsed candidate with its derived flags.
type CandidateResource struct {
	*candidate.Candidate

	Relay    bool `json:"relay"`
	Loopback bool `json:"loopback"`
	IPv6     bool `json:"ipv6"`
}

// NewCandidateResource creates a CandidateResource for the provided candidate.
func NewCandidateResource(c *candidate.Candidate) *CandidateResource {
	return &CandidateResource{
		Candidate: c,

		Relay:    c.IsRelay(),
		Loopback: c.IsLoopback(),
		IPv6:     c.IsIPv6(),
	}
}
