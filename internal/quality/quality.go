/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package quality

import (
	"errors"
	"fmt"
	"strings"
)

// Profile names a set of video parameters.
type Profile int

// Profiles.
const (
	ProfileRaw Profile = iota
	ProfileLow
	ProfileHigh
	ProfileMax
)

var profileNames = map[Profile]string{
	ProfileRaw:  "raw",
	ProfileLow:  "low",
	ProfileHigh: "high",
	ProfileMax:  "max",
}

func (p Profile) String() string {
	if name, ok := profileNames[p]; ok {
		return name
	}
	return fmt.Sprintf("profile(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Profile) MarshalText() ([]byte, error) {
	name, ok := profileNames[p]
	if !ok {
		return nil, fmt.Errorf("unknown profile: %d", int(p))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Profile) UnmarshalText(text []byte) error {
	profile, err := ParseProfile(string(text))
	if err != nil {
		return err
	}
	*p = profile
	return nil
}

// ParseProfile returns the Profile with the provided name.
func ParseProfile(s string) (Profile, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for profile, profileName := range profileNames {
		if profileName == name {
			return profile, nil
		}
	}
	return ProfileRaw, fmt.Errorf("unknown profile: %q", s)
}

// ErrInvalidParams is returned for video parameters which are out of range.
var ErrInvalidParams = errors.New("invalid video params")

// Params are the limits of an outgoing video stream.
type Params struct {
	Profile        Profile `json:"profile"`
	MaxBitrateKbps int     `json:"maxBitrateKbps"`
	MaxFps         int     `json:"maxFps"`
	MaxWidth       int     `json:"maxWidth"`
	MaxHeight      int     `json:"maxHeight"`
}

// Minimum values, common params are never below these.
const (
	MinBitrateKbps = 200
	MinFps         = 15
	MinWidth       = 320
	MinHeight      = 240
)

var profiles = map[Profile]Params{
	ProfileLow:  {Profile: ProfileLow, MaxBitrateKbps: 400, MaxFps: 20, MaxWidth: 960, MaxHeight: 540},
	ProfileHigh: {Profile: ProfileHigh, MaxBitrateKbps: 2000, MaxFps: 25, MaxWidth: 1280, MaxHeight: 720},
	ProfileMax:  {Profile: ProfileMax, MaxBitrateKbps: 4000, MaxFps: 25, MaxWidth: 1920, MaxHeight: 1080},
}

// ForProfile returns the params of a named profile. ProfileRaw and unknown
// profiles resolve to ProfileHigh.
func ForProfile(profile Profile) Params {
	if params, ok := profiles[profile]; ok {
		return params
	}
	return profiles[ProfileHigh]
}

// FromSetting returns the params for a configured profile. Metered networks
// always use ProfileLow.
func FromSetting(profile Profile, metered bool) Params {
	if metered {
		return ForProfile(ProfileLow)
	}
	return ForProfile(profile)
}

// Raw creates params from explicit values.
func Raw(bitrateKbps, fps, width, height int) Params {
	return identify(Params{
		Profile:        ProfileRaw,
		MaxBitrateKbps: bitrateKbps,
		MaxFps:         fps,
		MaxWidth:       width,
		MaxHeight:      height,
	})
}

// Validate checks that all values are positive. Named profiles without
// values are filled in from their definition.
func (p *Params) Validate() error {
	if p.Profile != ProfileRaw && p.MaxBitrateKbps == 0 && p.MaxFps == 0 && p.MaxWidth == 0 && p.MaxHeight == 0 {
		*p = ForProfile(p.Profile)
		return nil
	}
	if p.MaxBitrateKbps <= 0 || p.MaxFps <= 0 || p.MaxWidth <= 0 || p.MaxHeight <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidParams, p)
	}
	return nil
}

// Common returns the params both sides can agree on, the component wise
// minimum of both. Relayed connections are capped to ProfileHigh. A nil
// other uses the receiver only.
func (p Params) Common(other *Params, relayed bool) Params {
	common := p
	if other != nil {
		common = minParams(common, *other)
	}
	if relayed {
		common = minParams(common, profiles[ProfileHigh])
	}

	common.MaxBitrateKbps = max(common.MaxBitrateKbps, MinBitrateKbps)
	common.MaxFps = max(common.MaxFps, MinFps)
	common.MaxWidth = max(common.MaxWidth, MinWidth)
	common.MaxHeight = max(common.MaxHeight, MinHeight)

	return identify(common)
}

func (p Params) String() string {
	return fmt.Sprintf("%s(%dkbps %dfps %dx%d)", p.Profile, p.MaxBitrateKbps, p.MaxFps, p.MaxWidth, p.MaxHeight)
}

func minParams(a, b Params) Params {
	return Params{
		MaxBitrateKbps: min(a.MaxBitrateKbps, b.MaxBitrateKbps),
		MaxFps:         min(a.MaxFps, b.MaxFps),
		MaxWidth:       min(a.MaxWidth, b.MaxWidth),
		MaxHeight:      min(a.MaxHeight, b.MaxHeight),
	}
}

// identify sets the profile name if the values match a named profile.
func identify(p Params) Params {
	p.Profile = ProfileRaw
	for profile, params := range profiles {
		if params.MaxBitrateKbps == p.MaxBitrateKbps && params.MaxFps == p.MaxFps && params.MaxWidth == p.MaxWidth && params.MaxHeight == p.MaxHeight {
			p.Profile = profile
			break
		}
	}
	return p
}
