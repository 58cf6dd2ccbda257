/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package sdppatch

import (
	"fmt"
	"strings"
)

// Mode defines which side produced the session description to be patched.
type Mode int

// Patch modes.
const (
	// ModeLocalAnswerOrRemote is used for local answers and for all
	// descriptions received from the remote peer. Header extension IDs are
	// never renumbered in this mode.
	ModeLocalAnswerOrRemote Mode = iota
	// ModeLocalOffer is used for offers created locally. Header extension
	// IDs are reassigned in this mode.
	ModeLocalOffer
)

func (m Mode) String() string {
	switch m {
	case ModeLocalOffer:
		return "local-offer"
	case ModeLocalAnswerOrRemote:
		return "local-answer-or-remote"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// HeaderExtensionPolicy defines if and how RTP header extensions are
// negotiated.
type HeaderExtensionPolicy int

// Header extension policies.
const (
	HeaderExtensionsDisable HeaderExtensionPolicy = iota
	HeaderExtensionsOneByte
	HeaderExtensionsOneAndTwoByte
)

var headerExtensionPolicyNames = map[HeaderExtensionPolicy]string{
	HeaderExtensionsDisable:       "disable",
	HeaderExtensionsOneByte:       "one-byte",
	HeaderExtensionsOneAndTwoByte: "one-and-two-byte",
}

func (p HeaderExtensionPolicy) String() string {
	if name, ok := headerExtensionPolicyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// MaxID returns the highest header extension ID which can be assigned with
// the associated policy. See RFC 5285 sec 4.2 and 4.3.
func (p HeaderExtensionPolicy) MaxID() int {
	switch p {
	case HeaderExtensionsOneByte:
		return 14
	case HeaderExtensionsOneAndTwoByte:
		return 255
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p HeaderExtensionPolicy) MarshalText() ([]byte, error) {
	name, ok := headerExtensionPolicyNames[p]
	if !ok {
		return nil, fmt.Errorf("unknown header extension policy: %d", int(p))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *HeaderExtensionPolicy) UnmarshalText(text []byte) error {
	policy, err := ParseHeaderExtensionPolicy(string(text))
	if err != nil {
		return err
	}
	*p = policy
	return nil
}

// ParseHeaderExtensionPolicy returns the HeaderExtensionPolicy matching the
// provided name.
func ParseHeaderExtensionPolicy(s string) (HeaderExtensionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "disable", "disabled", "none":
		return HeaderExtensionsDisable, nil
	case "one-byte", "legacy", "legacy-one-byte":
		return HeaderExtensionsOneByte, nil
	case "one-and-two-byte", "two-byte", "mixed":
		return HeaderExtensionsOneAndTwoByte, nil
	}
	return HeaderExtensionsDisable, fmt.Errorf("unknown header extension policy: %q", s)
}
