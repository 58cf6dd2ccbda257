/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package sdppatch

import (
	"errors"
	"fmt"
)

// ErrInvalidSDP is wrapped by all errors returned when a session description
// cannot be patched.
var ErrInvalidSDP = errors.New("invalid sdp")

// Patch errors.
var (
	ErrOpusNotFound          = fmt.Errorf("%w: a=rtpmap: [...] opus not found", ErrInvalidSDP)
	ErrOpusNotInAudioSection = fmt.Errorf("%w: opus payload type not found in audio media description", ErrInvalidSDP)
	ErrExtensionIDsExhausted = fmt.Errorf("%w: rtp header extension ids exhausted", ErrInvalidSDP)
)
