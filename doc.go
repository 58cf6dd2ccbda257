/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

// Package sdpguard hardens WebRTC session descriptions before they are
// applied or sent, and negotiates video quality for calls.
package sdpguard
