/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

// Package quality implements negotiation of video quality profiles between
// the two sides of a call.
package quality
