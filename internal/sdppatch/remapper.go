/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package sdppatch

import (
	"fmt"
)

// reservedExtensionID is the ID 15 which is reserved by RFC 5285 for the
// one-byte header form and therefore never assigned.
const reservedExtensionID = 15

// extensionIDRemapper assigns header extension IDs for a single patch
// invocation. The same key always maps to the same ID.
type extensionIDRemapper struct {
	maxID   int
	current int
	ids     map[string]int
}

func newExtensionIDRemapper(policy HeaderExtensionPolicy) *extensionIDRemapper {
	return &extensionIDRemapper{
		maxID:   policy.MaxID(),
		current: 1,
		ids:     make(map[string]int),
	}
}

// assign returns the ID of the provided URI and attributes, allocating the
// next free one if the key has not been seen before.
func (r *extensionIDRemapper) assign(uriAndAttributes string) (int, error) {
	if id, ok := r.ids[uriAndAttributes]; ok {
		return id, nil
	}
	if r.current > r.maxID {
		return 0, fmt.Errorf("%w (max %d, extension %q)", ErrExtensionIDsExhausted, r.maxID, uriAndAttributes)
	}

	id := r.current
	r.ids[uriAndAttributes] = id
	r.current++
	if r.current == reservedExtensionID {
		r.current++
	}

	return id, nil
}
