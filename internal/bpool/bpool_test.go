/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package bpool

import (
	"testing"
)

func TestGetReturnsEmptyBuffer(t *testing.T) {
	b := Get()
	b.WriteString("v=0\r\n")
	Put(b)

	if got := Get(); got.Len() != 0 {
		t.Errorf("pooled buffer not reset, len %d", got.Len())
	}
}

func TestPutDropsLargeBuffers(t *testing.T) {
	b := Get()
	b.Grow(MaxPooledSize + 1)
	Put(b)

	if got := Get(); got == b {
		t.Error("large buffer was returned to the pool")
	}
}
