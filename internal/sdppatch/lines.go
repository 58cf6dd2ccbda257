/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package sdppatch

import (
	"strings"
)

// lineReader iterates the lines of a string. Lines may be terminated by
// CRLF, LF or a single CR. A trailing terminator does not produce an empty
// last line.
type lineReader struct {
	s   string
	pos int
}

func newLineReader(s string) *lineReader {
	return &lineReader{s: s}
}

func (r *lineReader) next() (string, bool) {
	if r.pos >= len(r.s) {
		return "", false
	}

	rest := r.s[r.pos:]
	idx := strings.IndexAny(rest, "\r\n")
	if idx < 0 {
		r.pos = len(r.s)
		return rest, true
	}

	r.pos += idx + 1
	if rest[idx] == '\r' && idx+1 < len(rest) && rest[idx+1] == '\n' {
		r.pos++
	}
	return rest[:idx], true
}
