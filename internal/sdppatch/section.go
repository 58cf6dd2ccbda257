/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package sdppatch

import (
	"fmt"
	"strings"
)

type section int

const (
	sectionGlobal section = iota
	sectionAudio
	sectionVideo
	sectionDataChannel
	sectionUnknown
)

func (s section) String() string {
	switch s {
	case sectionGlobal:
		return "global"
	case sectionAudio:
		return "audio"
	case sectionVideo:
		return "video"
	case sectionDataChannel:
		return "data-channel"
	case sectionUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("section(%d)", int(s))
	}
}

const mediaLinePrefix = "m="

func isMediaLine(line string) bool {
	return strings.HasPrefix(line, mediaLinePrefix)
}

// enterSection switches the state to the section started by the provided
// media line and returns the verdict for that line.
func (p *pass) enterSection(line string) (action, error) {
	if match := audioMediaRe.FindStringSubmatch(line); match != nil {
		p.section = sectionAudio
		found := false
		for _, pt := range strings.Split(match[3], " ") {
			if pt == p.opusPT {
				found = true
				break
			}
		}
		if !found {
			return action{}, fmt.Errorf("%w: payload type %s", ErrOpusNotInAudioSection, p.opusPT)
		}
		return rewriteTo(fmt.Sprintf("m=audio %s %s %s", match[1], match[2], p.opusPT)), nil
	}

	switch {
	case strings.HasPrefix(line, "m=video"):
		p.section = sectionVideo
		return accepted, nil

	case strings.HasPrefix(line, "m=application") && strings.Contains(line, "DTLS/SCTP"):
		p.section = sectionDataChannel
		return accepted, nil

	default:
		p.section = sectionUnknown
		return rejected, nil
	}
}

// skipSection discards all lines of a rejected section. It returns the
// media line which starts the next section, if any.
func (p *pass) skipSection(r *lineReader, marker string) (string, bool) {
	skipped := []string{marker}
	for {
		line, ok := r.next()
		if !ok {
			p.logger.WithField("lines", skipped).Debugln("sdppatch: rejected section runs until end of input")
			return "", false
		}
		if isMediaLine(line) {
			p.logger.WithField("lines", skipped).Debugln("sdppatch: rejected section")
			return line, true
		}
		skipped = append(skipped, line)
		p.metrics.observeVerdict(sectionUnknown, verdictReject)
	}
}
