/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package sdppatch

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	rtpmapOpusRe = regexp.MustCompile(`a=rtpmap:([^ \r\n]+) opus`)
	audioMediaRe = regexp.MustCompile(`^m=audio ([^ ]+) ([^ ]+) (.+)$`)
	rtpmapRe     = regexp.MustCompile(`^a=rtpmap:([^ ]+) .*$`)
	fmtpRe       = regexp.MustCompile(`^a=fmtp:(\S+) (.*)$`)
	extmapRe     = regexp.MustCompile(`^a=extmap:[^ ]+ (.*)$`)
)

const (
	extmapAllowMixedPrefix      = "a=extmap-allow-mixed"
	encryptedExtensionURIPrefix = "urn:ietf:params:rtp-hdrext:encrypt"

	opusCBRParams = "stereo=0;sprop-stereo=0;cbr=1"
)

// Header extensions which are never negotiated, even when encrypted.
var deniedExtensions = []string{
	"urn:ietf:params:rtp-hdrext:ssrc-audio-level",
	"urn:ietf:params:rtp-hdrext:csrc-audio-level",
	"http://tools.ietf.org/html/draft-ietf-avtext-framemarking-07",
	"urn:ietf:params:rtp-hdrext:framemarking",
}

// Opus parameters replaced by opusCBRParams.
var forcedOpusParams = map[string]struct{}{
	"stereo":       {},
	"sprop-stereo": {},
	"cbr":          {},
}

type verdict int

const (
	verdictAccept verdict = iota
	verdictReject
	verdictRewrite
)

func (v verdict) String() string {
	switch v {
	case verdictAccept:
		return "accept"
	case verdictReject:
		return "reject"
	case verdictRewrite:
		return "rewrite"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// action is the verdict for a single line. The replacement is only set for
// verdictRewrite.
type action struct {
	verdict     verdict
	replacement string
}

var (
	accepted = action{verdict: verdictAccept}
	rejected = action{verdict: verdictReject}
)

func rewriteTo(replacement string) action {
	return action{verdict: verdictRewrite, replacement: replacement}
}

// lineRule binds a line pattern to its handler. The handler receives the
// submatches of the pattern.
type lineRule struct {
	pattern *regexp.Regexp
	handle  func(p *pass, match []string) (action, error)
}

var audioRules = []lineRule{
	{rtpmapRe, (*pass).handleAudioRtpmap},
	{fmtpRe, (*pass).handleAudioFmtp},
	{extmapRe, (*pass).handleExtmap},
}

var videoRules = []lineRule{
	{extmapRe, (*pass).handleExtmap},
}

// classify returns the verdict for a non media line in the current section.
func (p *pass) classify(line string) (action, error) {
	switch p.section {
	case sectionGlobal:
		return p.handleShared(line), nil
	case sectionAudio:
		return p.applyRules(audioRules, line)
	case sectionVideo:
		return p.applyRules(videoRules, line)
	case sectionDataChannel:
		return accepted, nil
	default:
		// Lines of unknown sections are skipped before classification.
		return rejected, nil
	}
}

func (p *pass) applyRules(rules []lineRule, line string) (action, error) {
	for _, rule := range rules {
		if match := rule.pattern.FindStringSubmatch(line); match != nil {
			return rule.handle(p, match)
		}
	}
	return p.handleShared(line), nil
}

func (p *pass) handleShared(line string) action {
	if strings.HasPrefix(line, extmapAllowMixedPrefix) && p.policy != HeaderExtensionsOneAndTwoByte {
		return rejected
	}
	return accepted
}

func (p *pass) handleAudioRtpmap(match []string) (action, error) {
	if match[1] != p.opusPT {
		return rejected, nil
	}
	return accepted, nil
}

func (p *pass) handleAudioFmtp(match []string) (action, error) {
	if match[1] != p.opusPT {
		return rejected, nil
	}
	return rewriteTo(rewriteOpusFmtp(p.opusPT, match[2])), nil
}

func (p *pass) handleExtmap(match []string) (action, error) {
	uriAndAttributes := match[1]

	if p.policy == HeaderExtensionsDisable {
		return rejected, nil
	}
	for _, denied := range deniedExtensions {
		if strings.Contains(uriAndAttributes, denied) {
			return rejected, nil
		}
	}
	if !strings.HasPrefix(uriAndAttributes, encryptedExtensionURIPrefix) {
		return rejected, nil
	}

	if p.mode != ModeLocalOffer {
		return accepted, nil
	}
	id, err := p.remapper.assign(uriAndAttributes)
	if err != nil {
		return action{}, err
	}
	return rewriteTo(fmt.Sprintf("a=extmap:%d %s", id, uriAndAttributes)), nil
}

// rewriteOpusFmtp builds the Opus fmtp line keeping all parameters except
// the ones which get forced to constant bitrate mono. Parameters are
// written back separated by ";" without surrounding whitespace.
func rewriteOpusFmtp(pt, params string) string {
	var b strings.Builder
	b.WriteString("a=fmtp:")
	b.WriteString(pt)
	b.WriteString(" ")
	for _, param := range strings.Split(params, ";") {
		param = strings.TrimSpace(param)
		if param == "" {
			continue
		}
		key := param
		if idx := strings.IndexByte(param, '='); idx >= 0 {
			key = param[:idx]
		}
		if _, forced := forcedOpusParams[key]; forced {
			continue
		}
		b.WriteString(param)
		b.WriteString(";")
	}
	b.WriteString(opusCBRParams)
	return b.String()
}
