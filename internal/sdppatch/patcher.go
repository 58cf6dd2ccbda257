/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package sdppatch

import (
	"io/ioutil"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config bundles the settings of a Patcher.
type Config struct {
	Logger  logrus.FieldLogger
	Metrics *Metrics

	HeaderExtensions HeaderExtensionPolicy
}

// Patcher rewrites session descriptions to only contain what is supported
// and allowed. A Patcher is immutable and can be used concurrently.
type Patcher struct {
	logger  logrus.FieldLogger
	metrics *Metrics

	policy HeaderExtensionPolicy
}

// New creates a Patcher with the provided configuration.
func New(config *Config) *Patcher {
	if config == nil {
		config = &Config{}
	}

	logger := config.Logger
	if logger == nil {
		discard := logrus.New()
		discard.Out = ioutil.Discard
		logger = discard
	}

	return &Patcher{
		logger:  logger,
		metrics: config.Metrics,

		policy: config.HeaderExtensions,
	}
}

// HeaderExtensions returns the header extension policy of the Patcher.
func (p *Patcher) HeaderExtensions() HeaderExtensionPolicy {
	return p.policy
}

// WithHeaderExtensions returns a copy of the Patcher which uses the
// provided header extension policy.
func (p *Patcher) WithHeaderExtensions(policy HeaderExtensionPolicy) *Patcher {
	patcher := *p
	patcher.policy = policy
	return &patcher
}

// Patch patches the provided session description. The result has all lines
// terminated with CRLF. On error, no partial result is returned.
func (p *Patcher) Patch(mode Mode, sdp string) (string, error) {
	result, err := p.patch(mode, sdp)
	p.metrics.observePatch(mode, err)
	if err != nil {
		p.logger.WithError(err).WithField("mode", mode).Debugln("sdppatch: patch failed")
		return "", err
	}
	return result, nil
}

func (p *Patcher) patch(mode Mode, sdp string) (string, error) {
	match := rtpmapOpusRe.FindStringSubmatch(sdp)
	if match == nil {
		return "", ErrOpusNotFound
	}

	state := &pass{
		mode:     mode,
		policy:   p.policy,
		opusPT:   match[1],
		section:  sectionGlobal,
		remapper: newExtensionIDRemapper(p.policy),
		logger:   p.logger,
		metrics:  p.metrics,
	}
	state.out.Grow(len(sdp))

	if err := state.run(newLineReader(sdp)); err != nil {
		return "", err
	}
	return state.out.String(), nil
}

// pass holds the state of one patch invocation.
type pass struct {
	mode   Mode
	policy HeaderExtensionPolicy
	opusPT string

	section  section
	remapper *extensionIDRemapper

	logger  logrus.FieldLogger
	metrics *Metrics

	out strings.Builder
}

func (p *pass) run(r *lineReader) error {
	line, ok := r.next()
	for ok {
		var result action
		var err error
		marker := isMediaLine(line)
		if marker {
			result, err = p.enterSection(line)
		} else {
			result, err = p.classify(line)
		}
		if err != nil {
			return err
		}

		if marker && p.section == sectionUnknown {
			// Discard the whole section, up to the next media line.
			p.metrics.observeVerdict(sectionUnknown, verdictReject)
			line, ok = p.skipSection(r, line)
			continue
		}

		p.emit(line, result)
		line, ok = r.next()
	}

	return nil
}

func (p *pass) emit(line string, result action) {
	p.metrics.observeVerdict(p.section, result.verdict)

	switch result.verdict {
	case verdictReject:
		p.logger.WithFields(logrus.Fields{
			"section": p.section,
			"line":    line,
		}).Debugln("sdppatch: rejected line")
		return
	case verdictRewrite:
		p.out.WriteString(result.replacement)
	default:
		p.out.WriteString(line)
	}
	p.out.WriteString("\r\n")
}
