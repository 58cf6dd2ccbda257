/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package sdppatch

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects counters about patch invocations. A nil Metrics is valid
// and records nothing.
type Metrics struct {
	patches  *prometheus.CounterVec
	verdicts *prometheus.CounterVec
}

// NewMetrics creates the patch metrics and registers them with the provided
// registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		patches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patches_total",
			Help: "Total number of session description patch invocations",
		}, []string{"mode", "result"}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "line_verdicts_total",
			Help: "Total number of session description lines per section and verdict",
		}, []string{"section", "verdict"}),
	}

	for _, collector := range []prometheus.Collector{m.patches, m.verdicts} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) observePatch(mode Mode, err error) {
	if m == nil {
		return
	}
	m.patches.WithLabelValues(mode.String(), resultLabel(err)).Inc()
}

func (m *Metrics) observeVerdict(s section, v verdict) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(s.String(), v.String()).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrOpusNotFound):
		return "opus-not-found"
	case errors.Is(err, ErrOpusNotInAudioSection):
		return "opus-not-in-audio-section"
	case errors.Is(err, ErrExtensionIDsExhausted):
		return "extension-ids-exhausted"
	default:
		return "error"
	}
}
