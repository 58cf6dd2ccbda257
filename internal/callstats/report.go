/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package callstats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// ErrEmptyReport is returned when a report holds no stats.
var ErrEmptyReport = errors.New("empty stats report")

// ParseReport decodes a JSON stats report. Both the array form (as produced
// by JSON.stringify(Array.from(report.values()))) and the object form keyed
// by stats ID are accepted. Unknown stats types are skipped.
func ParseReport(data []byte) (webrtc.StatsReport, error) {
	var entries []json.RawMessage

	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(trimmed, []byte("[")):
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode stats report: %w", err)
		}
	default:
		keyed := make(map[string]json.RawMessage)
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			return nil, fmt.Errorf("failed to decode stats report: %w", err)
		}
		for _, entry := range keyed {
			entries = append(entries, entry)
		}
	}

	report := make(webrtc.StatsReport)
	for _, entry := range entries {
		var header struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		}
		if err := json.Unmarshal(entry, &header); err != nil {
			return nil, fmt.Errorf("failed to decode stats entry: %w", err)
		}
		if !isSupportedType(webrtc.StatsType(header.Type)) {
			continue
		}
		stats, err := webrtc.UnmarshalStatsJSON(entry)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s stats %q: %w", header.Type, header.ID, err)
		}
		report[header.ID] = stats
	}

	if len(report) == 0 {
		return nil, ErrEmptyReport
	}
	return report, nil
}

func isSupportedType(t webrtc.StatsType) bool {
	switch t {
	case webrtc.StatsTypeCodec,
		webrtc.StatsTypeCandidatePair,
		webrtc.StatsTypeLocalCandidate,
		webrtc.StatsTypeRemoteCandidate,
		webrtc.StatsTypeTransport,
		webrtc.StatsTypeInboundRTP,
		webrtc.StatsTypeOutboundRTP:
		return true
	}
	return false
}
