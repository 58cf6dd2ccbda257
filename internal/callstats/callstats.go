/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

// Package callstats extracts the interesting bits of WebRTC statistics
// reports of a call.
package callstats

import (
	"sort"
	"time"

	"github.com/pion/webrtc/v4"
)

// Minimum time between two states to calculate bitrates.
const minBitrateInterval = 100 * time.Millisecond

// Options select what gets extracted from a report.
type Options struct {
	SelectedCandidatePair bool
	CandidatePairs        bool
	Transport             bool
	RTP                   bool
	Codecs                bool
}

// AllOptions selects everything.
var AllOptions = Options{
	SelectedCandidatePair: true,
	CandidatePairs:        true,
	Transport:             true,
	RTP:                   true,
	Codecs:                true,
}

// State is kept to compare a subsequent report with.
type State struct {
	Timestamp          time.Time `json:"timestamp"`
	VideoBytesSent     *uint64   `json:"videoBytesSent,omitempty"`
	VideoBytesReceived *uint64   `json:"videoBytesReceived,omitempty"`
}

// Extractor creates snapshots from stats reports.
type Extractor struct {
	options  Options
	previous *State
}

// NewExtractor creates an Extractor with the provided options.
func NewExtractor(options Options) *Extractor {
	return &Extractor{
		options: options,
	}
}

// ComparedTo returns a copy of the Extractor which calculates bitrates
// against the provided previous state.
func (e *Extractor) ComparedTo(previous *State) *Extractor {
	extractor := *e
	extractor.previous = previous
	return &extractor
}

// Candidate is a local or remote ICE candidate.
type Candidate struct {
	ID            string `json:"id"`
	Address       string `json:"address"`
	Port          int    `json:"port"`
	Protocol      string `json:"protocol"`
	Type          string `json:"type"`
	NetworkType   string `json:"networkType,omitempty"`
	RelayProtocol string `json:"relayProtocol,omitempty"`
}

// IsRelay returns true for TURN relay candidates.
func (c *Candidate) IsRelay() bool {
	return c.Type == webrtc.ICECandidateTypeRelay.String()
}

// CandidatePair is an ICE candidate pair.
type CandidatePair struct {
	ID                       string     `json:"id"`
	State                    string     `json:"state"`
	Nominated                bool       `json:"nominated"`
	Local                    *Candidate `json:"local,omitempty"`
	Remote                   *Candidate `json:"remote,omitempty"`
	CurrentRoundTripTime     float64    `json:"currentRoundTripTime"`
	TotalRoundTripTime       float64    `json:"totalRoundTripTime"`
	ResponsesReceived        uint64     `json:"responsesReceived"`
	AvailableOutgoingBitrate float64    `json:"availableOutgoingBitrate"`
	BytesSent                uint64     `json:"bytesSent"`
	BytesReceived            uint64     `json:"bytesReceived"`
	UsesRelay                bool       `json:"usesRelay"`
}

// Transport describes the DTLS transport.
type Transport struct {
	ID                      string `json:"id"`
	DTLSState               string `json:"dtlsState"`
	ICEState                string `json:"iceState"`
	DTLSCipher              string `json:"dtlsCipher,omitempty"`
	SRTPCipher              string `json:"srtpCipher,omitempty"`
	SelectedCandidatePairID string `json:"selectedCandidatePairId,omitempty"`
	BytesSent               uint64 `json:"bytesSent"`
	BytesReceived           uint64 `json:"bytesReceived"`
}

// Codec is a negotiated codec.
type Codec struct {
	ID          string `json:"id"`
	PayloadType uint8  `json:"payloadType"`
	MimeType    string `json:"mimeType"`
	ClockRate   uint32 `json:"clockRate"`
	Channels    uint16 `json:"channels,omitempty"`
	SDPFmtpLine string `json:"sdpFmtpLine,omitempty"`
}

// RTP describes an inbound or outbound RTP stream.
type RTP struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Codec *Codec `json:"codec,omitempty"`

	PacketsTotal uint64 `json:"packetsTotal"`
	BytesTotal   uint64 `json:"bytesTotal"`

	// Inbound only.
	PacketsLost       int64    `json:"packetsLost,omitempty"`
	PacketLossPercent *float64 `json:"packetLossPercent,omitempty"`
	Jitter            float64  `json:"jitter,omitempty"`
	FramesDecoded     uint64   `json:"framesDecoded,omitempty"`

	// Outbound only.
	FramesPerSecond         float64 `json:"framesPerSecond,omitempty"`
	QualityLimitationReason string  `json:"qualityLimitationReason,omitempty"`

	FrameWidth  uint32 `json:"frameWidth,omitempty"`
	FrameHeight uint32 `json:"frameHeight,omitempty"`

	// Bitrate in bits per second, video only and only when compared to a
	// previous state.
	Bitrate *float64 `json:"bitrate,omitempty"`
}

// Snapshot holds the extracted values of one stats report.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	SelectedCandidatePair *CandidatePair    `json:"selectedCandidatePair,omitempty"`
	CandidatePairs        []*CandidatePair  `json:"candidatePairs,omitempty"`
	Transport             *Transport        `json:"transport,omitempty"`
	Codecs                map[string]*Codec `json:"codecs,omitempty"`

	InboundAudio  *RTP `json:"inboundAudio,omitempty"`
	InboundVideo  *RTP `json:"inboundVideo,omitempty"`
	OutboundAudio *RTP `json:"outboundAudio,omitempty"`
	OutboundVideo *RTP `json:"outboundVideo,omitempty"`
}

// UsesRelay returns true if the local or the remote candidate of the
// selected candidate pair is a relay candidate.
func (s *Snapshot) UsesRelay() bool {
	return s.SelectedCandidatePair != nil && s.SelectedCandidatePair.UsesRelay
}

// State returns the state to compare a subsequent snapshot with.
func (s *Snapshot) State() *State {
	state := &State{
		Timestamp: s.Timestamp,
	}
	if s.OutboundVideo != nil {
		sent := s.OutboundVideo.BytesTotal
		state.VideoBytesSent = &sent
	}
	if s.InboundVideo != nil {
		received := s.InboundVideo.BytesTotal
		state.VideoBytesReceived = &received
	}
	return state
}

// Extract creates a Snapshot from the provided report.
func (e *Extractor) Extract(report webrtc.StatsReport) *Snapshot {
	snapshot := &Snapshot{}

	codecs := make(map[string]*Codec)
	for _, entry := range report {
		if s, ok := entry.(webrtc.CodecStats); ok {
			codecs[s.ID] = newCodec(s)
			snapshot.observeTimestamp(s.Timestamp)
		}
	}
	if e.options.Codecs && len(codecs) > 0 {
		snapshot.Codecs = codecs
	}

	var inboundVideo, outboundVideo *RTP
	for _, entry := range report {
		switch s := entry.(type) {
		case webrtc.ICECandidatePairStats:
			snapshot.observeTimestamp(s.Timestamp)
			if e.options.CandidatePairs {
				snapshot.CandidatePairs = append(snapshot.CandidatePairs, newCandidatePair(report, s))
			}

		case webrtc.TransportStats:
			snapshot.observeTimestamp(s.Timestamp)
			if e.options.Transport {
				snapshot.Transport = newTransport(s)
			}
			if e.options.SelectedCandidatePair {
				if pair, ok := report[s.SelectedCandidatePairID].(webrtc.ICECandidatePairStats); ok {
					snapshot.SelectedCandidatePair = newCandidatePair(report, pair)
				}
			}

		case webrtc.InboundRTPStreamStats:
			snapshot.observeTimestamp(s.Timestamp)
			if !e.options.RTP {
				continue
			}
			rtp := newInboundRTP(s, codecs)
			switch s.Kind {
			case "audio":
				snapshot.InboundAudio = rtp
			case "video":
				snapshot.InboundVideo = rtp
				inboundVideo = rtp
			}

		case webrtc.OutboundRTPStreamStats:
			snapshot.observeTimestamp(s.Timestamp)
			if !e.options.RTP {
				continue
			}
			rtp := newOutboundRTP(s, codecs)
			switch s.Kind {
			case "audio":
				snapshot.OutboundAudio = rtp
			case "video":
				snapshot.OutboundVideo = rtp
				outboundVideo = rtp
			}
		}
	}

	sort.Slice(snapshot.CandidatePairs, func(i, j int) bool {
		return snapshot.CandidatePairs[i].ID < snapshot.CandidatePairs[j].ID
	})

	if e.previous != nil {
		if inboundVideo != nil && e.previous.VideoBytesReceived != nil {
			inboundVideo.Bitrate = bitrate(e.previous.Timestamp, *e.previous.VideoBytesReceived, snapshot.Timestamp, inboundVideo.BytesTotal)
		}
		if outboundVideo != nil && e.previous.VideoBytesSent != nil {
			outboundVideo.Bitrate = bitrate(e.previous.Timestamp, *e.previous.VideoBytesSent, snapshot.Timestamp, outboundVideo.BytesTotal)
		}
	}

	return snapshot
}

func (s *Snapshot) observeTimestamp(ts webrtc.StatsTimestamp) {
	t := ts.Time()
	if t.After(s.Timestamp) {
		s.Timestamp = t
	}
}

// bitrate returns the bitrate in bits per second between two states. It
// returns nil when the states are too close together or out of order.
func bitrate(previous time.Time, previousBytes uint64, current time.Time, currentBytes uint64) *float64 {
	elapsed := current.Sub(previous)
	if elapsed < minBitrateInterval || currentBytes < previousBytes {
		return nil
	}
	value := float64(8*(currentBytes-previousBytes)) / elapsed.Seconds()
	return &value
}

func newCandidate(report webrtc.StatsReport, id string) *Candidate {
	s, ok := report[id].(webrtc.ICECandidateStats)
	if !ok {
		return nil
	}
	return &Candidate{
		ID:            s.ID,
		Address:       s.IP,
		Port:          int(s.Port),
		Protocol:      s.Protocol,
		Type:          s.CandidateType.String(),
		NetworkType:   string(s.NetworkType),
		RelayProtocol: s.RelayProtocol,
	}
}

func newCandidatePair(report webrtc.StatsReport, s webrtc.ICECandidatePairStats) *CandidatePair {
	pair := &CandidatePair{
		ID:                       s.ID,
		State:                    string(s.State),
		Nominated:                s.Nominated,
		Local:                    newCandidate(report, s.LocalCandidateID),
		Remote:                   newCandidate(report, s.RemoteCandidateID),
		CurrentRoundTripTime:     float64(s.CurrentRoundTripTime),
		TotalRoundTripTime:       float64(s.TotalRoundTripTime),
		ResponsesReceived:        uint64(s.ResponsesReceived),
		AvailableOutgoingBitrate: float64(s.AvailableOutgoingBitrate),
		BytesSent:                uint64(s.BytesSent),
		BytesReceived:            uint64(s.BytesReceived),
	}
	pair.UsesRelay = (pair.Local != nil && pair.Local.IsRelay()) || (pair.Remote != nil && pair.Remote.IsRelay())
	return pair
}

func newTransport(s webrtc.TransportStats) *Transport {
	return &Transport{
		ID:                      s.ID,
		DTLSState:               s.DTLSState.String(),
		ICEState:                s.ICEState.String(),
		DTLSCipher:              s.DTLSCipher,
		SRTPCipher:              s.SRTPCipher,
		SelectedCandidatePairID: s.SelectedCandidatePairID,
		BytesSent:               uint64(s.BytesSent),
		BytesReceived:           uint64(s.BytesReceived),
	}
}

func newCodec(s webrtc.CodecStats) *Codec {
	return &Codec{
		ID:          s.ID,
		PayloadType: uint8(s.PayloadType),
		MimeType:    s.MimeType,
		ClockRate:   uint32(s.ClockRate),
		Channels:    uint16(s.Channels),
		SDPFmtpLine: s.SDPFmtpLine,
	}
}

func newInboundRTP(s webrtc.InboundRTPStreamStats, codecs map[string]*Codec) *RTP {
	rtp := &RTP{
		ID:            s.ID,
		Kind:          string(s.Kind),
		Codec:         codecs[s.CodecID],
		PacketsTotal:  uint64(s.PacketsReceived),
		BytesTotal:    uint64(s.BytesReceived),
		PacketsLost:   int64(s.PacketsLost),
		Jitter:        float64(s.Jitter),
		FramesDecoded: uint64(s.FramesDecoded),
		FrameWidth:    uint32(s.FrameWidth),
		FrameHeight:   uint32(s.FrameHeight),
	}
	if rtp.PacketsTotal > 0 {
		loss := 0.0
		if rtp.PacketsLost > 0 {
			loss = float64(rtp.PacketsLost) / float64(rtp.PacketsTotal) * 100
		}
		rtp.PacketLossPercent = &loss
	}
	return rtp
}

func newOutboundRTP(s webrtc.OutboundRTPStreamStats, codecs map[string]*Codec) *RTP {
	return &RTP{
		ID:                      s.ID,
		Kind:                    string(s.Kind),
		Codec:                   codecs[s.CodecID],
		PacketsTotal:            uint64(s.PacketsSent),
		BytesTotal:              uint64(s.BytesSent),
		FramesPerSecond:         float64(s.FramesPerSecond),
		QualityLimitationReason: string(s.QualityLimitationReason),
		FrameWidth:              uint32(s.FrameWidth),
		FrameHeight:             uint32(s.FrameHeight),
	}
}
