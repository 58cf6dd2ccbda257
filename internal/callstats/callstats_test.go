/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package callstats

import (
	"errors"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportTimestamp = 1688978831527.718

func testReport(localType webrtc.ICECandidateType, videoBytesSent uint64, ts webrtc.StatsTimestamp) webrtc.StatsReport {
	return webrtc.StatsReport{
		"T01": webrtc.TransportStats{
			Timestamp:               ts,
			Type:                    webrtc.StatsTypeTransport,
			ID:                      "T01",
			DTLSState:               webrtc.DTLSTransportStateConnected,
			ICEState:                webrtc.ICETransportStateConnected,
			SelectedCandidatePairID: "CP01",
			DTLSCipher:              "TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256",
			SRTPCipher:              "AES_CM_128_HMAC_SHA1_80",
		},
		"CP01": webrtc.ICECandidatePairStats{
			Timestamp:                ts,
			Type:                     webrtc.StatsTypeCandidatePair,
			ID:                       "CP01",
			TransportID:              "T01",
			LocalCandidateID:         "IL01",
			RemoteCandidateID:        "IR01",
			State:                    webrtc.StatsICECandidatePairStateSucceeded,
			Nominated:                true,
			CurrentRoundTripTime:     0.02,
			AvailableOutgoingBitrate: 1500000,
		},
		"IL01": webrtc.ICECandidateStats{
			Timestamp:     ts,
			Type:          webrtc.StatsTypeLocalCandidate,
			ID:            "IL01",
			IP:            "198.51.100.3",
			Port:          61000,
			Protocol:      "udp",
			CandidateType: localType,
		},
		"IR01": webrtc.ICECandidateStats{
			Timestamp:     ts,
			Type:          webrtc.StatsTypeRemoteCandidate,
			ID:            "IR01",
			IP:            "203.0.113.7",
			Port:          46154,
			Protocol:      "udp",
			CandidateType: webrtc.ICECandidateTypeHost,
		},
		"CO01": webrtc.CodecStats{
			Timestamp:   ts,
			Type:        webrtc.StatsTypeCodec,
			ID:          "CO01",
			PayloadType: 96,
			MimeType:    "video/VP8",
			ClockRate:   90000,
		},
		"OT01V": webrtc.OutboundRTPStreamStats{
			Timestamp:   ts,
			Type:        webrtc.StatsTypeOutboundRTP,
			ID:          "OT01V",
			Kind:        "video",
			CodecID:     "CO01",
			PacketsSent: 100,
			BytesSent:   videoBytesSent,
			FrameWidth:  1280,
			FrameHeight: 720,
		},
		"IT01A": webrtc.InboundRTPStreamStats{
			Timestamp:       ts,
			Type:            webrtc.StatsTypeInboundRTP,
			ID:              "IT01A",
			Kind:            "audio",
			PacketsReceived: 200,
			PacketsLost:     10,
			BytesReceived:   4000,
		},
	}
}

func TestExtract(t *testing.T) {
	snapshot := NewExtractor(AllOptions).Extract(testReport(webrtc.ICECandidateTypeHost, 1000, reportTimestamp))

	assert.Equal(t, webrtc.StatsTimestamp(reportTimestamp).Time(), snapshot.Timestamp)

	require.NotNil(t, snapshot.Transport)
	assert.Equal(t, "connected", snapshot.Transport.DTLSState)
	assert.Equal(t, "AES_CM_128_HMAC_SHA1_80", snapshot.Transport.SRTPCipher)

	pair := snapshot.SelectedCandidatePair
	require.NotNil(t, pair)
	assert.Equal(t, "succeeded", pair.State)
	assert.True(t, pair.Nominated)
	require.NotNil(t, pair.Local)
	require.NotNil(t, pair.Remote)
	assert.Equal(t, "198.51.100.3", pair.Local.Address)
	assert.Equal(t, 46154, pair.Remote.Port)
	assert.False(t, snapshot.UsesRelay())
	assert.Len(t, snapshot.CandidatePairs, 1)

	require.NotNil(t, snapshot.OutboundVideo)
	require.NotNil(t, snapshot.OutboundVideo.Codec)
	assert.Equal(t, "video/VP8", snapshot.OutboundVideo.Codec.MimeType)
	assert.Nil(t, snapshot.OutboundVideo.Bitrate)

	require.NotNil(t, snapshot.InboundAudio)
	require.NotNil(t, snapshot.InboundAudio.PacketLossPercent)
	assert.InDelta(t, 5.0, *snapshot.InboundAudio.PacketLossPercent, 0.001)
	assert.Nil(t, snapshot.InboundVideo)
}

func TestExtractRelay(t *testing.T) {
	snapshot := NewExtractor(AllOptions).Extract(testReport(webrtc.ICECandidateTypeRelay, 0, reportTimestamp))
	assert.True(t, snapshot.UsesRelay())
}

func TestExtractOptions(t *testing.T) {
	snapshot := NewExtractor(Options{SelectedCandidatePair: true}).Extract(testReport(webrtc.ICECandidateTypeRelay, 0, reportTimestamp))
	assert.True(t, snapshot.UsesRelay())
	assert.Nil(t, snapshot.Transport)
	assert.Nil(t, snapshot.OutboundVideo)
	assert.Empty(t, snapshot.CandidatePairs)
	assert.Empty(t, snapshot.Codecs)
}

func TestExtractComparedTo(t *testing.T) {
	extractor := NewExtractor(AllOptions)
	first := extractor.Extract(testReport(webrtc.ICECandidateTypeHost, 1000, reportTimestamp))
	state := first.State()
	require.NotNil(t, state.VideoBytesSent)
	assert.Equal(t, uint64(1000), *state.VideoBytesSent)
	assert.Nil(t, state.VideoBytesReceived)

	// One second later, 126000 bytes more.
	second := extractor.ComparedTo(state).Extract(testReport(webrtc.ICECandidateTypeHost, 127000, reportTimestamp+1000))
	require.NotNil(t, second.OutboundVideo.Bitrate)
	assert.InDelta(t, 1008000, *second.OutboundVideo.Bitrate, 100)

	// Too close together.
	third := extractor.ComparedTo(second.State()).Extract(testReport(webrtc.ICECandidateTypeHost, 128000, reportTimestamp+1050))
	assert.Nil(t, third.OutboundVideo.Bitrate)
}

func TestBitrate(t *testing.T) {
	now := time.Now()
	assert.Nil(t, bitrate(now, 0, now.Add(-time.Second), 1000))
	assert.Nil(t, bitrate(now, 2000, now.Add(time.Second), 1000))

	value := bitrate(now, 0, now.Add(2*time.Second), 1000)
	require.NotNil(t, value)
	assert.InDelta(t, 4000, *value, 0.001)
}

const reportJSON = `[
{
  "timestamp": 1688978831527.718,
  "type": "transport",
  "id": "T01",
  "bytesSent": 6517,
  "bytesReceived": 1159,
  "dtlsState": "connected",
  "iceState": "connected",
  "selectedCandidatePairId": "CP01"
},
{
  "timestamp": 1688978831527.718,
  "type": "candidate-pair",
  "id": "CP01",
  "transportId": "T01",
  "localCandidateId": "IL01",
  "remoteCandidateId": "IR01",
  "state": "succeeded",
  "nominated": true
},
{
  "timestamp": 1688978831527.718,
  "type": "local-candidate",
  "id": "IL01",
  "transportId": "T01",
  "ip": "198.51.100.3",
  "port": 61000,
  "protocol": "udp",
  "candidateType": "relay",
  "relayProtocol": "udp"
},
{
  "timestamp": 1688978831527.718,
  "type": "media-playout",
  "id": "AP"
}
]`

func TestParseReport(t *testing.T) {
	report, err := ParseReport([]byte(reportJSON))
	require.NoError(t, err)
	assert.Len(t, report, 3)

	snapshot := NewExtractor(AllOptions).Extract(report)
	assert.True(t, snapshot.UsesRelay())
	assert.Equal(t, uint64(6517), snapshot.Transport.BytesSent)
}

func TestParseReportKeyed(t *testing.T) {
	report, err := ParseReport([]byte(`{"T01": {"timestamp": 1688978831527.718, "type": "transport", "id": "T01", "dtlsState": "new", "iceState": "new"}}`))
	require.NoError(t, err)
	assert.Contains(t, report, "T01")
}

func TestParseReportErrors(t *testing.T) {
	_, err := ParseReport([]byte(`[]`))
	assert.True(t, errors.Is(err, ErrEmptyReport))

	_, err = ParseReport([]byte(`{`))
	assert.Error(t, err)
}
