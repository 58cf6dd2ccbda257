/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package sdppatch

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allModes = []Mode{ModeLocalAnswerOrRemote, ModeLocalOffer}

func sdpLines(lines ...string) string {
	return strings.Join(lines, "\r\n") + "\r\n"
}

func patchAll(t *testing.T, patcher *Patcher, input, expected string) {
	t.Helper()
	for _, mode := range allModes {
		result, err := patcher.Patch(mode, input)
		require.NoError(t, err, mode.String())
		assert.Equal(t, expected, result, mode.String())
	}
}

func TestPatchForceCBR(t *testing.T) {
	input := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"a=fmtp:111 minptime=10;cbr=0;useinbandfec=1",
	)
	expected := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"a=fmtp:111 minptime=10;useinbandfec=1;stereo=0;sprop-stereo=0;cbr=1",
	)
	patchAll(t, New(nil), input, expected)
}

func TestPatchFmtpWithoutValues(t *testing.T) {
	input := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"a=fmtp:111 minptime=10;cbr0;useinbandfec=1",
		"a=fmtp:1337 cat=yes;duck=no",
	)
	expected := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"a=fmtp:111 minptime=10;cbr0;useinbandfec=1;stereo=0;sprop-stereo=0;cbr=1",
	)
	patchAll(t, New(nil), input, expected)
}

func TestPatchFmtpForcedKeys(t *testing.T) {
	input := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"a=fmtp:111 stereo=1;;sprop-stereo=1;cbr;minptime=10;",
	)
	expected := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"a=fmtp:111 minptime=10;stereo=0;sprop-stereo=0;cbr=1",
	)
	patchAll(t, New(nil), input, expected)
}

func TestPatchDropsNonOpusFmtp(t *testing.T) {
	input := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"a=fmtp:1337 cat=yes;duck=no",
		"a=fmtp:111 minptime=10;useinbandfec=1",
	)
	expected := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"a=fmtp:111 minptime=10;useinbandfec=1;stereo=0;sprop-stereo=0;cbr=1",
	)
	patchAll(t, New(nil), input, expected)
}

func TestPatchFmtpWithSpacedParams(t *testing.T) {
	input := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111 0",
		"a=rtpmap:111 opus/48000/2",
		"a=rtpmap:0 PCMU/8000",
		"a=fmtp:111 useinbandfec=1; stereo=1; minptime=10",
		"a=fmtp:0 foo=1; bar=2",
	)
	expected := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"a=fmtp:111 useinbandfec=1;minptime=10;stereo=0;sprop-stereo=0;cbr=1",
	)
	patchAll(t, New(nil), input, expected)
}

func TestPatchWithoutOpus(t *testing.T) {
	input := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 popus/48000/2",
		"a=urn:ietf:params:rtp-hdrext:ssrc-audio-level",
		"a=fmtp:111 minptime=10;cbr0;useinbandfec=1",
	)
	for _, mode := range allModes {
		result, err := New(nil).Patch(mode, input)
		assert.True(t, errors.Is(err, ErrOpusNotFound), mode.String())
		assert.True(t, errors.Is(err, ErrInvalidSDP), mode.String())
		assert.Empty(t, result)
	}
}

func TestPatchWithoutOpusPayloadType(t *testing.T) {
	input := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 1337",
		"a=rtpmap:111 opus/48000/2",
	)
	for _, mode := range allModes {
		result, err := New(nil).Patch(mode, input)
		assert.True(t, errors.Is(err, ErrOpusNotInAudioSection), mode.String())
		assert.True(t, errors.Is(err, ErrInvalidSDP), mode.String())
		assert.Empty(t, result)
	}
}

func TestPatchStripsUnknownMedia(t *testing.T) {
	input := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"m=everything in plain text over the wire kthx",
		"a=plaintext OH YES YES YES",
		"a=moar-plaintext",
		"m=application 9 UDP/DTLS/SCTP webrtc-datachannel",
		"a=sctp-port:5000",
		"m=the-train-protocol",
		"a=choo-chooo",
	)
	expected := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"m=application 9 UDP/DTLS/SCTP webrtc-datachannel",
		"a=sctp-port:5000",
	)
	patchAll(t, New(nil), input, expected)
}

func TestPatchStripsConsecutiveUnknownMedia(t *testing.T) {
	input := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"m=text 9 RTP/AVP 98",
		"a=rtpmap:98 t140/1000",
		"m=message 9 TCP/MSRP *",
		"a=accept-types:text/plain",
		"m=application 9 UDP/DTLS/SCTP webrtc-datachannel",
		"a=sctp-port:5000",
	)
	expected := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"m=application 9 UDP/DTLS/SCTP webrtc-datachannel",
		"a=sctp-port:5000",
	)
	patchAll(t, New(nil), input, expected)
}

func TestPatchKeepsDataChannel(t *testing.T) {
	input := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"m=application 9 UDP/DTLS/SCTP webrtc-datachannel",
		"a=sctp-port:5000",
	)
	patchAll(t, New(nil), input, input)
}

func encryptedExtensions(ids ...string) []string {
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf("a=extmap:%s urn:ietf:params:rtp-hdrext:encrypt %s", id, id))
	}
	return lines
}

var fourteenExtensionIDs = []string{"6-1", "6-2", "5", "3", "1", "7", "8", "9", "11", "10", "12", "15", "19", "1337387126438213678123681273618"}

func audioOnly(lines ...string) string {
	return sdpLines(append([]string{
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
	}, lines...)...)
}

func TestPatchWithHeaderExtensionsDisabled(t *testing.T) {
	input := audioOnly(encryptedExtensions(fourteenExtensionIDs...)...)
	expected := audioOnly()

	patchAll(t, New(&Config{HeaderExtensions: HeaderExtensionsDisable}), input, expected)
	patchAll(t, New(nil), input, expected)
}

func TestPatchOneByteReassignsIDs(t *testing.T) {
	input := audioOnly(encryptedExtensions(fourteenExtensionIDs...)...)

	var lines []string
	for idx, id := range fourteenExtensionIDs {
		lines = append(lines, fmt.Sprintf("a=extmap:%d urn:ietf:params:rtp-hdrext:encrypt %s", idx+1, id))
	}
	expected := audioOnly(lines...)

	result, err := New(&Config{HeaderExtensions: HeaderExtensionsOneByte}).Patch(ModeLocalOffer, input)
	require.NoError(t, err)
	assert.Equal(t, expected, result)
}

func TestPatchOneByteMoreThan14(t *testing.T) {
	ids := append(append([]string{}, fourteenExtensionIDs...), "20")
	input := audioOnly(encryptedExtensions(ids...)...)
	patcher := New(&Config{HeaderExtensions: HeaderExtensionsOneByte})

	result, err := patcher.Patch(ModeLocalOffer, input)
	assert.True(t, errors.Is(err, ErrExtensionIDsExhausted))
	assert.Empty(t, result)

	// No limit without renumbering.
	input = audioOnly(encryptedExtensions(append(ids, "20")...)...)
	result, err = patcher.Patch(ModeLocalAnswerOrRemote, input)
	require.NoError(t, err)
	assert.Equal(t, input, result)
}

func mixedModeExtensions(count int) []string {
	lines := make([]string, 0, count)
	for idx := 0; idx < count; idx++ {
		lines = append(lines, fmt.Sprintf("a=extmap:%d urn:ietf:params:rtp-hdrext:encrypt %d", (idx*37)%300+1, idx))
	}
	return lines
}

func TestPatchMixedModeReassignsIDs(t *testing.T) {
	input := audioOnly(mixedModeExtensions(254)...)

	var lines []string
	id := 0
	for idx := 0; idx < 254; idx++ {
		id++
		if id == 15 {
			id++
		}
		lines = append(lines, fmt.Sprintf("a=extmap:%d urn:ietf:params:rtp-hdrext:encrypt %d", id, idx))
	}
	expected := audioOnly(lines...)

	result, err := New(&Config{HeaderExtensions: HeaderExtensionsOneAndTwoByte}).Patch(ModeLocalOffer, input)
	require.NoError(t, err)
	assert.Equal(t, expected, result)
	assert.Contains(t, result, "a=extmap:255 urn:ietf:params:rtp-hdrext:encrypt 253\r\n")
	assert.NotContains(t, result, "a=extmap:15 ")
}

func TestPatchMixedModeMoreThan254(t *testing.T) {
	input := audioOnly(mixedModeExtensions(257)...)
	patcher := New(&Config{HeaderExtensions: HeaderExtensionsOneAndTwoByte})

	_, err := patcher.Patch(ModeLocalOffer, input)
	assert.True(t, errors.Is(err, ErrExtensionIDsExhausted))

	result, err := patcher.Patch(ModeLocalAnswerOrRemote, input)
	require.NoError(t, err)
	assert.Equal(t, input, result)
}

func TestPatchExtensionIDsStableAcrossSections(t *testing.T) {
	input := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"a=extmap:17 urn:ietf:params:rtp-hdrext:encrypt urn:ietf:params:rtp-hdrext:sdes:mid",
		"a=extmap:16 urn:ietf:params:rtp-hdrext:encrypt http://www.ietf.org/id/draft-holmer-rmcat-transport-wide-cc-extensions-01",
		"m=video 9 UDP/TLS/RTP/SAVPF 96",
		"a=extmap:16 urn:ietf:params:rtp-hdrext:encrypt http://www.ietf.org/id/draft-holmer-rmcat-transport-wide-cc-extensions-01",
		"a=extmap:20 urn:ietf:params:rtp-hdrext:encrypt urn:3gpp:video-orientation",
		"a=extmap:17 urn:ietf:params:rtp-hdrext:encrypt urn:ietf:params:rtp-hdrext:sdes:mid",
	)
	expected := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"a=extmap:1 urn:ietf:params:rtp-hdrext:encrypt urn:ietf:params:rtp-hdrext:sdes:mid",
		"a=extmap:2 urn:ietf:params:rtp-hdrext:encrypt http://www.ietf.org/id/draft-holmer-rmcat-transport-wide-cc-extensions-01",
		"m=video 9 UDP/TLS/RTP/SAVPF 96",
		"a=extmap:2 urn:ietf:params:rtp-hdrext:encrypt http://www.ietf.org/id/draft-holmer-rmcat-transport-wide-cc-extensions-01",
		"a=extmap:3 urn:ietf:params:rtp-hdrext:encrypt urn:3gpp:video-orientation",
		"a=extmap:1 urn:ietf:params:rtp-hdrext:encrypt urn:ietf:params:rtp-hdrext:sdes:mid",
	)

	result, err := New(&Config{HeaderExtensions: HeaderExtensionsOneByte}).Patch(ModeLocalOffer, input)
	require.NoError(t, err)
	assert.Equal(t, expected, result)
}

func TestPatchExtmapAllowMixed(t *testing.T) {
	input := sdpLines(
		"v=0",
		"a=extmap-allow-mixed",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"a=extmap-allow-mixed",
		"m=video whatever",
		"a=extmap-allow-mixed",
		"a=extmap-allow-mixed",
		"m=application 9 UDP/DTLS/SCTP webrtc-datachannel",
		"a=extmap-allow-mixed",
		"a=sctp-port:5000",
	)
	stripped := sdpLines(
		"v=0",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"a=rtpmap:111 opus/48000/2",
		"m=video whatever",
		"m=application 9 UDP/DTLS/SCTP webrtc-datachannel",
		"a=extmap-allow-mixed",
		"a=sctp-port:5000",
	)

	patchAll(t, New(&Config{HeaderExtensions: HeaderExtensionsOneByte}), input, stripped)
	patchAll(t, New(nil), input, stripped)
	patchAll(t, New(&Config{HeaderExtensions: HeaderExtensionsOneAndTwoByte}), input, input)
}

func TestPatchStripsUnencryptedExtensions(t *testing.T) {
	input := audioOnly(
		"a=extmap:4 urn:ietf:params:rtp-hdrext:sdes:mid",
		"a=extmap:5 urn:ietf:params:rtp-hdrext:sdes:rtp-stream-id",
		"a=extmap:6 urn:ietf:params:rtp-hdrext:sdes:repaired-rtp-stream-id",
		"a=extmap:7 duck-noises",
		"a=extmap:8 urn:ietf:params:rtp-hdrext:encrypt encrypted-duck-noises",
	)
	verbatim := audioOnly("a=extmap:8 urn:ietf:params:rtp-hdrext:encrypt encrypted-duck-noises")
	renumbered := audioOnly("a=extmap:1 urn:ietf:params:rtp-hdrext:encrypt encrypted-duck-noises")

	for _, policy := range []HeaderExtensionPolicy{HeaderExtensionsOneByte, HeaderExtensionsOneAndTwoByte} {
		patcher := New(&Config{HeaderExtensions: policy})

		result, err := patcher.Patch(ModeLocalAnswerOrRemote, input)
		require.NoError(t, err)
		assert.Equal(t, verbatim, result, policy.String())

		result, err = patcher.Patch(ModeLocalOffer, input)
		require.NoError(t, err)
		assert.Equal(t, renumbered, result, policy.String())
	}
}

func TestPatchStripsDeniedExtensions(t *testing.T) {
	input := audioOnly(
		"a=extmap:1 urn:ietf:params:rtp-hdrext:encrypt urn:ietf:params:rtp-hdrext:ssrc-audio-level",
		"a=extmap:2 urn:ietf:params:rtp-hdrext:encrypt urn:ietf:params:rtp-hdrext:csrc-audio-level",
		"a=extmap:3 urn:ietf:params:rtp-hdrext:encrypt http://tools.ietf.org/html/draft-ietf-avtext-framemarking-07",
		"a=extmap:4 urn:ietf:params:rtp-hdrext:encrypt urn:ietf:params:rtp-hdrext:framemarking",
		"a=extmap:5 urn:ietf:params:rtp-hdrext:encrypt urn:ietf:params:rtp-hdrext:sdes:mid",
	)
	expected := audioOnly("a=extmap:1 urn:ietf:params:rtp-hdrext:encrypt urn:ietf:params:rtp-hdrext:sdes:mid")

	result, err := New(&Config{HeaderExtensions: HeaderExtensionsOneAndTwoByte}).Patch(ModeLocalOffer, input)
	require.NoError(t, err)
	assert.Equal(t, expected, result)
}

const legacyAudioOnlySDP = "v=0\r\n" +
	"o=- 8329341859617817285 2 IN IP4 127.0.0.1\r\n" +
	"s=-\r\n" +
	"t=0 0\r\n" +
	"a=group:BUNDLE audio\r\n" +
	"a=extmap-allow-mixed\r\n" +
	"a=msid-semantic: WMS 3MACALL\r\n" +
	"m=audio 9 UDP/TLS/RTP/SAVPF 111 103 9 102 0 8 105 13 110 113 126\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=rtcp:9 IN IP4 0.0.0.0\r\n" +
	"a=ice-ufrag:hFGR\r\n" +
	"a=ice-pwd:HPszOFM6RDZWdhZ3PpPQ7w1H\r\n" +
	"a=ice-options:renomination\r\n" +
	"a=setup:active\r\n" +
	"a=mid:audio\r\n" +
	"a=extmap:1 urn:ietf:params:rtp-hdrext:ssrc-audio-level\r\n" +
	"a=extmap:2 urn:ietf:params:rtp-hdrext:csrc-audio-level\r\n" +
	"a=extmap:3 my-cool-extension-we-absolutely-want-to-have\r\n" +
	"a=extmap:5 urn:ietf:params:rtp-hdrext:encrypt urn:ietf:params:rtp-hdrext:ssrc-audio-level\r\n" +
	"a=extmap:6 urn:ietf:params:rtp-hdrext:encrypt urn:ietf:params:rtp-hdrext:csrc-audio-level\r\n" +
	"a=extmap:9 urn:ietf:params:rtp-hdrext:encrypt my-cool-extension-we-absolutely-want-to-have\r\n" +
	"a=sendrecv\r\n" +
	"a=rtcp-mux\r\n" +
	"a=rtpmap:111 opus/48000/2\r\n" +
	"a=rtcp-fb:111 transport-cc\r\n" +
	"a=fmtp:111 minptime=10;useinbandfec=1\r\n" +
	"a=rtpmap:103 ISAC/16000\r\n" +
	"a=rtpmap:9 G722/8000\r\n" +
	"a=rtpmap:102 ILBC/8000\r\n" +
	"a=rtpmap:0 PCMU/8000\r\n" +
	"a=rtpmap:8 PCMA/8000\r\n" +
	"a=rtpmap:105 CN/16000\r\n" +
	"a=rtpmap:13 CN/8000\r\n" +
	"a=rtpmap:110 telephone-event/48000\r\n" +
	"a=rtpmap:113 telephone-event/16000\r\n" +
	"a=rtpmap:126 telephone-event/8000\r\n" +
	"a=ssrc:2080079676 cname:Jb5aR24iJnFDp6OS\r\n" +
	"a=ssrc:2080079676 msid:3MACALL 3MACALLa0\r\n"

func TestPatchLegacyAudioOnly(t *testing.T) {
	expected := "v=0\r\n" +
		"o=- 8329341859617817285 2 IN IP4 127.0.0.1\r\n" +
		"s=-\r\n" +
		"t=0 0\r\n" +
		"a=group:BUNDLE audio\r\n" +
		"a=msid-semantic: WMS 3MACALL\r\n" +
		"m=audio 9 UDP/TLS/RTP/SAVPF 111\r\n" +
		"c=IN IP4 0.0.0.0\r\n" +
		"a=rtcp:9 IN IP4 0.0.0.0\r\n" +
		"a=ice-ufrag:hFGR\r\n" +
		"a=ice-pwd:HPszOFM6RDZWdhZ3PpPQ7w1H\r\n" +
		"a=ice-options:renomination\r\n" +
		"a=setup:active\r\n" +
		"a=mid:audio\r\n" +
		"a=sendrecv\r\n" +
		"a=rtcp-mux\r\n" +
		"a=rtpmap:111 opus/48000/2\r\n" +
		"a=rtcp-fb:111 transport-cc\r\n" +
		"a=fmtp:111 minptime=10;useinbandfec=1;stereo=0;sprop-stereo=0;cbr=1\r\n" +
		"a=ssrc:2080079676 cname:Jb5aR24iJnFDp6OS\r\n" +
		"a=ssrc:2080079676 msid:3MACALL 3MACALLa0\r\n"

	patchAll(t, New(&Config{HeaderExtensions: HeaderExtensionsDisable}), legacyAudioOnlySDP, expected)

	result, err := New(&Config{HeaderExtensions: HeaderExtensionsOneByte}).Patch(ModeLocalOffer, legacyAudioOnlySDP)
	require.NoError(t, err)
	assert.Contains(t, result, "a=mid:audio\r\na=extmap:1 urn:ietf:params:rtp-hdrext:encrypt my-cool-extension-we-absolutely-want-to-have\r\n")
	assert.Equal(t, 1, strings.Count(result, "a=extmap:"))
}

func TestPatchLineTerminators(t *testing.T) {
	expected := audioOnly("a=sendrecv")
	for name, input := range map[string]string{
		"lf":           "v=0\nm=audio 9 UDP/TLS/RTP/SAVPF 111\na=rtpmap:111 opus/48000/2\na=sendrecv\n",
		"cr":           "v=0\rm=audio 9 UDP/TLS/RTP/SAVPF 111\ra=rtpmap:111 opus/48000/2\ra=sendrecv\r",
		"mixed":        "v=0\r\nm=audio 9 UDP/TLS/RTP/SAVPF 111\na=rtpmap:111 opus/48000/2\ra=sendrecv",
		"unterminated": "v=0\r\nm=audio 9 UDP/TLS/RTP/SAVPF 111\r\na=rtpmap:111 opus/48000/2\r\na=sendrecv",
	} {
		result, err := New(nil).Patch(ModeLocalOffer, input)
		require.NoError(t, err, name)
		assert.Equal(t, expected, result, name)
	}
}

func TestPatchKeepsEmptyLines(t *testing.T) {
	input := "v=0\r\n\r\nm=audio 9 UDP/TLS/RTP/SAVPF 111\r\na=rtpmap:111 opus/48000/2\r\n"
	result, err := New(nil).Patch(ModeLocalOffer, input)
	require.NoError(t, err)
	assert.Equal(t, input, result)
}

func TestPatchUnknownSectionUntilEndOfInput(t *testing.T) {
	input := audioOnly("m=text 9 RTP/AVP 98", "a=rtpmap:98 t140/1000")
	result, err := New(nil).Patch(ModeLocalAnswerOrRemote, input)
	require.NoError(t, err)
	assert.Equal(t, audioOnly(), result)
}

func TestPatchIsDeterministic(t *testing.T) {
	patcher := New(&Config{HeaderExtensions: HeaderExtensionsOneByte})
	first, err := patcher.Patch(ModeLocalOffer, legacyAudioOnlySDP)
	require.NoError(t, err)
	second, err := patcher.Patch(ModeLocalOffer, legacyAudioOnlySDP)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Output of a patch is stable when patched again as remote description.
	third, err := patcher.Patch(ModeLocalAnswerOrRemote, first)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestPatchLogsRejectedLines(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	_, err := New(&Config{Logger: logger}).Patch(ModeLocalOffer, audioOnly("a=rtpmap:0 PCMU/8000", "m=text 9 RTP/AVP 98"))
	require.NoError(t, err)

	var messages []string
	for _, entry := range hook.AllEntries() {
		messages = append(messages, entry.Message)
	}
	assert.Contains(t, messages, "sdppatch: rejected line")
	assert.Contains(t, messages, "sdppatch: rejected section runs until end of input")
}

func TestWithHeaderExtensions(t *testing.T) {
	patcher := New(nil)
	mixed := patcher.WithHeaderExtensions(HeaderExtensionsOneAndTwoByte)
	assert.Equal(t, HeaderExtensionsDisable, patcher.HeaderExtensions())
	assert.Equal(t, HeaderExtensionsOneAndTwoByte, mixed.HeaderExtensions())
}

func TestPatchMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	patcher := New(&Config{Metrics: metrics})
	_, err = patcher.Patch(ModeLocalOffer, audioOnly("a=rtpmap:0 PCMU/8000"))
	require.NoError(t, err)
	_, err = patcher.Patch(ModeLocalAnswerOrRemote, "v=0\r\n")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.patches.WithLabelValues("local-offer", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.patches.WithLabelValues("local-answer-or-remote", "opus-not-found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.verdicts.WithLabelValues("audio", "reject")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.verdicts.WithLabelValues("audio", "rewrite")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.verdicts.WithLabelValues("audio", "accept")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.verdicts.WithLabelValues("global", "accept")))
}
