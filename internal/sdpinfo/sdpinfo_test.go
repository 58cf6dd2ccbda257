/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package sdpinfo

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const offer = "v=0\r\n" +
	"o=- 72507000979779968 2 IN IP4 127.0.0.1\r\n" +
	"s=-\r\n" +
	"t=0 0\r\n" +
	"a=group:BUNDLE 0 1 2\r\n" +
	"a=extmap-allow-mixed\r\n" +
	"m=audio 9 UDP/TLS/RTP/SAVPF 111\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=mid:0\r\n" +
	"a=extmap:1 urn:ietf:params:rtp-hdrext:encrypt urn:ietf:params:rtp-hdrext:sdes:mid\r\n" +
	"a=rtpmap:111 opus/48000/2\r\n" +
	"a=fmtp:111 minptime=10;useinbandfec=1;stereo=0;sprop-stereo=0;cbr=1\r\n" +
	"a=candidate:3 1 udp 41885439 198.51.100.3 61000 typ relay raddr 203.0.113.7 rport 46154\r\n" +
	"m=video 9 UDP/TLS/RTP/SAVPF 96 97\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=mid:1\r\n" +
	"a=extmap:1 urn:ietf:params:rtp-hdrext:encrypt urn:ietf:params:rtp-hdrext:sdes:mid\r\n" +
	"a=extmap:16 urn:ietf:params:rtp-hdrext:encrypt urn:3gpp:video-orientation\r\n" +
	"a=rtpmap:96 VP8/90000\r\n" +
	"a=rtpmap:97 rtx/90000\r\n" +
	"m=application 9 UDP/DTLS/SCTP webrtc-datachannel\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=mid:2\r\n" +
	"a=sctp-port:5000\r\n"

func TestInspect(t *testing.T) {
	summary, err := Inspect(offer)
	require.NoError(t, err)

	assert.True(t, summary.AllowMixed)
	assert.Equal(t, uint16(rtp.ExtensionProfileTwoByte), summary.ExtensionProfile)
	require.Len(t, summary.Media, 3)

	audio := summary.Media[0]
	assert.Equal(t, "audio", audio.Kind)
	assert.Equal(t, "0", audio.Mid)
	assert.Equal(t, 9, audio.Port)
	assert.Equal(t, "UDP/TLS/RTP/SAVPF", audio.Protocol)
	assert.Equal(t, []string{"111"}, audio.Formats)
	assert.Equal(t, map[string]string{"111": "opus/48000/2"}, audio.Codecs)
	require.Len(t, audio.Extensions, 1)
	assert.Equal(t, 1, audio.Extensions[0].ID)
	assert.Equal(t, "urn:ietf:params:rtp-hdrext:encrypt", audio.Extensions[0].URI)
	assert.Equal(t, "urn:ietf:params:rtp-hdrext:sdes:mid", audio.Extensions[0].Attributes)
	require.Len(t, audio.Candidates, 1)
	assert.True(t, audio.Candidates[0].IsRelay())

	video := summary.Media[1]
	assert.Equal(t, "video", video.Kind)
	assert.Len(t, video.Extensions, 2)
	assert.Equal(t, 16, video.Extensions[1].ID)

	assert.Equal(t, "application", summary.Media[2].Kind)
	assert.Empty(t, summary.Media[2].Extensions)
}

func TestInspectOneByteProfile(t *testing.T) {
	summary, err := Inspect("v=0\r\n" +
		"o=- 1 2 IN IP4 127.0.0.1\r\n" +
		"s=-\r\n" +
		"t=0 0\r\n" +
		"m=audio 9 UDP/TLS/RTP/SAVPF 111\r\n" +
		"a=extmap:14 urn:ietf:params:rtp-hdrext:encrypt urn:ietf:params:rtp-hdrext:sdes:mid\r\n" +
		"a=rtpmap:111 opus/48000/2\r\n")
	require.NoError(t, err)
	assert.False(t, summary.AllowMixed)
	assert.Equal(t, uint16(rtp.ExtensionProfileOneByte), summary.ExtensionProfile)
}

func TestInspectWithoutExtensions(t *testing.T) {
	summary, err := Inspect("v=0\r\n" +
		"o=- 1 2 IN IP4 127.0.0.1\r\n" +
		"s=-\r\n" +
		"t=0 0\r\n" +
		"m=audio 9 UDP/TLS/RTP/SAVPF 111\r\n" +
		"a=rtpmap:111 opus/48000/2\r\n")
	require.NoError(t, err)
	assert.Equal(t, uint16(0), summary.ExtensionProfile)
}

func TestInspectInvalid(t *testing.T) {
	_, err := Inspect("m=audio 9 UDP/TLS/RTP/SAVPF 111\r\n")
	assert.Error(t, err)
}
