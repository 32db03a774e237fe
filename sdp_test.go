// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package webrtc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSessionDescription(t *testing.T) {
	track, err := NewMediaStreamTrack(RTPCodecTypeAudio, []string{"S"})
	require.NoError(t, err)

	_, video := DefaultCodecs()
	audio, _ := DefaultCodecs()
	config := Configuration{AudioCodecs: audio, VideoCodecs: video}

	tr, err := NewRTPTransceiver(RTPCodecTypeAudio, track, config, TransceiverOptions{
		Direction: RTPTransceiverDirectionSendrecv,
		SSRC:      100,
	})
	require.NoError(t, err)
	tr.assignMid("a0")

	desc, err := buildSessionDescription(SDPTypeOffer, []*RTPTransceiver{tr}, SessionParams{
		ICEUfrag: "ufrag", ICEPwd: "pwd", Setup: "actpass",
	})
	require.NoError(t, err)

	assert.Equal(t, SDPTypeOffer, desc.Type)
	assert.Contains(t, desc.SDP, "a=group:BUNDLE a0")
	assert.Contains(t, desc.SDP, "a=msid-semantic: WMS")
	assert.Contains(t, desc.SDP, "a=mid:a0")
	assert.Contains(t, desc.SDP, "a=ice-ufrag:ufrag")
}

func TestBuildSessionDescription_SkipsStoppedTransceivers(t *testing.T) {
	track, err := NewMediaStreamTrack(RTPCodecTypeAudio, []string{"S"})
	require.NoError(t, err)
	audio, _ := DefaultCodecs()
	config := Configuration{AudioCodecs: audio}

	tr, err := NewRTPTransceiver(RTPCodecTypeAudio, track, config, TransceiverOptions{SSRC: 100})
	require.NoError(t, err)
	tr.assignMid("a0")
	tr.Stop()

	desc, err := buildSessionDescription(SDPTypeOffer, []*RTPTransceiver{tr}, SessionParams{
		ICEUfrag: "ufrag", ICEPwd: "pwd", Setup: "actpass",
	})
	require.NoError(t, err)
	assert.NotContains(t, desc.SDP, "a=mid:a0")
	assert.Contains(t, desc.SDP, "a=group:BUNDLE \r\n")
}

func TestParseRemoteDescription_RoundTrip(t *testing.T) {
	track, err := NewMediaStreamTrack(RTPCodecTypeVideo, []string{"S"})
	require.NoError(t, err)
	_, video := DefaultCodecs()
	config := Configuration{VideoCodecs: video, Features: []Feature{FeatureRTX}}

	tr, err := NewRTPTransceiver(RTPCodecTypeVideo, track, config, TransceiverOptions{
		Direction: RTPTransceiverDirectionSendrecv,
		SSRC:      200,
		RTXSSRC:   201,
	})
	require.NoError(t, err)
	tr.assignMid("v0")

	desc, err := buildSessionDescription(SDPTypeOffer, []*RTPTransceiver{tr}, SessionParams{
		ICEUfrag: "ufrag", ICEPwd: "pwd", Setup: "actpass",
		FingerprintAlgorithm: "sha-256", FingerprintHex: "AA:BB",
	})
	require.NoError(t, err)

	infos, err := parseRemoteDescription(&desc)
	require.NoError(t, err)
	require.Len(t, infos, 1)

	info := infos[0]
	assert.Equal(t, "v0", info.mid)
	assert.Equal(t, RTPCodecTypeVideo, info.kind)
	assert.Equal(t, RTPTransceiverDirectionSendrecv, info.direction)
	assert.Equal(t, "ufrag", info.iceUfrag)
	assert.Equal(t, "pwd", info.icePwd)
	assert.Equal(t, "sha-256", info.fingerprintAlgorithm)
	assert.Equal(t, "AA:BB", info.fingerprintHex)
	assert.NotEmpty(t, info.codecs)

	var foundVP8, foundRTX bool
	for _, c := range info.codecs {
		if strings.EqualFold(c.MimeType, MimeTypeVP8) {
			foundVP8 = true
		}
		if c.isRTX() {
			foundRTX = true
		}
	}
	assert.True(t, foundVP8, "expected VP8 codec to round-trip")
	assert.True(t, foundRTX, "expected synthesized RTX codec to round-trip")
}

func TestParseRemoteDescription_MissingICECredsErrors(t *testing.T) {
	sd := &SessionDescription{
		Type: SDPTypeOffer,
		SDP: "v=0\r\n" +
			"o=- 1 2 IN IP4 127.0.0.1\r\n" +
			"s=-\r\n" +
			"t=0 0\r\n" +
			"m=audio 9 UDP/TLS/RTP/SAVPF 111\r\n" +
			"a=mid:a0\r\n" +
			"a=sendrecv\r\n",
	}

	_, err := parseRemoteDescription(sd)
	assert.Error(t, err)
	assert.Equal(t, "invalid_sdp", Tag(err))
}

func TestParseRTPMap(t *testing.T) {
	pt, name, clockRate, channels := parseRTPMap("111 opus/48000/2")
	assert.Equal(t, 111, pt)
	assert.Equal(t, "opus", name)
	assert.Equal(t, uint32(48000), clockRate)
	assert.Equal(t, uint16(2), channels)
}

func TestParseFmtp(t *testing.T) {
	pt, line := parseFmtp("96 apt=98")
	assert.Equal(t, 96, pt)
	assert.Equal(t, "apt=98", line)
}

func TestParseRTCPFeedback(t *testing.T) {
	pt, fb := parseRTCPFeedback("96 nack pli")
	assert.Equal(t, 96, pt)
	assert.Equal(t, RTCPFeedback{Type: "nack", Parameter: "pli"}, fb)
}

func TestSplitFingerprint(t *testing.T) {
	algo, hex := splitFingerprint("sha-256 AA:BB:CC")
	assert.Equal(t, "sha-256", algo)
	assert.Equal(t, "AA:BB:CC", hex)
}
