// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package webrtc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecParametersFuzzySearch(t *testing.T) {
	haystack := []RTPCodecParameters{
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeVP8, SDPFmtpLine: "x=1"}, PayloadType: 96},
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeOpus}, PayloadType: 111},
	}

	exact, err := codecParametersFuzzySearch(RTPCodecParameters{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeVP8, SDPFmtpLine: "x=1"}}, haystack)
	require.NoError(t, err)
	assert.Equal(t, PayloadType(96), exact.PayloadType)

	fallback, err := codecParametersFuzzySearch(RTPCodecParameters{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeOpus, SDPFmtpLine: "different"}}, haystack)
	require.NoError(t, err)
	assert.Equal(t, PayloadType(111), fallback.PayloadType)

	_, err = codecParametersFuzzySearch(RTPCodecParameters{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeH264}}, haystack)
	assert.ErrorIs(t, err, ErrCodecNotFound)
}

func TestNegotiateCodecs(t *testing.T) {
	local := []RTPCodecParameters{
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeVP8}, PayloadType: 96},
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeVP9}, PayloadType: 98},
	}

	remote := []RTPCodecParameters{
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeVP8}, PayloadType: 100},
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeH264}, PayloadType: 101},
	}

	negotiated, err := negotiateCodecs(remote, local)
	require.NoError(t, err)
	require.Len(t, negotiated, 1)
	assert.Equal(t, PayloadType(96), negotiated[0].PayloadType, "negotiated codec keeps local's payload type, not remote's")

	_, err = negotiateCodecs([]RTPCodecParameters{{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeH264}}}, local)
	assert.Equal(t, "unsupported_codec", Tag(err))
}

func TestPairRTXAssignsRTXPayloadType(t *testing.T) {
	primary := []RTPCodecParameters{
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeVP8}, PayloadType: 96},
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeVP9}, PayloadType: 98},
	}

	withRTXPairing, rtx := pairRTX(primary)
	require.Len(t, withRTXPairing, 2)
	require.Len(t, rtx, 2)

	assert.Equal(t, rtx[0].PayloadType, withRTXPairing[0].RTXPayloadType)
	assert.Equal(t, rtx[1].PayloadType, withRTXPairing[1].RTXPayloadType)
	assert.Equal(t, "apt=96", rtx[0].SDPFmtpLine)
	assert.NotEqual(t, withRTXPairing[0].RTXPayloadType, withRTXPairing[1].RTXPayloadType)
}

func TestAssignHeaderExtensionIDs(t *testing.T) {
	params := assignHeaderExtensionIDs([]RTPHeaderExtensionCapability{{URI: "urn:ietf:params:rtp-hdrext:sdes:mid"}, {URI: "urn:ietf:params:rtp-hdrext:toffset"}})
	require.Len(t, params, 2)
	assert.Equal(t, uint8(1), params[0].ID)
	assert.Equal(t, uint8(2), params[1].ID)

	assert.Nil(t, assignHeaderExtensionIDs(nil))
}
