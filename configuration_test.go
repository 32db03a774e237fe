// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package webrtc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfiguration_Validate(t *testing.T) {
	audio, _ := DefaultCodecs()

	testCases := []struct {
		name    string
		config  Configuration
		wantErr bool
	}{
		{"no codecs", Configuration{}, true},
		{"audio only", Configuration{AudioCodecs: audio}, false},
		{
			"bad ice server", Configuration{
				AudioCodecs: audio,
				ICEServers:  []ICEServer{{URLs: []string{"turn:example.com"}}},
			}, true,
		},
	}

	for _, tc := range testCases {
		err := tc.config.Validate()
		if tc.wantErr {
			assert.Error(t, err, tc.name)
		} else {
			assert.NoError(t, err, tc.name)
		}
	}
}

func TestConfiguration_ValidateRejectsDuplicatePayloadType(t *testing.T) {
	audio, _ := DefaultCodecs()
	dup := audio
	dup = append(dup, RTPCodecParameters{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeG722, ClockRate: 8000}, PayloadType: audio[0].PayloadType})

	err := Configuration{AudioCodecs: dup}.Validate()
	assert.Error(t, err)
	assert.Equal(t, "unsupported_codec", Tag(err))
}

func TestConfiguration_ValidateRejectsUnsupportedHeaderExtension(t *testing.T) {
	audio, _ := DefaultCodecs()
	config := Configuration{
		AudioCodecs:      audio,
		HeaderExtensions: []RTPHeaderExtensionCapability{{URI: "urn:example:not-a-real-extension"}},
	}

	err := config.Validate()
	assert.Error(t, err)
	assert.Equal(t, "unsupported_codec", Tag(err))

	config.HeaderExtensions[0].URI = "urn:ietf:params:rtp-hdrext:sdes:mid"
	assert.NoError(t, config.Validate())
}

func TestConfiguration_GetCapabilities(t *testing.T) {
	audio, video := DefaultCodecs()
	config := Configuration{AudioCodecs: audio, VideoCodecs: video, HeaderExtensions: []RTPHeaderExtensionCapability{{URI: "urn:ietf:params:rtp-hdrext:sdes:mid"}}}

	caps := config.GetCapabilities(RTPCodecTypeAudio)
	assert.Len(t, caps.Codecs, len(audio))
	assert.Equal(t, config.HeaderExtensions, caps.HeaderExtensions)
	for _, c := range caps.Codecs {
		assert.NotContains(t, c.MimeType, MimeTypeRTX, "GetCapabilities reports only primary codecs")
	}
}

func TestConfiguration_RTXEnabled(t *testing.T) {
	assert.False(t, Configuration{}.RTXEnabled())
	assert.True(t, Configuration{Features: []Feature{FeatureRTX}}.RTXEnabled())
}

func TestConfiguration_CodecsForKind(t *testing.T) {
	audio, video := DefaultCodecs()
	config := Configuration{AudioCodecs: audio, VideoCodecs: video, Features: []Feature{FeatureRTX}}

	gotAudio := config.codecsForKind(RTPCodecTypeAudio)
	assert.Len(t, gotAudio, len(audio)*2)
	gotVideo := config.codecsForKind(RTPCodecTypeVideo)
	assert.Len(t, gotVideo, len(video)*2)

	withoutRTX := Configuration{AudioCodecs: audio}
	assert.Equal(t, audio, withoutRTX.codecsForKind(RTPCodecTypeAudio))
	assert.Empty(t, withoutRTX.codecsForKind(RTPCodecTypeVideo))
}

func TestDefaultCodecs(t *testing.T) {
	audio, video := DefaultCodecs()
	assert.NotEmpty(t, audio)
	assert.NotEmpty(t, video)

	for _, c := range audio {
		assert.NotEmpty(t, c.MimeType)
	}
	for _, c := range video {
		assert.NotEmpty(t, c.RTCPFeedback)
	}
}
