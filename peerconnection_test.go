// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package webrtc

import (
	"testing"
	"time"

	"github.com/nullstream/rtcbrain/iceagent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(ufrag, pwd string) *API {
	return NewAPI(WithICEAgentFactory(func() iceagent.Agent {
		return iceagent.NewFake(iceagent.Credentials{UsernameFragment: ufrag, Password: pwd})
	}))
}

func newTestConfig() Configuration {
	audio, video := DefaultCodecs()
	return Configuration{AudioCodecs: audio, VideoCodecs: video, Features: []Feature{FeatureRTX}}
}

func TestPeerConnection_OfferAnswerFlow(t *testing.T) {
	offerer, err := newTestAPI("ouf", "opwd").NewPeerConnection(newTestConfig())
	require.NoError(t, err)
	defer offerer.Close()

	answerer, err := newTestAPI("auf", "apwd").NewPeerConnection(newTestConfig())
	require.NoError(t, err)
	defer answerer.Close()

	_, err = offerer.AddTransceiverFromKind(RTPCodecTypeVideo, TransceiverOptions{Direction: RTPTransceiverDirectionSendrecv})
	require.NoError(t, err)

	offer, err := offerer.CreateOffer(nil)
	require.NoError(t, err)
	assert.Equal(t, SDPTypeOffer, offer.Type)

	require.NoError(t, offerer.SetLocalDescription(offer))
	assert.Equal(t, SignalingStateHaveLocalOffer, offerer.SignalingState())

	require.NoError(t, answerer.SetRemoteDescription(offer))
	assert.Equal(t, SignalingStateHaveRemoteOffer, answerer.SignalingState())
	assert.Len(t, answerer.GetTransceivers(), 1)

	answer, err := answerer.CreateAnswer(nil)
	require.NoError(t, err)
	assert.Equal(t, SDPTypeAnswer, answer.Type)

	require.NoError(t, answerer.SetLocalDescription(answer))
	assert.Equal(t, SignalingStateStable, answerer.SignalingState())

	require.NoError(t, offerer.SetRemoteDescription(answer))
	assert.Equal(t, SignalingStateStable, offerer.SignalingState())
}

func TestPeerConnection_Rollback(t *testing.T) {
	pc, err := newTestAPI("u", "p").NewPeerConnection(newTestConfig())
	require.NoError(t, err)
	defer pc.Close()

	_, err = pc.AddTransceiverFromKind(RTPCodecTypeAudio, TransceiverOptions{})
	require.NoError(t, err)

	offer, err := pc.CreateOffer(nil)
	require.NoError(t, err)
	require.NoError(t, pc.SetLocalDescription(offer))
	assert.Equal(t, SignalingStateHaveLocalOffer, pc.SignalingState())

	require.NoError(t, pc.SetLocalDescription(SessionDescription{Type: SDPTypeRollback}))
	assert.Equal(t, SignalingStateStable, pc.SignalingState())
	assert.Nil(t, pc.LocalDescription())
}

func TestPeerConnection_AddTransceiverFromTrack(t *testing.T) {
	pc, err := newTestAPI("u", "p").NewPeerConnection(newTestConfig())
	require.NoError(t, err)
	defer pc.Close()

	track, err := NewMediaStreamTrack(RTPCodecTypeAudio, []string{"s1"})
	require.NoError(t, err)

	tr, err := pc.AddTransceiverFromTrack(track, TransceiverOptions{Direction: RTPTransceiverDirectionSendrecv})
	require.NoError(t, err)
	assert.Equal(t, RTPCodecTypeAudio, tr.Kind())
	assert.Len(t, pc.GetTransceivers(), 1)
}

func TestPeerConnection_AddTransceiverFromKindDefaultsRecvonly(t *testing.T) {
	pc, err := newTestAPI("u", "p").NewPeerConnection(newTestConfig())
	require.NoError(t, err)
	defer pc.Close()

	tr, err := pc.AddTransceiverFromKind(RTPCodecTypeVideo, TransceiverOptions{})
	require.NoError(t, err)
	assert.Equal(t, RTPTransceiverDirectionRecvonly, tr.Direction())
}

func TestPeerConnection_CloseIsIdempotent(t *testing.T) {
	pc, err := newTestAPI("u", "p").NewPeerConnection(newTestConfig())
	require.NoError(t, err)

	require.NoError(t, pc.Close())
	require.NoError(t, pc.Close())
	assert.Equal(t, SignalingStateClosed, pc.SignalingState())
}

func TestPeerConnection_MethodsFailAfterClose(t *testing.T) {
	pc, err := newTestAPI("u", "p").NewPeerConnection(newTestConfig())
	require.NoError(t, err)
	require.NoError(t, pc.Close())

	_, err = pc.CreateOffer(nil)
	assert.Error(t, err)
	assert.Equal(t, "closed", Tag(err))
}

func TestPeerConnection_OnSignalingStateChangeFires(t *testing.T) {
	pc, err := newTestAPI("u", "p").NewPeerConnection(newTestConfig())
	require.NoError(t, err)
	defer pc.Close()

	changes := make(chan SignalingState, 4)
	pc.OnSignalingStateChange(func(s SignalingState) { changes <- s })

	_, err = pc.AddTransceiverFromKind(RTPCodecTypeAudio, TransceiverOptions{})
	require.NoError(t, err)
	offer, err := pc.CreateOffer(nil)
	require.NoError(t, err)
	require.NoError(t, pc.SetLocalDescription(offer))

	select {
	case s := <-changes:
		assert.Equal(t, SignalingStateHaveLocalOffer, s)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for signaling state change callback")
	}
}

func TestPeerConnection_OnICECandidateFires(t *testing.T) {
	pc, err := newTestAPI("u", "p").NewPeerConnection(newTestConfig())
	require.NoError(t, err)
	defer pc.Close()

	candidates := make(chan *ICECandidateInit, 4)
	pc.OnICECandidate(func(c *ICECandidateInit) { candidates <- c })

	_, err = pc.AddTransceiverFromKind(RTPCodecTypeAudio, TransceiverOptions{})
	require.NoError(t, err)
	offer, err := pc.CreateOffer(nil)
	require.NoError(t, err)
	require.NoError(t, pc.SetLocalDescription(offer))
	require.NoError(t, pc.SetRemoteDescription(SessionDescription{Type: SDPTypeAnswer, SDP: offer.SDP}))

	select {
	case first := <-candidates:
		require.NotNil(t, first)
		assert.Contains(t, first.Candidate, "candidate:")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first ice candidate")
	}

	select {
	case end := <-candidates:
		assert.Nil(t, end)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for end-of-candidates")
	}
}
