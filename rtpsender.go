package webrtc

// RTPSender describes the send side of an RTPTransceiver: the local track
// it carries and the SSRCs assigned to it once negotiated.
type RTPSender struct {
	track   *MediaStreamTrack
	ssrc    uint32
	rtxSSRC uint32
}

// Track returns the local track this sender carries, or nil if none is
// attached (a recvonly/inactive transceiver's sender).
func (s *RTPSender) Track() *MediaStreamTrack { return s.track }

// ReplaceTrack swaps the local track without renegotiating SSRCs.
func (s *RTPSender) ReplaceTrack(track *MediaStreamTrack) {
	s.track = track
}

// SSRC returns the synchronization source assigned to this sender's primary
// stream, assigned when the transceiver is created (from
// TransceiverOptions.SSRC, or at random when that is zero).
func (s *RTPSender) SSRC() uint32 { return s.ssrc }

// RTXSSRC returns the SSRC assigned to this sender's RTX (RFC 4588) stream,
// or zero if RTX is not in use.
func (s *RTPSender) RTXSSRC() uint32 { return s.rtxSSRC }
