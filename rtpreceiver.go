package webrtc

// RTPReceiver describes the receive side of an RTPTransceiver: the remote
// track surfaced to the application once negotiation completes.
type RTPReceiver struct {
	track *MediaStreamTrack
}

// Track returns the remote track this receiver exposes, or nil before the
// remote description has been applied.
func (r *RTPReceiver) Track() *MediaStreamTrack { return r.track }
