package webrtc

import "strings"

// RTPTransceiverDirection indicates the direction of an RTPTransceiver, and
// controls which of sendrecv/sendonly/recvonly/inactive attributes a
// Transceiver's m-line carries.
type RTPTransceiverDirection int

const (
	// RTPTransceiverDirectionSendrecv indicates the transceiver sends and
	// receives.
	RTPTransceiverDirectionSendrecv RTPTransceiverDirection = iota + 1
	// RTPTransceiverDirectionSendonly indicates the transceiver only sends.
	RTPTransceiverDirectionSendonly
	// RTPTransceiverDirectionRecvonly indicates the transceiver only
	// receives.
	RTPTransceiverDirectionRecvonly
	// RTPTransceiverDirectionInactive indicates the transceiver neither
	// sends nor receives, but is still attached.
	RTPTransceiverDirectionInactive
)

func (d RTPTransceiverDirection) String() string {
	switch d {
	case RTPTransceiverDirectionSendrecv:
		return "sendrecv"
	case RTPTransceiverDirectionSendonly:
		return "sendonly"
	case RTPTransceiverDirectionRecvonly:
		return "recvonly"
	case RTPTransceiverDirectionInactive:
		return "inactive"
	default:
		return unknownStr
	}
}

// NewRTPTransceiverDirection creates a RTPTransceiverDirection from its SDP
// attribute name.
func NewRTPTransceiverDirection(raw string) RTPTransceiverDirection {
	switch strings.ToLower(raw) {
	case "sendrecv":
		return RTPTransceiverDirectionSendrecv
	case "sendonly":
		return RTPTransceiverDirectionSendonly
	case "recvonly":
		return RTPTransceiverDirectionRecvonly
	case "inactive":
		return RTPTransceiverDirectionInactive
	default:
		return RTPTransceiverDirection(Unknown)
	}
}

// hasSend reports whether d implies a local media source is sent.
func (d RTPTransceiverDirection) hasSend() bool {
	return d == RTPTransceiverDirectionSendrecv || d == RTPTransceiverDirectionSendonly
}

// hasRecv reports whether d implies the local side is prepared to receive.
func (d RTPTransceiverDirection) hasRecv() bool {
	return d == RTPTransceiverDirectionSendrecv || d == RTPTransceiverDirectionRecvonly
}

// directionFromSendRecv composes a direction from independent send/recv
// booleans, the inverse of hasSend/hasRecv.
func directionFromSendRecv(send, recv bool) RTPTransceiverDirection {
	switch {
	case send && recv:
		return RTPTransceiverDirectionSendrecv
	case send:
		return RTPTransceiverDirectionSendonly
	case recv:
		return RTPTransceiverDirectionRecvonly
	default:
		return RTPTransceiverDirectionInactive
	}
}

// answerDirection computes the direction an answerer should use for a
// transceiver given the remote offer's direction and the local transceiver's
// own intent: the local side can only send if it intends to send AND the
// remote offered to receive, and can only recv if it intends to receive AND
// the remote offered to send (RFC 8829 §5.3.1).
func answerDirection(remote, local RTPTransceiverDirection) RTPTransceiverDirection {
	send := local.hasSend() && remote.hasRecv()
	recv := local.hasRecv() && remote.hasSend()
	return directionFromSendRecv(send, recv)
}
