package webrtc

import (
	"strconv"
	"strings"
)

// RTPCodecType determines the type of a codec
type RTPCodecType int

const (

	// RTPCodecTypeAudio indicates this is an audio codec
	RTPCodecTypeAudio RTPCodecType = iota + 1

	// RTPCodecTypeVideo indicates this is a video codec
	RTPCodecTypeVideo
)

func (t RTPCodecType) String() string {
	switch t {
	case RTPCodecTypeAudio:
		return "audio"
	case RTPCodecTypeVideo:
		return "video" //nolint: goconst
	default:
		return ErrUnknownType.Error()
	}
}

// NewRTPCodecType creates a RTPCodecType from a string
func NewRTPCodecType(r string) RTPCodecType {
	switch {
	case strings.EqualFold(r, RTPCodecTypeAudio.String()):
		return RTPCodecTypeAudio
	case strings.EqualFold(r, RTPCodecTypeVideo.String()):
		return RTPCodecTypeVideo
	default:
		return RTPCodecType(0)
	}
}

// RTPCodecCapability provides information about codec capabilities.
//
// https://w3c.github.io/webrtc-pc/#dictionary-rtcrtpcodeccapability-members
type RTPCodecCapability struct {
	MimeType     string
	ClockRate    uint32
	Channels     uint16
	SDPFmtpLine  string
	RTCPFeedback []RTCPFeedback
}

// RTPHeaderExtensionCapability is used to define a RFC5285 RTP header extension supported by the codec.
//
// https://w3c.github.io/webrtc-pc/#dom-rtcrtpcapabilities-headerextensions
type RTPHeaderExtensionCapability struct {
	URI string
}

// RTPHeaderExtensionParameters enables an application to determine whether a header extension is configured for
// use within an RTCRtpSender or RTCRtpReceiver.
//
// https://w3c.github.io/webrtc-pc/#rtcrtpheaderextensionparameters
type RTPHeaderExtensionParameters struct {
	URI string
	ID  uint8
}

// assignHeaderExtensionIDs turns the header extensions configured on a
// Configuration into negotiated parameters, assigning sequential RFC 5285
// one-byte extmap ids starting at 1 — the form an RTPTransceiver carries
// once a header extension has been negotiated for its m-line.
func assignHeaderExtensionIDs(caps []RTPHeaderExtensionCapability) []RTPHeaderExtensionParameters {
	if len(caps) == 0 {
		return nil
	}
	params := make([]RTPHeaderExtensionParameters, len(caps))
	for i, c := range caps {
		params[i] = RTPHeaderExtensionParameters{URI: c.URI, ID: uint8(i + 1)}
	}
	return params
}

// PayloadType identifies the format of an RTP payload.
//
// https://w3c.github.io/webrtc-pc/#rtcrtpcodecparameters
type PayloadType uint8

// RTPCodecParameters is a codec that has been negotiated and assigned a
// payload type, with an optional RTX (RFC 4588) pairing.
//
// https://w3c.github.io/webrtc-pc/#rtcrtpcodecparameters
type RTPCodecParameters struct {
	RTPCodecCapability
	PayloadType PayloadType

	// RTXPayloadType is the payload type of the RTX entry paired with this
	// codec, set by pairRTX. Zero means this codec has no RTX pairing.
	RTXPayloadType PayloadType
}

// RTCRtpCapabilities is a list of supported codecs and header extensions
//
// https://w3c.github.io/webrtc-pc/#rtcrtpcapabilities
type RTCRtpCapabilities struct {
	HeaderExtensions []RTPHeaderExtensionCapability
	Codecs           []RTPCodecCapability
}

// Do a fuzzy find for a codec in the list of codecs
// Used for lookup up a codec in an existing list to find a match
func codecParametersFuzzySearch(needle RTPCodecParameters, haystack []RTPCodecParameters) (RTPCodecParameters, error) {
	// First attempt to match on MimeType + SDPFmtpLine
	for _, c := range haystack {
		if strings.EqualFold(c.RTPCodecCapability.MimeType, needle.RTPCodecCapability.MimeType) &&
			c.RTPCodecCapability.SDPFmtpLine == needle.RTPCodecCapability.SDPFmtpLine {
			return c, nil
		}
	}

	// Fallback to just MimeType
	for _, c := range haystack {
		if strings.EqualFold(c.RTPCodecCapability.MimeType, needle.RTPCodecCapability.MimeType) {
			return c, nil
		}
	}

	return RTPCodecParameters{}, ErrCodecNotFound
}

// negotiateCodecs reconciles the primary codecs a remote m-line offered
// against local's locally configured codec set for that kind, keeping
// local's definition (RTX pairing, feedback, assigned payload type) for
// every remote codec that also fuzzy-matches locally, in remote's
// preference order. This is the answer-side codec negotiation spec.md's
// signaling flow otherwise leaves implicit.
func negotiateCodecs(remote, local []RTPCodecParameters) ([]RTPCodecParameters, error) {
	negotiated := make([]RTPCodecParameters, 0, len(remote))
	for _, r := range remote {
		if r.isRTX() {
			continue
		}
		if c, err := codecParametersFuzzySearch(r, local); err == nil {
			negotiated = append(negotiated, c)
		}
	}
	if len(negotiated) == 0 {
		return nil, newUnsupportedCodecError("%w", ErrCodecNotFound)
	}
	return negotiated, nil
}

// isRTX reports whether c's MIME type identifies it as an RTX (RFC 4588)
// retransmission codec rather than a primary media codec.
func (c RTPCodecCapability) isRTX() bool {
	return strings.EqualFold(c.MimeType, MimeTypeRTX)
}

// rtxFmtpLine renders the "apt=<payload type>" fmtp parameter that pairs an
// RTX codec with the primary codec it retransmits (RFC 4588 §8.1).
func rtxFmtpLine(apt PayloadType) string {
	return "apt=" + strconv.Itoa(int(apt))
}

// pairRTX synthesizes one RTX codec entry per primary codec in primary,
// sharing its clock rate and carrying the apt= fmtp back-reference, per
// spec: "an RTX codec entry per primary codec when RTX is enabled and at
// least one primary codec exists". RTX payload types are assigned
// sequentially above the highest payload type already in use, and recorded
// back onto each primary codec's RTXPayloadType so a sender can find its
// RTX pairing without re-parsing the fmtp line.
func pairRTX(primary []RTPCodecParameters) (withRTXPairing, rtx []RTPCodecParameters) {
	if len(primary) == 0 {
		return nil, nil
	}

	nextPT := PayloadType(0)
	for _, c := range primary {
		if c.PayloadType > nextPT {
			nextPT = c.PayloadType
		}
	}

	withRTXPairing = make([]RTPCodecParameters, len(primary))
	rtx = make([]RTPCodecParameters, 0, len(primary))
	for i, c := range primary {
		nextPT++
		c.RTXPayloadType = nextPT
		withRTXPairing[i] = c
		rtx = append(rtx, RTPCodecParameters{
			RTPCodecCapability: RTPCodecCapability{
				MimeType:    MimeTypeRTX,
				ClockRate:   c.ClockRate,
				SDPFmtpLine: rtxFmtpLine(c.PayloadType),
			},
			PayloadType: nextPT,
		})
	}
	return withRTXPairing, rtx
}
