package webrtc

// Feature names an optional capability that can be turned on for a
// PeerConnection via Configuration.Features.
type Feature string

const (
	// FeatureRTX enables synthesizing an RTX (RFC 4588) retransmission
	// codec entry alongside each configured primary codec.
	FeatureRTX Feature = "rtx"
)

// Configuration defines a set of parameters to configure how the
// peer-to-peer communication via PeerConnection is established, including
// the codecs a Transceiver is allowed to negotiate. Configuration is
// immutable once passed to NewPeerConnection.
type Configuration struct {
	// ICEServers defines a slice describing servers available to be used by
	// the ICE agent, such as STUN and TURN servers.
	ICEServers []ICEServer

	// AudioCodecs lists the audio codecs a Transceiver may negotiate, in
	// preference order.
	AudioCodecs []RTPCodecParameters

	// VideoCodecs lists the video codecs a Transceiver may negotiate, in
	// preference order.
	VideoCodecs []RTPCodecParameters

	// HeaderExtensions lists the RTP header extensions offered on every
	// m-line.
	HeaderExtensions []RTPHeaderExtensionCapability

	// Features toggles optional capabilities; see the Feature constants.
	Features []Feature
}

// Validate checks that the Configuration is usable: every ICEServer parses,
// at least one codec is configured for some media kind, every codec in the
// negotiable set (including synthesized RTX entries) has a payload type
// unique within its m-line, and every listed header extension is one this
// module supports.
func (c Configuration) Validate() error {
	for _, server := range c.ICEServers {
		if err := server.validate(); err != nil {
			return err
		}
	}
	if len(c.AudioCodecs) == 0 && len(c.VideoCodecs) == 0 {
		return newInvalidStateError("%w", ErrNoCodecsConfigured)
	}

	for _, kind := range []RTPCodecType{RTPCodecTypeAudio, RTPCodecTypeVideo} {
		seen := make(map[PayloadType]struct{})
		for _, codec := range c.codecsForKind(kind) {
			if _, dup := seen[codec.PayloadType]; dup {
				return newUnsupportedCodecError("%w: %s payload type %d", ErrDuplicatePayloadType, kind, codec.PayloadType)
			}
			seen[codec.PayloadType] = struct{}{}
		}
	}

	for _, ext := range c.HeaderExtensions {
		if !isSupportedHeaderExtension(ext.URI) {
			return newUnsupportedCodecError("%w: %s", ErrUnsupportedHeaderExtension, ext.URI)
		}
	}

	return nil
}

// supportedHeaderExtensionURIs is the set of RFC 5285 header extension URIs
// this module knows how to negotiate, grounded on the extensions the teacher
// registers by default (sdes mid/rid/repaired-rid) plus the other widely
// deployed extensions it references elsewhere in its SDP handling
// (toffset, video-orientation, audio-level, abs-send-time, transport-cc).
var supportedHeaderExtensionURIs = map[string]struct{}{
	"urn:ietf:params:rtp-hdrext:sdes:mid":                                       {},
	"urn:ietf:params:rtp-hdrext:sdes:rtp-stream-id":                             {},
	"urn:ietf:params:rtp-hdrext:sdes:repaired-rtp-stream-id":                    {},
	"urn:ietf:params:rtp-hdrext:toffset":                                        {},
	"urn:3gpp:video-orientation":                                                {},
	"urn:ietf:params:rtp-hdrext:ssrc-audio-level":                               {},
	"http://www.webrtc.org/experiments/rtp-hdrext/abs-send-time":                {},
	"http://www.ietf.org/id/draft-holmer-rmcat-transport-wide-cc-extensions-01": {},
}

func isSupportedHeaderExtension(uri string) bool {
	_, ok := supportedHeaderExtensionURIs[uri]
	return ok
}

// GetCapabilities reports the codecs and header extensions this
// Configuration can negotiate for kind, mirroring the static
// RTCRtpSender.getCapabilities()/RTCRtpReceiver.getCapabilities() query from
// the W3C API.
func (c Configuration) GetCapabilities(kind RTPCodecType) RTCRtpCapabilities {
	primary := c.primaryCodecsForKind(kind)

	codecs := make([]RTPCodecCapability, 0, len(primary))
	for _, p := range primary {
		codecs = append(codecs, p.RTPCodecCapability)
	}

	return RTCRtpCapabilities{HeaderExtensions: c.HeaderExtensions, Codecs: codecs}
}

// RTXEnabled reports whether FeatureRTX is present in c.Features.
func (c Configuration) RTXEnabled() bool {
	for _, f := range c.Features {
		if f == FeatureRTX {
			return true
		}
	}
	return false
}

// primaryCodecsForKind returns the non-RTX codecs configured for kind, in
// preference order.
func (c Configuration) primaryCodecsForKind(kind RTPCodecType) []RTPCodecParameters {
	switch kind {
	case RTPCodecTypeAudio:
		return c.AudioCodecs
	case RTPCodecTypeVideo:
		return c.VideoCodecs
	default:
		return nil
	}
}

// codecsForKind returns the configured codec list for the given media kind,
// pairing each with a synthesized RTX entry when RTX is enabled.
func (c Configuration) codecsForKind(kind RTPCodecType) []RTPCodecParameters {
	primary := c.primaryCodecsForKind(kind)

	if !c.RTXEnabled() {
		return primary
	}
	withRTXPairing, rtx := pairRTX(primary)
	return append(withRTXPairing, rtx...)
}

var videoRTCPFeedback = []RTCPFeedback{
	{Type: "goog-remb"}, {Type: "transport-cc"}, {Type: "ccm", Parameter: "fir"},
	{Type: "nack"}, {Type: "nack", Parameter: "pli"},
}

// DefaultCodecs returns the codec set Pion-style implementations register by
// default: Opus/G722/PCMU/PCMA for audio, VP8/VP9/H264 for video. Callers
// compose it into a Configuration's AudioCodecs/VideoCodecs as a starting
// point rather than enumerating payload types by hand.
func DefaultCodecs() (audio, video []RTPCodecParameters) {
	audio = []RTPCodecParameters{
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeOpus, ClockRate: 48000, Channels: 2, SDPFmtpLine: "minptime=10;useinbandfec=1"}, PayloadType: 111},
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeG722, ClockRate: 8000}, PayloadType: 9},
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypePCMU, ClockRate: 8000}, PayloadType: 0},
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypePCMA, ClockRate: 8000}, PayloadType: 8},
	}
	video = []RTPCodecParameters{
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeVP8, ClockRate: 90000, RTCPFeedback: videoRTCPFeedback}, PayloadType: 96},
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeVP9, ClockRate: 90000, SDPFmtpLine: "profile-id=0", RTCPFeedback: videoRTCPFeedback}, PayloadType: 98},
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeH264, ClockRate: 90000, SDPFmtpLine: "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f", RTCPFeedback: videoRTCPFeedback}, PayloadType: 102},
	}
	return audio, video
}
