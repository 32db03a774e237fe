package webrtc

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/pion/sdp/v3"
)

// RTPTransceiver pairs an RTPSender and RTPReceiver that share a common mid,
// kind, and direction, plus the negotiated codec set for that kind.
type RTPTransceiver struct {
	mid              string
	kind             RTPCodecType
	direction        RTPTransceiverDirection
	sender           *RTPSender
	receiver         *RTPReceiver
	codecs           []RTPCodecParameters
	headerExtensions []RTPHeaderExtensionParameters
	stopped          bool
}

// TransceiverOptions customizes NewRTPTransceiver. The zero value selects
// RTPTransceiverDirectionSendrecv, configuration-default codecs, and
// randomly-generated SSRCs.
type TransceiverOptions struct {
	Direction RTPTransceiverDirection
	SSRC      uint32
	RTXSSRC   uint32
	Codecs    []RTPCodecParameters
}

// NewRTPTransceiver creates a transceiver of the given kind carrying track
// (nil for a receive-only transceiver with no local source yet), configured
// against config's codec set unless opts.Codecs overrides it. An RTX SSRC is
// allocated only when config.RTXEnabled() and the resulting codec list
// includes an RTX entry, matching spec §4.4.
func NewRTPTransceiver(kind RTPCodecType, track *MediaStreamTrack, config Configuration, opts TransceiverOptions) (*RTPTransceiver, error) {
	direction := opts.Direction
	if direction == RTPTransceiverDirection(Unknown) {
		direction = RTPTransceiverDirectionSendrecv
	}

	codecs := opts.Codecs
	if codecs == nil {
		codecs = config.codecsForKind(kind)
	}

	ssrc := opts.SSRC
	if ssrc == 0 {
		var err error
		if ssrc, err = randomSSRC(); err != nil {
			return nil, err
		}
	}

	var rtxSSRC uint32
	if config.RTXEnabled() && hasRTXCodec(codecs) {
		rtxSSRC = opts.RTXSSRC
		if rtxSSRC == 0 {
			var err error
			if rtxSSRC, err = randomSSRC(); err != nil {
				return nil, err
			}
		}
	}

	return &RTPTransceiver{
		kind:             kind,
		direction:        direction,
		codecs:           codecs,
		headerExtensions: assignHeaderExtensionIDs(config.HeaderExtensions),
		sender:           &RTPSender{track: track, ssrc: ssrc, rtxSSRC: rtxSSRC},
		receiver:         &RTPReceiver{},
	}, nil
}

func randomSSRC() (uint32, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func hasRTXCodec(codecs []RTPCodecParameters) bool {
	for _, c := range codecs {
		if c.isRTX() {
			return true
		}
	}
	return false
}

// Mid returns the transceiver's assigned mid, or "" if not yet negotiated.
func (t *RTPTransceiver) Mid() string { return t.mid }

// Kind returns whether this is an audio or video transceiver.
func (t *RTPTransceiver) Kind() RTPCodecType { return t.kind }

// Direction returns the transceiver's current direction.
func (t *RTPTransceiver) Direction() RTPTransceiverDirection { return t.direction }

// SetDirection updates the transceiver's direction (e.g. after answer
// reconciliation).
func (t *RTPTransceiver) SetDirection(d RTPTransceiverDirection) { t.direction = d }

// Sender returns the transceiver's send side.
func (t *RTPTransceiver) Sender() *RTPSender { return t.sender }

// Receiver returns the transceiver's receive side.
func (t *RTPTransceiver) Receiver() *RTPReceiver { return t.receiver }

// HeaderExtensions reports the RTP header extensions negotiated for this
// transceiver's m-line, each assigned an extmap id.
func (t *RTPTransceiver) HeaderExtensions() []RTPHeaderExtensionParameters { return t.headerExtensions }

// Stopped reports whether Stop has been called.
func (t *RTPTransceiver) Stopped() bool { return t.stopped }

// Stop irreversibly stops the transceiver; it is still enumerable by the
// peer connection but is excluded from future negotiation.
func (t *RTPTransceiver) Stop() {
	t.stopped = true
	t.direction = RTPTransceiverDirectionInactive
}

func (t *RTPTransceiver) assignMid(mid string) { t.mid = mid }

// primaryCodecs returns t.codecs with RTX entries filtered out.
func (t *RTPTransceiver) primaryCodecs() []RTPCodecParameters {
	primary := make([]RTPCodecParameters, 0, len(t.codecs))
	for _, c := range t.codecs {
		if !c.isRTX() {
			primary = append(primary, c)
		}
	}
	return primary
}

// SessionParams carries the session-wide values to_offer_mline needs beyond
// the transceiver itself: ICE credentials and the DTLS fingerprint/setup
// role, per spec §4.4.1.
type SessionParams struct {
	ICEUfrag             string
	ICEPwd               string
	FingerprintAlgorithm string
	FingerprintHex       string
	Setup                string
}

// ToOfferMLine renders t into an SDP media description per spec §4.4.1/4.4.2:
// codec/rtpmap/fmtp/rtcp-fb attributes for every configured codec (with a
// synthesized RTX entry per primary codec when RTX is enabled), and MSID/
// SSRC/SSRC-group attributes iff the direction includes sending and at
// least one primary codec is configured. t must already have a mid assigned.
func (t *RTPTransceiver) ToOfferMLine(params SessionParams) *sdp.MediaDescription {
	media := sdp.NewJSEPMediaDescription(t.kind.String(), nil).
		WithValueAttribute(sdp.AttrKeyConnectionSetup, params.Setup).
		WithValueAttribute(sdp.AttrKeyMID, t.mid).
		WithICECredentials(params.ICEUfrag, params.ICEPwd)

	if params.FingerprintAlgorithm != "" {
		media = media.WithFingerprint(params.FingerprintAlgorithm, params.FingerprintHex)
	}

	for _, ext := range t.headerExtensions {
		media = media.WithValueAttribute("extmap", fmt.Sprintf("%d %s", ext.ID, ext.URI))
	}

	for _, codec := range t.codecs {
		media = media.WithCodec(uint8(codec.PayloadType), codecRTPMapName(codec.MimeType), codec.ClockRate, codec.Channels, codec.SDPFmtpLine)
		for _, fb := range codec.RTCPFeedback {
			value := fmt.Sprintf("%d %s", codec.PayloadType, fb.Type)
			if fb.Parameter != "" {
				value += " " + fb.Parameter
			}
			media = media.WithValueAttribute("rtcp-fb", value)
		}
	}

	media = media.WithPropertyAttribute(t.direction.String())

	primary := t.primaryCodecs()
	if t.direction.hasSend() && len(primary) > 0 {
		t.addSenderAttributes(media)
	}

	return media
}

func (t *RTPTransceiver) addSenderAttributes(media *sdp.MediaDescription) {
	var streamIDs []string
	if t.sender.track != nil {
		streamIDs = t.sender.track.StreamIDs()
	}
	if len(streamIDs) == 0 {
		streamIDs = []string{"-"}
	}

	for _, sid := range streamIDs {
		media.WithValueAttribute("msid", sid)
	}

	ssrcs := []uint32{t.sender.ssrc}
	if t.sender.rtxSSRC != 0 {
		ssrcs = append(ssrcs, t.sender.rtxSSRC)
	}
	for _, ssrc := range ssrcs {
		for _, sid := range streamIDs {
			media.WithValueAttribute("ssrc", fmt.Sprintf("%d msid:%s", ssrc, sid))
		}
	}

	if t.sender.rtxSSRC != 0 {
		media.WithValueAttribute("ssrc-group", fmt.Sprintf("FID %d %d", t.sender.ssrc, t.sender.rtxSSRC))
	}
}

// codecRTPMapName strips the "audio/"/"video/" prefix a MIME type carries,
// since rtpmap lines only use the codec name.
func codecRTPMapName(mimeType string) string {
	for i := len(mimeType) - 1; i >= 0; i-- {
		if mimeType[i] == '/' {
			return mimeType[i+1:]
		}
	}
	return mimeType
}
