package webrtc

import (
	"fmt"
	"strings"

	"github.com/pion/randutil"
	"github.com/pion/sdp/v3"
)

const sessionIDCharset = "0123456789"

func newSessionID() (string, error) {
	return randutil.GenerateCryptoRandomString(16, sessionIDCharset)
}

// buildSessionDescription assembles a complete session-level SDP from the
// current transceiver set, per spec §4.4.1/§6: v=0/o=-/s=-/t=0 0 header,
// one m-line per non-stopped transceiver via ToOfferMLine, a=group:BUNDLE
// listing those transceivers' mids, and a=msid-semantic: WMS. Stopped
// transceivers get no m-line and no BUNDLE entry.
func buildSessionDescription(sdpType SDPType, transceivers []*RTPTransceiver, params SessionParams) (SessionDescription, error) {
	sessionID, err := newSessionID()
	if err != nil {
		return SessionDescription{}, err
	}

	desc := &sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       "-",
			SessionID:      mustUint64(sessionID),
			SessionVersion: 2,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: "127.0.0.1",
		},
		SessionName: "-",
		TimeDescriptions: []sdp.TimeDescription{
			{Timing: sdp.Timing{StartTime: 0, StopTime: 0}},
		},
	}

	mids := make([]string, 0, len(transceivers))
	for _, t := range transceivers {
		if t.Stopped() {
			continue
		}
		mids = append(mids, t.mid)
		desc.MediaDescriptions = append(desc.MediaDescriptions, t.ToOfferMLine(params))
	}

	desc.WithValueAttribute(sdp.AttrKeyGroup, "BUNDLE "+strings.Join(mids, " "))
	desc.WithValueAttribute(sdp.AttrKeyMsidSemantic, " WMS")

	raw, err := desc.Marshal()
	if err != nil {
		return SessionDescription{}, fmt.Errorf("%w: %w", ErrSDPUnmarshalling, err)
	}

	return SessionDescription{Type: sdpType, SDP: string(raw)}, nil
}

func mustUint64(s string) uint64 {
	var v uint64
	for i := 0; i < len(s); i++ {
		v = v*10 + uint64(s[i]-'0')
	}
	return v
}

// remoteMediaInfo is what applying a remote description extracts per
// m-line, per spec §4.5 "Applying a remote description".
type remoteMediaInfo struct {
	mid                  string
	kind                 RTPCodecType
	direction            RTPTransceiverDirection
	iceUfrag             string
	icePwd               string
	fingerprintAlgorithm string
	fingerprintHex       string
	codecs               []RTPCodecParameters
}

// parseRemoteDescription unmarshals raw SDP text and extracts, per m-line,
// the mid, media kind, direction, ICE credentials, and DTLS fingerprint
// needed to configure the ICE agent and update transceivers.
func parseRemoteDescription(sd *SessionDescription) ([]remoteMediaInfo, error) {
	parsed, err := sd.Unmarshal()
	if err != nil {
		return nil, newInvalidSDPError("%w", err)
	}

	sessionUfrag, _ := parsed.Attribute(sdp.AttrKeyICEUFrag)
	sessionPwd, _ := parsed.Attribute(sdp.AttrKeyICEPwd)
	sessionAlgo, sessionHex := sessionFingerprint(parsed)

	infos := make([]remoteMediaInfo, 0, len(parsed.MediaDescriptions))
	for _, media := range parsed.MediaDescriptions {
		info := remoteMediaInfo{
			kind:                 NewRTPCodecType(media.MediaName.Media),
			iceUfrag:             sessionUfrag,
			icePwd:               sessionPwd,
			fingerprintAlgorithm: sessionAlgo,
			fingerprintHex:       sessionHex,
		}

		if mid, ok := media.Attribute(sdp.AttrKeyMID); ok {
			info.mid = mid
		}

		if ufrag, ok := media.Attribute(sdp.AttrKeyICEUFrag); ok {
			info.iceUfrag = ufrag
		}
		if pwd, ok := media.Attribute(sdp.AttrKeyICEPwd); ok {
			info.icePwd = pwd
		}
		if info.iceUfrag == "" || info.icePwd == "" {
			return nil, newInvalidSDPError("%w: m-line %q", ErrSDPMissingICECreds, info.mid)
		}

		if algo, hex, ok := mediaFingerprint(media); ok {
			info.fingerprintAlgorithm, info.fingerprintHex = algo, hex
		}

		info.direction = directionFromMediaDescription(media)
		info.codecs = codecsFromMediaDescription(media)

		infos = append(infos, info)
	}

	return infos, nil
}

func sessionFingerprint(sd *sdp.SessionDescription) (algo, hex string) {
	value, ok := sd.Attribute("fingerprint")
	if !ok {
		return "", ""
	}
	return splitFingerprint(value)
}

func mediaFingerprint(media *sdp.MediaDescription) (algo, hex string, ok bool) {
	value, has := media.Attribute("fingerprint")
	if !has {
		return "", "", false
	}
	algo, hex = splitFingerprint(value)
	return algo, hex, true
}

func splitFingerprint(value string) (algo, hex string) {
	algo, hex, _ = strings.Cut(value, " ")
	return algo, hex
}

func directionFromMediaDescription(media *sdp.MediaDescription) RTPTransceiverDirection {
	for _, candidate := range []string{"sendrecv", "sendonly", "recvonly", "inactive"} {
		if _, ok := media.Attribute(candidate); ok {
			return NewRTPTransceiverDirection(candidate)
		}
	}
	return RTPTransceiverDirectionSendrecv
}

// codecsFromMediaDescription reconstructs RTPCodecParameters from rtpmap/
// fmtp/rtcp-fb attributes on a remote m-line.
func codecsFromMediaDescription(media *sdp.MediaDescription) []RTPCodecParameters {
	kind := media.MediaName.Media
	byPT := map[int]*RTPCodecParameters{}
	order := make([]int, 0, len(media.MediaName.Formats))

	for _, f := range media.MediaName.Formats {
		pt := parseInt(f)
		order = append(order, pt)
		byPT[pt] = &RTPCodecParameters{PayloadType: PayloadType(pt)}
	}

	for _, attr := range media.Attributes {
		switch attr.Key {
		case "rtpmap":
			pt, name, clockRate, channels := parseRTPMap(attr.Value)
			if c, ok := byPT[pt]; ok {
				c.MimeType = kind + "/" + name
				c.ClockRate = clockRate
				c.Channels = channels
			}
		case "fmtp":
			pt, line := parseFmtp(attr.Value)
			if c, ok := byPT[pt]; ok {
				c.SDPFmtpLine = line
			}
		case "rtcp-fb":
			pt, fb := parseRTCPFeedback(attr.Value)
			if c, ok := byPT[pt]; ok {
				c.RTCPFeedback = append(c.RTCPFeedback, fb)
			}
		}
	}

	codecs := make([]RTPCodecParameters, 0, len(order))
	for _, pt := range order {
		codecs = append(codecs, *byPT[pt])
	}
	return codecs
}

func parseInt(s string) int {
	v := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return v
		}
		v = v*10 + int(s[i]-'0')
	}
	return v
}

func parseRTPMap(value string) (pt int, name string, clockRate uint32, channels uint16) {
	ptStr, rest, _ := strings.Cut(value, " ")
	pt = parseInt(ptStr)
	parts := strings.Split(rest, "/")
	if len(parts) > 0 {
		name = parts[0]
	}
	if len(parts) > 1 {
		clockRate = uint32(parseInt(parts[1]))
	}
	if len(parts) > 2 {
		channels = uint16(parseInt(parts[2]))
	}
	return pt, name, clockRate, channels
}

func parseFmtp(value string) (pt int, line string) {
	ptStr, rest, _ := strings.Cut(value, " ")
	return parseInt(ptStr), rest
}

func parseRTCPFeedback(value string) (pt int, fb RTCPFeedback) {
	ptStr, rest, _ := strings.Cut(value, " ")
	typ, param, _ := strings.Cut(rest, " ")
	return parseInt(ptStr), RTCPFeedback{Type: typ, Parameter: param}
}
