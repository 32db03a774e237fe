package webrtc

import (
	"errors"
	"fmt"

	"github.com/nullstream/rtcbrain/pkg/rtcerr"
)

// Sentinel errors wrapped by the rtcerr types below. Callers that need to
// branch on a specific failure should use errors.Is/errors.As against these
// rather than the tag string from Tag.
var (
	ErrConnectionClosed  = errors.New("peer connection is closed")
	ErrNoConfig          = errors.New("no configuration provided")
	ErrExistingTrack     = errors.New("track already exists on this transceiver")
	ErrCodecNotFound     = errors.New("codec not found")
	ErrNoCodecsConfigured = errors.New("no codecs configured for this media kind")
	ErrSDPUnmarshalling  = errors.New("sdp: failed to unmarshal")
	ErrSDPNoMediaSection = errors.New("sdp: no matching media section")
	ErrSDPMissingICECreds = errors.New("sdp: missing ice-ufrag/ice-pwd")
	ErrMidTaken          = errors.New("mid already taken by another transceiver")
	ErrUnknownType       = errors.New("unknown")
	ErrDuplicatePayloadType      = errors.New("duplicate payload type configured")
	ErrUnsupportedHeaderExtension = errors.New("unsupported header extension")
)

// Tag returns the opaque, stable classification for err, matching the error
// families of the public API: "invalid_state", "invalid_transition",
// "invalid_sdp", "unsupported_codec", "closed", or "unknown" as a fallback.
// Built against errors.As/errors.Is so wrapped errors still classify.
func Tag(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrConnectionClosed) {
		return "closed"
	}

	var invState *rtcerr.InvalidStateError
	var invMod *rtcerr.InvalidModificationError
	var syn *rtcerr.SyntaxError
	var notSupported *rtcerr.NotSupportedError

	switch {
	case errors.As(err, &invState):
		return "invalid_state"
	case errors.As(err, &invMod):
		return "invalid_transition"
	case errors.As(err, &syn):
		return "invalid_sdp"
	case errors.As(err, &notSupported):
		return "unsupported_codec"
	default:
		return "unknown"
	}
}

func newInvalidStateError(format string, args ...interface{}) error {
	return &rtcerr.InvalidStateError{Err: fmt.Errorf(format, args...)}
}

func newInvalidTransitionError(format string, args ...interface{}) error {
	return &rtcerr.InvalidModificationError{Err: fmt.Errorf(format, args...)}
}

func newInvalidSDPError(format string, args ...interface{}) error {
	return &rtcerr.SyntaxError{Err: fmt.Errorf(format, args...)}
}

func newUnsupportedCodecError(format string, args ...interface{}) error {
	return &rtcerr.NotSupportedError{Err: fmt.Errorf(format, args...)}
}
