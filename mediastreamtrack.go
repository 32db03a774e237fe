package webrtc

import "github.com/pion/randutil"

const (
	trackIDLength   = 16
	randomIDCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// MediaStreamTrack is a single source of media: one audio or video track,
// optionally associated with one or more MediaStreams (by stream id, for
// MSID signaling). Once created a MediaStreamTrack is immutable; equality
// is by ID.
type MediaStreamTrack struct {
	id        string
	kind      RTPCodecType
	streamIDs []string
}

// NewMediaStreamTrack creates a MediaStreamTrack of the given kind,
// associated with streamIDs (may be empty for a track with no stream
// association). The track ID is generated as a cryptographically random
// string.
func NewMediaStreamTrack(kind RTPCodecType, streamIDs []string) (*MediaStreamTrack, error) {
	id, err := randutil.GenerateCryptoRandomString(trackIDLength, randomIDCharset)
	if err != nil {
		return nil, err
	}
	return &MediaStreamTrack{id: id, kind: kind, streamIDs: append([]string{}, streamIDs...)}, nil
}

// ID returns the track's unique identifier.
func (t *MediaStreamTrack) ID() string { return t.id }

// Kind returns whether this is an audio or video track.
func (t *MediaStreamTrack) Kind() RTPCodecType { return t.kind }

// StreamIDs returns the MediaStream ids this track is associated with.
func (t *MediaStreamTrack) StreamIDs() []string { return append([]string{}, t.streamIDs...) }

// GenerateStreamID returns a fresh random MediaStream id, for callers that
// need to group several tracks under one synthesized stream without an
// application-supplied id.
func GenerateStreamID() (string, error) {
	return randutil.GenerateCryptoRandomString(trackIDLength, randomIDCharset)
}
