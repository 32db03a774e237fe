package webrtc

// ICECandidateInit is the wire representation of a trickled ICE candidate,
// matching the snake_case signaling message schema.
type ICECandidateInit struct {
	Candidate        string  `json:"candidate"`
	SDPMid           *string `json:"sdp_mid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdp_m_line_index,omitempty"`
	UsernameFragment string  `json:"username_fragment,omitempty"`
}
