package webrtc

import "strings"

// ICECredentialType indicates the type of credentials used to connect to
// an ICE server.
type ICECredentialType int

const (
	// ICECredentialTypePassword describes username/password credentials, as
	// used by a long-term TURN REST credential.
	ICECredentialTypePassword ICECredentialType = iota
)

// ICEServer describes a single STUN/TURN server that the ICE agent may use
// to gather candidates.
type ICEServer struct {
	URLs           []string
	Username       string
	Credential     string
	CredentialType ICECredentialType
}

// validate checks that every URL looks like a stun:/stuns:/turn:/turns:
// scheme and that TURN entries carry credentials. It does not contact the
// server.
func (s ICEServer) validate() error {
	for _, raw := range s.URLs {
		scheme, _, ok := strings.Cut(raw, ":")
		if !ok {
			return newInvalidSDPError("ice server url %q: missing scheme", raw)
		}
		switch strings.ToLower(scheme) {
		case "stun", "stuns":
		case "turn", "turns":
			if s.Username == "" || s.Credential == "" {
				return newInvalidStateError("ice server url %q: turn requires username and credential", raw)
			}
		default:
			return newInvalidSDPError("ice server url %q: unsupported scheme %q", raw, scheme)
		}
	}
	return nil
}
