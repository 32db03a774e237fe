// Package iceagent defines the interface the peer connection controller
// consumes for ICE connectivity, plus a production adapter over
// github.com/pion/ice/v4 and a fake used by tests.
package iceagent

// Role is the ICE controlling/controlled role assigned when starting the
// agent, per RFC 8445 §4.
type Role int

const (
	// RoleControlling drives the connectivity check schedule and nomination.
	RoleControlling Role = iota + 1
	// RoleControlled accepts the controlling side's nominations.
	RoleControlled
)

// ConnectionState mirrors the ICE agent's connection state machine.
type ConnectionState int

const (
	// ConnectionStateNew is the initial state before checks start.
	ConnectionStateNew ConnectionState = iota + 1
	ConnectionStateChecking
	ConnectionStateConnected
	ConnectionStateCompleted
	ConnectionStateFailed
	ConnectionStateDisconnected
	ConnectionStateClosed
)

// Credentials is the local or remote ICE ufrag/pwd pair.
type Credentials struct {
	UsernameFragment string
	Password         string
}

// Candidate is an opaque ICE candidate attribute (the part after
// "candidate:" in a=candidate lines).
type Candidate struct {
	Attr string
}

// Agent is the interface the peer connection controller consumes for ICE
// connectivity, matching the operations and events of spec §6: start,
// get/set credentials, gather and add candidates; candidate and
// state-change events delivered via the On* callbacks.
type Agent interface {
	// Start begins connectivity establishment in the given role, seeded
	// with STUN server URLs parsed from Configuration.ICEServers.
	Start(role Role, stunServers []string) error

	// LocalCredentials returns this agent's local ufrag/pwd, valid only
	// after Start.
	LocalCredentials() (Credentials, error)

	// SetRemoteCredentials configures the credentials extracted from a
	// remote description's m-lines.
	SetRemoteCredentials(remote Credentials) error

	// GatherCandidates begins host/srflx/relay candidate gathering;
	// discovered candidates are delivered via OnCandidate.
	GatherCandidates() error

	// AddRemoteCandidate forwards a trickled remote candidate attribute.
	AddRemoteCandidate(candidate Candidate) error

	// OnCandidate registers the callback invoked for each local candidate
	// as it is discovered. An empty candidate.Attr signals end-of-candidates.
	OnCandidate(func(Candidate))

	// OnConnectionStateChange registers the callback invoked whenever the
	// agent's connection state changes.
	OnConnectionStateChange(func(ConnectionState))

	// Close tears down the agent and releases its sockets.
	Close() error
}
