package iceagent

import "sync"

// Fake is an in-memory Agent for unit tests: it never actually gathers
// candidates from the network; GatherCandidates instead emits one fixed
// loopback host candidate followed by end-of-candidates, and
// SetRemoteCredentials moves straight to ConnectionStateConnected.
type Fake struct {
	mu      sync.Mutex
	started bool
	local   Credentials
	remote  Credentials
	closed  bool

	onCandidate   func(Candidate)
	onStateChange func(ConnectionState)
}

// NewFake returns a Fake agent seeded with local credentials, as if
// gathering had already produced them.
func NewFake(local Credentials) *Fake {
	return &Fake{local: local}
}

func (f *Fake) Start(Role, []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *Fake) LocalCredentials() (Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started {
		return Credentials{}, errNotStarted
	}
	return f.local, nil
}

func (f *Fake) SetRemoteCredentials(remote Credentials) error {
	f.mu.Lock()
	f.remote = remote
	cb := f.onStateChange
	f.mu.Unlock()
	if cb != nil {
		cb(ConnectionStateConnected)
	}
	return nil
}

func (f *Fake) GatherCandidates() error {
	f.mu.Lock()
	cb := f.onCandidate
	f.mu.Unlock()
	if cb != nil {
		cb(Candidate{Attr: "1 1 UDP 2130706431 127.0.0.1 9 typ host"})
		cb(Candidate{})
	}
	return nil
}

func (f *Fake) AddRemoteCandidate(Candidate) error { return nil }

func (f *Fake) OnCandidate(cb func(Candidate)) {
	f.mu.Lock()
	f.onCandidate = cb
	f.mu.Unlock()
}

func (f *Fake) OnConnectionStateChange(cb func(ConnectionState)) {
	f.mu.Lock()
	f.onStateChange = cb
	f.mu.Unlock()
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close has been called, for test assertions.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
