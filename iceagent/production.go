package iceagent

import (
	"context"
	"sync"

	"github.com/pion/ice/v4"
	"github.com/pion/logging"
)

// pionAgent adapts github.com/pion/ice/v4's Agent to the Agent interface,
// grounded on the teacher's ICEGatherer (AgentConfig{Urls, LoggerFactory,
// NetworkTypes}, agent.GetLocalUserCredentials, agent.Close).
type pionAgent struct {
	mu     sync.Mutex
	agent  *ice.Agent
	role   Role
	logger logging.LeveledLogger

	onCandidate      func(Candidate)
	onStateChange    func(ConnectionState)
	remoteCredsSet   bool
}

// NewProductionAgent returns an Agent backed by a real pion/ice/v4
// connectivity check engine.
func NewProductionAgent(loggerFactory logging.LoggerFactory) Agent {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &pionAgent{logger: loggerFactory.NewLogger("iceagent")}
}

func (a *pionAgent) Start(role Role, stunServers []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var urls []*ice.URL
	for _, raw := range stunServers {
		u, err := ice.ParseURL(raw)
		if err != nil {
			a.logger.Warnf("skipping unparseable ice server url %q: %v", raw, err)
			continue
		}
		urls = append(urls, u)
	}

	agent, err := ice.NewAgent(&ice.AgentConfig{
		Urls: urls,
	})
	if err != nil {
		return err
	}

	if err := agent.OnCandidate(func(c ice.Candidate) error {
		a.mu.Lock()
		cb := a.onCandidate
		a.mu.Unlock()
		if cb == nil {
			return nil
		}
		if c == nil {
			cb(Candidate{})
			return nil
		}
		cb(Candidate{Attr: c.Marshal()})
		return nil
	}); err != nil {
		return err
	}

	if err := agent.OnConnectionStateChange(func(s ice.ConnectionState) {
		a.mu.Lock()
		cb := a.onStateChange
		a.mu.Unlock()
		if cb != nil {
			cb(fromICEState(s))
		}
	}); err != nil {
		return err
	}

	a.agent = agent
	a.role = role
	return nil
}

func (a *pionAgent) LocalCredentials() (Credentials, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.agent == nil {
		return Credentials{}, errNotStarted
	}
	frag, pwd, err := a.agent.GetLocalUserCredentials()
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{UsernameFragment: frag, Password: pwd}, nil
}

func (a *pionAgent) SetRemoteCredentials(remote Credentials) error {
	a.mu.Lock()
	agent, role := a.agent, a.role
	if agent == nil {
		a.mu.Unlock()
		return errNotStarted
	}
	if a.remoteCredsSet {
		a.mu.Unlock()
		return nil
	}
	a.remoteCredsSet = true
	a.mu.Unlock()

	go func() {
		var err error
		if role == RoleControlling {
			_, err = agent.Dial(context.Background(), remote.UsernameFragment, remote.Password)
		} else {
			_, err = agent.Accept(context.Background(), remote.UsernameFragment, remote.Password)
		}
		if err != nil {
			a.logger.Errorf("ice connectivity establishment failed: %v", err)
		}
	}()
	return nil
}

func (a *pionAgent) GatherCandidates() error {
	a.mu.Lock()
	agent := a.agent
	a.mu.Unlock()
	if agent == nil {
		return errNotStarted
	}
	return agent.GatherCandidates()
}

func (a *pionAgent) AddRemoteCandidate(candidate Candidate) error {
	a.mu.Lock()
	agent := a.agent
	a.mu.Unlock()
	if agent == nil {
		return errNotStarted
	}
	c, err := ice.UnmarshalCandidate(candidate.Attr)
	if err != nil {
		return err
	}
	return agent.AddRemoteCandidate(c)
}

func (a *pionAgent) OnCandidate(cb func(Candidate)) {
	a.mu.Lock()
	a.onCandidate = cb
	a.mu.Unlock()
}

func (a *pionAgent) OnConnectionStateChange(cb func(ConnectionState)) {
	a.mu.Lock()
	a.onStateChange = cb
	a.mu.Unlock()
}

func (a *pionAgent) Close() error {
	a.mu.Lock()
	agent := a.agent
	a.mu.Unlock()
	if agent == nil {
		return nil
	}
	return agent.Close()
}

func fromICEState(s ice.ConnectionState) ConnectionState {
	switch s {
	case ice.ConnectionStateNew:
		return ConnectionStateNew
	case ice.ConnectionStateChecking:
		return ConnectionStateChecking
	case ice.ConnectionStateConnected:
		return ConnectionStateConnected
	case ice.ConnectionStateCompleted:
		return ConnectionStateCompleted
	case ice.ConnectionStateFailed:
		return ConnectionStateFailed
	case ice.ConnectionStateDisconnected:
		return ConnectionStateDisconnected
	case ice.ConnectionStateClosed:
		return ConnectionStateClosed
	default:
		return ConnectionStateNew
	}
}
