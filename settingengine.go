package webrtc

import (
	"time"

	"github.com/pion/logging"
)

// SettingEngine allows tuning behavior not exposed by Configuration: logging,
// ICE timeouts, and static ICE credentials for signalless setups. Only
// LoggerFactory is read when an API builds PeerConnections and its default
// ICE agent; the ICE timeouts and static credentials are stored here but are
// not passed to the ICE agent.
type SettingEngine struct {
	timeout struct {
		ICEConnection *time.Duration
		ICEKeepalive  *time.Duration
	}
	candidates struct {
		UsernameFragment string
		Password         string
	}
	LoggerFactory logging.LoggerFactory
}

// SetConnectionTimeout sets the amount of silence needed on a candidate pair
// before the ICE agent considers it timed out. The values are only stored on
// the SettingEngine; the ICE agent does not read them.
func (e *SettingEngine) SetConnectionTimeout(connectionTimeout, keepAlive time.Duration) {
	e.timeout.ICEConnection = &connectionTimeout
	e.timeout.ICEKeepalive = &keepAlive
}

// SetICECredentials sets a static ufrag/pwd for the ICE agent to use instead
// of generating one, for signalless or reproducible-environment setups. The
// values are only stored on the SettingEngine; the ICE agent still generates
// its own credentials.
func (e *SettingEngine) SetICECredentials(usernameFragment, password string) {
	e.candidates.UsernameFragment = usernameFragment
	e.candidates.Password = password
}

func (e *SettingEngine) loggerFactory() logging.LoggerFactory {
	if e.LoggerFactory != nil {
		return e.LoggerFactory
	}
	return logging.NewDefaultLoggerFactory()
}
