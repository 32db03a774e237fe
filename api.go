// +build !js

package webrtc

import "github.com/nullstream/rtcbrain/iceagent"

// API bundles the global settings used to construct PeerConnections: a
// SettingEngine and an ICE agent factory.
type API struct {
	settingEngine *SettingEngine
	newICEAgent   func() iceagent.Agent
}

// NewAPI creates a new API object for keeping semi-global settings shared by
// PeerConnections created through it.
func NewAPI(options ...func(*API)) *API {
	a := &API{}

	for _, o := range options {
		o(a)
	}

	if a.settingEngine == nil {
		a.settingEngine = &SettingEngine{}
	}

	if a.newICEAgent == nil {
		settingEngine := a.settingEngine
		a.newICEAgent = func() iceagent.Agent {
			return iceagent.NewProductionAgent(settingEngine.loggerFactory())
		}
	}

	return a
}

// WithSettingEngine allows providing a SettingEngine to the API.
// Settings should not be changed after passing the engine to an API.
func WithSettingEngine(s SettingEngine) func(a *API) {
	return func(a *API) {
		a.settingEngine = &s
	}
}

// WithICEAgentFactory overrides how PeerConnections created through this API
// construct their ICE agent. Tests use this to inject a Fake.
func WithICEAgentFactory(newAgent func() iceagent.Agent) func(a *API) {
	return func(a *API) {
		a.newICEAgent = newAgent
	}
}
