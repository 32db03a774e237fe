// Package webrtc implements the core of a WebRTC peer-connection: the JSEP
// signaling state machine, RTP transceiver and SDP m-line synthesis.
package webrtc

import (
	"fmt"
	"strings"

	"github.com/nullstream/rtcbrain/iceagent"
	"github.com/nullstream/rtcbrain/internal/util"
	"github.com/nullstream/rtcbrain/pkg/rtcerr"
	"github.com/pion/logging"
)

// PeerConnection is a single-owner actor: a worker goroutine exclusively
// owns its transceivers, descriptions, and ICE agent handle, processing one
// command at a time off cmds in the order received. All exported methods
// send a command and block on its reply channel, matching the serial
// mailbox contract of spec §5.
type PeerConnection struct {
	cmds   chan func(*pcState)
	events chan func()
	closed chan struct{}
	log    logging.LeveledLogger
}

// pcState is the mutable state touched only by the worker goroutine.
type pcState struct {
	pc            *PeerConnection
	config        Configuration
	iceAgent      iceagent.Agent
	isClosed      bool
	signalingState SignalingState

	currentLocalDescription  *SessionDescription
	pendingLocalDescription  *SessionDescription
	currentRemoteDescription *SessionDescription
	pendingRemoteDescription *SessionDescription

	lastOfferSDP  string
	lastAnswerSDP string

	transceivers []*RTPTransceiver

	onSignalingStateChange     func(SignalingState)
	onICEConnectionStateChange func(iceagent.ConnectionState)
	onTrack                    func(*MediaStreamTrack, *RTPReceiver)
	onICECandidate             func(*ICECandidateInit)
}

// NewPeerConnection starts a PeerConnection's worker goroutine against the
// given configuration, using a default API (default SettingEngine and the
// production ICE agent), matching spec §4.5's `start`.
func NewPeerConnection(config Configuration) (*PeerConnection, error) {
	return NewAPI().NewPeerConnection(config)
}

// NewPeerConnection starts a new PeerConnection against api's SettingEngine
// and ICE agent factory.
func (api *API) NewPeerConnection(config Configuration) (*PeerConnection, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	pc := &PeerConnection{
		cmds:   make(chan func(*pcState), 16),
		events: make(chan func(), 32),
		closed: make(chan struct{}),
		log:    api.settingEngine.loggerFactory().NewLogger("pc"),
	}

	state := &pcState{
		pc:             pc,
		config:         config,
		iceAgent:       api.newICEAgent(),
		signalingState: SignalingStateStable,
	}

	if err := state.iceAgent.Start(iceagent.RoleControlled, stunServerURLs(config)); err != nil {
		return nil, newInvalidStateError("starting ice agent: %w", err)
	}

	state.iceAgent.OnCandidate(func(c iceagent.Candidate) {
		pc.cmds <- func(s *pcState) { s.handleLocalCandidate(c) }
	})
	state.iceAgent.OnConnectionStateChange(func(cs iceagent.ConnectionState) {
		pc.cmds <- func(s *pcState) { s.handleConnectionStateChange(cs) }
	})

	go func() {
		pc.run(state)
		close(pc.events)
	}()
	go pc.runEvents()

	return pc, nil
}

func stunServerURLs(config Configuration) []string {
	urls := make([]string, 0, len(config.ICEServers))
	for _, server := range config.ICEServers {
		for _, u := range server.URLs {
			scheme, _, _ := strings.Cut(u, ":")
			if scheme = strings.ToLower(scheme); scheme == "stun" || scheme == "stuns" {
				urls = append(urls, u)
			}
		}
	}
	return urls
}

// run is the worker loop: the single place pcState is ever touched.
func (pc *PeerConnection) run(state *pcState) {
	for {
		select {
		case cmd := <-pc.cmds:
			cmd(state)
		case <-pc.closed:
			return
		}
	}
}

// runEvents is the single per-connection goroutine that delivers owner
// callbacks (onSignalingStateChange, onICECandidate, onTrack,
// onICEConnectionStateChange): the worker enqueues them via pcState.emit in
// the order it observes them, and draining them from one dedicated
// goroutine instead of firing each on its own goroutine preserves that
// FIFO/causal order per spec §5/§4.5. pc.events is closed exactly once, by
// the same goroutine that runs pc.run, after the worker loop has returned
// and can no longer enqueue.
func (pc *PeerConnection) runEvents() {
	for f := range pc.events {
		f()
	}
}

// emit enqueues a callback invocation for delivery by runEvents, preserving
// the order in which the worker observed the underlying events.
func (s *pcState) emit(f func()) {
	s.pc.events <- f
}

// send dispatches fn to the worker and blocks until it has run, returning
// the error fn returned, or a closed error once the peer connection has been
// closed. Used by every exported method so that
// state is only ever read or written from the worker goroutine.
func (pc *PeerConnection) send(fn func(*pcState) error) error {
	reply := make(chan error, 1)
	select {
	case pc.cmds <- func(s *pcState) { reply <- fn(s) }:
	case <-pc.closed:
		return newInvalidStateError("%w", ErrConnectionClosed)
	}
	select {
	case err := <-reply:
		return err
	case <-pc.closed:
		return newInvalidStateError("%w", ErrConnectionClosed)
	}
}

// CreateOffer assigns mids to any not-yet-negotiated transceivers and
// assembles a session SDP offer per spec §4.4.1/§4.5.
func (pc *PeerConnection) CreateOffer(options *OfferOptions) (SessionDescription, error) {
	var desc SessionDescription
	err := pc.send(func(s *pcState) error {
		if s.isClosed {
			return newInvalidStateError("%w", ErrConnectionClosed)
		}

		for _, t := range s.transceivers {
			if t.Mid() == "" && !t.Stopped() {
				mid, err := s.freshMid(t.Kind())
				if err != nil {
					return err
				}
				t.assignMid(mid)
			}
		}

		creds, err := s.iceAgent.LocalCredentials()
		if err != nil {
			return err
		}

		built, err := buildSessionDescription(SDPTypeOffer, s.transceivers, SessionParams{
			ICEUfrag: creds.UsernameFragment,
			ICEPwd:   creds.Password,
			Setup:    "actpass",
		})
		if err != nil {
			return err
		}

		s.lastOfferSDP = built.SDP
		desc = built
		return nil
	})
	return desc, err
}

// CreateAnswer mirrors the remote m-lines with reconciled directions and
// local ICE credentials, per spec §4.5. Only valid in have_remote_offer or
// have_local_pranswer.
func (pc *PeerConnection) CreateAnswer(options *AnswerOptions) (SessionDescription, error) {
	var desc SessionDescription
	err := pc.send(func(s *pcState) error {
		if s.isClosed {
			return newInvalidStateError("%w", ErrConnectionClosed)
		}
		if s.signalingState != SignalingStateHaveRemoteOffer && s.signalingState != SignalingStateHaveLocalPranswer {
			return newInvalidStateError("CreateAnswer called in signaling state %s", s.signalingState)
		}

		remote := s.pendingRemoteDescription
		if remote == nil {
			remote = s.currentRemoteDescription
		}
		infos, err := parseRemoteDescription(remote)
		if err != nil {
			return err
		}

		creds, err := s.iceAgent.LocalCredentials()
		if err != nil {
			return err
		}

		for _, info := range infos {
			t := s.transceiverByMid(info.mid)
			if t == nil {
				negotiated, negErr := negotiateCodecs(info.codecs, s.config.primaryCodecsForKind(info.kind))
				if negErr != nil {
					return negErr
				}
				if s.config.RTXEnabled() {
					withRTXPairing, rtx := pairRTX(negotiated)
					negotiated = append(withRTXPairing, rtx...)
				}
				t, err = NewRTPTransceiver(info.kind, nil, s.config, TransceiverOptions{
					Direction: answerDirection(info.direction, RTPTransceiverDirectionSendrecv),
					Codecs:    negotiated,
				})
				if err != nil {
					return err
				}
				t.assignMid(info.mid)
				s.transceivers = append(s.transceivers, t)
			} else {
				t.SetDirection(answerDirection(info.direction, t.Direction()))
			}
		}

		built, err := buildSessionDescription(SDPTypeAnswer, s.transceivers, SessionParams{
			ICEUfrag: creds.UsernameFragment,
			ICEPwd:   creds.Password,
			Setup:    "active",
		})
		if err != nil {
			return err
		}

		s.lastAnswerSDP = built.SDP
		desc = built
		return nil
	})
	return desc, err
}

// SetLocalDescription applies desc as the local description, consulting the
// signaling state machine and, on rollback, skipping SDP parsing entirely.
func (pc *PeerConnection) SetLocalDescription(desc SessionDescription) error {
	return pc.send(func(s *pcState) error {
		if s.isClosed {
			return newInvalidStateError("%w", ErrConnectionClosed)
		}
		return s.setDescription(&desc, stateChangeOpSetLocal)
	})
}

// SetRemoteDescription applies desc as the remote description: it consults
// the state machine, extracts ICE credentials and DTLS fingerprint per
// m-line, configures the ICE agent's remote credentials, triggers candidate
// gathering, and updates or creates transceivers matching each m-line by
// mid, per spec §4.5 "Applying a remote description".
func (pc *PeerConnection) SetRemoteDescription(desc SessionDescription) error {
	return pc.send(func(s *pcState) error {
		if s.isClosed {
			return newInvalidStateError("%w", ErrConnectionClosed)
		}

		if err := s.setDescription(&desc, stateChangeOpSetRemote); err != nil {
			return err
		}

		if desc.Type == SDPTypeRollback {
			return nil
		}

		infos, err := parseRemoteDescription(&desc)
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			return newInvalidSDPError("%w", ErrSDPNoMediaSection)
		}

		first := infos[0]
		if err := s.iceAgent.SetRemoteCredentials(iceagent.Credentials{
			UsernameFragment: first.iceUfrag,
			Password:         first.icePwd,
		}); err != nil {
			return err
		}
		if err := s.iceAgent.GatherCandidates(); err != nil {
			return err
		}

		for _, info := range infos {
			t := s.transceiverByMid(info.mid)
			if t == nil {
				negotiated, negErr := negotiateCodecs(info.codecs, s.config.primaryCodecsForKind(info.kind))
				if negErr != nil {
					return negErr
				}
				if s.config.RTXEnabled() {
					withRTXPairing, rtx := pairRTX(negotiated)
					negotiated = append(withRTXPairing, rtx...)
				}
				t, err = NewRTPTransceiver(info.kind, nil, s.config, TransceiverOptions{Direction: info.direction, Codecs: negotiated})
				if err != nil {
					return err
				}
				t.assignMid(info.mid)
				s.transceivers = append(s.transceivers, t)
				if info.direction.hasSend() {
					track, trackErr := NewMediaStreamTrack(info.kind, nil)
					if trackErr != nil {
						return trackErr
					}
					t.receiver.track = track
					if s.onTrack != nil {
						hdlr, recv := s.onTrack, t.Receiver()
						s.emit(func() { hdlr(track, recv) })
					}
				}
			}
		}

		return nil
	})
}

// setDescription implements spec §4.3/§4.5's set-the-description routine:
// consult the state machine, and on acceptance update current/pending
// description slots per JSEP §4.1.10-11.
func (s *pcState) setDescription(sd *SessionDescription, op stateChangeOp) error {
	cur := s.signalingState

	var next SignalingState
	switch {
	case sd.Type == SDPTypeRollback:
		var err error
		next, err = checkNextSignalingState(cur, SignalingStateStable, op, sd.Type)
		if err != nil {
			return err
		}
		if op == stateChangeOpSetLocal {
			s.pendingLocalDescription = nil
		} else {
			s.pendingRemoteDescription = nil
		}
	case op == stateChangeOpSetLocal:
		switch sd.Type {
		case SDPTypeOffer:
			if sd.SDP == "" {
				sd.SDP = s.lastOfferSDP
			}
			var err error
			next, err = checkNextSignalingState(cur, SignalingStateHaveLocalOffer, op, sd.Type)
			if err != nil {
				return err
			}
			if _, err := sd.Unmarshal(); err != nil {
				return err
			}
			s.pendingLocalDescription = sd
		case SDPTypeAnswer:
			if sd.SDP == "" {
				sd.SDP = s.lastAnswerSDP
			}
			var err error
			next, err = checkNextSignalingState(cur, SignalingStateStable, op, sd.Type)
			if err != nil {
				return err
			}
			if _, err := sd.Unmarshal(); err != nil {
				return err
			}
			s.currentLocalDescription = sd
			s.currentRemoteDescription = s.pendingRemoteDescription
			s.pendingLocalDescription = nil
			s.pendingRemoteDescription = nil
		case SDPTypePranswer:
			var err error
			next, err = checkNextSignalingState(cur, SignalingStateHaveLocalPranswer, op, sd.Type)
			if err != nil {
				return err
			}
			if _, err := sd.Unmarshal(); err != nil {
				return err
			}
			s.pendingLocalDescription = sd
		default:
			return newInvalidTransitionError("invalid SDP type for SetLocalDescription: %s", sd.Type)
		}
	case op == stateChangeOpSetRemote:
		switch sd.Type {
		case SDPTypeOffer:
			var err error
			next, err = checkNextSignalingState(cur, SignalingStateHaveRemoteOffer, op, sd.Type)
			if err != nil {
				return err
			}
			if _, err := sd.Unmarshal(); err != nil {
				return err
			}
			s.pendingRemoteDescription = sd
		case SDPTypeAnswer:
			var err error
			next, err = checkNextSignalingState(cur, SignalingStateStable, op, sd.Type)
			if err != nil {
				return err
			}
			if _, err := sd.Unmarshal(); err != nil {
				return err
			}
			s.currentRemoteDescription = sd
			s.currentLocalDescription = s.pendingLocalDescription
			s.pendingRemoteDescription = nil
			s.pendingLocalDescription = nil
		case SDPTypePranswer:
			var err error
			next, err = checkNextSignalingState(cur, SignalingStateHaveRemotePranswer, op, sd.Type)
			if err != nil {
				return err
			}
			if _, err := sd.Unmarshal(); err != nil {
				return err
			}
			s.pendingRemoteDescription = sd
		default:
			return newInvalidTransitionError("invalid SDP type for SetRemoteDescription: %s", sd.Type)
		}
	default:
		return &rtcerr.OperationError{Err: fmt.Errorf("unhandled state change op: %s", op)}
	}

	s.signalingState = next
	s.pc.log.Infof("signaling state changed to %s", next)
	if s.onSignalingStateChange != nil {
		hdlr := s.onSignalingStateChange
		s.emit(func() { hdlr(next) })
	}
	return nil
}

// freshMid generates a short mid not already taken by any transceiver,
// prefixed with the media kind to match common SDP conventions.
func (s *pcState) freshMid(kind RTPCodecType) (string, error) {
	for i := 0; ; i++ {
		candidate := fmt.Sprintf("%s%d", strings.ToLower(kind.String())[:1], i)
		if s.transceiverByMid(candidate) == nil {
			return candidate, nil
		}
	}
}

func (s *pcState) transceiverByMid(mid string) *RTPTransceiver {
	if mid == "" {
		return nil
	}
	for _, t := range s.transceivers {
		if t.Mid() == mid {
			return t
		}
	}
	return nil
}

func (s *pcState) handleLocalCandidate(c iceagent.Candidate) {
	hdlr := s.onICECandidate
	if hdlr == nil {
		return
	}
	if c.Attr == "" {
		s.emit(func() { hdlr(nil) })
		return
	}
	s.emit(func() { hdlr(&ICECandidateInit{Candidate: "candidate:" + c.Attr}) })
}

func (s *pcState) handleConnectionStateChange(cs iceagent.ConnectionState) {
	s.pc.log.Infof("ice connection state changed to %d", cs)
	if s.onICEConnectionStateChange != nil {
		hdlr := s.onICEConnectionStateChange
		s.emit(func() { hdlr(cs) })
	}
}

// AddICECandidate forwards a trickled remote candidate to the ICE agent,
// per spec §4.5.
func (pc *PeerConnection) AddICECandidate(candidate ICECandidateInit) error {
	return pc.send(func(s *pcState) error {
		if s.isClosed {
			return newInvalidStateError("%w", ErrConnectionClosed)
		}
		attr := strings.TrimPrefix(candidate.Candidate, "candidate:")
		return s.iceAgent.AddRemoteCandidate(iceagent.Candidate{Attr: attr})
	})
}

// AddTransceiverFromTrack creates a transceiver carrying track, appends it
// to the peer connection's transceiver set, and returns it.
func (pc *PeerConnection) AddTransceiverFromTrack(track *MediaStreamTrack, opts TransceiverOptions) (*RTPTransceiver, error) {
	var created *RTPTransceiver
	err := pc.send(func(s *pcState) error {
		if s.isClosed {
			return newInvalidStateError("%w", ErrConnectionClosed)
		}
		t, err := NewRTPTransceiver(track.Kind(), track, s.config, opts)
		if err != nil {
			return err
		}
		s.transceivers = append(s.transceivers, t)
		created = t
		return nil
	})
	return created, err
}

// AddTransceiverFromKind creates a recvonly-by-default transceiver with no
// attached local track, for a peer connection that only wishes to receive
// a kind of media.
func (pc *PeerConnection) AddTransceiverFromKind(kind RTPCodecType, opts TransceiverOptions) (*RTPTransceiver, error) {
	if opts.Direction == RTPTransceiverDirection(Unknown) {
		opts.Direction = RTPTransceiverDirectionRecvonly
	}
	var created *RTPTransceiver
	err := pc.send(func(s *pcState) error {
		if s.isClosed {
			return newInvalidStateError("%w", ErrConnectionClosed)
		}
		t, err := NewRTPTransceiver(kind, nil, s.config, opts)
		if err != nil {
			return err
		}
		s.transceivers = append(s.transceivers, t)
		created = t
		return nil
	})
	return created, err
}

// GetTransceivers returns every transceiver attached to this peer
// connection, including stopped ones.
func (pc *PeerConnection) GetTransceivers() []*RTPTransceiver {
	var result []*RTPTransceiver
	_ = pc.send(func(s *pcState) error {
		result = append([]*RTPTransceiver{}, s.transceivers...)
		return nil
	})
	return result
}

// GetTransceiverByMid returns the transceiver with the given mid, or nil.
func (pc *PeerConnection) GetTransceiverByMid(mid string) *RTPTransceiver {
	var result *RTPTransceiver
	_ = pc.send(func(s *pcState) error {
		result = s.transceiverByMid(mid)
		return nil
	})
	return result
}

// GetCapabilities reports the codecs and header extensions this peer
// connection's Configuration can negotiate for kind.
func (pc *PeerConnection) GetCapabilities(kind RTPCodecType) RTCRtpCapabilities {
	var caps RTCRtpCapabilities
	_ = pc.send(func(s *pcState) error {
		caps = s.config.GetCapabilities(kind)
		return nil
	})
	return caps
}

// SignalingState returns the peer connection's current signaling state.
func (pc *PeerConnection) SignalingState() SignalingState {
	var result SignalingState
	if err := pc.send(func(s *pcState) error {
		result = s.signalingState
		return nil
	}); err != nil {
		return SignalingStateClosed
	}
	return result
}

// LocalDescription returns pendingLocalDescription if set, else
// currentLocalDescription.
func (pc *PeerConnection) LocalDescription() *SessionDescription {
	var result *SessionDescription
	_ = pc.send(func(s *pcState) error {
		if s.pendingLocalDescription != nil {
			result = s.pendingLocalDescription
		} else {
			result = s.currentLocalDescription
		}
		return nil
	})
	return result
}

// RemoteDescription returns pendingRemoteDescription if set, else
// currentRemoteDescription.
func (pc *PeerConnection) RemoteDescription() *SessionDescription {
	var result *SessionDescription
	_ = pc.send(func(s *pcState) error {
		if s.pendingRemoteDescription != nil {
			result = s.pendingRemoteDescription
		} else {
			result = s.currentRemoteDescription
		}
		return nil
	})
	return result
}

// OnSignalingStateChange registers the callback invoked whenever the
// signaling state changes.
func (pc *PeerConnection) OnSignalingStateChange(f func(SignalingState)) {
	_ = pc.send(func(s *pcState) error { s.onSignalingStateChange = f; return nil })
}

// OnICEConnectionStateChange registers the callback invoked whenever the
// ICE agent's connection state changes.
func (pc *PeerConnection) OnICEConnectionStateChange(f func(iceagent.ConnectionState)) {
	_ = pc.send(func(s *pcState) error { s.onICEConnectionStateChange = f; return nil })
}

// OnTrack registers the callback invoked when a remote description
// introduces a new receiving transceiver.
func (pc *PeerConnection) OnTrack(f func(*MediaStreamTrack, *RTPReceiver)) {
	_ = pc.send(func(s *pcState) error { s.onTrack = f; return nil })
}

// OnICECandidate registers the callback invoked for each local ICE
// candidate as it is discovered; a nil candidate signals end-of-candidates.
func (pc *PeerConnection) OnICECandidate(f func(*ICECandidateInit)) {
	_ = pc.send(func(s *pcState) error { s.onICECandidate = f; return nil })
}

// Close transitions the peer connection to closed, stops the ICE agent, and
// drops its transceivers. Idempotent: only the call that actually performs
// the transition to closed tears down pc.closed; later calls observe
// isClosed already true and return cleanly without closing it again.
func (pc *PeerConnection) Close() error {
	select {
	case <-pc.closed:
		return nil
	default:
	}

	var didClose bool
	err := pc.send(func(s *pcState) error {
		if s.isClosed {
			return nil
		}
		s.isClosed = true
		didClose = true
		s.signalingState = SignalingStateClosed

		var closeErrs []error
		if err := s.iceAgent.Close(); err != nil {
			closeErrs = append(closeErrs, err)
		}
		for _, t := range s.transceivers {
			t.Stop()
		}
		s.transceivers = nil

		if s.onSignalingStateChange != nil {
			hdlr := s.onSignalingStateChange
			s.emit(func() { hdlr(SignalingStateClosed) })
		}

		return util.FlattenErrs(closeErrs)
	})
	if didClose {
		close(pc.closed)
	}
	return err
}
