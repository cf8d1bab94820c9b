package websocket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AlibekovAA/channel-relay/internal/common/clock"
	"github.com/AlibekovAA/channel-relay/internal/common/constants"
	commonerrors "github.com/AlibekovAA/channel-relay/internal/common/errors"
	"github.com/AlibekovAA/channel-relay/internal/common/logger"
	"github.com/AlibekovAA/channel-relay/internal/relay/metrics"
)

type State int32

const (
	StateConnecting State = iota
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type FrameType int

const (
	FrameText FrameType = iota + 1
	FrameBinary
	FramePing
	FramePong
	FrameClose
	FrameContinuation
)

func (t FrameType) String() string {
	switch t {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	case FrameClose:
		return "close"
	case FrameContinuation:
		return "continuation"
	default:
		return "unknown"
	}
}

// Frame is one protocol frame. CloseCode and CloseText are only meaningful
// for FrameClose.
type Frame struct {
	Type      FrameType
	Payload   []byte
	CloseCode int
	CloseText string
}

// Stream is the transport side of a connection. WriteFrame is only called
// from the session's write loop; WriteControl and Close may be called from
// any goroutine.
type Stream interface {
	WriteFrame(f Frame) error
	WriteControl(f Frame) error
	Close() error
}

type SessionConfig struct {
	SendBufSize int
	PingPeriod  time.Duration
	WelcomeText string
	Clock       clock.Clock
}

// Session bridges one stream to the hub. It is the outbound handle the hub
// stores for this connection.
type Session struct {
	id      string
	name    string
	channel string

	hub    HubInterface
	stream Stream
	log    *logger.Logger
	clock  clock.Clock

	send       chan Frame
	done       chan struct{}
	state      atomic.Int32
	closeOnce  sync.Once
	pingPeriod time.Duration
	welcome    string
	startedAt  time.Time
	ctx        context.Context
}

func NewSession(id, name, channel string, hub HubInterface, stream Stream, log *logger.Logger, config SessionConfig) *Session {
	if config.SendBufSize <= 0 {
		config.SendBufSize = constants.DefaultWebSocketSendBufSize
	}
	if config.WelcomeText == "" {
		config.WelcomeText = constants.SessionWelcomeText
	}
	if config.Clock == nil {
		config.Clock = clock.NewRealClock()
	}

	return &Session{
		id:         id,
		name:       name,
		channel:    channel,
		hub:        hub,
		stream:     stream,
		log:        log,
		clock:      config.Clock,
		send:       make(chan Frame, config.SendBufSize),
		done:       make(chan struct{}),
		pingPeriod: config.PingPeriod,
		welcome:    config.WelcomeText,
		ctx:        context.Background(),
	}
}

func (s *Session) ID() string      { return s.id }
func (s *Session) Name() string    { return s.name }
func (s *Session) Channel() string { return s.channel }

func (s *Session) State() State {
	return State(s.state.Load())
}

// Done is closed once the session starts tearing down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start moves the session to Active, registers it with the hub and sends the
// local welcome. The hub sends its own welcome once registration is applied;
// the two may arrive in either order.
func (s *Session) Start() {
	if !s.state.CompareAndSwap(int32(StateConnecting), int32(StateActive)) {
		return
	}
	s.startedAt = s.clock.Now()

	go s.writePump()

	s.hub.Register(s.id, s.channel, s)
	if err := s.enqueue(Frame{Type: FrameText, Payload: []byte(s.welcome)}); err != nil {
		s.log.WithFields(s.ctx, logger.Fields{
			"conn_id": s.id,
			"channel": s.channel,
			"action":  "relay_session_welcome_dropped",
		}).Debugf("session welcome not queued: %v", err)
	}

	s.log.WithFields(s.ctx, logger.Fields{
		"conn_id": s.id,
		"name":    s.name,
		"channel": s.channel,
		"action":  "relay_session_start",
	}).Info("session started")
}

// Deliver queues text from the hub. It never blocks.
func (s *Session) Deliver(text string) error {
	if s.State() != StateActive {
		return commonerrors.ErrSessionInactive
	}
	return s.enqueue(Frame{Type: FrameText, Payload: []byte(text)})
}

func (s *Session) enqueue(f Frame) error {
	select {
	case <-s.done:
		return commonerrors.ErrSessionInactive
	default:
	}

	select {
	case s.send <- f:
		return nil
	default:
		return commonerrors.ErrBackpressure
	}
}

// HandleFrame applies one inbound frame. It returns false once the session
// stopped reading.
func (s *Session) HandleFrame(f Frame) bool {
	if s.State() != StateActive {
		return false
	}
	metrics.IncrementFrame(f.Type.String())

	switch f.Type {
	case FramePing:
		if err := s.stream.WriteControl(Frame{Type: FramePong, Payload: f.Payload}); err != nil {
			s.log.WithFields(s.ctx, logger.Fields{
				"conn_id": s.id,
				"action":  "relay_session_pong_failed",
			}).Warnf("pong write failed: %v", err)
			s.Close("write_error")
			return false
		}
		return true

	case FramePong:
		return true

	case FrameText:
		s.hub.Broadcast(s.id, s.channel, string(f.Payload))
		return true

	case FrameBinary:
		if err := s.enqueue(Frame{Type: FrameBinary, Payload: f.Payload}); err != nil {
			s.log.WithFields(s.ctx, logger.Fields{
				"conn_id": s.id,
				"action":  "relay_session_binary_dropped",
			}).Debugf("binary echo dropped: %v", err)
		}
		return true

	case FrameClose:
		s.state.Store(int32(StateClosing))
		if err := s.stream.WriteControl(Frame{Type: FrameClose, CloseCode: f.CloseCode, CloseText: f.CloseText}); err != nil {
			s.log.WithFields(s.ctx, logger.Fields{
				"conn_id": s.id,
				"code":    f.CloseCode,
				"action":  "relay_session_close_mirror_failed",
			}).Debugf("close mirror failed: %v", err)
		}
		s.Close("close_frame")
		return false

	default:
		s.log.WithFields(s.ctx, logger.Fields{
			"conn_id": s.id,
			"frame":   f.Type.String(),
			"action":  "relay_session_unsupported_frame",
		}).Warnf("%v", commonerrors.ErrUnsupportedFrame)
		s.Close("unsupported_frame")
		return false
	}
}

// Fail tears the session down after a decode or protocol error. Nothing is
// mirrored to the peer.
func (s *Session) Fail(err error) {
	s.log.WithFields(s.ctx, logger.Fields{
		"conn_id": s.id,
		"channel": s.channel,
		"action":  "relay_session_protocol_error",
	}).Warnf("session protocol error: %v", err)
	s.Close("protocol_error")
}

// Close unregisters from the hub and releases the stream. Safe to call from
// any goroutine and any number of times; only the first reason is recorded.
func (s *Session) Close(reason string) {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosing))
		close(s.done)

		s.hub.Unregister(s.id, s.channel)
		if err := s.stream.Close(); err != nil {
			s.log.WithFields(s.ctx, logger.Fields{
				"conn_id": s.id,
				"action":  "relay_session_stream_close",
			}).Debugf("stream close: %v", err)
		}
		s.state.Store(int32(StateClosed))

		metrics.IncrementDisconnection(reason)
		if !s.startedAt.IsZero() {
			metrics.ObserveSessionDuration(s.clock.Since(s.startedAt))
		}

		s.log.WithFields(s.ctx, logger.Fields{
			"conn_id": s.id,
			"channel": s.channel,
			"reason":  reason,
			"action":  "relay_session_closed",
		}).Info("session closed")
	})
}

func (s *Session) writePump() {
	var tick <-chan time.Time
	if s.pingPeriod > 0 {
		ticker := time.NewTicker(s.pingPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-s.done:
			return

		case f := <-s.send:
			if err := s.stream.WriteFrame(f); err != nil {
				s.log.WithFields(s.ctx, logger.Fields{
					"conn_id": s.id,
					"action":  "relay_session_write_failed",
				}).Debugf("write failed: %v", err)
				s.Close("write_error")
				return
			}

		case <-tick:
			if err := s.stream.WriteControl(Frame{Type: FramePing}); err != nil {
				s.Close("write_error")
				return
			}
		}
	}
}
