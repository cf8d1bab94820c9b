package websocket

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	gorillaWS "github.com/gorilla/websocket"
)

type StreamConfig struct {
	WriteWait  time.Duration
	PongWait   time.Duration
	MaxMsgSize int64
}

// FrameHandler receives decoded frames from a stream. *Session implements it.
type FrameHandler interface {
	HandleFrame(f Frame) bool
	Fail(err error)
	Close(reason string)
}

// WSStream adapts a gorilla connection to Stream.
type WSStream struct {
	conn   *gorillaWS.Conn
	config StreamConfig
}

func NewStream(conn *gorillaWS.Conn, config StreamConfig) *WSStream {
	return &WSStream{conn: conn, config: config}
}

func (s *WSStream) deadline() time.Time {
	if s.config.WriteWait <= 0 {
		return time.Time{}
	}
	return time.Now().Add(s.config.WriteWait)
}

func (s *WSStream) WriteFrame(f Frame) error {
	var messageType int
	switch f.Type {
	case FrameText:
		messageType = gorillaWS.TextMessage
	case FrameBinary:
		messageType = gorillaWS.BinaryMessage
	default:
		return s.WriteControl(f)
	}

	if err := s.conn.SetWriteDeadline(s.deadline()); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, f.Payload)
}

// WriteControl writes ping, pong and close frames. gorilla allows it
// concurrently with WriteFrame.
func (s *WSStream) WriteControl(f Frame) error {
	var (
		messageType int
		data        []byte
	)
	switch f.Type {
	case FramePing:
		messageType, data = gorillaWS.PingMessage, f.Payload
	case FramePong:
		messageType, data = gorillaWS.PongMessage, f.Payload
	case FrameClose:
		messageType, data = gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(f.CloseCode, f.CloseText)
	default:
		return fmt.Errorf("write control %s: %w", f.Type, errUnsupportedControl)
	}

	err := s.conn.WriteControl(messageType, data, s.deadline())
	if errors.Is(err, gorillaWS.ErrCloseSent) {
		return nil
	}
	return err
}

var errUnsupportedControl = errors.New("not a control frame")

func (s *WSStream) Close() error {
	return s.conn.Close()
}

// Serve reads frames until the connection ends and hands each one to h. It
// blocks; run it on its own goroutine.
func (s *WSStream) Serve(h FrameHandler) {
	if s.config.MaxMsgSize > 0 {
		s.conn.SetReadLimit(s.config.MaxMsgSize)
	}
	s.extendReadDeadline()

	s.conn.SetPingHandler(func(appData string) error {
		s.extendReadDeadline()
		h.HandleFrame(Frame{Type: FramePing, Payload: []byte(appData)})
		return nil
	})
	s.conn.SetPongHandler(func(appData string) error {
		s.extendReadDeadline()
		h.HandleFrame(Frame{Type: FramePong, Payload: []byte(appData)})
		return nil
	})
	s.conn.SetCloseHandler(func(code int, text string) error {
		h.HandleFrame(Frame{Type: FrameClose, CloseCode: code, CloseText: text})
		return nil
	})

	for {
		messageType, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.finish(h, err)
			return
		}

		var f Frame
		switch messageType {
		case gorillaWS.TextMessage:
			f = Frame{Type: FrameText, Payload: payload}
		case gorillaWS.BinaryMessage:
			f = Frame{Type: FrameBinary, Payload: payload}
		default:
			f = Frame{Type: FrameType(0), Payload: payload}
		}
		if !h.HandleFrame(f) {
			return
		}
	}
}

func (s *WSStream) extendReadDeadline() {
	if s.config.PongWait > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
	}
}

func (s *WSStream) finish(h FrameHandler, err error) {
	var closeErr *gorillaWS.CloseError
	if errors.As(err, &closeErr) {
		if closeErr.Code == gorillaWS.CloseAbnormalClosure {
			h.Close("stream_closed")
			return
		}
		// The close handler already mirrored the frame.
		h.Close("close_frame")
		return
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		h.Close("timeout")
		return
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		h.Close("stream_closed")
		return
	}

	h.Fail(err)
}
