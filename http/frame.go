package http

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned by Session writes after the session was closed.
var ErrSessionClosed = errors.New("session closed")

// FrameKind identifies one of the frame types a peer can send.
type FrameKind int

const (
	TextFrame FrameKind = iota + 1
	BinaryFrame
	PingFrame
	PongFrame
	CloseFrame
	ContinuationFrame
	NopFrame
)

func (k FrameKind) String() string {
	switch k {
	case TextFrame:
		return "text"
	case BinaryFrame:
		return "binary"
	case PingFrame:
		return "ping"
	case PongFrame:
		return "pong"
	case CloseFrame:
		return "close"
	case ContinuationFrame:
		return "continuation"
	case NopFrame:
		return "nop"
	}
	return fmt.Sprintf("FrameKind(%d)", int(k))
}

// CloseReason is the status code and optional description carried by a close frame.
type CloseReason struct {
	Code        int
	Description string
}

func (r *CloseReason) String() string {
	if r == nil {
		return "<none>"
	}
	if r.Description == "" {
		return fmt.Sprintf("%d", r.Code)
	}
	return fmt.Sprintf("%d (%s)", r.Code, r.Description)
}

// Frame is one discrete unit read from the peer.
// Data holds the payload for text, binary, ping, pong and continuation frames.
// Close is set only for CloseFrame, and is nil when the peer sent no status code.
type Frame struct {
	Kind  FrameKind
	Data  []byte
	Close *CloseReason
}

// FrameSource yields inbound frames in arrival order.
// ReadFrame blocks until a frame is available. It returns io.EOF once the
// stream has ended and any other error on transport failure.
type FrameSource interface {
	ReadFrame() (Frame, error)
}

// Session is the outbound handle of one connection. It is shared by the
// session loop and every handler invocation, so implementations must be safe
// for concurrent use.
type Session interface {
	// ConnId returns the unique id of this connection.
	ConnId() string

	// Subprotocol returns the negotiated Sec-WebSocket-Protocol value.
	Subprotocol() string

	Text(data []byte) error
	Binary(data []byte) error
	Ping(data []byte) error
	Pong(data []byte) error

	// Close sends a close frame carrying reason (or no status when nil) and
	// releases the underlying transport. Subsequent calls are no-ops.
	Close(reason *CloseReason) error
}

// FrameHandler receives the frames the session loop does not consume itself.
//
// The loop handles ping, pong and heartbeat ticks on its own. Everything else
// is handed over here, in arrival order.
type FrameHandler interface {
	// Name returns a human readable name used in logs.
	Name() string

	// HandleFrame is called for text, binary, continuation and nop frames.
	// It must not block: the loop does not read the next frame until it returns.
	HandleFrame(session Session, frame Frame)

	// OnClose is called once when the peer sent a close frame. The loop waits
	// for it to return before the transport is torn down.
	OnClose(session Session, reason *CloseReason)

	// OnStateChange is called on every session state transition.
	OnStateChange(session Session, state SessionState)
}
