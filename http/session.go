package http

import (
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	conc "github.com/panyam/gocurrent"
)

// Time allowed to write a message to the peer.
const writeWait = 10 * time.Second

// outgoingData is a data frame queued on the session's Writer.
type outgoingData struct {
	msgType MessageType
	data    []byte
}

// WSSession adapts a gorilla websocket connection to FrameSource and Session.
//
// gorilla consumes control frames inside ReadMessage and reports them through
// its ping, pong and close handlers. WSSession reads on its own pump goroutine
// and forwards every frame, control frames included, to ReadFrame as soon as
// it arrives, in the order the peer sent them. An idle peer that only answers
// pings is therefore seen immediately.
//
// Data frames are serialized through a gocurrent Writer since gorilla allows
// one concurrent writer. Control frames use WriteControl, which gorilla
// allows concurrently with everything else.
type WSSession struct {
	// ConnIdStr is a unique identifier for this connection.
	ConnIdStr string

	conn   *websocket.Conn
	writer *conc.Writer[outgoingData]

	// Read side. frames is closed by the pump after it sets readErr.
	pumpOnce sync.Once
	frames   chan Frame
	sawClose bool
	readErr  error

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

// NewWSSession wraps an upgraded connection and assigns it a new UUID.
func NewWSSession(conn *websocket.Conn) *WSSession {
	s := &WSSession{
		ConnIdStr: uuid.NewString(),
		conn:      conn,
		frames:    make(chan Frame),
		done:      make(chan struct{}),
	}
	conn.SetPingHandler(func(appData string) error {
		s.deliver(Frame{Kind: PingFrame, Data: []byte(appData)})
		return nil
	})
	conn.SetPongHandler(func(appData string) error {
		s.deliver(Frame{Kind: PongFrame, Data: []byte(appData)})
		return nil
	})
	conn.SetCloseHandler(func(code int, text string) error {
		s.sawClose = true
		var reason *CloseReason
		if code != websocket.CloseNoStatusReceived {
			reason = &CloseReason{Code: code, Description: text}
		}
		s.deliver(Frame{Kind: CloseFrame, Close: reason})
		return nil
	})
	s.writer = conc.NewWriter(func(msg outgoingData) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(int(msg.msgType), msg.data)
		if err != nil {
			log.Printf("Write failed on connection %s: %v", s.ConnIdStr, err)
		}
		return err
	})
	return s
}

// ConnId returns the connection ID.
func (s *WSSession) ConnId() string {
	return s.ConnIdStr
}

// Subprotocol returns the sub-protocol negotiated during the upgrade.
func (s *WSSession) Subprotocol() string {
	return s.conn.Subprotocol()
}

// ReadFrame returns the next frame from the peer. The first call starts the
// read pump.
//
// After a close frame, or once the session was closed locally, the stream
// reports io.EOF. Any other read failure is returned as is.
func (s *WSSession) ReadFrame() (Frame, error) {
	s.pumpOnce.Do(func() { go s.pump() })
	f, ok := <-s.frames
	if !ok {
		return Frame{}, s.readErr
	}
	return f, nil
}

// pump runs gorilla's read loop. Control handlers run inside ReadMessage on
// this goroutine, so frames reach deliver in arrival order.
func (s *WSSession) pump() {
	defer close(s.frames)
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.readErr = s.readError(err)
			return
		}
		if !s.deliver(dataFrame(MessageType(msgType), data)) {
			s.readErr = io.EOF
			return
		}
	}
}

func (s *WSSession) readError(err error) error {
	var ce *websocket.CloseError
	if s.sawClose && errors.As(err, &ce) {
		return io.EOF
	}
	if s.isClosed() {
		// A local Close fails the pending read with net.ErrClosed.
		return io.EOF
	}
	return err
}

// deliver hands f to ReadFrame. It gives up once the session is closed.
func (s *WSSession) deliver(f Frame) bool {
	select {
	case s.frames <- f:
		return true
	case <-s.done:
		return false
	}
}

func (s *WSSession) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func dataFrame(msgType MessageType, data []byte) Frame {
	switch msgType {
	case TextMessage:
		return Frame{Kind: TextFrame, Data: data}
	case BinaryMessage:
		return Frame{Kind: BinaryFrame, Data: data}
	}
	return Frame{Kind: NopFrame}
}

// Text queues a text frame.
func (s *WSSession) Text(data []byte) error {
	return s.send(TextMessage, data)
}

// Binary queues a binary frame.
func (s *WSSession) Binary(data []byte) error {
	return s.send(BinaryMessage, data)
}

func (s *WSSession) send(msgType MessageType, data []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.writer.Send(outgoingData{msgType: msgType, data: data})
	return nil
}

// Ping sends a ping control frame.
func (s *WSSession) Ping(data []byte) error {
	return s.control(websocket.PingMessage, data)
}

// Pong sends a pong control frame.
func (s *WSSession) Pong(data []byte) error {
	return s.control(websocket.PongMessage, data)
}

func (s *WSSession) control(messageType int, data []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.conn.WriteControl(messageType, data, time.Now().Add(writeWait))
}

// Close sends a close frame carrying reason and closes the connection.
// A nil reason sends a close frame without a status code.
func (s *WSSession) Close(reason *CloseReason) (err error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.done)

		s.writer.Stop()
		payload := []byte{}
		if reason != nil {
			payload = websocket.FormatCloseMessage(reason.Code, reason.Description)
		}
		err = s.conn.WriteControl(websocket.CloseMessage, payload, time.Now().Add(writeWait))
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
	})
	return
}

// DebugInfo returns debug information about the session.
func (s *WSSession) DebugInfo() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"connId":      s.ConnIdStr,
		"subprotocol": s.conn.Subprotocol(),
		"closed":      s.closed,
		"writer":      s.writer.DebugInfo(),
	}
}

var (
	_ FrameSource = (*WSSession)(nil)
	_ Session     = (*WSSession)(nil)
)
