package http

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	conc "github.com/panyam/gocurrent"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SessionState is the lifecycle state of a session loop.
type SessionState int

const (
	StateOpen SessionState = iota
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// EndCause records why a session loop left the Open state.
type EndCause int

const (
	// EndPeerClosed means the peer sent a close frame.
	EndPeerClosed EndCause = iota + 1
	// EndStreamEnded means the frame stream ended without a close frame.
	EndStreamEnded
	// EndTransportError means reading from the transport failed.
	EndTransportError
	// EndTimeout means no ping or pong arrived within the pong period.
	EndTimeout
)

func (c EndCause) String() string {
	switch c {
	case EndPeerClosed:
		return "peer closed"
	case EndStreamEnded:
		return "stream ended"
	case EndTransportError:
		return "transport error"
	case EndTimeout:
		return "heartbeat timeout"
	}
	return fmt.Sprintf("EndCause(%d)", int(c))
}

// SessionResult describes how a session loop ended.
type SessionResult struct {
	ConnId string
	State  SessionState
	End    EndCause

	// Reason is the close reason sent back to the peer. Only a peer close
	// carries one.
	Reason *CloseReason

	// Err is the transport error for EndTransportError.
	Err error
}

// WSHandler validates HTTP requests and creates the FrameHandler for the
// connection that will result from the upgrade.
type WSHandler interface {
	// Validate checks if the HTTP request should be upgraded to a WebSocket.
	// Return (handler, true) to proceed with the upgrade.
	// Return (nil, false) to reject (the handler should write the error response).
	Validate(w http.ResponseWriter, r *http.Request) (FrameHandler, bool)
}

// WSConnConfig combines HeartbeatConfig with WebSocket-specific settings.
// It controls connection upgrade behavior and lifecycle timing.
type WSConnConfig struct {
	*HeartbeatConfig
	// Upgrader handles the HTTP to WebSocket protocol upgrade.
	// Configure ReadBufferSize, WriteBufferSize, and CheckOrigin as needed.
	// Its Error callback is replaced by WSServe.
	Upgrader websocket.Upgrader
}

// DefaultWSConnConfig returns a WSConnConfig with sensible defaults:
//   - ReadBufferSize: 1024 bytes
//   - WriteBufferSize: 1024 bytes
//   - CheckOrigin: allows all origins
//   - PingPeriod: 5 seconds
//   - PongPeriod: 10 seconds
func DefaultWSConnConfig() *WSConnConfig {
	return &WSConnConfig{
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		HeartbeatConfig: DefaultHeartbeatConfig(),
	}
}

// WSServe creates an http.HandlerFunc that upgrades HTTP requests to WebSocket
// connections and runs a session loop for each of them.
//
// subprotocol is written as the Sec-WebSocket-Protocol response header on
// every successful upgrade. If the upgrade fails a 500 JSON error is written
// and no session is started.
//
// Example:
//
//	router.HandleFunc("/ws", gohttp.WSServe("ws.jambonz.org", handler, nil))
//
// The lifecycle is:
//  1. handler.Validate() is called to check the request
//  2. If valid, the connection is upgraded to WebSocket
//  3. WSHandleConn runs the session loop until the session is closed
//
// A FrameHandler that has a ConnId() string method names the session.
func WSServe(subprotocol string, handler WSHandler, config *WSConnConfig) http.HandlerFunc {
	if config == nil {
		config = DefaultWSConnConfig()
	}
	upgrader := config.Upgrader
	upgrader.Error = upgradeError
	return func(rw http.ResponseWriter, req *http.Request) {
		fh, isValid := handler.Validate(rw, req)
		if !isValid {
			return
		}

		var header http.Header
		if subprotocol != "" {
			header = http.Header{}
			header.Set("Sec-WebSocket-Protocol", subprotocol)
		}
		conn, err := upgrader.Upgrade(rw, req, header)
		if err != nil {
			log.Println("WS upgrade failed: ", err)
			return
		}

		session := NewWSSession(conn)
		if named, ok := fh.(interface{ ConnId() string }); ok {
			session.ConnIdStr = named.ConnId()
		}
		log.Printf("Starting %s connection: %s", fh.Name(), session.ConnId())
		result := WSHandleConn(session, session, fh, config.HeartbeatConfig)
		log.Printf("Closed %s connection: %s (%s, reason %s)", fh.Name(), result.ConnId, result.End, result.Reason)
	}
}

func upgradeError(w http.ResponseWriter, r *http.Request, code int, reason error) {
	SendJsonResponse(w, nil, status.Errorf(codes.Internal, "websocket upgrade failed (%d): %v", code, reason))
}

// WSHandleConn runs the session loop of one connection until it is closed.
//
// Each iteration waits on exactly one of two events: the next frame from
// source, or the heartbeat tick. Frames are read by a background Reader so a
// tick never discards a frame and frames are handled in arrival order.
//
//   - Ping: refresh liveness and reply with a pong carrying the same payload.
//   - Pong: refresh liveness.
//   - Close: handler.OnClose is awaited, then the session closes with the
//     peer's reason.
//   - Any other frame goes to handler.HandleFrame. Content frames do not
//     refresh liveness.
//   - Read error or end of stream: the session closes without a reason.
//   - Tick: if no ping or pong arrived within PongPeriod the session closes
//     without a reason, otherwise a ping is sent.
//
// The first heartbeat ping is sent as soon as the loop starts. Failures to
// send pings, pongs or the final close are logged and otherwise ignored.
func WSHandleConn(source FrameSource, session Session, handler FrameHandler, config *HeartbeatConfig) SessionResult {
	if config == nil {
		config = DefaultHeartbeatConfig()
	}
	reader := conc.NewReader(source.ReadFrame)
	defer reader.Stop()

	pingTimer := time.NewTicker(config.PingPeriod)
	defer pingTimer.Stop()

	result := SessionResult{ConnId: session.ConnId(), State: StateOpen}
	handler.OnStateChange(session, StateOpen)

	lastHeartbeat := time.Now()
	sendPing(session)

loop:
	for {
		select {
		case <-pingTimer.C:
			if time.Since(lastHeartbeat) > config.PongPeriod {
				log.Printf("client %s has not sent heartbeat in over %s; disconnecting", result.ConnId, config.PongPeriod)
				result.End = EndTimeout
				break loop
			}
			sendPing(session)
		case msg := <-reader.OutputChan():
			if msg.Error != nil {
				if msg.Error == io.EOF {
					result.End = EndStreamEnded
				} else {
					log.Printf("Read failed on connection %s: %v", result.ConnId, msg.Error)
					result.End = EndTransportError
					result.Err = msg.Error
				}
				break loop
			}
			frame := msg.Value
			switch frame.Kind {
			case PingFrame:
				lastHeartbeat = time.Now()
				if err := session.Pong(frame.Data); err != nil {
					log.Printf("Pong failed on connection %s: %v", result.ConnId, err)
				}
			case PongFrame:
				lastHeartbeat = time.Now()
			case CloseFrame:
				handler.OnClose(session, frame.Close)
				result.Reason = frame.Close
				result.End = EndPeerClosed
				break loop
			default:
				handler.HandleFrame(session, frame)
			}
		}
	}

	result.State = StateClosing
	handler.OnStateChange(session, StateClosing)
	if err := session.Close(result.Reason); err != nil {
		log.Printf("Close failed on connection %s: %v", result.ConnId, err)
	}
	result.State = StateClosed
	handler.OnStateChange(session, StateClosed)
	return result
}

func sendPing(session Session) {
	if err := session.Ping(nil); err != nil {
		log.Printf("Ping failed on connection %s: %v", session.ConnId(), err)
	}
}
