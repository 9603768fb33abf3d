package http

import (
	"io"
	"sync"
)

// fakeConn is an in-memory FrameSource and Session.
type fakeConn struct {
	frames  chan Frame
	readErr chan error
	done    chan struct{}

	mu          sync.Mutex
	texts       [][]byte
	binaries    [][]byte
	pings       [][]byte
	pongs       [][]byte
	closeCalls  int
	closeReason *CloseReason
	closeOnce   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames:  make(chan Frame, 64),
		readErr: make(chan error, 1),
		done:    make(chan struct{}),
	}
}

func (f *fakeConn) ReadFrame() (Frame, error) {
	select {
	case fr, ok := <-f.frames:
		if !ok {
			return Frame{}, io.EOF
		}
		return fr, nil
	case err := <-f.readErr:
		return Frame{}, err
	case <-f.done:
		return Frame{}, io.EOF
	}
}

func (f *fakeConn) ConnId() string      { return "fake" }
func (f *fakeConn) Subprotocol() string { return "" }

func (f *fakeConn) Text(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, data)
	return nil
}

func (f *fakeConn) Binary(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.binaries = append(f.binaries, data)
	return nil
}

func (f *fakeConn) Ping(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings = append(f.pings, data)
	return nil
}

func (f *fakeConn) Pong(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pongs = append(f.pongs, data)
	return nil
}

func (f *fakeConn) Close(reason *CloseReason) error {
	f.mu.Lock()
	f.closeCalls++
	f.closeReason = reason
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.done) })
	return nil
}

func (f *fakeConn) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pings)
}

func (f *fakeConn) pongPayloads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.pongs...)
}

// recordingHandler records everything the session loop hands to it.
type recordingHandler struct {
	mu     sync.Mutex
	frames []Frame
	closes []*CloseReason
	states []SessionState
}

func (h *recordingHandler) Name() string { return "recording" }

func (h *recordingHandler) HandleFrame(session Session, frame Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, frame)
}

func (h *recordingHandler) OnClose(session Session, reason *CloseReason) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes = append(h.closes, reason)
}

func (h *recordingHandler) OnStateChange(session Session, state SessionState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, state)
}

func (h *recordingHandler) seenFrames() []Frame {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Frame(nil), h.frames...)
}

func (h *recordingHandler) seenStates() []SessionState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]SessionState(nil), h.states...)
}

func (h *recordingHandler) seenCloses() []*CloseReason {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*CloseReason(nil), h.closes...)
}
