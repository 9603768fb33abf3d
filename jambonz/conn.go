package jambonz

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	gohttp "github.com/panyam/jambonzws/http"
)

// routeHandler creates a routeConn for every upgrade on its route.
type routeHandler[S any] struct {
	ctx   context.Context
	route *Route[S]
	state S
	drain time.Duration
}

func (h *routeHandler[S]) Validate(w http.ResponseWriter, r *http.Request) (gohttp.FrameHandler, bool) {
	return &routeConn[S]{
		ctx:   h.ctx,
		id:    uuid.New(),
		route: h.route,
		state: h.state,
		drain: h.drain,
	}, true
}

// routeConn classifies the frames of one connection and dispatches the
// resulting requests to the route's handler.
type routeConn[S any] struct {
	ctx   context.Context
	id    uuid.UUID
	route *Route[S]
	state S
	drain time.Duration

	dispatcher *Dispatcher[S]
	cancel     context.CancelFunc
}

func (c *routeConn[S]) Name() string {
	return c.route.Flavor.String() + " " + c.route.Path
}

// ConnId makes the session adopt the envelope ID as its connection id.
func (c *routeConn[S]) ConnId() string {
	return c.id.String()
}

func (c *routeConn[S]) HandleFrame(session gohttp.Session, frame gohttp.Frame) {
	req, ok, err := Classify(c.route.Flavor, frame)
	if err != nil {
		log.Printf("Dropping %s frame on %s: %v", frame.Kind, c.id, err)
		return
	}
	if ok {
		c.dispatcher.Dispatch(c.envelope(session, req))
	}
}

func (c *routeConn[S]) OnClose(session gohttp.Session, reason *gohttp.CloseReason) {
	req, _, _ := Classify(c.route.Flavor, gohttp.Frame{Kind: gohttp.CloseFrame, Close: reason})
	c.dispatcher.DispatchAndWait(c.envelope(session, req))
}

func (c *routeConn[S]) OnStateChange(session gohttp.Session, state gohttp.SessionState) {
	switch state {
	case gohttp.StateOpen:
		var ctx context.Context
		ctx, c.cancel = context.WithCancel(c.ctx)
		c.dispatcher = NewDispatcher(ctx, c.route.Handler)
		c.dispatcher.DrainTimeout = c.drain
	case gohttp.StateClosed:
		c.dispatcher.Stop()
		c.cancel()
	}
}

func (c *routeConn[S]) envelope(session gohttp.Session, req Request) RequestEnvelope[S] {
	return RequestEnvelope[S]{
		ID:      c.id,
		Session: session,
		Request: req,
		State:   c.state,
	}
}
