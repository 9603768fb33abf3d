package jambonz

import "context"

// Handler is the application callback bound to a route.
//
// Handle runs on the connection's dispatch worker, never on the session
// loop. Returned errors and panics are logged and do not affect the
// connection. ctx is cancelled once the connection has closed.
type Handler[S any] interface {
	Handle(ctx context.Context, env RequestEnvelope[S]) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc[S any] func(ctx context.Context, env RequestEnvelope[S]) error

// Handle calls f(ctx, env).
func (f HandlerFunc[S]) Handle(ctx context.Context, env RequestEnvelope[S]) error {
	return f(ctx, env)
}
