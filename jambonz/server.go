package jambonz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	gohttp "github.com/panyam/jambonzws/http"
)

// Time allowed for in-flight HTTP requests when the server shuts down.
const shutdownTimeout = 5 * time.Second

type extraRoute[S any] struct {
	path    string
	flavor  RouteFlavor
	handler Handler[S]
}

// Server serves jambonz websocket routes.
//
// By default it listens on 0.0.0.0:8080 and serves a Hook route on /ws and a
// Recording route on /record, both with the handler given to NewServer.
// Setting a path to "" leaves that route out.
//
//	srv := jambonz.NewServer(appState, jambonz.HandlerFunc[*App](handle)).
//	    WithBindPort(3000).
//	    WithRecordPath("/audio")
//	err := srv.ListenAndServe(ctx)
type Server[S any] struct {
	state   S
	handler Handler[S]

	bindIP     string
	bindPort   int
	wsPath     string
	recordPath string
	extra      []extraRoute[S]
	config     *gohttp.WSConnConfig
	closeDrain time.Duration
}

// NewServer creates a server that hands state and every request to handler.
func NewServer[S any](state S, handler Handler[S]) *Server[S] {
	return &Server[S]{
		state:      state,
		handler:    handler,
		bindIP:     "0.0.0.0",
		bindPort:   8080,
		wsPath:     "/ws",
		recordPath: "/record",
		config:     gohttp.DefaultWSConnConfig(),
		closeDrain: DefaultDrainTimeout,
	}
}

func (s *Server[S]) WithBindIP(ip string) *Server[S] {
	s.bindIP = ip
	return s
}

func (s *Server[S]) WithBindPort(port int) *Server[S] {
	s.bindPort = port
	return s
}

// WithWSPath sets the path of the Hook route.
func (s *Server[S]) WithWSPath(path string) *Server[S] {
	s.wsPath = path
	return s
}

// WithRecordPath sets the path of the Recording route.
func (s *Server[S]) WithRecordPath(path string) *Server[S] {
	s.recordPath = path
	return s
}

// WithHeartbeat overrides the ping period and client timeout.
func (s *Server[S]) WithHeartbeat(ping, pong time.Duration) *Server[S] {
	s.config.HeartbeatConfig = &gohttp.HeartbeatConfig{PingPeriod: ping, PongPeriod: pong}
	return s
}

// WithCloseDrain sets how long a connection's Close request waits for the
// handlers of earlier requests before it is handled anyway.
func (s *Server[S]) WithCloseDrain(d time.Duration) *Server[S] {
	s.closeDrain = d
	return s
}

// WithRoute adds a route. A nil handler falls back to the server's handler.
func (s *Server[S]) WithRoute(path string, flavor RouteFlavor, handler Handler[S]) *Server[S] {
	s.extra = append(s.extra, extraRoute[S]{path: path, flavor: flavor, handler: handler})
	return s
}

// Addr returns the host:port the server binds to.
func (s *Server[S]) Addr() string {
	return net.JoinHostPort(s.bindIP, strconv.Itoa(s.bindPort))
}

// Registry builds the frozen route registry. Duplicate paths, invalid
// flavors and missing handlers are reported here.
func (s *Server[S]) Registry() (*Registry[S], error) {
	reg := NewRegistry[S]()
	register := func(path string, flavor RouteFlavor, handler Handler[S]) error {
		if handler == nil {
			handler = s.handler
		}
		_, err := reg.Register(path, flavor, handler)
		return err
	}
	if s.wsPath != "" {
		if err := register(s.wsPath, Hook, nil); err != nil {
			return nil, err
		}
	}
	if s.recordPath != "" {
		if err := register(s.recordPath, Recording, nil); err != nil {
			return nil, err
		}
	}
	for _, r := range s.extra {
		if err := register(r.path, r.flavor, r.handler); err != nil {
			return nil, err
		}
	}
	reg.Freeze()
	return reg, nil
}

// Handler returns an http.Handler serving every route.
func (s *Server[S]) Handler() (http.Handler, error) {
	return s.buildHandler(context.Background())
}

func (s *Server[S]) buildHandler(ctx context.Context) (http.Handler, error) {
	if err := s.config.HeartbeatConfig.Validate(); err != nil {
		return nil, err
	}
	reg, err := s.Registry()
	if err != nil {
		return nil, err
	}
	r := mux.NewRouter()
	r.NotFoundHandler = gohttp.NotFoundHandler()
	for _, route := range reg.Routes() {
		rh := &routeHandler[S]{ctx: ctx, route: route, state: s.state, drain: s.closeDrain}
		r.HandleFunc(route.Path, gohttp.WSServe(route.Flavor.SubProtocol(), rh, s.config)).Methods(http.MethodGet)
		log.Printf("Registered %s route on %s", route.Flavor, route.Path)
	}
	return r, nil
}

// ListenAndServe binds the server address and serves until ctx is cancelled
// or the listener fails. Handlers of open connections see their context
// cancelled when ctx is.
func (s *Server[S]) ListenAndServe(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, lis)
}

// Serve serves every route on lis until ctx is cancelled. lis is closed on return.
func (s *Server[S]) Serve(ctx context.Context, lis net.Listener) error {
	handler, err := s.buildHandler(ctx)
	if err != nil {
		lis.Close()
		return err
	}
	srv := &http.Server{Handler: handler}
	serveDone := make(chan struct{})
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		select {
		case <-serveDone:
			return
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Println("Shutdown failed: ", err)
		}
	}()

	log.Printf("Serving jambonz websockets on %s", lis.Addr())
	err = srv.Serve(lis)
	close(serveDone)
	<-shutdownDone
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
