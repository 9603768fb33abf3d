package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	gut "github.com/panyam/goutils/utils"
	"github.com/panyam/jambonzws/config"
	"github.com/panyam/jambonzws/jambonz"
)

var configPath = flag.String("config", "jambonz.yaml", "Path to the YAML config file")

type callStats struct {
	callSid    string
	sampleRate int
	frames     int
	bytes      int
}

// EchoApp answers every call with a greeting and counts recorded audio.
type EchoApp struct {
	instance string

	mu    sync.Mutex
	calls map[uuid.UUID]*callStats
}

func NewEchoApp() *EchoApp {
	return &EchoApp{
		instance: gut.RandString(8, ""),
		calls:    map[uuid.UUID]*callStats{},
	}
}

func (a *EchoApp) stats(id uuid.UUID) *callStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.calls[id]
	if !ok {
		s = &callStats{}
		a.calls[id] = s
	}
	return s
}

func (a *EchoApp) forget(id uuid.UUID) *callStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.calls[id]
	delete(a.calls, id)
	return s
}

func handle(ctx context.Context, env jambonz.RequestEnvelope[*EchoApp]) error {
	app := env.State
	switch env.Request.Kind {
	case jambonz.HookRequest:
		msg := env.Request.Hook
		log.Printf("%s: %s (call %s)", env.ID, msg.Type, msg.CallSid)
		if msg.MsgID == "" {
			return nil
		}
		var verbs any
		if msg.Type == jambonz.TypeSessionNew {
			verbs = []any{
				map[string]any{"verb": "say", "text": "Hello from echo server " + app.instance},
				map[string]any{"verb": "listen", "url": "/record"},
			}
		}
		return jambonz.Ack(env.Session, msg.MsgID, verbs)
	case jambonz.RecordingNewRequest:
		rec := env.Request.Recording
		s := app.stats(env.ID)
		s.callSid = rec.CallSid
		s.sampleRate = rec.SampleRate
		log.Printf("%s: recording call %s at %d Hz", env.ID, rec.CallSid, rec.SampleRate)
	case jambonz.BinaryRequest:
		s := app.stats(env.ID)
		s.frames++
		s.bytes += len(env.Request.Binary)
	case jambonz.CloseRequest:
		if s := app.forget(env.ID); s != nil && s.frames > 0 {
			log.Printf("%s: call %s ended with %d audio frames (%d bytes)", env.ID, s.callSid, s.frames, s.bytes)
		} else {
			log.Printf("%s: closed with %s", env.ID, env.Request.Close)
		}
	}
	return nil
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	app := NewEchoApp()
	srv := jambonz.NewServer(app, jambonz.HandlerFunc[*EchoApp](handle)).
		WithBindIP(cfg.Server.BindIP).
		WithBindPort(cfg.Server.BindPort).
		WithWSPath(cfg.Routes.WSPath).
		WithRecordPath(cfg.Routes.RecordPath).
		WithHeartbeat(cfg.Heartbeat.PingPeriod, cfg.Heartbeat.PongPeriod)
	for _, r := range cfg.Routes.Extra {
		flavor, err := jambonz.ParseRouteFlavor(r.Flavor)
		if err != nil {
			log.Fatal(err)
		}
		srv.WithRoute(r.Path, flavor, nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Echo server %s starting on %s", app.instance, srv.Addr())
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatal(err)
	}
	log.Println("Echo server stopped")
}
