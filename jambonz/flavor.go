package jambonz

import (
	"fmt"
	"strings"
)

// RouteFlavor determines how text and binary frames of a connection are
// turned into requests. A connection keeps the flavor of its route for its
// whole lifetime.
type RouteFlavor int

const (
	// Hook routes carry jambonz websocket API messages as JSON text frames.
	Hook RouteFlavor = iota + 1
	// Recording routes carry a JSON control message followed by binary audio.
	Recording
)

// Sub-protocols written in the Sec-WebSocket-Protocol response header.
const (
	HookSubProtocol      = "ws.jambonz.org"
	RecordingSubProtocol = "audio.jambonz.org"
)

// SubProtocol returns the negotiated sub-protocol for the flavor.
func (f RouteFlavor) SubProtocol() string {
	switch f {
	case Hook:
		return HookSubProtocol
	case Recording:
		return RecordingSubProtocol
	}
	return ""
}

// Valid reports whether f is one of the declared flavors.
func (f RouteFlavor) Valid() bool {
	return f == Hook || f == Recording
}

func (f RouteFlavor) String() string {
	switch f {
	case Hook:
		return "hook"
	case Recording:
		return "recording"
	}
	return fmt.Sprintf("RouteFlavor(%d)", int(f))
}

// ParseRouteFlavor parses "hook" or "recording", case insensitively.
func ParseRouteFlavor(s string) (RouteFlavor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hook":
		return Hook, nil
	case "recording", "record":
		return Recording, nil
	}
	return 0, fmt.Errorf("unknown route flavor %q", s)
}
