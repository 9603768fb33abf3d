package http

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidHeartbeat is returned by HeartbeatConfig.Validate.
var ErrInvalidHeartbeat = errors.New("invalid heartbeat config")

// HeartbeatConfig controls the liveness protocol of a session.
// A session pings its peer every PingPeriod and closes the connection when no
// ping or pong has arrived from the peer for longer than PongPeriod.
type HeartbeatConfig struct {
	// PingPeriod specifies how often the session wakes up to check liveness
	// and send a ping to the remote peer.
	// Default: 5 seconds.
	PingPeriod time.Duration

	// PongPeriod specifies how long the session waits for a ping or pong from
	// the peer before considering the connection dead. Content frames do not
	// count. Must be at least twice PingPeriod so one full ping/pong round
	// trip fits before the timeout.
	// Default: 10 seconds.
	PongPeriod time.Duration
}

// DefaultHeartbeatConfig returns a HeartbeatConfig with the defaults:
//   - PingPeriod: 5 seconds
//   - PongPeriod: 10 seconds
func DefaultHeartbeatConfig() *HeartbeatConfig {
	return &HeartbeatConfig{
		PingPeriod: time.Second * 5,
		PongPeriod: time.Second * 10,
	}
}

// Validate checks that both periods are positive and PongPeriod >= 2*PingPeriod.
func (c *HeartbeatConfig) Validate() error {
	if c.PingPeriod <= 0 {
		return fmt.Errorf("%w: ping period must be positive, got %s", ErrInvalidHeartbeat, c.PingPeriod)
	}
	if c.PongPeriod < 2*c.PingPeriod {
		return fmt.Errorf("%w: pong period %s must be at least twice the ping period %s",
			ErrInvalidHeartbeat, c.PongPeriod, c.PingPeriod)
	}
	return nil
}
