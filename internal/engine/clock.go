package engine

import "time"

// Clock supplies "now" so tests can pin it. Every time comparison in the
// engine goes through an injected Clock; nothing reads time.Now directly.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
