package clock

import "time"

// Clock provides time to the application.
// Using an interface enables deterministic tests via a controllable implementation.
type Clock interface {
	Now() time.Time
	// Today returns the current date truncated to midnight UTC. Trip
	// partitioning into upcoming vs past compares DateEnd against this.
	Today() time.Time
}
