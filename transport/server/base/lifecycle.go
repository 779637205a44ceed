package base

// RemovalPolicy determines when a session should be removed from the session store.
type RemovalPolicy int

const (
	// RemovalOnDisconnect removes session as soon as streaming connection closes.
	// Useful for strict cleanup behavior.
	RemovalOnDisconnect RemovalPolicy = iota
	// RemovalAfterGrace keeps session for a grace period to allow quick reconnects.
	RemovalAfterGrace
	// RemovalAfterIdle removes session after it has been idle for a configured TTL.
	RemovalAfterIdle
	// RemovalManual leaves removal entirely to explicit DELETE or external cleanup.
	RemovalManual
)

// OverflowPolicy determines what happens when a session's buffered-event
// ring exceeds its configured capacity.
type OverflowPolicy int

const (
	// OverflowDrop silently drops the oldest buffered events (default).
	OverflowDrop OverflowPolicy = iota
	// OverflowMark drops the oldest events but also flags the session as
	// having lost history, so a resumed client can be told its
	// Last-Event-ID can no longer be satisfied in full.
	OverflowMark
)
