package engine

import "time"

type Config struct {
	// LockTimeout bounds the wait for the per team admission token.
	LockTimeout time.Duration `envconfig:"HUNT_LOCK_TIMEOUT" default:"5s"`
	// AuditCancelledHints writes a game log event for every hint dropped by
	// game cancellation.
	AuditCancelledHints bool `envconfig:"HUNT_AUDIT_CANCELLED_HINTS" default:"false"`
}
