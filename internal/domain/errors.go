package domain

import "errors"

// Sentinel errors returned across the scheduling core's control surface.
// PersistenceError is deliberately absent here: persistence failures are
// logged and swallowed internally (see internal/scheduler) rather than
// surfaced to callers.
var (
	ErrWaitingAreaFull = errors.New("waiting area is full")
	ErrPileQueueFull   = errors.New("pile queue is full")
	ErrNotFound        = errors.New("request not found")
	ErrCannotModify    = errors.New("request cannot be modified while charging")
	ErrInvalidMode     = errors.New("invalid charging mode")
	ErrInvalidAmount   = errors.New("amount_kwh must be positive")
	ErrInvalidInterval = errors.New("end must be after start")
	ErrPileUnavailable = errors.New("pile is unavailable")
	ErrPileNotFound    = errors.New("pile not found")
	ErrAlreadyRunning  = errors.New("scheduler already running")
	ErrNotRunning      = errors.New("scheduler not running")
)
