package domain

import "time"

// EnergyEvent is one recorded footstep sample in a user's ledger. Events
// are immutable once written; Footsteps is the per-user sequence number
// assigned by the ledger, never by the caller.
type EnergyEvent struct {
	ID           string
	UserID       string
	Timestamp    time.Time
	Footsteps    int64   // 1, 2, 3, ... per user, no gaps
	Force        float64 // newtons
	Displacement float64 // meters
	Energy       float64 // joules, force * displacement, fixed at insert
}
