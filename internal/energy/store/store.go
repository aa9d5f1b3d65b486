package store

import (
	"context"
	"errors"
	"time"

	"github.com/smarttile/energyd/internal/energy/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement it. Sub-repositories keep the surface tidy; the Tx variant
// exposes the same repositories scoped to one transaction so multi-step
// invariants (uniqueness checks, sequence allocation, single-use token
// consumption) are atomic with respect to other writers.
type Store interface {
	Users() Users
	ResetTokens() ResetTokens
	EnergyEvents() EnergyEvents

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or
	// Rollback the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing when fn returns nil
	// and rolling back otherwise. Prefer this over Tx.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername does an exact match on username.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail matches the stored lowercased email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is a ULID minted by the service).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateProfile rewrites username and email together.
	UpdateProfile(ctx context.Context, userID, username, email string) error

	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// UpdateLastLogin records a successful authentication.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error

	DeleteUser(ctx context.Context, userID string) error
}

type ResetTokens interface {
	CreateResetToken(ctx context.Context, t domain.ResetToken) error

	// GetResetToken looks a token up by its opaque string.
	GetResetToken(ctx context.Context, token string) (domain.ResetToken, error)

	// MarkUsed flips used=0 -> used=1 for the token. It only touches rows
	// that are still unused, so under concurrent consumers exactly one
	// caller succeeds; the rest get ErrNotFound and must re-read to learn
	// why (missing vs already used).
	MarkUsed(ctx context.Context, token string) error

	// DeleteTokensByEmail removes every token for an email. Used when the
	// owning account is deleted.
	DeleteTokensByEmail(ctx context.Context, email string) error

	// DeleteExpiredBefore purges tokens whose expiry predates cutoff,
	// used or not. Housekeeping only; recent history stays for audit.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// LedgerTotals is the aggregate view over one user's events, all in joules.
type LedgerTotals struct {
	Steps  int64
	TotalJ float64
	AvgJ   float64
	MaxJ   float64
	MinJ   float64
}

type EnergyEvents interface {
	// AppendEvent inserts e, allocating e.Footsteps as the user's next
	// sequence number in the same statement. Returns the assigned number.
	// Run it inside a transaction when the caller needs the returned
	// event to be consistent with the allocation.
	AppendEvent(ctx context.Context, e domain.EnergyEvent) (int64, error)

	// RecentEvents returns up to limit events, newest first by footsteps.
	RecentEvents(ctx context.Context, userID string, limit int) ([]domain.EnergyEvent, error)

	// SeriesEvents returns the most recent limit events ordered oldest to
	// newest, for charting.
	SeriesEvents(ctx context.Context, userID string, limit int) ([]domain.EnergyEvent, error)

	// TotalsByUser aggregates over the canonical joule values in SQL.
	// Zero-valued totals (not an error) for a user with no events.
	TotalsByUser(ctx context.Context, userID string) (LedgerTotals, error)

	// ClearUser deletes all of a user's events and reports how many went.
	ClearUser(ctx context.Context, userID string) (int64, error)
}
