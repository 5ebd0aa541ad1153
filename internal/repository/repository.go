// Package repository defines the storage interfaces the services depend
// on. Services receive these interfaces, never the concrete sqlite types,
// so tests can substitute in-memory fakes and the backend could move to
// another database without touching business logic.
package repository

import (
	"context"
	"time"

	"github.com/yuta/grassuma/internal/model"
)

// UserRepository manages account rows and the grass power balance.
//
// The balance methods are deliberately narrow: services never write an
// absolute balance, only deltas, and the arithmetic happens inside the
// database so it is atomic with whatever transaction it runs in.
type UserRepository interface {
	// Upsert inserts a user keyed on GitHubID or refreshes login and
	// avatar if the row exists. Fills ID/CreatedAt/UpdatedAt and the
	// current balance/counters on the passed struct.
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// CreditPower adds delta (which may be negative) to the balance,
	// clamping at zero, and returns the new balance.
	CreditPower(ctx context.Context, userID string, delta int) (int, error)

	// DebitPower subtracts cost only if the balance covers it and
	// returns the new balance. If it does not, the balance is untouched
	// and the error matches apperror.ErrInsufficientPower.
	DebitPower(ctx context.Context, userID string, cost int) (int, error)

	IncrementDiscoveries(ctx context.Context, userID string) error

	// ResetDiscoveryCount zeroes the counter. The game never calls this;
	// it exists for the debug reset endpoint only.
	ResetDiscoveryCount(ctx context.Context, userID string) error
}

// ContributionRepository manages the per-(user, day) reconciliation rows.
type ContributionRepository interface {
	// GetDaily returns the record for (userID, date) or an error
	// matching apperror.ErrNotFound. date is a UTC "2006-01-02" string.
	GetDaily(ctx context.Context, userID, date string) (*model.DailyContribution, error)
	InsertDaily(ctx context.Context, rec *model.DailyContribution) error
	UpdateDaily(ctx context.Context, id string, count, reward int, syncedAt time.Time) error
}

// SpeciesRepository reads the static catalog and seeds it at startup.
type SpeciesRepository interface {
	// SeedSpecies upserts catalog rows by ID. Idempotent; safe on every
	// startup.
	SeedSpecies(ctx context.Context, species []model.Species) error
	ListSpecies(ctx context.Context) ([]model.Species, error)
	GetSpecies(ctx context.Context, id int64) (*model.Species, error)

	// ListEligibleSpecies returns active species whose threshold the
	// power covers and which userID does not already own.
	ListEligibleSpecies(ctx context.Context, userID string, power int) ([]model.Species, error)
}

// DiscoveryRepository manages owned UMA instances.
type DiscoveryRepository interface {
	InsertDiscovery(ctx context.Context, d *model.Discovery) error

	// GetDiscoveryForUser scopes the lookup to the owner: another
	// user's discovery ID yields apperror.ErrNotFound, not a leak.
	GetDiscoveryForUser(ctx context.Context, id, userID string) (*model.Discovery, error)
	ListDiscoveries(ctx context.Context, userID string) ([]model.Discovery, error)
	UpdateGrowth(ctx context.Context, id string, level, affection, fedDelta int) error

	// DeleteDiscoveriesForUser removes all of a user's discoveries and
	// returns how many were removed. Debug/reset only.
	DeleteDiscoveriesForUser(ctx context.Context, userID string) (int, error)
}

// ActivityRepository appends audit rows. Write-only from the core's view.
type ActivityRepository interface {
	AppendActivity(ctx context.Context, entry *model.ActivityEntry) error
}

// Store bundles every repository the services need.
type Store interface {
	UserRepository
	ContributionRepository
	SpeciesRepository
	DiscoveryRepository
	ActivityRepository
}

// TxStore is a Store that can run a function inside one database
// transaction. The Store passed to fn sees uncommitted writes; fn
// returning an error rolls everything back.
//
// This is the unit-of-work boundary the engines rely on: record+balance
// on sync, insert+debit+counter+log on discovery, update+debit+log on
// feeding each run inside exactly one InTx call.
type TxStore interface {
	Store
	InTx(ctx context.Context, fn func(Store) error) error
}
