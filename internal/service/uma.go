package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/rs/xid"

	"github.com/yuta/grassuma/internal/apperror"
	"github.com/yuta/grassuma/internal/model"
	"github.com/yuta/grassuma/internal/repository"
	"github.com/yuta/grassuma/internal/session"
)

// UMAService runs the creature game: discovery rituals, feeding, and the
// collection listing. Everything that spends grass power goes through
// one transaction per operation, so a failed spend leaves no trace.
type UMAService struct {
	store  repository.TxStore
	logger *slog.Logger

	// pick selects an index in [0, n). Uniform in production; injected
	// so tests can force a particular draw.
	pick func(n int) int
}

func NewUMAService(store repository.TxStore, logger *slog.Logger) *UMAService {
	return &UMAService{
		store:  store,
		logger: logger,
		pick:   rand.IntN,
	}
}

// DiscoverResult reports one discovery attempt. Found=false is the
// empty-pool outcome: the attempt cost nothing and Discovery is nil.
type DiscoverResult struct {
	Found          bool
	Discovery      *model.Discovery
	Cost           int
	RemainingPower int
}

// Discover runs one discovery ritual for the caller.
//
// Eligible species are those still active, not yet owned, and whose
// threshold the current balance covers. One is drawn uniformly; the
// ritual costs max(threshold, MinDiscoverCost), deducted in the same
// transaction that records the new discovery. A balance below
// MinDiscoverCost fails with ErrInsufficientPower before any draw; an
// empty pool is a normal outcome, not an error.
func (s *UMAService) Discover(ctx context.Context, sess session.Session) (*DiscoverResult, error) {
	var result DiscoverResult
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := ensureAccount(ctx, tx, sess.Identity)
		if err != nil {
			return err
		}
		if user.GrassPower < MinDiscoverCost {
			return apperror.InsufficientPower(user.GrassPower, MinDiscoverCost)
		}

		pool, err := tx.ListEligibleSpecies(ctx, user.ID, user.GrassPower)
		if err != nil {
			return err
		}
		if len(pool) == 0 {
			result = DiscoverResult{Found: false, RemainingPower: user.GrassPower}
			return nil
		}

		species := pool[s.pick(len(pool))]
		cost := discoverCost(species.DiscoveryThreshold)

		remaining, err := tx.DebitPower(ctx, user.ID, cost)
		if err != nil {
			return err
		}

		d := &model.Discovery{
			ID:           xid.New().String(),
			UserID:       user.ID,
			SpeciesID:    species.ID,
			Level:        1,
			Affection:    0,
			DiscoveredAt: time.Now().UTC(),

			SpeciesName: species.Name,
			Emoji:       species.Emoji,
			Rarity:      species.Rarity,
			Habitat:     species.Habitat,
			Description: species.Description,
		}
		if err := tx.InsertDiscovery(ctx, d); err != nil {
			return err
		}
		if err := tx.IncrementDiscoveries(ctx, user.ID); err != nil {
			return err
		}
		if err := tx.AppendActivity(ctx, &model.ActivityEntry{
			ID:          xid.New().String(),
			UserID:      user.ID,
			Type:        model.ActivityDiscovery,
			Description: fmt.Sprintf("discovered %s %s", species.Emoji, species.Name),
			Cost:        cost,
			CreatedAt:   time.Now().UTC(),
		}); err != nil {
			return err
		}

		result = DiscoverResult{Found: true, Discovery: d, Cost: cost, RemainingPower: remaining}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service/uma: discover: %w", err)
	}

	if result.Found {
		s.logger.Info("uma discovered",
			slog.String("login", sess.Identity.Login),
			slog.String("species", result.Discovery.SpeciesName),
			slog.Int("cost", result.Cost),
			slog.Int("remainingPower", result.RemainingPower),
		)
	}
	return &result, nil
}

// FeedResult reports one feeding. AffectionGained is the applied gain
// after the cap, so it reads zero when the creature was already at
// MaxAffection — the power is still spent.
type FeedResult struct {
	AffectionGained int
	NewAffection    int
	NewLevel        int
	LevelUp         bool
	PowerUsed       int
	RemainingPower  int
}

// Feed spends amount grass power on one owned creature and grows its
// affection per the gain formula. The growth update, the debit, and the
// audit row commit together or not at all.
func (s *UMAService) Feed(ctx context.Context, sess session.Session, discoveryID string, amount int) (*FeedResult, error) {
	if discoveryID == "" {
		return nil, apperror.ValidationFailed("uma_id", "uma_id is required")
	}
	if amount <= 0 {
		return nil, apperror.ValidationFailed("feed_amount", "feed_amount must be positive")
	}

	var result FeedResult
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := ensureAccount(ctx, tx, sess.Identity)
		if err != nil {
			return err
		}

		d, err := tx.GetDiscoveryForUser(ctx, discoveryID, user.ID)
		if err != nil {
			return err
		}

		remaining, err := tx.DebitPower(ctx, user.ID, amount)
		if err != nil {
			return err
		}

		gain := affectionGain(amount, d.Level)
		newAffection := d.Affection + gain
		if newAffection > MaxAffection {
			newAffection = MaxAffection
		}
		newLevel := LevelForAffection(newAffection)

		if err := tx.UpdateGrowth(ctx, d.ID, newLevel, newAffection, amount); err != nil {
			return err
		}
		if err := tx.AppendActivity(ctx, &model.ActivityEntry{
			ID:          xid.New().String(),
			UserID:      user.ID,
			Type:        model.ActivityFeeding,
			Description: fmt.Sprintf("fed %s %s", d.Emoji, d.SpeciesName),
			Cost:        amount,
			CreatedAt:   time.Now().UTC(),
		}); err != nil {
			return err
		}

		result = FeedResult{
			AffectionGained: newAffection - d.Affection,
			NewAffection:    newAffection,
			NewLevel:        newLevel,
			LevelUp:         newLevel > d.Level,
			PowerUsed:       amount,
			RemainingPower:  remaining,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service/uma: feed: %w", err)
	}
	return &result, nil
}

// Collection bundles a user's discoveries with the account stats the
// client shows next to them.
type Collection struct {
	Discoveries []model.Discovery
	User        *model.User
}

// ListCollection returns the caller's discoveries, newest first, plus
// their current account state.
func (s *UMAService) ListCollection(ctx context.Context, sess session.Session) (*Collection, error) {
	user, err := ensureAccount(ctx, s.store, sess.Identity)
	if err != nil {
		return nil, fmt.Errorf("service/uma: %w", err)
	}
	discoveries, err := s.store.ListDiscoveries(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/uma: listing discoveries: %w", err)
	}
	return &Collection{Discoveries: discoveries, User: user}, nil
}

// ListSpecies returns the full catalog, cheapest threshold first.
func (s *UMAService) ListSpecies(ctx context.Context) ([]model.Species, error) {
	species, err := s.store.ListSpecies(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/uma: listing species: %w", err)
	}
	return species, nil
}

// AddPower credits points outside the ledger. Development helper behind
// the debug endpoints; never reachable in a production configuration.
func (s *UMAService) AddPower(ctx context.Context, sess session.Session, points int) (int, error) {
	if points <= 0 {
		return 0, apperror.ValidationFailed("points", "points must be positive")
	}
	var total int
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := ensureAccount(ctx, tx, sess.Identity)
		if err != nil {
			return err
		}
		total, err = tx.CreditPower(ctx, user.ID, points)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("service/uma: adding power: %w", err)
	}
	return total, nil
}

// ResetProgress wipes the caller's discoveries and zeroes the discovery
// counter. Debug endpoint only; the balance and ledger are untouched.
func (s *UMAService) ResetProgress(ctx context.Context, sess session.Session) (int, error) {
	var removed int
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := ensureAccount(ctx, tx, sess.Identity)
		if err != nil {
			return err
		}
		removed, err = tx.DeleteDiscoveriesForUser(ctx, user.ID)
		if err != nil {
			return err
		}
		return tx.ResetDiscoveryCount(ctx, user.ID)
	})
	if err != nil {
		return 0, fmt.Errorf("service/uma: resetting progress: %w", err)
	}
	return removed, nil
}
