package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"
	"golang.org/x/sync/singleflight"

	"github.com/yuta/grassuma/internal/apperror"
	"github.com/yuta/grassuma/internal/model"
	"github.com/yuta/grassuma/internal/repository"
	"github.com/yuta/grassuma/internal/session"
)

// ContributionSource fetches a user's contribution count for one UTC
// calendar day. *github.Client satisfies it; tests substitute a stub.
type ContributionSource interface {
	FetchDaily(ctx context.Context, accessToken, login string, day time.Time) (int, error)
}

// LedgerService converts GitHub contributions into grass power.
//
// The ledger is a reconciliation, not an accumulator: each (user, day)
// pair is credited exactly once for whatever count GitHub reports, and a
// later sync that sees a different count applies only the difference.
type LedgerService struct {
	store  repository.TxStore
	source ContributionSource
	logger *slog.Logger

	// group collapses concurrent syncs for the same user: the second
	// caller waits for the first and shares its result instead of racing
	// it through the upstream fetch and the reconciliation.
	group singleflight.Group

	// now is swappable so tests can pin the calendar day.
	now func() time.Time
}

func NewLedgerService(store repository.TxStore, source ContributionSource, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		source: source,
		logger: logger,
		now:    time.Now,
	}
}

// SyncResult reports one reconciliation of today's contributions.
// RewardDelta is the credit actually applied by THIS call, which is zero
// when nothing changed since the last sync.
type SyncResult struct {
	Date        string
	Count       int
	Reward      int
	RewardDelta int
	TotalPower  int
}

// SyncToday fetches today's contribution count from GitHub and settles
// the ledger for the caller's (user, UTC day) pair.
//
// First sync of the day inserts the record and credits the full reward.
// A repeat sync with an unchanged count is a no-op. A changed count
// (late-arriving commits, or an upstream downward revision) updates the
// record and credits the reward difference; a negative difference debits,
// clamped so the balance never goes below zero.
//
// The upstream fetch happens before the transaction opens, so an
// upstream failure leaves no state behind.
func (s *LedgerService) SyncToday(ctx context.Context, sess session.Session) (*SyncResult, error) {
	key := fmt.Sprintf("sync:%d", sess.Identity.GitHubID)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.syncToday(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SyncResult), nil
}

func (s *LedgerService) syncToday(ctx context.Context, sess session.Session) (*SyncResult, error) {
	day := s.now().UTC()
	date := day.Format("2006-01-02")

	count, err := s.source.FetchDaily(ctx, sess.AccessToken, sess.Identity.Login, day)
	if err != nil {
		return nil, fmt.Errorf("service/ledger: %w", err)
	}
	reward := RewardForCount(count)

	var result SyncResult
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := ensureAccount(ctx, tx, sess.Identity)
		if err != nil {
			return err
		}

		existing, err := tx.GetDaily(ctx, user.ID, date)
		switch {
		case err == nil:
			// Already settled once today: apply only the difference.
			delta := reward - existing.Reward
			if existing.Count != count || delta != 0 {
				if err := tx.UpdateDaily(ctx, existing.ID, count, reward, s.now().UTC()); err != nil {
					return err
				}
			}
			total := user.GrassPower
			if delta != 0 {
				total, err = tx.CreditPower(ctx, user.ID, delta)
				if err != nil {
					return err
				}
			}
			result = SyncResult{Date: date, Count: count, Reward: reward, RewardDelta: delta, TotalPower: total}
			return nil

		case errors.Is(err, apperror.ErrNotFound):
			rec := &model.DailyContribution{
				ID:       xid.New().String(),
				UserID:   user.ID,
				Date:     date,
				Count:    count,
				Reward:   reward,
				SyncedAt: s.now().UTC(),
			}
			if err := tx.InsertDaily(ctx, rec); err != nil {
				return err
			}
			total, err := tx.CreditPower(ctx, user.ID, reward)
			if err != nil {
				return err
			}
			result = SyncResult{Date: date, Count: count, Reward: reward, RewardDelta: reward, TotalPower: total}
			return nil

		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("service/ledger: syncing %s: %w", date, err)
	}

	s.logger.Info("contributions synced",
		slog.String("login", sess.Identity.Login),
		slog.String("date", date),
		slog.Int("count", count),
		slog.Int("rewardDelta", result.RewardDelta),
		slog.Int("totalPower", result.TotalPower),
	)
	return &result, nil
}
