package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yuta/grassuma/internal/apperror"
	"github.com/yuta/grassuma/internal/session"
)

var syncDay = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T, source *stubSource) (*LedgerService, *stubSource) {
	t.Helper()
	if source == nil {
		source = &stubSource{}
	}
	svc := NewLedgerService(newTestStore(t), source, testLogger())
	svc.now = fixedClock(syncDay)
	return svc, source
}

func TestSyncToday_FirstSyncCreditsFullReward(t *testing.T) {
	svc, src := newTestLedger(t, &stubSource{count: 12})
	sess := testSession(1, "alice")

	got, err := svc.SyncToday(context.Background(), sess)
	if err != nil {
		t.Fatalf("SyncToday() error = %v", err)
	}

	if got.Date != "2025-06-01" {
		t.Errorf("Date = %q, want 2025-06-01", got.Date)
	}
	if got.Count != 12 || got.Reward != 180 || got.RewardDelta != 180 {
		t.Errorf("got count=%d reward=%d delta=%d, want 12/180/180",
			got.Count, got.Reward, got.RewardDelta)
	}
	if got.TotalPower != 180 {
		t.Errorf("TotalPower = %d, want 180", got.TotalPower)
	}
	if src.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", src.calls)
	}
}

func TestSyncToday_RepeatSameCountIsNoOp(t *testing.T) {
	svc, _ := newTestLedger(t, &stubSource{count: 3})
	sess := testSession(1, "alice")
	ctx := context.Background()

	if _, err := svc.SyncToday(ctx, sess); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	got, err := svc.SyncToday(ctx, sess)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}

	if got.RewardDelta != 0 {
		t.Errorf("RewardDelta = %d, want 0 (same-day repeat must not double-credit)", got.RewardDelta)
	}
	if got.TotalPower != 24 {
		t.Errorf("TotalPower = %d, want 24", got.TotalPower)
	}
}

func TestSyncToday_UpwardRevisionCreditsOnlyDelta(t *testing.T) {
	src := &stubSource{count: 3}
	svc, _ := newTestLedger(t, src)
	sess := testSession(1, "alice")
	ctx := context.Background()

	if _, err := svc.SyncToday(ctx, sess); err != nil { // 3 → 24
		t.Fatalf("first sync: %v", err)
	}

	src.count = 5 // reward 40, delta 16
	got, err := svc.SyncToday(ctx, sess)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}

	if got.Reward != 40 || got.RewardDelta != 16 {
		t.Errorf("reward=%d delta=%d, want 40/16", got.Reward, got.RewardDelta)
	}
	if got.TotalPower != 40 {
		t.Errorf("TotalPower = %d, want 40", got.TotalPower)
	}
}

func TestSyncToday_DownwardRevisionClampsAtZero(t *testing.T) {
	src := &stubSource{count: 12}
	store := newTestStore(t)
	svc := NewLedgerService(store, src, testLogger())
	svc.now = fixedClock(syncDay)
	sess := testSession(1, "alice")
	ctx := context.Background()

	first, err := svc.SyncToday(ctx, sess) // +180
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}

	// Spend most of the reward, then GitHub revises the day to zero.
	// The -180 delta must clamp the balance at 0, not go negative.
	userID := firstUserID(t, svc, sess)
	if _, err := store.DebitPower(ctx, userID, first.TotalPower-5); err != nil {
		t.Fatalf("draining balance: %v", err)
	}

	src.count = 0
	got, err := svc.SyncToday(ctx, sess)
	if err != nil {
		t.Fatalf("revised sync: %v", err)
	}

	if got.Reward != 0 || got.RewardDelta != -180 {
		t.Errorf("reward=%d delta=%d, want 0/-180", got.Reward, got.RewardDelta)
	}
	if got.TotalPower != 0 {
		t.Errorf("TotalPower = %d, want 0 (clamped)", got.TotalPower)
	}
}

func TestSyncToday_UpstreamFailureLeavesNoState(t *testing.T) {
	boom := apperror.Upstream("github: contribution fetch", errors.New("503"))
	svc, _ := newTestLedger(t, &stubSource{err: boom})
	sess := testSession(1, "alice")
	ctx := context.Background()

	if _, err := svc.SyncToday(ctx, sess); !errors.Is(err, apperror.ErrUpstream) {
		t.Fatalf("SyncToday() error = %v, want ErrUpstream", err)
	}

	// A later successful sync must behave like the first of the day:
	// nothing was recorded by the failed attempt.
	svc.source = &stubSource{count: 2}
	got, err := svc.SyncToday(ctx, sess)
	if err != nil {
		t.Fatalf("recovery sync: %v", err)
	}
	if got.RewardDelta != 10 || got.TotalPower != 10 {
		t.Errorf("delta=%d total=%d, want 10/10", got.RewardDelta, got.TotalPower)
	}
}

func TestSyncToday_NewDayIsANewLedgerRow(t *testing.T) {
	src := &stubSource{count: 2}
	svc, _ := newTestLedger(t, src)
	sess := testSession(1, "alice")
	ctx := context.Background()

	if _, err := svc.SyncToday(ctx, sess); err != nil { // +10
		t.Fatalf("day one sync: %v", err)
	}

	svc.now = fixedClock(syncDay.Add(24 * time.Hour))
	got, err := svc.SyncToday(ctx, sess)
	if err != nil {
		t.Fatalf("day two sync: %v", err)
	}

	if got.Date != "2025-06-02" {
		t.Errorf("Date = %q, want 2025-06-02", got.Date)
	}
	if got.RewardDelta != 10 || got.TotalPower != 20 {
		t.Errorf("delta=%d total=%d, want 10/20 (day two credits in full)",
			got.RewardDelta, got.TotalPower)
	}
}

// firstUserID resolves the internal user ID behind a session.
func firstUserID(t *testing.T, svc *LedgerService, sess session.Session) string {
	t.Helper()
	user, err := ensureAccount(context.Background(), svc.store, sess.Identity)
	if err != nil {
		t.Fatalf("resolving user: %v", err)
	}
	return user.ID
}
