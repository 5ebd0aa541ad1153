package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/yuta/grassuma/internal/apperror"
	"github.com/yuta/grassuma/internal/model"
)

func TestUpsert_CreatesThenRefreshes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, 12345, "octocat")
	if user.ID == "" {
		t.Fatal("Upsert() did not assign an ID")
	}
	if user.GrassPower != 0 {
		t.Errorf("new user GrassPower = %d, want 0", user.GrassPower)
	}

	// Give the account some state, then log in again with a changed profile.
	if _, err := db.CreditPower(ctx, user.ID, 75); err != nil {
		t.Fatalf("CreditPower: %v", err)
	}

	again := &model.User{
		GitHubID:  12345,
		Login:     "octocat-renamed",
		AvatarURL: "https://example.com/new.png",
	}
	if err := db.Upsert(ctx, again); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	if again.ID != user.ID {
		t.Errorf("Upsert() changed internal ID: %s → %s", user.ID, again.ID)
	}
	if again.Login != "octocat-renamed" {
		t.Errorf("Login = %q, want refreshed login", again.Login)
	}
	// Balance must survive profile refreshes.
	if again.GrassPower != 75 {
		t.Errorf("GrassPower = %d after re-upsert, want 75", again.GrassPower)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestCreditPower_ClampsAtZero(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, 1, "alice")

	if _, err := db.CreditPower(ctx, user.ID, 24); err != nil {
		t.Fatalf("CreditPower: %v", err)
	}

	// A downward contribution revision can produce a delta larger than
	// the whole balance. The documented policy is clamp at zero.
	balance, err := db.CreditPower(ctx, user.ID, -40)
	if err != nil {
		t.Fatalf("CreditPower(negative) error = %v", err)
	}
	if balance != 0 {
		t.Errorf("balance = %d after clamped credit, want 0", balance)
	}
}

func TestDebitPower(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, 1, "alice")
	db.CreditPower(ctx, user.ID, 100)

	balance, err := db.DebitPower(ctx, user.ID, 30)
	if err != nil {
		t.Fatalf("DebitPower() error = %v", err)
	}
	if balance != 70 {
		t.Errorf("balance = %d, want 70", balance)
	}
}

func TestDebitPower_Insufficient(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, 1, "alice")
	db.CreditPower(ctx, user.ID, 5)

	_, err := db.DebitPower(ctx, user.ID, 10)
	if !errors.Is(err, apperror.ErrInsufficientPower) {
		t.Fatalf("DebitPower() error = %v, want ErrInsufficientPower", err)
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatal("error should carry *AppError detail")
	}
	if appErr.Current != 5 || appErr.Required != 10 {
		t.Errorf("Current/Required = %d/%d, want 5/10", appErr.Current, appErr.Required)
	}

	// Balance untouched by the refused debit.
	fresh, _ := db.GetUserByID(ctx, user.ID)
	if fresh.GrassPower != 5 {
		t.Errorf("GrassPower = %d after refused debit, want 5", fresh.GrassPower)
	}
}

// The lost-update scenario from two tabs: both spends race, the balance
// covers only one. Exactly one debit must win.
func TestDebitPower_SequentialSpendsCannotOverdraw(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, 1, "alice")
	db.CreditPower(ctx, user.ID, 15)

	var wins, losses int
	for range 2 {
		if _, err := db.DebitPower(ctx, user.ID, 10); err == nil {
			wins++
		} else if errors.Is(err, apperror.ErrInsufficientPower) {
			losses++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if wins != 1 || losses != 1 {
		t.Errorf("wins/losses = %d/%d, want 1/1", wins, losses)
	}
	fresh, _ := db.GetUserByID(ctx, user.ID)
	if fresh.GrassPower != 5 {
		t.Errorf("GrassPower = %d, want 5", fresh.GrassPower)
	}
}

func TestIncrementDiscoveries_Monotonic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, 1, "alice")

	for i := 1; i <= 3; i++ {
		if err := db.IncrementDiscoveries(ctx, user.ID); err != nil {
			t.Fatalf("IncrementDiscoveries: %v", err)
		}
		fresh, _ := db.GetUserByID(ctx, user.ID)
		if fresh.TotalDiscoveries != i {
			t.Errorf("TotalDiscoveries = %d, want %d", fresh.TotalDiscoveries, i)
		}
	}
}
