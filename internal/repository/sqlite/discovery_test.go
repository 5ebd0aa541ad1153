package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/yuta/grassuma/internal/apperror"
	"github.com/yuta/grassuma/internal/model"
)

func TestEligibleSpecies_FiltersPool(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, 1, "alice")

	retired := testSpecies(3, "引退種", 10)
	retired.Active = false
	seedTestSpecies(t, db,
		testSpecies(1, "ツチノコ", 10),
		testSpecies(2, "ネッシー", 300),
		retired,
		testSpecies(4, "カッパ", 40),
	)

	// Own the kappa already.
	if err := db.InsertDiscovery(ctx, &model.Discovery{UserID: user.ID, SpeciesID: 4}); err != nil {
		t.Fatalf("InsertDiscovery: %v", err)
	}

	// power 50: excludes ネッシー (threshold), 引退種 (inactive), カッパ (owned).
	pool, err := db.ListEligibleSpecies(ctx, user.ID, 50)
	if err != nil {
		t.Fatalf("ListEligibleSpecies() error = %v", err)
	}
	if len(pool) != 1 || pool[0].Name != "ツチノコ" {
		t.Fatalf("pool = %+v, want only ツチノコ", pool)
	}
}

func TestInsertDiscovery_DuplicateSpeciesRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, 1, "alice")
	seedTestSpecies(t, db, testSpecies(1, "ツチノコ", 10))

	if err := db.InsertDiscovery(ctx, &model.Discovery{UserID: user.ID, SpeciesID: 1}); err != nil {
		t.Fatalf("InsertDiscovery() error = %v", err)
	}
	if err := db.InsertDiscovery(ctx, &model.Discovery{UserID: user.ID, SpeciesID: 1}); err == nil {
		t.Fatal("InsertDiscovery() accepted a duplicate (user, species) pair")
	}
}

func TestGetDiscoveryForUser_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, 1, "alice")
	bob := createTestUser(t, db, 2, "bob")
	seedTestSpecies(t, db, testSpecies(1, "ツチノコ", 10))

	d := &model.Discovery{UserID: alice.ID, SpeciesID: 1}
	if err := db.InsertDiscovery(ctx, d); err != nil {
		t.Fatalf("InsertDiscovery: %v", err)
	}

	if _, err := db.GetDiscoveryForUser(ctx, d.ID, alice.ID); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}

	_, err := db.GetDiscoveryForUser(ctx, d.ID, bob.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("cross-user lookup error = %v, want ErrNotFound", err)
	}
}

func TestUpdateGrowth(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, 1, "alice")
	seedTestSpecies(t, db, testSpecies(1, "ツチノコ", 10))

	d := &model.Discovery{UserID: user.ID, SpeciesID: 1}
	if err := db.InsertDiscovery(ctx, d); err != nil {
		t.Fatalf("InsertDiscovery: %v", err)
	}

	if err := db.UpdateGrowth(ctx, d.ID, 2, 21, 10); err != nil {
		t.Fatalf("UpdateGrowth() error = %v", err)
	}
	if err := db.UpdateGrowth(ctx, d.ID, 2, 23, 10); err != nil {
		t.Fatalf("UpdateGrowth() error = %v", err)
	}

	got, _ := db.GetDiscoveryForUser(ctx, d.ID, user.ID)
	if got.Level != 2 || got.Affection != 23 {
		t.Errorf("level/affection = %d/%d, want 2/23", got.Level, got.Affection)
	}
	if got.FedTotal != 20 {
		t.Errorf("FedTotal = %d, want cumulative 20", got.FedTotal)
	}
}

func TestDeleteDiscoveriesForUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, 1, "alice")
	bob := createTestUser(t, db, 2, "bob")
	seedTestSpecies(t, db, testSpecies(1, "ツチノコ", 10), testSpecies(2, "カッパ", 40))

	db.InsertDiscovery(ctx, &model.Discovery{UserID: alice.ID, SpeciesID: 1})
	db.InsertDiscovery(ctx, &model.Discovery{UserID: alice.ID, SpeciesID: 2})
	db.InsertDiscovery(ctx, &model.Discovery{UserID: bob.ID, SpeciesID: 1})

	n, err := db.DeleteDiscoveriesForUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("DeleteDiscoveriesForUser() error = %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}

	bobOwned, _ := db.ListDiscoveries(ctx, bob.ID)
	if len(bobOwned) != 1 {
		t.Errorf("bob's collection affected by alice's reset: %d rows", len(bobOwned))
	}
}

func TestSeedSpecies_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedTestSpecies(t, db, testSpecies(1, "ツチノコ", 10), testSpecies(2, "カッパ", 40))
	// Second seed with edited text must update in place, not duplicate.
	edited := testSpecies(2, "カッパ", 45)
	seedTestSpecies(t, db, testSpecies(1, "ツチノコ", 10), edited)

	all, err := db.ListSpecies(ctx)
	if err != nil {
		t.Fatalf("ListSpecies() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(species) = %d after re-seed, want 2", len(all))
	}
	kappa, _ := db.GetSpecies(ctx, 2)
	if kappa.DiscoveryThreshold != 45 {
		t.Errorf("threshold = %d after re-seed, want 45", kappa.DiscoveryThreshold)
	}
}
