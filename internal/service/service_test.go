package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/yuta/grassuma/internal/model"
	"github.com/yuta/grassuma/internal/repository/sqlite"
	"github.com/yuta/grassuma/internal/session"
)

// Service tests run against a real in-memory SQLite store so the
// transactional behaviour under test is the one production uses. The
// upstream GitHub client is the only stubbed collaborator.

func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession(githubID int64, login string) session.Session {
	return session.Session{
		Token:       "sess-" + login,
		AccessToken: "gho_test",
		Identity: session.Identity{
			GitHubID:  githubID,
			Login:     login,
			AvatarURL: "https://avatars.githubusercontent.com/u/1",
		},
	}
}

func seedSpecies(t *testing.T, db *sqlite.DB, species ...model.Species) {
	t.Helper()
	if err := db.SeedSpecies(context.Background(), species); err != nil {
		t.Fatalf("seeding species: %v", err)
	}
}

func species(id int64, name string, threshold int) model.Species {
	return model.Species{
		ID:                 id,
		Name:               name,
		Emoji:              "👾",
		Rarity:             1,
		DiscoveryThreshold: threshold,
		Habitat:            "test habitat",
		Description:        "a test cryptid",
		Active:             true,
	}
}

// stubSource is a canned ContributionSource.
type stubSource struct {
	count int
	err   error
	calls int
}

func (s *stubSource) FetchDaily(ctx context.Context, accessToken, login string, day time.Time) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.count, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
