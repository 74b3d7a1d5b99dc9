package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/sprint.report/internal/timeutil"
)

// TestEpoch is the time NewTestDB's clock starts at.
var TestEpoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// NewTestDB opens a migrated database in t.TempDir() with a mock clock. The
// database is closed when the test ends.
func NewTestDB(t *testing.T) (*DB, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(TestEpoch)
	db, err := OpenDBWithClock(filepath.Join(t.TempDir(), "sprint.db"), clock)
	if err != nil {
		t.Fatalf("OpenDBWithClock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, clock
}
