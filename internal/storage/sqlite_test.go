package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/skybird/internal/cloudsave"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	md, _ := store.OpenSlot(ctx, "main")
	if _, err := store.WriteSlot(ctx, md, []byte("payload"), time.Second); err != nil {
		t.Fatalf("WriteSlot() failed: %v", err)
	}
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer store.Close()

	md, err = store.OpenSlot(ctx, "main")
	if err != nil {
		t.Fatalf("OpenSlot() failed: %v", err)
	}
	if !md.Exists() || md.TotalPlayTime != time.Second {
		t.Errorf("Unexpected metadata after reopen: %+v", md)
	}
}

func TestSlotLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	md, err := store.OpenSlot(ctx, "main")
	if err != nil {
		t.Fatalf("OpenSlot() failed: %v", err)
	}
	if md.Exists() {
		t.Fatalf("New slot should not exist: %+v", md)
	}
	if _, err := store.ReadSlot(ctx, md); !errors.Is(err, cloudsave.ErrSlotNotFound) {
		t.Errorf("ReadSlot() on empty slot: %v", err)
	}

	written, err := store.WriteSlot(ctx, md, []byte("0;1;2;3;4;0;1;5;"), 90*time.Second)
	if err != nil {
		t.Fatalf("WriteSlot() failed: %v", err)
	}
	if !written.Exists() {
		t.Error("Written slot should have a revision")
	}

	md, err = store.OpenSlot(ctx, "main")
	if err != nil {
		t.Fatalf("OpenSlot() failed: %v", err)
	}
	if md.Revision != written.Revision {
		t.Errorf("Revision = %q, expected %q", md.Revision, written.Revision)
	}
	if md.TotalPlayTime != 90*time.Second {
		t.Errorf("TotalPlayTime = %v, expected 90s", md.TotalPlayTime)
	}

	data, err := store.ReadSlot(ctx, md)
	if err != nil {
		t.Fatalf("ReadSlot() failed: %v", err)
	}
	if string(data) != "0;1;2;3;4;0;1;5;" {
		t.Errorf("ReadSlot() = %q", data)
	}

	if err := store.DeleteSlot(ctx, md); err != nil {
		t.Fatalf("DeleteSlot() failed: %v", err)
	}
	md, _ = store.OpenSlot(ctx, "main")
	if md.Exists() {
		t.Error("Slot should be gone after delete")
	}
}

func TestWriteSlotStaleRevision(t *testing.T) {
	tests := []struct {
		name         string
		storedTime   time.Duration
		incomingTime time.Duration
		wantConflict bool
	}{
		{"stored played longer", 20 * time.Second, 10 * time.Second, true},
		{"incoming played longer", 10 * time.Second, 20 * time.Second, false},
		{"tie favors incoming", 10 * time.Second, 10 * time.Second, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store := openTestStore(t)

			stale, _ := store.OpenSlot(ctx, "main")
			if _, err := store.WriteSlot(ctx, stale, []byte("stored"), tc.storedTime); err != nil {
				t.Fatalf("First WriteSlot() failed: %v", err)
			}

			// stale still carries the empty revision from before the first write.
			md, err := store.WriteSlot(ctx, stale, []byte("incoming"), tc.incomingTime)
			data, _ := store.ReadSlot(ctx, md)

			if tc.wantConflict {
				if !errors.Is(err, cloudsave.ErrConflict) {
					t.Fatalf("Expected ErrConflict, got %v", err)
				}
				if string(data) != "stored" {
					t.Errorf("Stored version should be kept, got %q", data)
				}
				return
			}
			if err != nil {
				t.Fatalf("WriteSlot() failed: %v", err)
			}
			if string(data) != "incoming" {
				t.Errorf("Incoming version should win, got %q", data)
			}
		})
	}
}

func TestStorePostAndRetrieve(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for _, score := range []int{100, 50, 200} {
		if _, err := store.PostScore(ctx, score, "lb_easy"); err != nil {
			t.Fatalf("PostScore() failed: %v", err)
		}
	}
	if _, err := store.PostScore(ctx, 500, "lb_hard"); err != nil {
		t.Fatalf("PostScore() failed: %v", err)
	}

	scores, err := store.TopScores(ctx, "lb_easy", 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores, got %d", len(scores))
	}

	// Should be sorted descending
	for i, want := range []int{200, 100, 50} {
		if scores[i].Score != want {
			t.Errorf("scores[%d] = %d, expected %d", i, scores[i].Score, want)
		}
	}

	limited, err := store.TopScores(ctx, "lb_easy", 2)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 scores with limit, got %d", len(limited))
	}
}

func TestStoreHighScore(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	high, err := store.HighScore(ctx, "lb_normal")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 0 {
		t.Errorf("Expected high score 0 for empty leaderboard, got %d", high)
	}

	store.PostScore(ctx, 100, "lb_normal")
	store.PostScore(ctx, 300, "lb_normal")
	store.PostScore(ctx, 200, "lb_normal")

	high, err = store.HighScore(ctx, "lb_normal")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 300 {
		t.Errorf("Expected high score 300, got %d", high)
	}
}

func TestStoreStats(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	stats, err := store.Stats(ctx, "lb_easy")
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.Posts != 0 || !stats.LastPosted.IsZero() {
		t.Errorf("Unexpected stats for empty leaderboard: %+v", stats)
	}

	store.PostScore(ctx, 10, "lb_easy")
	store.PostScore(ctx, 30, "lb_easy")

	stats, err = store.Stats(ctx, "lb_easy")
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.Posts != 2 || stats.HighScore != 30 || stats.AvgScore != 20 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestStoreClearScores(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	store.PostScore(ctx, 100, "lb_easy")
	store.PostScore(ctx, 200, "lb_easy")
	store.PostScore(ctx, 500, "lb_hard")

	if err := store.ClearScores(ctx, "lb_easy"); err != nil {
		t.Fatalf("ClearScores() failed: %v", err)
	}

	scores, _ := store.TopScores(ctx, "lb_easy", 10)
	if len(scores) != 0 {
		t.Errorf("Expected 0 scores after clear, got %d", len(scores))
	}

	// Other leaderboards are untouched
	hard, _ := store.TopScores(ctx, "lb_hard", 10)
	if len(hard) != 1 {
		t.Errorf("Expected 1 hard score, got %d", len(hard))
	}
}

func TestReportProgressKeepsMaximum(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.ReportProgress(ctx, "achievement_chick", 100); err != nil {
		t.Fatalf("ReportProgress() failed: %v", err)
	}
	if err := store.ReportProgress(ctx, "achievement_chick", 40); err != nil {
		t.Fatalf("ReportProgress() failed: %v", err)
	}
	if err := store.ReportProgress(ctx, "achievement_fly_the_nest", 50); err != nil {
		t.Fatalf("ReportProgress() failed: %v", err)
	}

	entries, err := store.Achievements(ctx)
	if err != nil {
		t.Fatalf("Achievements() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 achievements, got %d", len(entries))
	}
	if entries[0].ID != "achievement_chick" || !entries[0].Unlocked() {
		t.Errorf("Chick should stay unlocked: %+v", entries[0])
	}
	if entries[1].Unlocked() {
		t.Errorf("Partial progress should not unlock: %+v", entries[1])
	}
}
