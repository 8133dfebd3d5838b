package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/skybird/internal/config"
	"github.com/vovakirdan/skybird/internal/notify"
	"github.com/vovakirdan/skybird/internal/progress"
	"github.com/vovakirdan/skybird/internal/savecodec"
	"github.com/vovakirdan/skybird/internal/storage"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.LocalDB = filepath.Join(dir, "progress.db")
	cfg.Storage.CloudDB = filepath.Join(dir, "cloud.db")
	return cfg
}

func openApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return a
}

func closeApp(t *testing.T, a *App) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
}

func TestFreshStartUsesDefaults(t *testing.T) {
	a := openApp(t, testConfig(t))
	defer closeApp(t, a)

	var loaded []notify.SaveLoaded
	a.Bus.Subscribe(notify.KindSaveLoaded, func(n notify.Notification) {
		loaded = append(loaded, n.(notify.SaveLoaded))
	})
	a.Load(context.Background())

	if len(loaded) != 2 {
		t.Fatalf("Expected a SaveLoaded per slot, got %d", len(loaded))
	}
	for _, l := range loaded {
		if l.Applied || l.Err != nil {
			t.Errorf("Nothing should be applied on a fresh start: %+v", l)
		}
	}
	if a.Machine.Coins() != 0 || a.Machine.CurrentBird() != 0 {
		t.Errorf("Unexpected fresh state: coins %d bird %d", a.Machine.Coins(), a.Machine.CurrentBird())
	}
}

func TestProgressSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a := openApp(t, cfg)
	a.Load(ctx)
	out, err := a.PlayRound(25)
	if err != nil {
		t.Fatalf("PlayRound() failed: %v", err)
	}
	if out.Reward != 25 || out.Bonus != 25 || out.Achievement != progress.Chick {
		t.Errorf("Unexpected outcome %+v", out)
	}
	a.WatchRewardedAd()
	if a.Machine.Coins() != 50 {
		t.Errorf("Coins after rewarded ad = %d, expected 50", a.Machine.Coins())
	}
	closeApp(t, a)

	b := openApp(t, cfg)
	defer closeApp(t, b)
	b.Load(ctx)

	if b.Machine.Coins() != 50 {
		t.Errorf("Coins after restart = %d, expected 50", b.Machine.Coins())
	}
	if b.Machine.Record() != 25 {
		t.Errorf("Record after restart = %d, expected 25", b.Machine.Record())
	}

	scores, err := b.Scores(ctx, progress.Easy, 10)
	if err != nil {
		t.Fatalf("Scores() failed: %v", err)
	}
	if len(scores) != 1 || scores[0].Score != 25 {
		t.Errorf("Posted scores = %+v", scores)
	}

	achievements, err := b.Achievements(ctx)
	if err != nil {
		t.Fatalf("Achievements() failed: %v", err)
	}
	if len(achievements) != 1 || achievements[0].ID != "achievement_chick" || !achievements[0].Unlocked() {
		t.Errorf("Achievements = %+v", achievements)
	}
}

func TestCloudSaveWinsOverFreshLocal(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	cloud, err := storage.Open(cfg.Storage.CloudDB)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	snap := progress.Snapshot{
		Difficulty:       progress.Hard,
		HardRecord:       40,
		Coins:            500,
		CurrentBird:      1,
		Purchased:        []bool{true, true, false, false},
		AggregatedScores: []int{10, 40, 0, 0},
	}
	md, _ := cloud.OpenSlot(ctx, cfg.Save.Slot)
	if _, err := cloud.WriteSlot(ctx, md, savecodec.Codec{}.Encode(snap), time.Hour); err != nil {
		t.Fatalf("WriteSlot() failed: %v", err)
	}
	cloud.Close()

	a := openApp(t, cfg)
	a.Load(ctx)

	if a.Machine.Coins() != 500 || a.Machine.Difficulty() != progress.Hard || a.Machine.CurrentBird() != 1 {
		t.Errorf("Cloud save not applied: coins %d difficulty %v bird %d",
			a.Machine.Coins(), a.Machine.Difficulty(), a.Machine.CurrentBird())
	}
	closeApp(t, a)

	// The winning cloud save is copied to the local slot.
	local, err := storage.Open(cfg.Storage.LocalDB)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer local.Close()
	md, _ = local.OpenSlot(ctx, cfg.Save.LocalSlot)
	data, err := local.ReadSlot(ctx, md)
	if err != nil {
		t.Fatalf("ReadSlot() failed: %v", err)
	}
	got, err := savecodec.Codec{}.Decode(data, len(cfg.Birds))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if got.Coins != 500 {
		t.Errorf("Local slot coins = %d, expected 500", got.Coins)
	}
}

func TestLeaderboardRaisesRecord(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	cloud, err := storage.Open(cfg.Storage.CloudDB)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	cloud.PostScore(ctx, 77, cfg.Levels[0].LeaderboardID)
	cloud.Close()

	a := openApp(t, cfg)
	a.Load(ctx)

	if a.Machine.Record() != 77 {
		t.Errorf("Record = %d, expected leaderboard value 77", a.Machine.Record())
	}
	closeApp(t, a)

	// The raised record is saved to both slots without playing a round.
	slots := []struct{ path, slot string }{
		{cfg.Storage.LocalDB, cfg.Save.LocalSlot},
		{cfg.Storage.CloudDB, cfg.Save.Slot},
	}
	for _, sl := range slots {
		if got := readSlot(t, sl.path, sl.slot, len(cfg.Birds)); got.EasyRecord != 77 {
			t.Errorf("Slot %s easy record = %d, expected 77", sl.slot, got.EasyRecord)
		}
	}
}

func readSlot(t *testing.T, path, slot string, birds int) progress.Snapshot {
	t.Helper()
	ctx := context.Background()
	st, err := storage.Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()
	md, err := st.OpenSlot(ctx, slot)
	if err != nil {
		t.Fatalf("OpenSlot() failed: %v", err)
	}
	data, err := st.ReadSlot(ctx, md)
	if err != nil {
		t.Fatalf("ReadSlot(%s) failed: %v", slot, err)
	}
	snap, err := savecodec.Codec{}.Decode(data, birds)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	return snap
}

func TestClearScores(t *testing.T) {
	ctx := context.Background()
	a := openApp(t, testConfig(t))
	defer closeApp(t, a)
	a.Load(ctx)

	if _, err := a.PlayRound(5); err != nil {
		t.Fatalf("PlayRound() failed: %v", err)
	}
	a.Poster.Wait()

	if err := a.ClearScores(ctx, progress.Easy); err != nil {
		t.Fatalf("ClearScores() failed: %v", err)
	}
	scores, err := a.Scores(ctx, progress.Easy, 10)
	if err != nil {
		t.Fatalf("Scores() failed: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("Scores after clear = %+v", scores)
	}
	// The best score reached stays in the save.
	if a.Machine.Record() != 5 {
		t.Errorf("Record = %d, expected 5", a.Machine.Record())
	}
}

func TestCloudDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Save.CloudDisabled = true
	ctx := context.Background()

	a := openApp(t, cfg)
	var loaded int
	a.Bus.Subscribe(notify.KindSaveLoaded, func(notify.Notification) { loaded++ })
	a.Load(ctx)
	if loaded != 1 {
		t.Errorf("Expected only the local slot to load, got %d", loaded)
	}
	if _, err := a.PlayRound(3); err != nil {
		t.Fatalf("PlayRound() failed: %v", err)
	}
	if _, cloud := a.PlayTime(); cloud != 0 {
		t.Errorf("Cloud play time = %v, expected 0", cloud)
	}
	closeApp(t, a)

	cloud, err := storage.Open(cfg.Storage.CloudDB)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer cloud.Close()
	md, _ := cloud.OpenSlot(ctx, cfg.Save.Slot)
	if md.Exists() {
		t.Error("Cloud slot should not be written when disabled")
	}
}

func TestDeleteSaves(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a := openApp(t, cfg)
	a.Load(ctx)
	a.PlayRound(5)
	closeApp(t, a)

	b := openApp(t, cfg)
	b.Load(ctx)
	if err := b.DeleteSaves(ctx); err != nil {
		t.Fatalf("DeleteSaves() failed: %v", err)
	}
	closeApp(t, b)

	c := openApp(t, cfg)
	defer closeApp(t, c)
	c.Load(ctx)
	if c.Machine.Coins() != 0 {
		t.Errorf("Coins after delete = %d, expected 0", c.Machine.Coins())
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger(io.Discard, "debug"); err != nil {
		t.Errorf("NewLogger(debug) failed: %v", err)
	}
	if _, err := NewLogger(io.Discard, "loud"); err == nil {
		t.Error("Expected error for unknown level")
	}
}
