// Package app wires configuration, storage, save slots, remote services and
// the session machine into one running game instance.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/skybird/internal/cloudsave"
	"github.com/vovakirdan/skybird/internal/config"
	"github.com/vovakirdan/skybird/internal/notify"
	"github.com/vovakirdan/skybird/internal/progress"
	"github.com/vovakirdan/skybird/internal/savecodec"
	"github.com/vovakirdan/skybird/internal/session"
	"github.com/vovakirdan/skybird/internal/social"
	"github.com/vovakirdan/skybird/internal/storage"
)

// NewLogger creates the process logger at the given level.
func NewLogger(w io.Writer, level string) (*log.Logger, error) {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "skybird",
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return logger, fmt.Errorf("app: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// App is a wired game instance. It is not safe for concurrent use.
type App struct {
	Config  config.Config
	Bus     *notify.Bus
	Machine *session.Machine
	Poster  *social.Poster

	log       *log.Logger
	local     *storage.Store
	remote    *storage.Store
	localSync *cloudsave.Syncer
	cloudSync *cloudsave.Syncer // nil when cloud saves are disabled
}

// New opens both databases and starts the save workers. The progression is
// not loaded until Load is called.
func New(ctx context.Context, cfg config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	local, err := storage.Open(cfg.Storage.LocalDB)
	if err != nil {
		return nil, fmt.Errorf("app: local storage: %w", err)
	}
	remote, err := storage.Open(cfg.Storage.CloudDB)
	if err != nil {
		local.Close()
		return nil, fmt.Errorf("app: cloud storage: %w", err)
	}

	a := &App{
		Config: cfg,
		Bus:    notify.NewBus(),
		log:    logger,
		local:  local,
		remote: remote,
	}

	roster := cfg.Roster()
	codec := savecodec.Codec{Format: cfg.SaveFormat()}
	onSave := func(r cloudsave.SaveResult) {
		a.Bus.Publish(notify.SaveCompleted{Slot: r.Slot, Err: r.Err})
	}

	a.localSync = cloudsave.NewSyncer(local, nil, cloudsave.SyncerConfig{
		Slot:           cfg.Save.LocalSlot,
		Birds:          len(roster),
		Codec:          codec,
		Timeout:        cfg.Save.Timeout,
		OnSaveComplete: onSave,
		Logger:         logger,
	})
	savers := []session.Saver{a.localSync}

	if !cfg.Save.CloudDisabled {
		leaderboards := make(map[progress.Difficulty]string)
		for d, l := range cfg.SessionLevels() {
			leaderboards[d] = l.LeaderboardID
		}
		a.cloudSync = cloudsave.NewSyncer(remote, remote, cloudsave.SyncerConfig{
			Slot:           cfg.Save.Slot,
			Birds:          len(roster),
			Codec:          codec,
			Timeout:        cfg.Save.Timeout,
			Leaderboards:   leaderboards,
			OnSaveComplete: onSave,
			Logger:         logger,
		})
		savers = append(savers, a.cloudSync)
	}

	a.Poster = social.New(social.Config{
		Scores:       remote,
		Achievements: remote,
		Bus:          a.Bus,
		Logger:       logger,
		Timeout:      cfg.Social.Timeout,
		SignedIn:     cfg.Social.SignedIn,
		RemoteID:     cfg.AchievementRemoteID,
	})

	a.Machine = session.New(progress.NewStore(roster), session.Config{
		Levels:              cfg.SessionLevels(),
		Rewards:             cfg.RewardBounds(),
		TimeTransitionEvery: cfg.Session.TimeTransitionEvery,
		Bus:                 a.Bus,
		Reporter:            a.Poster,
		Savers:              savers,
		Logger:              logger,
	})
	a.Machine.Attach(a.Bus)

	a.localSync.Start(ctx)
	if a.cloudSync != nil {
		a.cloudSync.Start(ctx)
	}
	return a, nil
}

// Load restores the progression at startup. The local slot is applied
// first; the cloud slot then competes with it by total play time and its
// leaderboard values reconcile the records. A failed load leaves defaults in
// place and is reported through SaveLoaded, not as an error.
func (a *App) Load(ctx context.Context) {
	res := <-a.localSync.Load(ctx, nil)
	applied := false
	if res.Apply {
		res.Err = a.Machine.Restore(res.Snapshot, nil)
		applied = res.Err == nil
	}
	restored := applied
	a.Bus.Publish(notify.SaveLoaded{Slot: res.Slot, Applied: applied, Err: res.Err})

	if a.cloudSync != nil {
		mine := a.Machine.Snapshot()
		mine.TotalPlayTime = res.Metadata.TotalPlayTime

		res = <-a.cloudSync.Load(ctx, &mine)
		applied = false
		switch {
		case res.Apply:
			res.Err = a.Machine.Restore(res.Snapshot, res.Leaderboard)
			applied = res.Err == nil
			if applied {
				if recordsRaised(res.Snapshot, a.Machine.Snapshot()) {
					a.Machine.Save()
				} else {
					a.localSync.RequestSave(a.Machine.Snapshot())
				}
			}
		case len(res.Leaderboard) > 0:
			before := a.Machine.Snapshot()
			if err := a.Machine.Restore(before, res.Leaderboard); err != nil {
				a.log.Warn("reconcile records", "error", err)
				break
			}
			restored = true
			if recordsRaised(before, a.Machine.Snapshot()) {
				a.Machine.Save()
			}
		}
		restored = restored || applied
		a.Bus.Publish(notify.SaveLoaded{Slot: res.Slot, Applied: applied, Err: res.Err})
	}

	if !restored {
		a.Machine.Ready()
	}
}

// PlayRound plays one run that scores the given number of points.
func (a *App) PlayRound(score int) (session.Outcome, error) {
	a.Machine.Idle()
	if err := a.Machine.StartPlaying(); err != nil {
		return session.Outcome{}, err
	}
	for i := 0; i < score; i++ {
		a.Machine.OnScored()
	}
	return a.Machine.OnGameOver()
}

// WatchRewardedAd reports a completed rewarded ad.
func (a *App) WatchRewardedAd() {
	a.Bus.Publish(notify.RewardedAdEarned{})
}

// Scores returns the top scores of a difficulty's leaderboard.
func (a *App) Scores(ctx context.Context, d progress.Difficulty, limit int) ([]storage.ScoreEntry, error) {
	return a.remote.TopScores(ctx, a.Machine.LeaderboardID(d), limit)
}

// ClearScores deletes every score posted to a difficulty's leaderboard.
func (a *App) ClearScores(ctx context.Context, d progress.Difficulty) error {
	id := a.Machine.LeaderboardID(d)
	if id == "" {
		return fmt.Errorf("app: no leaderboard for %s", d)
	}
	return a.remote.ClearScores(ctx, id)
}

// ScoreStats returns aggregated statistics of a difficulty's leaderboard.
func (a *App) ScoreStats(ctx context.Context, d progress.Difficulty) (storage.LeaderboardStats, error) {
	return a.remote.Stats(ctx, a.Machine.LeaderboardID(d))
}

// Achievements returns reported achievement progress.
func (a *App) Achievements(ctx context.Context) ([]storage.AchievementEntry, error) {
	return a.remote.Achievements(ctx)
}

// PlayTime returns the total play time the next local and cloud saves
// record. cloud is zero when cloud saves are disabled.
func (a *App) PlayTime() (local, cloud time.Duration) {
	local = a.localSync.PlayTime()
	if a.cloudSync != nil {
		cloud = a.cloudSync.PlayTime()
	}
	return local, cloud
}

// DeleteSaves removes the local slot and, when enabled, the cloud slot.
func (a *App) DeleteSaves(ctx context.Context) error {
	var errs []error
	if err := a.localSync.Delete(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.cloudSync != nil {
		if err := a.cloudSync.Delete(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close waits for remote calls, writes pending saves and closes storage.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	// Remote calls finish first; the databases close last.
	a.Poster.Close()
	for _, s := range a.syncers() {
		if err := s.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("app: flush %s: %w", s.Slot(), err))
		}
		s.Stop()
	}
	a.Machine.Detach()

	if err := a.local.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.remote.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// recordsRaised reports whether leaderboard reconciliation changed any record.
func recordsRaised(before, after progress.Snapshot) bool {
	for _, d := range progress.Difficulties {
		if after.Record(d) != before.Record(d) {
			return true
		}
	}
	return false
}

func (a *App) syncers() []*cloudsave.Syncer {
	if a.cloudSync == nil {
		return []*cloudsave.Syncer{a.localSync}
	}
	return []*cloudsave.Syncer{a.localSync, a.cloudSync}
}
