// Package social forwards scores and unlocked achievements to the remote
// leaderboard and achievement services without blocking the game loop.
package social

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/vovakirdan/skybird/internal/notify"
	"github.com/vovakirdan/skybird/internal/progress"
)

// ScoreService accepts leaderboard posts.
type ScoreService interface {
	PostScore(ctx context.Context, score int, leaderboardID string) (int64, error)
}

// AchievementService accepts achievement progress in percent.
type AchievementService interface {
	ReportProgress(ctx context.Context, achievementID string, percent float64) error
}

// Config configures a Poster.
type Config struct {
	Scores       ScoreService
	Achievements AchievementService
	Bus          notify.Publisher
	Logger       *log.Logger

	// Timeout bounds each remote call. Zero means no limit.
	Timeout time.Duration

	// SignedIn is the initial availability of the services.
	SignedIn bool

	// RemoteID maps an achievement to its id on the service. Nil uses the
	// achievement name.
	RemoteID func(progress.AchievementID) string
}

// Poster runs remote calls in the background. Completion is logged and,
// for scores, published as notify.ScorePosted.
type Poster struct {
	cfg      Config
	log      *log.Logger
	signedIn atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup
}

// New creates a poster.
func New(cfg Config) *Poster {
	if cfg.Bus == nil {
		cfg.Bus = notify.Discard
	}
	if cfg.RemoteID == nil {
		cfg.RemoteID = func(id progress.AchievementID) string { return string(id) }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Poster{
		cfg:    cfg,
		log:    logger.WithPrefix("social"),
		ctx:    ctx,
		cancel: cancel,
	}
	p.signedIn.Store(cfg.SignedIn)
	return p
}

// Available reports whether remote calls will be made.
func (p *Poster) Available() bool {
	return p.signedIn.Load()
}

// SetSignedIn changes availability.
func (p *Poster) SetSignedIn(v bool) {
	p.signedIn.Store(v)
}

// PostScore posts score to a leaderboard in the background.
func (p *Poster) PostScore(score int, leaderboardID string) {
	if !p.Available() || p.cfg.Scores == nil || leaderboardID == "" {
		return
	}
	p.run("post score", func(ctx context.Context) {
		_, err := p.cfg.Scores.PostScore(ctx, score, leaderboardID)
		if err != nil {
			err = fmt.Errorf("social: post score: %w", err)
			p.log.Warn("score post failed", "leaderboard", leaderboardID, "score", score, "error", err)
		} else {
			p.log.Debug("score posted", "leaderboard", leaderboardID, "score", score)
		}
		p.cfg.Bus.Publish(notify.ScorePosted{Score: score, LeaderboardID: leaderboardID, Err: err})
	})
}

// UnlockAchievement reports an achievement as complete in the background.
func (p *Poster) UnlockAchievement(id progress.AchievementID) {
	if !p.Available() || p.cfg.Achievements == nil {
		return
	}
	remote := p.cfg.RemoteID(id)
	p.run("unlock achievement", func(ctx context.Context) {
		if err := p.cfg.Achievements.ReportProgress(ctx, remote, 100.0); err != nil {
			p.log.Warn("achievement unlock failed", "achievement", remote, "error", err)
			return
		}
		p.log.Info("achievement unlocked", "achievement", remote)
	})
}

func (p *Poster) run(op string, fn func(ctx context.Context)) {
	p.wg.Go(func() {
		ctx := p.ctx
		if p.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
			defer cancel()
		}

		var pc panics.Catcher
		pc.Try(func() { fn(ctx) })
		if r := pc.Recovered(); r != nil {
			p.log.Error("remote call panicked", "op", op, "error", r.AsError())
		}
	})
}

// Wait blocks until every call started so far has finished.
func (p *Poster) Wait() {
	p.wg.Wait()
}

// Close waits for calls in flight and releases the poster. Calls made after
// Close fail with a canceled context.
func (p *Poster) Close() {
	p.wg.Wait()
	p.cancel()
}
