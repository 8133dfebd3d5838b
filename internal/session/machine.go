// Package session implements the Idle/Playing/GameOver state machine that
// decides when scoring, rewards, achievements and persistence happen.
package session

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/skybird/internal/notify"
	"github.com/vovakirdan/skybird/internal/progress"
)

// State is the session phase.
type State int

const (
	Idle State = iota
	Playing
	GameOver
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case GameOver:
		return "game over"
	default:
		return "unknown"
	}
}

// DefaultTimeTransitionEvery is the score period of the day/night cue.
const DefaultTimeTransitionEvery = 20

var (
	ErrInvalidTransition = errors.New("session: invalid state transition")
	ErrBirdNotPurchased  = progress.ErrBirdNotPurchased
	ErrUnknownBird       = progress.ErrUnknownBird
	ErrUnknownDifficulty = progress.ErrUnknownDifficulty
)

// Level is the per-difficulty tuning used at game over.
type Level struct {
	CoinsMultiplier float64
	LeaderboardID   string
}

// Reporter forwards results to the remote score and achievement services.
// Calls must not block; completion is observed by the reporter only.
type Reporter interface {
	Available() bool
	PostScore(score int, leaderboardID string)
	UnlockAchievement(id progress.AchievementID)
}

// Saver persists snapshots without blocking the caller.
type Saver interface {
	RequestSave(snap progress.Snapshot)
}

// Config wires a Machine to its collaborators. Zero values are usable:
// nothing is reported or saved and notifications are dropped. Zero Rewards
// means the default bounds.
type Config struct {
	Levels              map[progress.Difficulty]Level
	Rewards             progress.Rewards
	TimeTransitionEvery int
	Bus                 notify.Publisher
	Reporter            Reporter
	Savers              []Saver
	Logger              *log.Logger
}

// Outcome summarizes one game over.
type Outcome struct {
	Score        int
	Reward       int
	Bonus        int
	Record       int
	NewRecord    bool
	Achievement  progress.AchievementID
	NewInfoPills int
}

// PurchaseResult tells what PurchaseOrSelect did.
type PurchaseResult int

const (
	Selected PurchaseResult = iota
	Purchased
	NotEnoughCoins
)

func (r PurchaseResult) String() string {
	switch r {
	case Selected:
		return "selected"
	case Purchased:
		return "purchased"
	case NotEnoughCoins:
		return "not enough coins"
	default:
		return "unknown"
	}
}

// Machine drives a play session over a progress.Store. It is not safe for
// concurrent use; all calls must come from the game goroutine.
type Machine struct {
	store *progress.Store
	cfg   Config
	log   *log.Logger

	state     State
	score     int
	reward    int
	bonus     int
	record    int
	newRecord bool
	lastPill  int

	detach []func()
}

// New creates a machine in the Idle state.
func New(store *progress.Store, cfg Config) *Machine {
	if cfg.Bus == nil {
		cfg.Bus = notify.Discard
	}
	if cfg.TimeTransitionEvery <= 0 {
		cfg.TimeTransitionEvery = DefaultTimeTransitionEvery
	}
	if cfg.Rewards == (progress.Rewards{}) {
		cfg.Rewards = progress.DefaultRewards()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Machine{
		store: store,
		cfg:   cfg,
		log:   logger.WithPrefix("session"),
		state: Idle,
	}
}

// Ready applies the store's persisted selection: the stored bird becomes
// active without a sound cue and the displayed record follows the stored
// difficulty.
func (m *Machine) Ready() {
	if err := m.SelectBird(m.store.CurrentBird(), false); err != nil {
		m.log.Warn("stored bird not selectable, falling back", "bird", m.store.CurrentBird(), "error", err)
		_ = m.SelectBird(0, false)
	}
	m.score = 0
	m.record = m.store.Record(m.store.Difficulty())
	m.cfg.Bus.Publish(notify.DifficultyChanged{Difficulty: m.store.Difficulty(), Record: m.record})
}

// Attach subscribes the machine to bonus triggers on bus.
func (m *Machine) Attach(bus *notify.Bus) {
	credit := func(notify.Notification) { m.EarnBonus() }
	m.detach = append(m.detach,
		bus.Subscribe(notify.KindBonusEarned, credit),
		bus.Subscribe(notify.KindRewardedAdEarned, credit),
	)
}

// Detach removes every subscription made by Attach.
func (m *Machine) Detach() {
	for _, unsubscribe := range m.detach {
		unsubscribe()
	}
	m.detach = nil
}

func (m *Machine) State() State { return m.state }
func (m *Machine) Score() int { return m.score }
func (m *Machine) Reward() int { return m.reward }
func (m *Machine) Bonus() int { return m.bonus }
func (m *Machine) Record() int { return m.record }
func (m *Machine) NewRecord() bool { return m.newRecord }
func (m *Machine) Coins() int { return m.store.Coins() }
func (m *Machine) Difficulty() progress.Difficulty { return m.store.Difficulty() }
func (m *Machine) CurrentBird() int { return m.store.CurrentBird() }
func (m *Machine) LastInfoPillShown() int { return m.lastPill }
func (m *Machine) Snapshot() progress.Snapshot { return m.store.Snapshot() }
func (m *Machine) Birds() []progress.BirdRecord { return m.store.Birds() }
func (m *Machine) Spec(i int) (progress.BirdSpec, error) { return m.store.Spec(i) }

// LeaderboardID returns the leaderboard of d, or "" when none is configured.
func (m *Machine) LeaderboardID(d progress.Difficulty) string {
	return m.cfg.Levels[d].LeaderboardID
}

// StartPlaying begins a run. Only valid from Idle.
func (m *Machine) StartPlaying() error {
	if m.state != Idle {
		return fmt.Errorf("%w: start playing from %s", ErrInvalidTransition, m.state)
	}
	m.state = Playing
	m.score = 0
	m.cfg.Bus.Publish(notify.PlayStarted{})
	return nil
}

// OnScored counts one point while playing.
func (m *Machine) OnScored() {
	if m.state != Playing {
		return
	}
	m.score++
	if m.score%m.cfg.TimeTransitionEvery == 0 {
		m.cfg.Bus.Publish(notify.TimeTransition{Score: m.score})
	}
}

// OnGameOver ends the run and applies its results to the store. Only valid
// from Playing.
func (m *Machine) OnGameOver() (Outcome, error) {
	if m.state != Playing {
		return Outcome{}, fmt.Errorf("%w: game over from %s", ErrInvalidTransition, m.state)
	}

	score := m.score
	level := m.store.Difficulty()
	out := Outcome{Score: score}

	out.Record, out.NewRecord = m.store.UpdateRecord(level, score)
	m.record, m.newRecord = out.Record, out.NewRecord

	remote := m.cfg.Reporter != nil && m.cfg.Reporter.Available()
	if remote {
		m.cfg.Reporter.PostScore(score, m.LeaderboardID(level))
	}

	if id, ok := progress.Evaluate(score); ok {
		out.Achievement = id
		if remote {
			m.cfg.Reporter.UnlockAchievement(id)
		}
	}

	multiplier := m.cfg.Levels[level].CoinsMultiplier
	m.reward = progress.ComputeReward(score, multiplier)
	if err := m.store.Credit(m.reward); err != nil {
		m.log.Error("credit reward", "reward", m.reward, "error", err)
	}
	m.bonus = m.cfg.Rewards.Bonus(m.reward)
	out.Reward, out.Bonus = m.reward, m.bonus

	bird := m.store.CurrentBird()
	pills, err := m.store.RevealInfoPills(bird, score)
	if err != nil {
		m.log.Error("reveal info pills", "bird", bird, "error", err)
	}
	if pills > 0 {
		out.NewInfoPills = pills
		m.lastPill += pills
		m.cfg.Bus.Publish(notify.NewInfoPills{Count: pills})
	}

	if err := m.store.AddAggregatedScore(bird, score); err != nil {
		m.log.Error("aggregate score", "bird", bird, "error", err)
	}

	m.score = 0
	m.state = GameOver

	m.log.Debug("game over",
		"score", out.Score, "reward", out.Reward, "bonus", out.Bonus,
		"record", out.Record, "new_record", out.NewRecord)
	m.cfg.Bus.Publish(notify.GameOver{
		Score:        out.Score,
		Reward:       out.Reward,
		Bonus:        out.Bonus,
		Record:       out.Record,
		NewRecord:    out.NewRecord,
		Achievement:  out.Achievement,
		NewInfoPills: out.NewInfoPills,
	})

	m.persist()
	return out, nil
}

// Idle returns to the menu after a game over. From any other state it does
// nothing.
func (m *Machine) Idle() {
	if m.state != GameOver {
		return
	}
	m.state = Idle
	m.cfg.Bus.Publish(notify.Idling{})
}

// SelectBird activates an owned bird. Valid in any state.
func (m *Machine) SelectBird(index int, playSound bool) error {
	if err := m.store.SelectBird(index); err != nil {
		return err
	}
	marker, err := m.store.SyncInfoPillMarker(index)
	if err != nil {
		return err
	}
	m.lastPill = marker
	m.cfg.Bus.Publish(notify.BirdSelected{Index: index, PlaySound: playSound})
	return nil
}

// PurchaseOrSelect buys bird index when it is not owned yet and selects it.
// Running short of coins is reported through the result and a
// NotEnoughCoins notification, not as an error.
func (m *Machine) PurchaseOrSelect(index int) (PurchaseResult, error) {
	bird, err := m.store.Bird(index)
	if err != nil {
		return Selected, err
	}
	if bird.Purchased {
		return Selected, m.SelectBird(index, true)
	}

	err = m.store.Purchase(index)
	if errors.Is(err, progress.ErrInsufficientCoins) {
		spec, _ := m.store.Spec(index)
		m.cfg.Bus.Publish(notify.NotEnoughCoins{Index: index, Price: spec.Price, Coins: m.store.Coins()})
		return NotEnoughCoins, nil
	}
	if err != nil {
		return Selected, err
	}

	m.cfg.Bus.Publish(notify.BirdPurchased{Index: index})
	if err := m.SelectBird(index, true); err != nil {
		return Purchased, err
	}
	m.persist()
	return Purchased, nil
}

// SetDifficultyLevel switches the active difficulty.
func (m *Machine) SetDifficultyLevel(index int) error {
	d, ok := progress.DifficultyFromIndex(index)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownDifficulty, index)
	}
	if d == m.store.Difficulty() {
		return nil
	}
	if err := m.store.SetDifficulty(d); err != nil {
		return err
	}
	m.record = m.store.Record(d)
	m.newRecord = false
	m.cfg.Bus.Publish(notify.DifficultyChanged{Difficulty: d, Record: m.record})
	return nil
}

// EarnBonus credits the bonus of the last game over again, to both the
// session reward and the coin balance. Every call is a fresh credit.
func (m *Machine) EarnBonus() {
	if m.bonus <= 0 {
		return
	}
	if err := m.store.Credit(m.bonus); err != nil {
		m.log.Error("credit bonus", "bonus", m.bonus, "error", err)
		return
	}
	m.reward += m.bonus
	m.persist()
}

// Save hands the current progression to every saver.
func (m *Machine) Save() {
	m.persist()
}

// Restore applies a loaded snapshot, reconciles every record with the
// authoritative leaderboard values, and re-applies the stored selection. On
// error the store keeps its previous contents.
func (m *Machine) Restore(snap progress.Snapshot, leaderboard map[progress.Difficulty]int) error {
	if m.state == Playing {
		return fmt.Errorf("%w: restore while playing", ErrInvalidTransition)
	}
	if err := m.store.Restore(snap); err != nil {
		return err
	}
	for d, v := range leaderboard {
		m.store.ReconcileRecord(d, v)
	}
	m.Ready()
	return nil
}

func (m *Machine) persist() {
	if len(m.cfg.Savers) == 0 {
		return
	}
	snap := m.store.Snapshot()
	for _, s := range m.cfg.Savers {
		s.RequestSave(snap.Clone())
	}
}
