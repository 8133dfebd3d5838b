// Package notify provides the in-process notification bus through which the
// session publishes progression events to presentation code and receives
// bonus triggers from gameplay code.
package notify

import (
	"sync"

	"github.com/vovakirdan/skybird/internal/progress"
)

// Kind names a notification.
type Kind string

const (
	KindPlayStarted       Kind = "play-started"
	KindIdling            Kind = "idling"
	KindGameOver          Kind = "game-over"
	KindDifficultyChanged Kind = "difficulty-changed"
	KindBirdPurchased     Kind = "bird-purchased"
	KindBirdSelected      Kind = "bird-selected"
	KindNotEnoughCoins    Kind = "not-enough-coins"
	KindNewInfoPills      Kind = "new-info-pills"
	KindTimeTransition    Kind = "time-transition"
	KindScorePosted       Kind = "score-posted"
	KindSaveLoaded        Kind = "save-loaded"
	KindSaveCompleted     Kind = "save-completed"

	// Incoming triggers published by gameplay code.
	KindBonusEarned      Kind = "bonus-earned"
	KindRewardedAdEarned Kind = "rewarded-ad-earned"
)

// Notification is implemented by every event carried on the bus.
type Notification interface {
	Kind() Kind
}

type PlayStarted struct{}

func (PlayStarted) Kind() Kind { return KindPlayStarted }

type Idling struct{}

func (Idling) Kind() Kind { return KindIdling }

// GameOver carries the result of the end-of-run pipeline.
type GameOver struct {
	Score        int
	Reward       int
	Bonus        int
	Record       int
	NewRecord    bool
	Achievement  progress.AchievementID // empty when none unlocked
	NewInfoPills int
}

func (GameOver) Kind() Kind { return KindGameOver }

type DifficultyChanged struct {
	Difficulty progress.Difficulty
	Record     int
}

func (DifficultyChanged) Kind() Kind { return KindDifficultyChanged }

type BirdPurchased struct {
	Index int
}

func (BirdPurchased) Kind() Kind { return KindBirdPurchased }

type BirdSelected struct {
	Index     int
	PlaySound bool
}

func (BirdSelected) Kind() Kind { return KindBirdSelected }

type NotEnoughCoins struct {
	Index int
	Price int
	Coins int
}

func (NotEnoughCoins) Kind() Kind { return KindNotEnoughCoins }

type NewInfoPills struct {
	Count int
}

func (NewInfoPills) Kind() Kind { return KindNewInfoPills }

// TimeTransition cues the day/night cycle.
type TimeTransition struct {
	Score int
}

func (TimeTransition) Kind() Kind { return KindTimeTransition }

// ScorePosted reports the completion of a leaderboard post.
type ScorePosted struct {
	Score         int
	LeaderboardID string
	Err           error
}

func (ScorePosted) Kind() Kind { return KindScorePosted }

// SaveLoaded is published once a load attempt has been applied or discarded.
type SaveLoaded struct {
	Slot    string
	Applied bool
	Err     error
}

func (SaveLoaded) Kind() Kind { return KindSaveLoaded }

// SaveCompleted is published when a save attempt finishes.
type SaveCompleted struct {
	Slot string
	Err  error
}

func (SaveCompleted) Kind() Kind { return KindSaveCompleted }

type BonusEarned struct{}

func (BonusEarned) Kind() Kind { return KindBonusEarned }

type RewardedAdEarned struct{}

func (RewardedAdEarned) Kind() Kind { return KindRewardedAdEarned }

// Handler receives notifications of the kind it subscribed to.
type Handler func(Notification)

type subscription struct {
	id int
	fn Handler
}

// Bus delivers notifications synchronously, in subscription order, on the
// publisher's goroutine. Subscribing and publishing are safe from several
// goroutines; handlers must do their own synchronization if they are reached
// from more than one.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Kind][]subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Kind][]subscription)}
}

// Subscribe registers fn for kind and returns a func that removes it.
func (b *Bus) Subscribe(kind Kind, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(kind, id) })
	}
}

func (b *Bus) remove(kind Kind, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[kind]
	for i, s := range subs {
		if s.id == id {
			b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers n to every handler subscribed to its kind. Publishing a
// kind nobody listens to is a no-op.
func (b *Bus) Publish(n Notification) {
	b.mu.RLock()
	subs := b.subs[n.Kind()]
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(n)
	}
}

// Publisher is the publishing half of a Bus.
type Publisher interface {
	Publish(n Notification)
}

// Discard is a Publisher that drops everything.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Notification) {}
