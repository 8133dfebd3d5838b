// Package cloudsave moves progression snapshots between the game and a save
// slot. A Syncer owns one slot: it serializes every save and load through a
// single worker goroutine so the slot never sees concurrent writers and reads
// are never interleaved with writes.
package cloudsave

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrConflict is returned by a transport when a write lost conflict
	// resolution against a newer version already in the slot.
	ErrConflict = errors.New("cloudsave: conflicting version kept")
	// ErrSlotNotFound is returned when reading a slot that has no data.
	ErrSlotNotFound = errors.New("cloudsave: slot not found")
	// ErrStopped is returned for requests made after Stop.
	ErrStopped = errors.New("cloudsave: syncer stopped")
)

// Metadata describes the version of a slot observed by OpenSlot.
type Metadata struct {
	Slot          string
	Revision      string // empty when the slot has never been written
	TotalPlayTime time.Duration
	UpdatedAt     time.Time
}

// Exists reports whether the slot held data when it was opened.
func (m Metadata) Exists() bool {
	return m.Revision != ""
}

// Transport is a save slot service.
type Transport interface {
	OpenSlot(ctx context.Context, slot string) (Metadata, error)
	ReadSlot(ctx context.Context, md Metadata) ([]byte, error)
	WriteSlot(ctx context.Context, md Metadata, data []byte, totalPlayTime time.Duration) (Metadata, error)
	DeleteSlot(ctx context.Context, md Metadata) error
}

// Leaderboard looks up the authoritative high score of a leaderboard.
type Leaderboard interface {
	HighScore(ctx context.Context, leaderboardID string) (int, error)
}
