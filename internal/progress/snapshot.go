package progress

import (
	"fmt"
	"time"
)

// Snapshot is a point-in-time copy of a Store, the unit exchanged with the
// save codec and the save transports. TotalPlayTime is carried alongside the
// payload by transports and is never part of the encoded bytes.
type Snapshot struct {
	Difficulty       Difficulty
	EasyRecord       int
	NormalRecord     int
	HardRecord       int
	Coins            int
	CurrentBird      int
	Purchased        []bool
	AggregatedScores []int
	TotalPlayTime    time.Duration
}

// Birds returns the roster size described by the snapshot.
func (s Snapshot) Birds() int {
	return len(s.Purchased)
}

// Record returns the stored record of d.
func (s Snapshot) Record(d Difficulty) int {
	switch d {
	case Easy:
		return s.EasyRecord
	case Normal:
		return s.NormalRecord
	case Hard:
		return s.HardRecord
	}
	return 0
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.Purchased = append([]bool(nil), s.Purchased...)
	c.AggregatedScores = append([]int(nil), s.AggregatedScores...)
	return c
}

// Validate checks the snapshot against a roster of n birds.
func (s Snapshot) Validate(n int) error {
	if !s.Difficulty.Valid() {
		return fmt.Errorf("progress: difficulty index %d out of range", int(s.Difficulty))
	}
	if len(s.Purchased) != n || len(s.AggregatedScores) != n {
		return fmt.Errorf("%w: snapshot has %d/%d birds, roster has %d",
			ErrRosterMismatch, len(s.Purchased), len(s.AggregatedScores), n)
	}
	if s.EasyRecord < 0 || s.NormalRecord < 0 || s.HardRecord < 0 {
		return fmt.Errorf("progress: negative record")
	}
	if s.Coins < 0 {
		return fmt.Errorf("progress: negative coin balance %d", s.Coins)
	}
	for i, v := range s.AggregatedScores {
		if v < 0 {
			return fmt.Errorf("progress: negative aggregated score for bird %d", i)
		}
	}
	return nil
}
