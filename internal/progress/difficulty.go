// Package progress holds the authoritative progression state of a player:
// per-difficulty records, coin balance and the bird roster. It also hosts the
// pure reward and achievement rules applied at the end of every run.
package progress

import (
	"fmt"
	"strconv"
	"strings"
)

// Difficulty is a selectable difficulty level. Its integer value is the
// difficulty index stored in save payloads.
type Difficulty int

const (
	Easy Difficulty = iota
	Normal
	Hard
)

// Difficulties lists every level in index order.
var Difficulties = []Difficulty{Easy, Normal, Hard}

// Valid reports whether d is a known level.
func (d Difficulty) Valid() bool {
	return d >= Easy && d <= Hard
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Normal:
		return "normal"
	case Hard:
		return "hard"
	default:
		return "unknown"
	}
}

// DifficultyFromIndex converts a stored index into a Difficulty.
func DifficultyFromIndex(index int) (Difficulty, bool) {
	d := Difficulty(index)
	return d, d.Valid()
}

// ParseDifficulty accepts a level name ("easy") or index ("0").
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, d := range Difficulties {
		if s == d.String() {
			return d, nil
		}
	}
	if i, err := strconv.Atoi(s); err == nil {
		if d, ok := DifficultyFromIndex(i); ok {
			return d, nil
		}
	}
	return Easy, fmt.Errorf("progress: unknown difficulty %q", s)
}
