// Package config provides YAML-based configuration loading for the
// progression core: difficulty tuning, reward bounds, the bird roster and
// persistence settings.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/skybird/internal/progress"
	"github.com/vovakirdan/skybird/internal/savecodec"
	"github.com/vovakirdan/skybird/internal/session"
)

// Config is the complete skybird configuration.
type Config struct {
	Levels       []LevelConfig     `yaml:"levels"`
	Rewards      RewardsConfig     `yaml:"rewards"`
	Session      SessionConfig     `yaml:"session"`
	Birds        []BirdConfig      `yaml:"birds"`
	Achievements map[string]string `yaml:"achievements"` // achievement -> remote id
	Save         SaveConfig        `yaml:"save"`
	Storage      StorageConfig     `yaml:"storage"`
	Social       SocialConfig      `yaml:"social"`
	Log          LogConfig         `yaml:"log"`
}

// LevelConfig tunes one difficulty. Levels are listed in difficulty index
// order (easy, normal, hard).
type LevelConfig struct {
	Name            string  `yaml:"name"`
	CoinsMultiplier float64 `yaml:"coins_multiplier"`
	LeaderboardID   string  `yaml:"leaderboard_id"`
}

// RewardsConfig bounds the "more reward" bonus.
type RewardsConfig struct {
	MinBonus int `yaml:"min_bonus"`
	MaxBonus int `yaml:"max_bonus"`
}

// SessionConfig holds state machine tuning.
type SessionConfig struct {
	TimeTransitionEvery int `yaml:"time_transition_every"` // score period of the day/night cue
}

// BirdConfig describes one roster slot.
type BirdConfig struct {
	Name      string `yaml:"name"`
	Price     int    `yaml:"price"`
	InfoPills []int  `yaml:"info_pills"` // ascending aggregated-score thresholds
}

// SaveConfig controls the save slots.
type SaveConfig struct {
	Slot          string        `yaml:"slot" env:"SKYBIRD_SLOT"`
	LocalSlot     string        `yaml:"local_slot"`
	Format        string        `yaml:"format"` // "legacy" or "v2"
	Timeout       time.Duration `yaml:"timeout"`
	CloudDisabled bool          `yaml:"cloud_disabled" env:"SKYBIRD_CLOUD_DISABLED"`
}

// StorageConfig holds database locations.
type StorageConfig struct {
	LocalDB string `yaml:"local_db" env:"SKYBIRD_DB"`
	CloudDB string `yaml:"cloud_db" env:"SKYBIRD_CLOUD_DB"`
}

// SocialConfig controls the remote score and achievement services.
type SocialConfig struct {
	SignedIn bool          `yaml:"signed_in" env:"SKYBIRD_SIGNED_IN"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level" env:"SKYBIRD_LOG_LEVEL"`
}

// Validate checks the configuration for values the core cannot work with.
func (c Config) Validate() error {
	var errs []error

	if len(c.Levels) != len(progress.Difficulties) {
		errs = append(errs, fmt.Errorf("levels: want %d entries, got %d", len(progress.Difficulties), len(c.Levels)))
	}
	seen := make(map[string]bool)
	for i, l := range c.Levels {
		if l.CoinsMultiplier <= 0 {
			errs = append(errs, fmt.Errorf("levels[%d]: coins_multiplier must be positive", i))
		}
		if l.LeaderboardID != "" && seen[l.LeaderboardID] {
			errs = append(errs, fmt.Errorf("levels[%d]: duplicate leaderboard_id %q", i, l.LeaderboardID))
		}
		seen[l.LeaderboardID] = true
	}

	if c.Rewards.MinBonus < 0 || c.Rewards.MaxBonus < c.Rewards.MinBonus {
		errs = append(errs, fmt.Errorf("rewards: invalid bonus bounds [%d, %d]", c.Rewards.MinBonus, c.Rewards.MaxBonus))
	} else if c.Rewards.MaxBonus == 0 {
		// A zero clamp would be taken for "unset" and replaced by the defaults.
		errs = append(errs, errors.New("rewards: max_bonus must be positive"))
	}
	if c.Session.TimeTransitionEvery <= 0 {
		errs = append(errs, errors.New("session: time_transition_every must be positive"))
	}

	if len(c.Birds) == 0 {
		errs = append(errs, errors.New("birds: roster is empty"))
	} else if c.Birds[0].Price != 0 {
		errs = append(errs, errors.New("birds[0]: starter bird must be free"))
	}
	for i, b := range c.Birds {
		if b.Price < 0 {
			errs = append(errs, fmt.Errorf("birds[%d]: negative price", i))
		}
		for j := 1; j < len(b.InfoPills); j++ {
			if b.InfoPills[j] <= b.InfoPills[j-1] {
				errs = append(errs, fmt.Errorf("birds[%d]: info_pills must be ascending", i))
				break
			}
		}
	}

	if c.Save.Slot == "" || c.Save.LocalSlot == "" {
		errs = append(errs, errors.New("save: slot and local_slot are required"))
	}
	if _, err := savecodec.ParseFormat(c.Save.Format); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Roster converts the bird list into progress specs.
func (c Config) Roster() []progress.BirdSpec {
	roster := make([]progress.BirdSpec, len(c.Birds))
	for i, b := range c.Birds {
		roster[i] = progress.BirdSpec{
			Name:      b.Name,
			Price:     b.Price,
			InfoPills: append([]int(nil), b.InfoPills...),
		}
	}
	return roster
}

// SessionLevels maps the level list onto difficulties.
func (c Config) SessionLevels() map[progress.Difficulty]session.Level {
	levels := make(map[progress.Difficulty]session.Level, len(c.Levels))
	for i, l := range c.Levels {
		d, ok := progress.DifficultyFromIndex(i)
		if !ok {
			break
		}
		levels[d] = session.Level{CoinsMultiplier: l.CoinsMultiplier, LeaderboardID: l.LeaderboardID}
	}
	return levels
}

// RewardBounds returns the bonus clamp.
func (c Config) RewardBounds() progress.Rewards {
	return progress.Rewards{MinBonus: c.Rewards.MinBonus, MaxBonus: c.Rewards.MaxBonus}
}

// SaveFormat returns the parsed payload format.
func (c Config) SaveFormat() savecodec.Format {
	f, _ := savecodec.ParseFormat(c.Save.Format)
	return f
}

// AchievementRemoteID returns the remote id of an achievement, defaulting to
// the achievement name.
func (c Config) AchievementRemoteID(id progress.AchievementID) string {
	if remote, ok := c.Achievements[string(id)]; ok && remote != "" {
		return remote
	}
	return string(id)
}
