package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/skybird.yaml
var defaultYAML []byte

// Default returns the built-in configuration. It mirrors
// defaults/skybird.yaml and is used when the embedded file cannot be parsed.
func Default() Config {
	return Config{
		Levels: []LevelConfig{
			{Name: "easy", CoinsMultiplier: 1.0, LeaderboardID: "leaderboard_easy_level_high_scores"},
			{Name: "normal", CoinsMultiplier: 1.5, LeaderboardID: "leaderboard_normal_level_high_scores"},
			{Name: "hard", CoinsMultiplier: 2.0, LeaderboardID: "leaderboard_hard_level_high_scores"},
		},
		Rewards: RewardsConfig{
			MinBonus: 10,
			MaxBonus: 100,
		},
		Session: SessionConfig{
			TimeTransitionEvery: 20,
		},
		Birds: []BirdConfig{
			{Name: "Sparrow", Price: 0, InfoPills: []int{10, 50, 150, 400}},
			{Name: "Robin", Price: 150, InfoPills: []int{25, 100, 300}},
			{Name: "Parrot", Price: 400, InfoPills: []int{50, 200, 600}},
			{Name: "Eagle", Price: 1000, InfoPills: []int{100, 500, 1500}},
		},
		Achievements: map[string]string{
			"ended_before_started": "achievement_ended_before_started",
			"chick":                "achievement_chick",
			"fly_the_nest":         "achievement_fly_the_nest",
			"experimented_flier":   "achievement_experimented_flier",
			"king_of_the_sky":      "achievement_king_of_the_sky",
		},
		Save: SaveConfig{
			Slot:      "skybird",
			LocalSlot: "local",
			Format:    "legacy",
			Timeout:   10 * time.Second,
		},
		Storage: StorageConfig{
			LocalDB: "~/.skybird/progress.db",
			CloudDB: "~/.skybird/cloud.db",
		},
		Social: SocialConfig{
			SignedIn: true,
			Timeout:  5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
