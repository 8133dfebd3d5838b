// skybird drives the progression core of a side-scrolling flying game from
// the terminal: play rounds, spend coins on birds and inspect saves.
//
// Usage:
//
//	skybird play --score <n>     - Play one round scoring n points
//	skybird status               - Show coins, records and birds
//	skybird shop <bird>          - Buy (or select) a bird
//	skybird select <bird>        - Select an owned bird
//	skybird difficulty <level>   - Switch difficulty
//	skybird scores [level]       - Show leaderboard scores
//	skybird achievements         - Show achievement progress
//	skybird slot delete          - Delete local and cloud saves
//
// Global flags:
//
//	--config <path>     - Path to config YAML
//	--log-level <lvl>   - Override the configured log level
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/skybird/internal/app"
	"github.com/vovakirdan/skybird/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "skybird",
	Short: "Skybird - flying game progression in your terminal",
	Long: `Skybird keeps the progression of a side-scrolling flying game:
coins, records per difficulty, a roster of birds to unlock, and saves that
are kept locally and in a cloud slot.

Examples:
  skybird play --score 25
  skybird play --score 40 --ad
  skybird shop robin
  skybird difficulty hard
  skybird scores normal`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(shopCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(difficultyCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(achievementsCmd)
	rootCmd.AddCommand(slotCmd)
}

// withApp loads the configuration and the saved progression, runs fn, and
// flushes saves before returning.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) (err error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}

	logger, err := app.NewLogger(os.Stderr, cfg.Log.Level)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Save.Timeout+time.Second)
		defer cancel()
		if cerr := a.Close(closeCtx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	a.Load(ctx)
	return fn(ctx, a)
}
