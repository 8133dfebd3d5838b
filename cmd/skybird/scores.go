package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/skybird/internal/app"
	"github.com/vovakirdan/skybird/internal/progress"
	"github.com/vovakirdan/skybird/internal/storage"
)

var scoresCmd = &cobra.Command{
	Use:   "scores [level]",
	Short: "Show leaderboard scores",
	Long: `Display the top 10 scores of a difficulty's leaderboard. Without a
level the active difficulty is used.

Examples:
  skybird scores
  skybird scores hard`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScores,
}

var scoresClearCmd = &cobra.Command{
	Use:   "clear <level>",
	Short: "Delete a leaderboard's scores",
	Long: `Delete every score posted to a difficulty's leaderboard. Records kept
in the save are not lowered.

Examples:
  skybird scores clear easy`,
	Args: cobra.ExactArgs(1),
	RunE: runScoresClear,
}

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "Show achievement progress",
	Args:  cobra.NoArgs,
	RunE:  runAchievements,
}

func init() {
	scoresCmd.AddCommand(scoresClearCmd)
}

func runScores(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		d := a.Machine.Difficulty()
		if len(args) == 1 {
			parsed, err := progress.ParseDifficulty(args[0])
			if err != nil {
				return err
			}
			d = parsed
		}

		scores, err := a.Scores(ctx, d, 10)
		if err != nil {
			return err
		}

		fmt.Println(render(titleStyle, fmt.Sprintf("High Scores - %s", d)))
		fmt.Println()

		if len(scores) == 0 {
			fmt.Println("No scores recorded yet.")
			fmt.Println()
			fmt.Println("Play 'skybird play --score <n>' to set the first high score!")
			return nil
		}

		fmt.Printf("  %-4s  %-10s  %s\n", "Rank", "Score", "Date")
		fmt.Printf("  %-4s  %-10s  %s\n", "----", "-----", "----")
		for i, entry := range scores {
			dateStr := entry.CreatedAt.Format("2006-01-02 15:04")
			fmt.Printf("  %-4d  %-10d  %s\n", i+1, entry.Score, dateStr)
		}

		fmt.Println()
		if stats, err := a.ScoreStats(ctx, d); err == nil {
			fmt.Printf("Best: %d  Average: %.1f  Rounds: %d\n", stats.HighScore, stats.AvgScore, stats.Posts)
		}
		return nil
	})
}

func runScoresClear(cmd *cobra.Command, args []string) error {
	d, err := progress.ParseDifficulty(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.ClearScores(ctx, d); err != nil {
			return err
		}
		fmt.Println(render(warnStyle, fmt.Sprintf("Scores cleared for %s.", d)))
		return nil
	})
}

func runAchievements(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		entries, err := a.Achievements(ctx)
		if err != nil {
			return err
		}
		reported := make(map[string]storage.AchievementEntry, len(entries))
		for _, e := range entries {
			reported[e.ID] = e
		}

		fmt.Println(render(titleStyle, "Achievements"))
		for _, id := range progress.Achievements() {
			e, ok := reported[a.Config.AchievementRemoteID(id)]
			if ok && e.Unlocked() {
				fmt.Printf("  %s %s\n", render(goodStyle, "[x]"), id)
				continue
			}
			fmt.Printf("  %s %s\n", render(dimStyle, "[ ]"), id)
		}
		return nil
	})
}
