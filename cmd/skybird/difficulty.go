package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/skybird/internal/app"
	"github.com/vovakirdan/skybird/internal/progress"
)

var difficultyCmd = &cobra.Command{
	Use:   "difficulty <level>",
	Short: "Switch difficulty",
	Long: `Switch the active difficulty. Levels are easy, normal and hard, or
their indexes 0, 1 and 2. Harder levels pay more coins per point.

Examples:
  skybird difficulty hard
  skybird difficulty 0`,
	Args: cobra.ExactArgs(1),
	RunE: runDifficulty,
}

func runDifficulty(cmd *cobra.Command, args []string) error {
	d, err := progress.ParseDifficulty(args[0])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.Machine.SetDifficultyLevel(int(d)); err != nil {
			return err
		}
		a.Machine.Save()
		fmt.Printf("Difficulty set to %s. Record: %d\n", render(goodStyle, d.String()), a.Machine.Record())
		return nil
	})
}
