package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/skybird/internal/app"
)

var slotCmd = &cobra.Command{
	Use:   "slot",
	Short: "Manage save slots",
}

var slotDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the local and cloud saves",
	Long: `Delete the saved progression from the local slot and, unless cloud
saves are disabled, from the cloud slot. Leaderboard scores and achievements
are kept.`,
	Args: cobra.NoArgs,
	RunE: runSlotDelete,
}

func init() {
	slotCmd.AddCommand(slotDeleteCmd)
}

func runSlotDelete(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.DeleteSaves(ctx); err != nil {
			return err
		}
		fmt.Println(render(warnStyle, "Saves deleted."))
		return nil
	})
}
