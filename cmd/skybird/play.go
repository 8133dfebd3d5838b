package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/skybird/internal/app"
	"github.com/vovakirdan/skybird/internal/notify"
)

var (
	flagScore int
	flagAd    bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play one round",
	Long: `Play one round that ends with the given score. The reward is
credited, the record, leaderboard and achievements are updated, and the
progression is saved.

With --ad the rewarded ad is watched after the round, crediting the bonus
once more.

Examples:
  skybird play --score 25
  skybird play --score 60 --ad`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().IntVar(&flagScore, "score", 0, "Points scored before the crash")
	playCmd.Flags().BoolVar(&flagAd, "ad", false, "Watch the rewarded ad after the round")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if flagScore < 0 {
		return errors.New("score must not be negative")
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		a.Bus.Subscribe(notify.KindTimeTransition, func(n notify.Notification) {
			fmt.Println(render(dimStyle, fmt.Sprintf("  ~ the sky turns at %d", n.(notify.TimeTransition).Score)))
		})

		out, err := a.PlayRound(flagScore)
		if err != nil {
			return err
		}

		fmt.Println(render(titleStyle, "Game Over"))
		fmt.Printf("  Score:  %d\n", out.Score)
		record := fmt.Sprintf("%d", out.Record)
		if out.NewRecord {
			record = render(goodStyle, record+" (new record!)")
		}
		fmt.Printf("  Record: %s\n", record)
		fmt.Printf("  Reward: %d coins\n", out.Reward)
		if out.Achievement != "" {
			fmt.Printf("  Achievement: %s\n", render(goodStyle, string(out.Achievement)))
		}
		if out.NewInfoPills > 0 {
			fmt.Printf("  New info pills: %d\n", out.NewInfoPills)
		}

		if flagAd {
			a.WatchRewardedAd()
			fmt.Printf("  Ad bonus: %s\n", render(goodStyle, fmt.Sprintf("+%d coins", out.Bonus)))
		} else if out.Bonus > 0 {
			fmt.Println(render(dimStyle, fmt.Sprintf("  Watch an ad (--ad) for %d more coins", out.Bonus)))
		}
		fmt.Printf("  Coins:  %d\n", a.Machine.Coins())
		return nil
	})
}
