package main

import (
	"context"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/skybird/internal/app"
	"github.com/vovakirdan/skybird/internal/progress"
)

var flagJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show coins, records and birds",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&flagJSON, "json", false, "Print status as JSON")
}

type birdView struct {
	Index          int    `json:"index"`
	Name           string `json:"name"`
	Price          int    `json:"price"`
	Purchased      bool   `json:"purchased"`
	Selected       bool   `json:"selected"`
	AggregateScore int    `json:"aggregated_score"`
	InfoPills      int    `json:"info_pills"`
	TotalPills     int    `json:"total_info_pills"`
}

type statusView struct {
	Coins         int            `json:"coins"`
	Difficulty    string         `json:"difficulty"`
	Records       map[string]int `json:"records"`
	Birds         []birdView     `json:"birds"`
	LocalPlayTime string         `json:"local_play_time"`
	CloudPlayTime string         `json:"cloud_play_time,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		view := buildStatus(a)
		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		}

		fmt.Println(render(titleStyle, "Skybird"))
		fmt.Printf("  Coins:      %d\n", view.Coins)
		fmt.Printf("  Difficulty: %s\n", view.Difficulty)
		fmt.Printf("  Play time:  %s\n", view.LocalPlayTime)
		fmt.Println()

		fmt.Println(render(titleStyle, "Records"))
		for _, d := range progress.Difficulties {
			fmt.Printf("  %-8s %d\n", d, view.Records[d.String()])
		}
		fmt.Println()

		fmt.Println(render(titleStyle, "Birds"))
		fmt.Printf("  %-3s %-10s %-7s %-8s %s\n", "#", "Name", "Price", "Score", "Pills")
		for _, b := range view.Birds {
			mark := " "
			if b.Selected {
				mark = "*"
			}
			price := fmt.Sprintf("%d", b.Price)
			if b.Purchased {
				price = render(goodStyle, "owned")
			}
			fmt.Printf("%s %-3d %-10s %-7s %-8d %d/%d\n",
				mark, b.Index, b.Name, price, b.AggregateScore, b.InfoPills, b.TotalPills)
		}
		return nil
	})
}

func buildStatus(a *app.App) statusView {
	snap := a.Machine.Snapshot()
	local, cloud := a.PlayTime()

	view := statusView{
		Coins:         snap.Coins,
		Difficulty:    snap.Difficulty.String(),
		Records:       make(map[string]int, len(progress.Difficulties)),
		LocalPlayTime: local.Round(time.Second).String(),
	}
	if cloud > 0 {
		view.CloudPlayTime = cloud.Round(time.Second).String()
	}
	for _, d := range progress.Difficulties {
		view.Records[d.String()] = snap.Record(d)
	}
	for i, rec := range a.Machine.Birds() {
		spec, _ := a.Machine.Spec(i)
		view.Birds = append(view.Birds, birdView{
			Index:          i,
			Name:           spec.Name,
			Price:          spec.Price,
			Purchased:      rec.Purchased,
			Selected:       i == snap.CurrentBird,
			AggregateScore: rec.AggregatedScore,
			InfoPills:      spec.UnlockedPills(rec.AggregatedScore),
			TotalPills:     len(spec.InfoPills),
		})
	}
	return view
}
