package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/skybird/internal/app"
	"github.com/vovakirdan/skybird/internal/progress"
	"github.com/vovakirdan/skybird/internal/session"
)

var shopCmd = &cobra.Command{
	Use:   "shop <bird>",
	Short: "Buy a bird, or select it if already owned",
	Long: `Buy the bird with the given name or index. Owned birds are selected
instead.

Examples:
  skybird shop robin
  skybird shop 2`,
	Args: cobra.ExactArgs(1),
	RunE: runShop,
}

var selectCmd = &cobra.Command{
	Use:   "select <bird>",
	Short: "Select an owned bird",
	Args:  cobra.ExactArgs(1),
	RunE:  runSelect,
}

func runShop(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		index, err := parseBird(a, args[0])
		if err != nil {
			return err
		}
		spec, _ := a.Machine.Spec(index)

		res, err := a.Machine.PurchaseOrSelect(index)
		if err != nil {
			return err
		}
		switch res {
		case session.Purchased:
			fmt.Printf("Bought %s for %d coins. %d coins left.\n", render(goodStyle, spec.Name), spec.Price, a.Machine.Coins())
		case session.NotEnoughCoins:
			fmt.Printf("%s costs %d coins, you have %d.\n", spec.Name, spec.Price, a.Machine.Coins())
		default:
			fmt.Printf("Selected %s.\n", spec.Name)
			a.Machine.Save()
		}
		return nil
	})
}

func runSelect(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		index, err := parseBird(a, args[0])
		if err != nil {
			return err
		}
		if err := a.Machine.SelectBird(index, true); err != nil {
			return err
		}
		a.Machine.Save()
		spec, _ := a.Machine.Spec(index)
		fmt.Printf("Selected %s.\n", spec.Name)
		return nil
	})
}

// parseBird accepts a roster index or a case-insensitive bird name.
func parseBird(a *app.App, arg string) (int, error) {
	n := len(a.Machine.Birds())
	if i, err := strconv.Atoi(arg); err == nil {
		if i < 0 || i >= n {
			return 0, fmt.Errorf("%w: %d", progress.ErrUnknownBird, i)
		}
		return i, nil
	}
	for i := 0; i < n; i++ {
		spec, _ := a.Machine.Spec(i)
		if strings.EqualFold(spec.Name, arg) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", progress.ErrUnknownBird, arg)
}
