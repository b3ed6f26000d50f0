package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/benodiwal/dexy/internal/amm"
	"github.com/benodiwal/dexy/internal/model"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a pool with initial reserves",
		RunE:  runInit,
	}
	cmd.Flags().String("pool", "", "pool name")
	cmd.Flags().String("caller", "", "caller address, receives the initial shares")
	cmd.Flags().String("authority", "", "pool authority address (defaults to caller)")
	cmd.Flags().Uint64("reserve-a", 0, "initial reserve of asset A")
	cmd.Flags().Uint64("reserve-b", 0, "initial reserve of asset B")
	cmd.Flags().Uint16("fee-bps", 30, "trading fee in basis points")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	name, err := poolFlag(cmd)
	if err != nil {
		return err
	}
	caller, err := addressFlag(cmd, "caller", true)
	if err != nil {
		return err
	}
	authority, err := addressFlag(cmd, "authority", false)
	if err != nil {
		return err
	}
	reserveA, _ := cmd.Flags().GetUint64("reserve-a")
	reserveB, _ := cmd.Flags().GetUint64("reserve-b")
	feeBps, _ := cmd.Flags().GetUint16("fee-bps")

	return runWithApp(cmd, func(ctx context.Context, a *app) error {
		snap, err := a.svc.CreatePool(ctx, name, caller, authority, reserveA, reserveB, feeBps)
		if err != nil {
			return err
		}
		return printJSON(cmd, newPoolView(snap))
	})
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a pool and its positions",
		RunE:  runShow,
	}
	cmd.Flags().String("pool", "", "pool name")
	return cmd
}

func runShow(cmd *cobra.Command, _ []string) error {
	name, err := poolFlag(cmd)
	if err != nil {
		return err
	}
	return runWithApp(cmd, func(ctx context.Context, a *app) error {
		snap, err := a.svc.Pool(ctx, name)
		if err != nil {
			return err
		}
		return printJSON(cmd, newPoolView(snap))
	})
}

type poolView struct {
	Name      string                  `json:"name"`
	Version   uint64                  `json:"version"`
	UpdatedAt string                  `json:"updated_at"`
	Pool      amm.PoolState           `json:"pool"`
	K         string                  `json:"k"`
	PriceAB   string                  `json:"price_a_in_b,omitempty"`
	Positions []amm.LiquidityPosition `json:"positions"`
}

func newPoolView(snap model.PoolSnapshot) poolView {
	view := poolView{
		Name:      snap.Name,
		Version:   snap.Version,
		UpdatedAt: snap.UpdatedAt,
		Pool:      snap.Pool,
		K:         snap.Pool.K().Dec(),
		Positions: snap.SortedPositions(),
	}
	if price, err := amm.SpotPrice(snap.Pool, amm.AToB); err == nil {
		view.PriceAB = price.String()
	}
	return view
}
