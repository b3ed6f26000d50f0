package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Deposit both assets and mint pool shares",
		RunE:  runAdd,
	}
	cmd.Flags().String("pool", "", "pool name")
	cmd.Flags().String("caller", "", "caller address, receives the shares")
	cmd.Flags().Uint64("amount-a", 0, "maximum amount of asset A")
	cmd.Flags().Uint64("amount-b", 0, "maximum amount of asset B")
	return cmd
}

func runAdd(cmd *cobra.Command, _ []string) error {
	name, err := poolFlag(cmd)
	if err != nil {
		return err
	}
	caller, err := addressFlag(cmd, "caller", true)
	if err != nil {
		return err
	}
	amountA, _ := cmd.Flags().GetUint64("amount-a")
	amountB, _ := cmd.Flags().GetUint64("amount-b")

	return runWithApp(cmd, func(ctx context.Context, a *app) error {
		res, err := a.svc.AddLiquidity(ctx, name, caller, amountA, amountB)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	})
}

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Burn pool shares for a proportional share of the reserves",
		RunE:  runRemove,
	}
	cmd.Flags().String("pool", "", "pool name")
	cmd.Flags().String("caller", "", "caller address, owner of the shares")
	cmd.Flags().Uint64("shares", 0, "shares to burn")
	cmd.Flags().Uint64("min-a", 0, "minimum payout of asset A")
	cmd.Flags().Uint64("min-b", 0, "minimum payout of asset B")
	return cmd
}

func runRemove(cmd *cobra.Command, _ []string) error {
	name, err := poolFlag(cmd)
	if err != nil {
		return err
	}
	caller, err := addressFlag(cmd, "caller", true)
	if err != nil {
		return err
	}
	shares, _ := cmd.Flags().GetUint64("shares")
	minA, _ := cmd.Flags().GetUint64("min-a")
	minB, _ := cmd.Flags().GetUint64("min-b")

	return runWithApp(cmd, func(ctx context.Context, a *app) error {
		res, err := a.svc.RemoveLiquidity(ctx, name, caller, shares, minA, minB)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	})
}
