package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benodiwal/dexy/internal/amm"
)

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap one pool asset for the other",
		RunE:  runSwap,
	}
	cmd.Flags().String("pool", "", "pool name")
	cmd.Flags().String("caller", "", "caller address")
	cmd.Flags().String("direction", "a_to_b", "a_to_b or b_to_a")
	cmd.Flags().Uint64("amount-in", 0, "input amount")
	cmd.Flags().Uint64("min-out", 0, "minimum acceptable output")
	return cmd
}

func runSwap(cmd *cobra.Command, _ []string) error {
	name, err := poolFlag(cmd)
	if err != nil {
		return err
	}
	caller, err := addressFlag(cmd, "caller", true)
	if err != nil {
		return err
	}
	dir, err := directionFlag(cmd)
	if err != nil {
		return err
	}
	amountIn, _ := cmd.Flags().GetUint64("amount-in")
	minOut, _ := cmd.Flags().GetUint64("min-out")

	return runWithApp(cmd, func(ctx context.Context, a *app) error {
		res, err := a.svc.Swap(ctx, name, caller, dir, amountIn, minOut)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	})
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Preview a swap without executing it",
		RunE:  runQuote,
	}
	cmd.Flags().String("pool", "", "pool name")
	cmd.Flags().String("direction", "a_to_b", "a_to_b or b_to_a")
	cmd.Flags().Uint64("amount-in", 0, "input amount to price")
	cmd.Flags().Uint64("amount-out", 0, "desired output; prints the input needed instead")
	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	name, err := poolFlag(cmd)
	if err != nil {
		return err
	}
	dir, err := directionFlag(cmd)
	if err != nil {
		return err
	}
	amountIn, _ := cmd.Flags().GetUint64("amount-in")
	amountOut, _ := cmd.Flags().GetUint64("amount-out")
	if (amountIn == 0) == (amountOut == 0) {
		return fmt.Errorf("exactly one of --amount-in and --amount-out is required")
	}

	return runWithApp(cmd, func(ctx context.Context, a *app) error {
		if amountOut > 0 {
			in, err := a.svc.QuoteExactOut(ctx, name, dir, amountOut)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{
				"pool":       name,
				"direction":  dir,
				"amount_in":  in,
				"amount_out": amountOut,
			})
		}
		q, err := a.svc.Quote(ctx, name, dir, amountIn)
		if err != nil {
			return err
		}
		return printJSON(cmd, q)
	})
}

func directionFlag(cmd *cobra.Command) (amm.Direction, error) {
	raw, _ := cmd.Flags().GetString("direction")
	return amm.ParseDirection(raw)
}
