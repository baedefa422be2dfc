package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"leasebill/internal/core/types"
	"leasebill/internal/domain/billing"
)

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule",
		Short:   "Preview the monthly installments of a contract period",
		Example: "  billingctl schedule --start 2025-01-31 --end 2025-06-30 --due-day 10 --value 1500.00",
		RunE: func(cmd *cobra.Command, args []string) error {
			startRaw, _ := cmd.Flags().GetString("start")
			endRaw, _ := cmd.Flags().GetString("end")
			dueDay, _ := cmd.Flags().GetInt("due-day")
			maxPeriods, _ := cmd.Flags().GetInt("max")
			valueRaw, _ := cmd.Flags().GetString("value")

			start, err := types.ParseDate(startRaw)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			var end *time.Time
			if endRaw != "" {
				e, err := types.ParseDate(endRaw)
				if err != nil {
					return fmt.Errorf("--end: %w", err)
				}
				if e.Before(start) {
					return fmt.Errorf("--end must not be before --start")
				}
				end = &e
			}
			if dueDay < 1 || dueDay > 31 {
				return fmt.Errorf("--due-day must be between 1 and 31")
			}
			value, err := types.NewMoneyFromString(valueRaw)
			if err != nil {
				return fmt.Errorf("--value: %w", err)
			}

			periods := billing.NewCalculator(maxPeriods).Periods(start, end, dueDay).Collect()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tINICIO\tFIM\tVENCIMENTO\tDESCRICAO\tVALOR")
			for i, p := range periods {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					i+1,
					types.FormatDate(p.Start),
					types.FormatDate(p.End),
					types.FormatDate(p.DueDate),
					p.Description(),
					types.Round2(value).StringFixed(2),
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			total := types.Round2(value).Mul(decimal.NewFromInt(int64(len(periods))))
			fmt.Fprintf(cmd.OutOrStdout(), "%d parcela(s), total %s\n", len(periods), total.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().String("start", "", "contract start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "contract end date (YYYY-MM-DD), empty for open-ended")
	cmd.Flags().Int("due-day", 10, "day of month installments fall due")
	cmd.Flags().Int("max", billing.DefaultMaxPeriods, "maximum number of periods")
	cmd.Flags().String("value", "0", "monthly rent")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}
