package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/meenmo/bondlib/analytics"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		in      requestInput
		metrics string
		coupon  float64
	)
	cmd := &cobra.Command{
		Use:   "analyze [identifier]",
		Short: "Analyse one bond",
		Example: `  bondcalc analyze US912810TJ79 --price 71.66 --settlement 2025-06-30
  bondcalc analyze --description "T 3 08/15/52" --price 71.66 --metrics yield,duration`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				in.Identifier = args[0]
			}
			if cmd.Flags().Changed("coupon") {
				in.Overrides.Coupon = &coupon
			}
			if metrics != "" {
				in.Metrics = strings.Split(metrics, ",")
			}
			req, err := in.toRequest(time.Now())
			if err != nil {
				return err
			}
			engine, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			res := engine.Analyze(cmd.Context(), req)
			if err := writeJSON(cmd.OutOrStdout(), round(res, a.precision), a.pretty); err != nil {
				return err
			}
			if res.Status == analytics.StatusFailed {
				return res.Failure
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Description, "description", "", `free-text description, e.g. "T 3 08/15/52"`)
	f.Float64Var(&in.CleanPrice, "price", 0, "clean price per 100 face")
	f.StringVar(&in.SettlementDate, "settlement", "", "settlement date YYYY-MM-DD (default: prior month end)")
	f.StringVar(&metrics, "metrics", "", "comma-separated metrics (default: all)")
	f.Float64Var(&coupon, "coupon", 0, "coupon override in percent")
	f.StringVar(&in.Overrides.Maturity, "maturity", "", "maturity override YYYY-MM-DD")
	f.StringVar(&in.Overrides.DayCount, "day-count", "", "day count override")
	f.StringVar(&in.Overrides.Frequency, "frequency", "", "coupon frequency override")
	return cmd
}
