package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/meenmo/bondlib/analytics"
)

func newBatchCmd(a *app) *cobra.Command {
	var inputPath string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyse a JSON request or array of requests",
		Long:  "Reads one request object or an array of them from --input (stdin when omitted) and writes results in input order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(inputPath)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			inputs, isArray, err := parseInputs(raw)
			if err != nil {
				return fmt.Errorf("parse JSON: %w", err)
			}

			now := time.Now()
			reqs := make([]analytics.Request, len(inputs))
			inputErrs := make(map[int]error)
			for i, in := range inputs {
				req, err := in.toRequest(now)
				if err != nil {
					inputErrs[i] = err
				}
				reqs[i] = req
			}

			engine, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			results := engine.AnalyzeBatch(cmd.Context(), reqs)

			failed := 0
			outputs := make([]resultOutput, len(results))
			for i, res := range results {
				if err, bad := inputErrs[i]; bad {
					res = analytics.Result{
						Index:   i,
						Status:  analytics.StatusFailed,
						Failure: &analytics.Failure{Kind: analytics.InputError, Message: err.Error()},
					}
				}
				if res.Status == analytics.StatusFailed {
					failed++
				}
				outputs[i] = resultOutput{TaskID: inputs[i].TaskID, Result: round(res, a.precision)}
			}

			if isArray {
				err = writeJSON(cmd.OutOrStdout(), outputs, a.pretty)
			} else {
				err = writeJSON(cmd.OutOrStdout(), outputs[0], a.pretty)
			}
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d requests failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "JSON input path (reads stdin if omitted)")
	return cmd
}
