package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Chative-multiagent/server/internal/agent/graph"
	"github.com/Chative-multiagent/server/internal/agent/model"
)

func newAskCommand(a *app) *cobra.Command {
	var (
		concurrency int
		asJSON      bool
		plain       bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question> [question...]",
		Short: "Answer one or more questions, each routed independently",
		Example: `  multiagent ask "What is 12 * 8?"
  multiagent ask --json "hi" "Plan a 3-day trip to Tokyo"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.buildRuntime(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			inputs := make([]model.QueryInput, len(args))
			for i, q := range args {
				inputs[i] = model.QueryInput{Query: q}
			}
			results := rt.engine.RunBatch(cmd.Context(), inputs, concurrency)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			r := newResultRenderer(plain)
			for i, res := range results {
				if i > 0 {
					fmt.Fprintln(out, strings.Repeat("─", 40))
				}
				r.Render(out, args[i], res)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", graph.DefaultBatchConcurrency, "questions answered in parallel")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&plain, "plain", false, "print responses without markdown rendering")
	return cmd
}
