package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/eval"
)

var (
	evalSuitePath string
	evalBadgePath string
	evalGates     = eval.DefaultGates()
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the labeled evaluation suite and check CI gates",
	Long:  "Replays labeled fixture cases through scoring and the persistence gate, prints a Markdown report, and exits non-zero when auto-merge precision, recall, or persist rate regress past the thresholds.",
	RunE: func(cmd *cobra.Command, args []string) error {
		suite, err := eval.LoadSuite(evalSuitePath)
		if err != nil {
			return err
		}

		report := eval.Run(suite, cfg.Scoring, zap.L())
		fmt.Fprint(cmd.OutOrStdout(), eval.FormatMarkdown(report))

		if evalBadgePath != "" {
			if err := os.WriteFile(evalBadgePath, []byte(eval.FormatBadgeJSON(report)), 0o644); err != nil {
				return eris.Wrap(err, "write badge")
			}
		}

		return eval.CheckGates(report, evalGates)
	},
}

func init() {
	evalCmd.Flags().StringVar(&evalSuitePath, "suite", "testdata/eval_suite.yaml", "path to the labeled suite YAML")
	evalCmd.Flags().StringVar(&evalBadgePath, "badge", "", "write a shields.io badge JSON to this path")
	evalCmd.Flags().Float64Var(&evalGates.MinAutoMergePrecision, "min-precision", evalGates.MinAutoMergePrecision, "minimum auto-merge precision")
	evalCmd.Flags().Float64Var(&evalGates.MinRecall, "min-recall", evalGates.MinRecall, "minimum labeled recall")
	evalCmd.Flags().Float64Var(&evalGates.MinPersistRate, "min-persist-rate", evalGates.MinPersistRate, "minimum persist rate")
	evalCmd.Flags().Float64Var(&evalGates.MaxPersistRate, "max-persist-rate", evalGates.MaxPersistRate, "maximum persist rate")
	rootCmd.AddCommand(evalCmd)
}
