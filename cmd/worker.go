package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/queue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the enrichment worker",
	Long:  "Polls the Temporal task queue and executes resolution jobs through the discovery pipeline. SIGTERM drains in-flight activities before exit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		tc, err := queue.Dial(cfg.Queue, zap.L())
		if err != nil {
			return err
		}
		defer tc.Close()

		acts := queue.NewActivities(env.Pipeline, env.Metrics, zap.L())
		w := queue.NewWorker(tc, cfg.Queue, acts)

		zap.L().Info("worker starting",
			zap.String("task_queue", cfg.Queue.TaskQueue),
			zap.Int("concurrency", cfg.Queue.Concurrency))

		if err := w.Run(worker.InterruptCh()); err != nil {
			return eris.Wrap(err, "run worker")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
