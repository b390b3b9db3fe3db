package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/queue"
)

var (
	enqueueTenant      string
	enqueueCandidate   string
	enqueueSummaryOnly bool
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Enqueue a resolution job for one candidate",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if _, err := st.GetCandidate(ctx, enqueueTenant, enqueueCandidate); err != nil {
			return eris.Wrap(err, "lookup candidate")
		}

		tc, err := queue.Dial(cfg.Queue, zap.L())
		if err != nil {
			return err
		}
		defer tc.Close()

		jobType := model.JobEnrich
		if enqueueSummaryOnly {
			jobType = model.JobSummaryOnly
		}

		enq := queue.NewEnqueuer(tc, st, cfg.Queue.TaskQueue, zap.L())
		job, err := enq.Enqueue(ctx, queue.EnqueueRequest{
			TenantID:    enqueueTenant,
			CandidateID: enqueueCandidate,
			Type:        jobType,
		})
		if err != nil {
			return eris.Wrap(err, "enqueue job")
		}

		zap.L().Info("job enqueued",
			zap.String("session", job.SessionID),
			zap.String("candidate", job.CandidateID),
			zap.String("type", string(job.Type)))
		cmd.Println(job.SessionID)
		return nil
	},
}

func init() {
	enqueueCmd.Flags().StringVar(&enqueueTenant, "tenant", "", "tenant ID (required)")
	enqueueCmd.Flags().StringVar(&enqueueCandidate, "candidate", "", "candidate ID (required)")
	enqueueCmd.Flags().BoolVar(&enqueueSummaryOnly, "summary-only", false, "regenerate the summary from stored identities without rediscovery")
	_ = enqueueCmd.MarkFlagRequired("tenant")
	_ = enqueueCmd.MarkFlagRequired("candidate")
	rootCmd.AddCommand(enqueueCmd)
}
