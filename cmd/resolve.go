package main

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/pipeline"
)

var (
	resolveTenant      string
	resolveCandidate   string
	resolveMaxQueries  int
	resolveSummaryOnly bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Run the resolution pipeline inline for one candidate",
	Long:  "Runs discovery, scoring, and persistence in-process without the queue. With discovery.replay_mode set, provider calls are served from fixtures, which makes runs deterministic and offline.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		job := pipeline.Job{
			SessionID:   uuid.NewString(),
			TenantID:    resolveTenant,
			CandidateID: resolveCandidate,
			Type:        model.JobEnrich,
		}
		if resolveSummaryOnly {
			job.Type = model.JobSummaryOnly
		}
		if resolveMaxQueries > 0 {
			job.Budget.MaxQueries = resolveMaxQueries
		}

		if err := env.Store.CreateSession(ctx, model.EnrichmentSession{
			ID:          job.SessionID,
			TenantID:    job.TenantID,
			CandidateID: job.CandidateID,
			Status:      model.SessionQueued,
		}); err != nil {
			return eris.Wrap(err, "create session")
		}

		sess, err := env.Pipeline.Run(ctx, job)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("resolution complete",
			zap.String("session", sess.ID),
			zap.Int("found", sess.IdentitiesFound),
			zap.Int("persisted", sess.IdentitiesPersisted),
			zap.Float64("confidence", sess.FinalConfidence),
			zap.String("early_stop", sess.EarlyStopReason))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sess)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveTenant, "tenant", "", "tenant ID (required)")
	resolveCmd.Flags().StringVar(&resolveCandidate, "candidate", "", "candidate ID (required)")
	resolveCmd.Flags().IntVar(&resolveMaxQueries, "max-queries", 0, "override the query budget")
	resolveCmd.Flags().BoolVar(&resolveSummaryOnly, "summary-only", false, "regenerate the summary without rediscovery")
	_ = resolveCmd.MarkFlagRequired("tenant")
	_ = resolveCmd.MarkFlagRequired("candidate")
	rootCmd.AddCommand(resolveCmd)
}
