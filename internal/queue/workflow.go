// Package queue runs resolution jobs through Temporal: one workflow per
// enrichment session, with the pipeline behind a single retried
// activity. The workflow id is the session id, so enqueueing the same
// session twice is a no-op.
package queue

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/sells-group/identity-cli/internal/pipeline"
	"github.com/sells-group/identity-cli/internal/resilience"
)

// EnrichmentWorkflowName is the registered workflow type.
const EnrichmentWorkflowName = "EnrichmentWorkflow"

// nonRetryableKinds are error kinds that retrying cannot fix: the
// activity raises them as non-retryable application errors and the
// retry policy must agree.
var nonRetryableKinds = []resilience.Kind{
	resilience.KindCandidateNotFound,
	resilience.KindAccessDenied,
	resilience.KindAuth,
	resilience.KindFatal,
}

func nonRetryableErrorTypes() []string {
	out := make([]string, len(nonRetryableKinds))
	for i, k := range nonRetryableKinds {
		out[i] = string(k)
	}
	return out
}

// EnrichmentWorkflow executes one resolution job. All real work happens
// in the RunJob activity; the workflow only pins the retry policy and
// timeouts so history stays small.
func EnrichmentWorkflow(ctx workflow.Context, job pipeline.Job) error {
	opts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		HeartbeatTimeout:    time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        5 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: nonRetryableErrorTypes(),
		},
	}
	ctx = workflow.WithActivityOptions(ctx, opts)

	logger := workflow.GetLogger(ctx)
	logger.Info("starting resolution job",
		"session_id", job.SessionID,
		"candidate_id", job.CandidateID,
		"job_type", string(job.Type))

	if err := workflow.ExecuteActivity(ctx, RunJobActivityName, job).Get(ctx, nil); err != nil {
		logger.Error("resolution job failed", "session_id", job.SessionID, "error", err)
		return err
	}
	return nil
}
