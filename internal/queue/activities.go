package queue

import (
	"context"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/monitoring"
	"github.com/sells-group/identity-cli/internal/pipeline"
	"github.com/sells-group/identity-cli/internal/resilience"
)

// RunJobActivityName is the registered activity type.
const RunJobActivityName = "RunJob"

// Activities hosts the worker-side activity implementations.
type Activities struct {
	Pipeline *pipeline.Pipeline
	Metrics  *monitoring.Metrics
	Log      *zap.Logger
}

// NewActivities wires the pipeline into the activity host.
func NewActivities(p *pipeline.Pipeline, m *monitoring.Metrics, log *zap.Logger) *Activities {
	if log == nil {
		log = zap.L()
	}
	return &Activities{Pipeline: p, Metrics: m, Log: log}
}

// RunJob executes one resolution job end to end. Job-fatal error kinds
// come back as non-retryable application errors so Temporal does not
// burn attempts on candidates that will never resolve.
func (a *Activities) RunJob(ctx context.Context, job pipeline.Job) error {
	activity.RecordHeartbeat(ctx, "started")

	sess, err := a.Pipeline.Run(ctx, job)
	if err != nil {
		if a.Metrics != nil {
			a.Metrics.ObserveJobFailure()
		}
		kind := resilience.KindOf(err)
		if resilience.IsJobFatal(err) {
			return temporal.NewNonRetryableApplicationError(err.Error(), string(kind), err)
		}
		return temporal.NewApplicationError(err.Error(), string(kind))
	}

	if a.Metrics != nil {
		a.Metrics.ObserveSession(sess)
	}
	a.Log.Info("queue: job completed",
		zap.String("session", job.SessionID),
		zap.String("candidate", job.CandidateID),
		zap.Int("persisted", sess.IdentitiesPersisted))
	return nil
}
