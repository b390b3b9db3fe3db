package queue

import (
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/config"
)

// NewWorker builds a worker bound to the enrichment task queue with the
// workflow and activities registered. The caller runs it with
// worker.InterruptCh() so SIGTERM drains in-flight activities.
func NewWorker(tc client.Client, cfg config.QueueConfig, acts *Activities) worker.Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	w := worker.New(tc, cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: concurrency,
	})
	w.RegisterWorkflowWithOptions(EnrichmentWorkflow, workflow.RegisterOptions{Name: EnrichmentWorkflowName})
	w.RegisterActivityWithOptions(acts.RunJob, activity.RegisterOptions{Name: RunJobActivityName})
	return w
}

// zapAdapter bridges the global zap logger into the Temporal SDK's
// keyval logging interface.
type zapAdapter struct {
	s *zap.SugaredLogger
}

func newZapAdapter(log *zap.Logger) *zapAdapter {
	return &zapAdapter{s: log.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (a *zapAdapter) Debug(msg string, keyvals ...interface{}) { a.s.Debugw(msg, keyvals...) }
func (a *zapAdapter) Info(msg string, keyvals ...interface{})  { a.s.Infow(msg, keyvals...) }
func (a *zapAdapter) Warn(msg string, keyvals ...interface{})  { a.s.Warnw(msg, keyvals...) }
func (a *zapAdapter) Error(msg string, keyvals ...interface{}) { a.s.Errorw(msg, keyvals...) }
