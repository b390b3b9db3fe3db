package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/config"
	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/pipeline"
	"github.com/sells-group/identity-cli/internal/store"
)

// Dial connects to the Temporal frontend using the queue configuration.
func Dial(cfg config.QueueConfig, log *zap.Logger) (client.Client, error) {
	if log == nil {
		log = zap.L()
	}
	c, err := client.Dial(client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    newZapAdapter(log),
	})
	if err != nil {
		return nil, eris.Wrap(err, "queue: dial temporal")
	}
	return c, nil
}

// Enqueuer submits resolution jobs: it creates the queued session row
// and starts the workflow keyed by the session id.
type Enqueuer struct {
	temporal  client.Client
	store     store.Store
	taskQueue string
	log       *zap.Logger
}

// NewEnqueuer builds an Enqueuer on an existing Temporal client.
func NewEnqueuer(tc client.Client, st store.Store, taskQueue string, log *zap.Logger) *Enqueuer {
	if log == nil {
		log = zap.L()
	}
	return &Enqueuer{temporal: tc, store: st, taskQueue: taskQueue, log: log}
}

// EnqueueRequest describes one job submission.
type EnqueueRequest struct {
	TenantID    string                 `json:"tenant_id"`
	CandidateID string                 `json:"candidate_id"`
	Type        model.JobType          `json:"job_type"`
	Budget      model.EnrichmentBudget `json:"budget"`
}

// Enqueue creates a queued session and starts its workflow. The
// workflow id is the session id; a duplicate start for the same id is
// treated as success, not an error.
func (e *Enqueuer) Enqueue(ctx context.Context, req EnqueueRequest) (*pipeline.Job, error) {
	if req.Type == "" {
		req.Type = model.JobEnrich
	}
	job := pipeline.Job{
		SessionID:   uuid.NewString(),
		TenantID:    req.TenantID,
		CandidateID: req.CandidateID,
		Type:        req.Type,
		Budget:      req.Budget,
	}

	if err := e.store.CreateSession(ctx, model.EnrichmentSession{
		ID:          job.SessionID,
		TenantID:    job.TenantID,
		CandidateID: job.CandidateID,
		Status:      model.SessionQueued,
	}); err != nil {
		return nil, eris.Wrap(err, "queue: create session")
	}

	_, err := e.temporal.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    job.SessionID,
		TaskQueue:             e.taskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}, EnrichmentWorkflowName, job)
	if err != nil {
		var already *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &already) {
			e.log.Info("queue: session already enqueued", zap.String("session", job.SessionID))
			return &job, nil
		}
		return nil, eris.Wrap(err, "queue: start workflow")
	}

	e.log.Info("queue: job enqueued",
		zap.String("session", job.SessionID),
		zap.String("candidate", job.CandidateID),
		zap.String("type", string(job.Type)))
	return &job, nil
}
