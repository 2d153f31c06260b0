package mintflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/earthnet/frame-survey/internal/platform/logger"
	"github.com/earthnet/frame-survey/internal/services"
)

const startTimeout = 5 * time.Second

// Dispatcher starts one mint_token workflow per completion and ordinal. A
// duplicate start while a run is open is dropped; once that run has closed the
// same id may start again. It implements services.MintDispatcher.
type Dispatcher struct {
	log       *logger.Logger
	tc        temporalsdkclient.Client
	taskQueue string
}

func NewDispatcher(baseLog *logger.Logger, tc temporalsdkclient.Client, taskQueue string) *Dispatcher {
	return &Dispatcher{
		log:       baseLog.With("component", "MintDispatcher"),
		tc:        tc,
		taskQueue: taskQueue,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, job services.MintJob) error {
	if d.tc == nil {
		return fmt.Errorf("mintflow: temporal client not configured")
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), startTimeout)
	defer cancel()

	id := WorkflowID(job.CompletionID, job.TokenOrdinal)
	run, err := d.tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:                                       id,
		TaskQueue:                                d.taskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, WorkflowName, job)
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			d.log.Info("Mint workflow already started", "workflow_id", id)
			return nil
		}
		d.log.Error("Mint workflow start failed", "workflow_id", id, "error", err)
		return fmt.Errorf("start mint workflow: %w", err)
	}
	if run != nil {
		d.log.Info("Mint workflow started", "workflow_id", id, "run_id", run.GetRunID())
	}
	return nil
}
