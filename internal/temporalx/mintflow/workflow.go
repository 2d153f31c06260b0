package mintflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/earthnet/frame-survey/internal/services"
)

func Workflow(ctx workflow.Context, job services.MintJob) (services.MintResult, error) {
	if job.CompletionID == 0 {
		return services.MintResult{}, fmt.Errorf("mintflow: missing completion_id")
	}

	// The activity owns the bounded retry loop; Temporal must not add more.
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	var res services.MintResult
	if err := workflow.ExecuteActivity(ctx, ActivityMint, job).Get(ctx, &res); err != nil {
		return res, err
	}
	workflow.GetLogger(ctx).Info("mint workflow finished",
		"completion_id", job.CompletionID,
		"success", res.Success,
	)
	return res, nil
}
