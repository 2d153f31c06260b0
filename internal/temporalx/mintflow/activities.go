package mintflow

import (
	"context"
	"fmt"

	"github.com/earthnet/frame-survey/internal/platform/logger"
	"github.com/earthnet/frame-survey/internal/services"
)

type Activities struct {
	Log  *logger.Logger
	Mint services.MintService
}

func (a *Activities) MintAttempts(ctx context.Context, job services.MintJob) (services.MintResult, error) {
	if a == nil || a.Mint == nil {
		return services.MintResult{}, fmt.Errorf("mintflow: activity not configured")
	}
	defer func() {
		if r := recover(); r != nil && a.Log != nil {
			a.Log.Error("Mint activity panic", "completion_id", job.CompletionID, "panic", r)
		}
	}()
	return a.Mint.Run(ctx, job)
}
