package app

import (
	"github.com/earthnet/frame-survey/internal/data/db"
	apphttp "github.com/earthnet/frame-survey/internal/http"
	"github.com/earthnet/frame-survey/internal/http/frames"
	httpH "github.com/earthnet/frame-survey/internal/http/handlers"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Frames *httpH.FrameHandler
	Stats  *httpH.StatsHandler
}

func wireHandlers(log *logger.Logger, cfg Config, database *db.Service, s Services) Handlers {
	log.Info("Wiring handlers...")
	renderer := frames.NewRenderer(frames.Config{
		PublicURL:     cfg.PublicURL,
		Title:         cfg.SurveyTitle,
		OutcomeImages: cfg.ResultImages,
	})
	return Handlers{
		Health: httpH.NewHealthHandler(database),
		Frames: httpH.NewFrameHandler(log, s.Progression, renderer),
		Stats:  httpH.NewStatsHandler(s.Stats),
	}
}

func wireServer(log *logger.Logger, cfg Config, h Handlers) (*apphttp.Server, error) {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:           log,
		ServiceName:   cfg.Otel.ServiceName,
		CacheMaxAge:   cfg.CacheMaxAge,
		HealthHandler: h.Health,
		FrameHandler:  h.Frames,
		StatsHandler:  h.Stats,
	})
}
