package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/earthnet/frame-survey/internal/http/frames"
	httpH "github.com/earthnet/frame-survey/internal/http/handlers"
	httpMW "github.com/earthnet/frame-survey/internal/http/middleware"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	// CacheMaxAge is the Cache-Control max-age in seconds.
	CacheMaxAge int

	HealthHandler *httpH.HealthHandler
	FrameHandler  *httpH.FrameHandler
	StatsHandler  *httpH.StatsHandler
}

func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	tmpl, err := frames.Templates()
	if err != nil {
		return nil, fmt.Errorf("load frame templates: %w", err)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "frame-survey"
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())
	r.Use(httpMW.CacheControl(cfg.CacheMaxAge))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	if cfg.FrameHandler != nil {
		r.GET("/", cfg.FrameHandler.Home)
		r.GET("/already-completed", cfg.FrameHandler.AlreadyCompleted)
		r.GET("/task/:task_id", cfg.FrameHandler.GetTask)
		r.POST("/task/:task_id/:page_num", cfg.FrameHandler.PostTask)
	}

	if cfg.StatsHandler != nil {
		stats := r.Group("/stats")
		stats.GET("/collection-size/:task_id", cfg.StatsHandler.CollectionSize)
		stats.GET("/survey-stats/:task_id", cfg.StatsHandler.SurveyStats)
		stats.GET("/individual-responses/:task_id/:username", cfg.StatsHandler.IndividualResponses)
		stats.GET("/all-users/:task_id", cfg.StatsHandler.AllUsers)
		stats.GET("/all-tasks", cfg.StatsHandler.AllTasks)
		stats.GET("/task/:task_id", cfg.StatsHandler.Task)
		stats.GET("/all-clusters/:task_id", cfg.StatsHandler.AllClusters)
		stats.GET("/responses-by-cluster/:task_id", cfg.StatsHandler.ResponsesByCluster)
	}

	return r, nil
}
