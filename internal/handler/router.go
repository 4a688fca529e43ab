package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/middleware"
)

// Routes are the handlers mounted by NewRouter. Quota and Episodes may be nil.
type Routes struct {
	Health   *HealthHandler
	Videos   *VideoHandler
	Workflow *WorkflowHandler
	Episodes *EpisodeHandler
	Quota    *QuotaHandler
	Auth     *middleware.APIKeyAuth
	Metrics  prometheus.Gatherer
}

// NewRouter builds the gin engine. Health and metrics are public; everything
// under /api/v1 requires an API key.
func NewRouter(r Routes) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestLogger(nil))

	engine.GET("/health/live", r.Health.LivenessProbe)
	engine.GET("/health/ready", r.Health.ReadinessProbe)

	if r.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.Metrics, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api/v1")
	if r.Auth != nil {
		api.Use(r.Auth.Middleware())
	}

	r.Videos.Register(api)
	r.Workflow.Register(api)
	if r.Episodes != nil {
		r.Episodes.Register(api)
	}
	if r.Quota != nil {
		r.Quota.Register(api)
	}

	return engine
}
