package api

import (
	"context"
	_ "embed"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Domenick1991/ticketbooking/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.json
var openAPISpec []byte

const openAPIPath = "/swagger/openapi.json"

// HealthCheck reports whether a dependency the API needs is reachable.
type HealthCheck func(ctx context.Context) error

type RouterOptions struct {
	Logger     zerolog.Logger
	Metrics    config.MetricsConfig
	RateLimit  config.RateLimitConfig
	SwaggerDir string
	Health     map[string]HealthCheck
}

// NewRouter wires the ticket routes with logging, rate limiting, health,
// metrics and the swagger UI.
func NewRouter(opts RouterOptions, tickets *TicketHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(opts.Logger))

	router.GET("/healthz", healthHandler(opts.Health))
	if opts.Metrics.Enabled {
		router.GET(opts.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	router.GET(openAPIPath, openAPIHandler(opts.SwaggerDir))
	router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(openAPIPath))))

	tickets.Register(router.Group("/tickets", RateLimit(opts.RateLimit)))
	return router
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": result})
	}
}

// openAPIHandler serves openapi.json from dir when set, otherwise the copy
// built into the binary.
func openAPIHandler(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if dir != "" {
			data, err := os.ReadFile(filepath.Join(dir, "openapi.json"))
			if err == nil {
				c.Data(http.StatusOK, "application/json", data)
				return
			}
		}
		c.Data(http.StatusOK, "application/json", openAPISpec)
	}
}
