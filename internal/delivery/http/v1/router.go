package v1

import (
	"net/http"

	"nexulsly-backend/config"
	"nexulsly-backend/internal/delivery/http/middleware"
	"nexulsly-backend/internal/delivery/http/response"
	"nexulsly-backend/internal/domain"
	"nexulsly-backend/internal/usecase"
	"nexulsly-backend/pkg/apperror"
	"nexulsly-backend/pkg/security"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

type RouterDeps struct {
	ContactUC domain.ContactUsecase
	HealthUC  usecase.HealthUsecase
	Config    *config.Config
	Redis     *goredis.Client           // optional rate limit backend
	Audit     *security.SecurityLogger  // optional
	Metrics   *ginprometheus.Prometheus // optional, serves /metrics
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigin)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))
	r.Use(middleware.ErrorHandler())

	if deps.Metrics != nil {
		deps.Metrics.Use(r)
	}

	globalLimit := middleware.GlobalRateLimitConfig(cfg.RateLimitGlobalPerMinute)
	globalLimit.Redis = deps.Redis
	globalLimit.Audit = deps.Audit
	r.Use(middleware.RateLimitMiddleware(globalLimit))

	r.NoRoute(func(c *gin.Context) {
		c.Error(apperror.NotFound("Not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		c.Error(apperror.MethodNotAllowed())
	})

	api := r.Group("/api")

	// Health Check
	api.GET("/health", func(c *gin.Context) {
		if deps.HealthUC == nil {
			response.Success(c, http.StatusOK, "System operational", nil)
			return
		}
		status, healthy := deps.HealthUC.Check(c.Request.Context())
		if !healthy {
			c.JSON(http.StatusServiceUnavailable, response.Response{
				Success:   false,
				Message:   "System degraded",
				Data:      status,
				RequestID: c.GetString("RequestID"),
			})
			return
		}
		response.Success(c, http.StatusOK, "System operational", status)
	})

	contactLimit := middleware.ContactRateLimitConfig(cfg.RateLimitContactPerMinute)
	contactLimit.Redis = deps.Redis
	contactLimit.Audit = deps.Audit

	NewContactHandler(api, deps.ContactUC,
		middleware.RateLimitMiddleware(contactLimit),
		middleware.AdminAuth(cfg.AdminJWTSecret, deps.Audit),
	)

	// Swagger
	api.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// NewMetrics builds the Prometheus middleware. Request counts are labelled by
// route template so path parameters do not explode label cardinality.
func NewMetrics() *ginprometheus.Prometheus {
	p := ginprometheus.NewPrometheus("nexulsly")
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		if path := c.FullPath(); path != "" {
			return path
		}
		return "unmatched"
	}
	return p
}
