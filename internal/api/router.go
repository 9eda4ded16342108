package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/northbrief/curator/internal/handlers"
	"github.com/northbrief/curator/internal/logger"
)

const (
	corsMaxAgeHours = 12
)

// Handlers bundles the route handlers the router wires up.
type Handlers struct {
	Sources     *handlers.SourceHandler
	Articles    *handlers.ArticleHandler
	ScrapeJobs  *handlers.ScrapeJobHandler
	Brand       *handlers.BrandContextHandler
	Newsletters *handlers.NewsletterHandler
	Discovery   *handlers.DiscoveryHandler
}

func NewRouter(h Handlers, corsOrigins []string, log logger.Logger) *gin.Engine {
	router := gin.New()

	// CORS middleware - must be first
	router.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"X-CSRF-Token", "Authorization", "accept", "origin",
			"Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	}))

	// Middleware
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1
	v1 := router.Group("/api/v1")

	// Sources endpoints
	sources := v1.Group("/sources")
	sources.POST("", h.Sources.Create)
	sources.GET("", h.Sources.List)
	sources.DELETE("/:id", h.Sources.Delete)
	sources.POST("/import", h.Sources.Import)
	sources.GET("/metadata", h.Sources.Metadata)

	// Brand context endpoints
	v1.GET("/brand-context", h.Brand.Get)
	v1.POST("/brand-context", h.Brand.Save)

	// Articles endpoints
	articles := v1.Group("/articles")
	articles.GET("", h.Articles.List)
	articles.DELETE("/:id", h.Articles.Delete)
	articles.POST("/selection", h.Articles.SaveSelection)
	articles.POST("/:id/structure", h.Articles.Structure)

	// Discovery endpoint
	v1.POST("/discover", h.Discovery.Discover)

	// Scrape jobs endpoints
	jobs := v1.Group("/scrape-jobs")
	jobs.GET("", h.ScrapeJobs.List)
	jobs.POST("/:id/cancel", h.ScrapeJobs.Cancel)
	jobs.DELETE("/:id", h.ScrapeJobs.Delete)

	// Newsletters endpoints
	newsletters := v1.Group("/newsletters")
	newsletters.POST("/generate", h.Newsletters.Generate)
	newsletters.POST("", h.Newsletters.Save)
	newsletters.GET("", h.Newsletters.List)
	newsletters.DELETE("/:id", h.Newsletters.Delete)

	return router
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", statusCode),
			logger.String("client_ip", c.ClientIP()),
			logger.Duration("duration", duration),
		)
	}
}
