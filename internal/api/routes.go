package api

import (
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cardbazaar/cardbazaar/backend/internal/api/handlers"
	"github.com/cardbazaar/cardbazaar/backend/internal/ratelimit"
	"github.com/cardbazaar/cardbazaar/backend/internal/services"
)

func SetupRouter(catalog *services.CatalogService, refreshWorker *services.RefreshWorker, setCodeSync *services.SetCodeSyncService, snapshotService *services.SnapshotService) *gin.Engine {
	router := gin.Default()

	// CORS configuration - allow origins from environment or use defaults
	config := cors.DefaultConfig()
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(config))
	router.Use(metricsMiddleware())

	// Sync triggers are invoked by an external cron; keep them from
	// being hammered by anything else.
	triggerLimiter := ratelimit.NewKeyedLimiter(6, time.Minute)

	// Initialize handlers
	refreshHandler := handlers.NewRefreshHandler(refreshWorker)
	setHandler := handlers.NewSetHandler(catalog, snapshotService)
	setCodeHandler := handlers.NewSetCodeHandler(catalog, setCodeSync)

	// API routes
	api := router.Group("/api")
	{
		refresh := api.Group("/refresh")
		{
			refresh.GET("/status", refreshHandler.GetRefreshStatus)
			refresh.POST("/run", rateLimitMiddleware(triggerLimiter), refreshHandler.RunRefresh)
			// GET kept for cron services that cannot POST
			refresh.GET("/run", rateLimitMiddleware(triggerLimiter), refreshHandler.RunRefresh)
		}

		sets := api.Group("/sets")
		{
			sets.GET("", setHandler.ListSets)
			sets.GET("/:id/cards", setHandler.GetSetCards)
		}

		cards := api.Group("/cards")
		{
			cards.GET("/:id/history", setHandler.GetCardHistory)
		}

		setcodes := api.Group("/setcodes")
		{
			setcodes.POST("/sync", rateLimitMiddleware(triggerLimiter), setCodeHandler.SyncSetCodes)
		}

		api.GET("/export/setcodes.csv", setCodeHandler.ExportSetCodesCSV)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
