package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/timmy/gamedata/internal/api/handler"
	"github.com/timmy/gamedata/internal/api/middleware"
	"github.com/timmy/gamedata/internal/config"
	"github.com/timmy/gamedata/internal/logger"
)

// Dependencies are the services the HTTP layer talks to.
type Dependencies struct {
	Importer handler.Importer
	Tasks    handler.TaskQueue
	Catalog  handler.Searcher
	PingDB   handler.Pinger
	Logger   *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg *config.ServerConfig, deps Dependencies) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	log := deps.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORS))

	healthHandler := handler.NewHealthHandler(deps.PingDB)
	uploadHandler := handler.NewUploadHandler(deps.Importer, deps.Tasks)
	queryHandler := handler.NewQueryHandler(deps.Catalog)

	r.GET("/", healthHandler.Root)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", healthHandler.Health)

		api.POST("/upload_data", uploadHandler.Upload)
		api.POST("/upload_data_async", uploadHandler.UploadAsync)
		api.GET("/upload_data_async/status/", uploadHandler.Status)

		api.GET("/query", queryHandler.Query)
	}

	return r
}
