package server

import (
	"fmt"
	"sync"
	"sync/atomic"

	"smc-analysis/src/interfaces"
	"smc-analysis/src/logger"
	"smc-analysis/src/media"
	"smc-analysis/src/models"
	"smc-analysis/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// WebServer
// -----------------------------------------------------------------------------

type WebServer struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	DB        interfaces.IDatabase
	Media     *media.Store
	Scheduler *utils.MarketScheduler
	engine    *gin.Engine

	// WebSocket clients. The map belongs to the hub goroutine; handlers
	// read the count through the atomic counter.
	clients     map[*Client]struct{}
	clientCount atomic.Int64
	broadcast   chan *models.MLatestData // Strongly typed and Buffered Queue
	register    chan *Client
	unregister  chan *Client

	// Local cache
	latestState *models.MLatestData
	stateMutex  sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewWebServer(cfg *models.MConfig, db interfaces.IDatabase, store *media.Store, sched *utils.MarketScheduler, log *logger.Logger) *WebServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &WebServer{
		Config:    cfg,
		Logger:    log,
		DB:        db,
		Media:     store,
		Scheduler: sched,
		engine:    gin.Default(),
		clients:   make(map[*Client]struct{}),
		// Buffered channel to prevent lock/blocking
		// Queue size of 256 ensures we can handle bursts of updates
		broadcast:  make(chan *models.MLatestData, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		latestState: &models.MLatestData{
			Type:              "INITIAL",
			Ticks:             make(map[string]models.MTick),
			Candles:           make(map[string]map[string][]models.MCandle),
			Timestamp:         0,
			ProcessingMetrics: models.MProcessingMetrics{},
		},
	}

	// Add CORS Middleware. Headers go on every response, static and media
	// files included, so browser dashboards on any origin can consume them.
	s.engine.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *WebServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/symbols", s.getSymbols)
	s.engine.GET("/api/candles", s.getCandles)
	s.engine.GET("/api/stats", s.getSeriesStats)
	s.engine.GET("/api/disk", s.getDiskUsage)

	s.engine.GET("/api/analyses", s.listAnalyses)
	s.engine.POST("/api/analyses", s.createAnalysis)
	s.engine.GET("/api/analyses/:id", s.getAnalysis)
	s.engine.DELETE("/api/analyses/:id", s.deleteAnalysis)

	s.engine.POST("/api/uploads", s.createUpload)
	s.engine.GET("/api/uploads", s.listUploads)

	// Static and media file mounts
	s.engine.Static(s.Config.Static.URLPrefix, s.Config.Static.Root)
	s.engine.Static(s.Config.Media.URLPrefix, s.Config.Media.Root)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *WebServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *WebServer) Stop() error {
	// Clean shutdown
	close(s.broadcast)
	close(s.register)
	close(s.unregister)
	return nil
}

// -----------------------------------------------------------------------------

// Engine exposes the router for tests driving requests through httptest.
func (s *WebServer) Engine() *gin.Engine {
	return s.engine
}
