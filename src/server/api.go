package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"industry-analyze/src/helpers"
	"industry-analyze/src/interfaces"
	"industry-analyze/src/logger"
	"industry-analyze/src/models"
	"industry-analyze/src/service"

	datasource "industry-analyze/src/data_source"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config      *models.MConfig
	Logger      *logger.Logger
	engine      *gin.Engine
	Incremental *service.IncrementalService
	Realtime    *service.RealtimeService
	Cache       interfaces.ICacheStore
	Durable     interfaces.IDurableStore
	Sources     *datasource.SourceSelector

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MQuoteUpdate
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	// stateMutex guards both latestQuotes and clients: the hub goroutine
	// writes them, health and message handlers read them.
	latestQuotes map[string]models.MRealtimeQuote
	stateMutex   sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, log *logger.Logger, incremental *service.IncrementalService, realtime *service.RealtimeService, cacheStore interfaces.ICacheStore, durable interfaces.IDurableStore, sources *datasource.SourceSelector) *APIServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:      cfg,
		Logger:      log,
		engine:      gin.Default(),
		Incremental: incremental,
		Realtime:    realtime,
		Cache:       cacheStore,
		Durable:     durable,
		Sources:     sources,
		clients:     make(map[*Client]struct{}),
		// Buffered so a slow hub consumer never blocks the scheduler
		broadcast:    make(chan *models.MQuoteUpdate, 256),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		done:         make(chan struct{}),
		latestQuotes: make(map[string]models.MRealtimeQuote),
	}

	// CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	v1 := s.engine.Group("/api/v1")

	v1.GET("/historical/stock/:symbol", s.getHistorical)
	v1.GET("/historical/stock/:symbol/statistics", s.getStatistics)

	v1.GET("/realtime/stock/:symbol", s.getRealtimeQuote)
	v1.GET("/realtime/companies/:industry", s.getIndustryCompanies)

	v1.GET("/companies", s.listCompanies)
	v1.GET("/companies/:code", s.getCompany)
	v1.DELETE("/companies/:code", s.deleteCompany)
	v1.GET("/companies/:code/financial-data", s.getFinancialData)

	v1.GET("/industries", s.listIndustries)
	v1.GET("/industries/:name/data", s.getIndustryData)

	v1.GET("/cache/info", s.getCacheInfo)
	v1.DELETE("/cache", s.clearCache)

	v1.GET("/datasource", s.getDataSources)
	v1.POST("/datasource/select", s.selectDataSource)

	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// Stop shuts the hub loop down and disconnects every client. The channels
// themselves stay open so late pump goroutines never send on a closed one.
func (s *APIServer) Stop() error {
	s.stopOnce.Do(func() { close(s.done) })
	return nil
}

// -----------------------------------------------------------------------------
// Error mapping
// -----------------------------------------------------------------------------

func (s *APIServer) fail(c *gin.Context, err error) {
	if errors.Is(err, helpers.ErrNotFound) {
		c.JSON(404, gin.H{"error": err.Error()})
		return
	}
	s.Logger.Error("Request failed: %v", err)
	c.JSON(500, gin.H{"error": err.Error()})
}

// -----------------------------------------------------------------------------
// Historical data
// -----------------------------------------------------------------------------

func (s *APIServer) getHistorical(c *gin.Context) {
	symbol := c.Param("symbol")
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")
	period := c.DefaultQuery("period", "daily")
	force := c.Query("force_refresh") == "true"

	result, err := s.Incremental.GetHistoricalData(symbol, startDate, endDate, period, force)
	if err != nil {
		if errors.Is(err, helpers.ErrBadRequest) {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		s.fail(c, err)
		return
	}

	c.JSON(200, result)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getStatistics(c *gin.Context) {
	stats, err := s.Incremental.GetStatistics(c.Param("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(200, stats)
}

// -----------------------------------------------------------------------------
// Realtime data
// -----------------------------------------------------------------------------

func (s *APIServer) getRealtimeQuote(c *gin.Context) {
	quote, err := s.Realtime.GetStockRealtime(c.Param("symbol"), c.Query("force_refresh") == "true")
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(200, quote)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getIndustryCompanies(c *gin.Context) {
	companies, err := s.Realtime.GetIndustryCompanies(c.Param("industry"), c.Query("force_refresh") == "true")
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"industry": c.Param("industry"), "count": len(companies), "companies": companies})
}

// -----------------------------------------------------------------------------
// Companies
// -----------------------------------------------------------------------------

func (s *APIServer) listCompanies(c *gin.Context) {
	companies, err := s.Durable.ListCompanies()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"count": len(companies), "companies": companies})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getCompany(c *gin.Context) {
	company, err := s.Durable.GetCompany(c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if company == nil {
		s.fail(c, helpers.ErrNotFound)
		return
	}
	c.JSON(200, company)
}

// -----------------------------------------------------------------------------

func (s *APIServer) deleteCompany(c *gin.Context) {
	deleted, err := s.Durable.DeleteCompany(c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !deleted {
		s.fail(c, helpers.ErrNotFound)
		return
	}
	c.JSON(200, gin.H{"deleted": c.Param("code")})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getFinancialData(c *gin.Context) {
	records, err := s.Realtime.GetFinancialData(c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"code": c.Param("code"), "count": len(records), "records": records})
}

// -----------------------------------------------------------------------------
// Industries
// -----------------------------------------------------------------------------

func (s *APIServer) listIndustries(c *gin.Context) {
	industries, err := s.Durable.ListIndustries()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"count": len(industries), "industries": industries})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getIndustryData(c *gin.Context) {
	data, err := s.Realtime.GetIndustryData(c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(200, data)
}

// -----------------------------------------------------------------------------
// Cache administration
// -----------------------------------------------------------------------------

func (s *APIServer) getCacheInfo(c *gin.Context) {
	info := s.Cache.Info()
	c.JSON(200, gin.H{"count": len(info), "entries": info})
}

// -----------------------------------------------------------------------------

// clearCache drops one entry when ?key= is given, otherwise the whole cache.
func (s *APIServer) clearCache(c *gin.Context) {
	if key := c.Query("key"); key != "" {
		if !s.Cache.Delete(key) {
			s.fail(c, helpers.ErrNotFound)
			return
		}
		c.JSON(200, gin.H{"deleted": key})
		return
	}

	if err := s.Cache.Clear(); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"cleared": true})
}

// -----------------------------------------------------------------------------
// Data source administration
// -----------------------------------------------------------------------------

func (s *APIServer) getDataSources(c *gin.Context) {
	names, active := s.Sources.Status()
	c.JSON(200, gin.H{"sources": names, "active": active})
}

// -----------------------------------------------------------------------------

func (s *APIServer) selectDataSource(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	if err := s.Sources.Select(req.Name); err != nil {
		c.JSON(404, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"active": req.Name})
}

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

func (s *APIServer) connectionCount() int {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return len(s.clients)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	connections := s.connectionCount()

	_, active := s.Sources.Status()
	c.JSON(200, gin.H{
		"status":      "ok",
		"name":        s.Config.Name,
		"connections": connections,
		"data_source": active,
	})
}
