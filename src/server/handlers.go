package server

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"smc-analysis/src/datasource"
	"smc-analysis/src/helpers"
	"smc-analysis/src/media"
	"smc-analysis/src/models"
	"smc-analysis/src/series"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *WebServer) getHealth(c *gin.Context) {
	connections := s.clientCount.Load()

	s.stateMutex.RLock()
	timestamp := s.latestState.Timestamp
	s.stateMutex.RUnlock()

	c.JSON(200, gin.H{
		"status":        "ok",
		"connections":   connections,
		"latest_update": timestamp,
	})
}

// -----------------------------------------------------------------------------

func (s *WebServer) getConfig(c *gin.Context) {
	c.JSON(200, gin.H{
		"name":       s.Config.Name,
		"timeframes": s.Config.Timeframes,
		"symbols":    s.Config.Feed.Symbols,
		"feed_type":  s.Config.Feed.Type,
		"media_url":  s.Config.Media.URLPrefix,
		"static_url": s.Config.Static.URLPrefix,
	})
}

// -----------------------------------------------------------------------------

func (s *WebServer) getSymbols(c *gin.Context) {
	symbols := datasource.Catalog(s.Config.Feed.Symbols)

	statuses := make([]models.MSymbolStatus, 0, len(symbols))
	for _, sym := range symbols {
		status := models.MSymbolStatus{MSymbol: sym}
		if s.Scheduler != nil {
			status.MarketOpen = s.Scheduler.IsSymbolOpen(sym.Name)
		}
		statuses = append(statuses, status)
	}

	c.JSON(200, gin.H{"symbols": statuses})
}

// -----------------------------------------------------------------------------

func (s *WebServer) getCandles(c *gin.Context) {
	symbol := c.Query("symbol")
	timeframe := c.Query("timeframe")
	if symbol == "" || timeframe == "" {
		c.JSON(400, gin.H{"error": "symbol and timeframe are required"})
		return
	}
	if !s.knownTimeframe(timeframe) {
		c.JSON(400, gin.H{"error": "unknown timeframe: " + timeframe})
		return
	}

	limit := queryInt(c, "limit", 200)

	candles, err := s.DB.GetCandles(symbol, timeframe, limit)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"symbol":    symbol,
		"timeframe": timeframe,
		"candles":   candles,
	})
}

// -----------------------------------------------------------------------------

// getSeriesStats returns rolling close-price statistics for charting
// overlays: per-point max/min/mean over a window, plus series-wide
// normalization.
func (s *WebServer) getSeriesStats(c *gin.Context) {
	symbol := c.Query("symbol")
	timeframe := c.Query("timeframe")
	if symbol == "" || timeframe == "" {
		c.JSON(400, gin.H{"error": "symbol and timeframe are required"})
		return
	}
	if !s.knownTimeframe(timeframe) {
		c.JSON(400, gin.H{"error": "unknown timeframe: " + timeframe})
		return
	}

	limit := queryInt(c, "limit", 200)
	window := queryInt(c, "window", 20)

	candles, err := s.DB.GetCandles(symbol, timeframe, limit)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	closes := make([]float64, len(candles))
	for i, candle := range candles {
		closes[i] = candle.Close
	}

	mean, std := series.CalculateMeanStd(closes)

	c.JSON(200, gin.H{
		"symbol":       symbol,
		"timeframe":    timeframe,
		"window":       window,
		"mean":         mean,
		"std":          std,
		"rolling_max":  series.RollingMax(closes, window),
		"rolling_min":  series.RollingMin(closes, window),
		"rolling_mean": series.RollingMean(closes, window),
		"z_scores":     series.ZScores(closes),
	})
}

// -----------------------------------------------------------------------------

func (s *WebServer) getDiskUsage(c *gin.Context) {
	report := media.Usage(s.Config.DiskQuotaMB,
		s.Config.Media.Root,
		s.Config.Static.Root,
		s.Config.Storage.DBPath,
		s.Config.LogFile,
	)
	c.JSON(200, report)
}

// -----------------------------------------------------------------------------
// Analysis Records
// -----------------------------------------------------------------------------

type analysisRequest struct {
	Symbol     string  `json:"symbol" binding:"required"`
	Timeframe  string  `json:"timeframe"`
	Direction  string  `json:"direction" binding:"required"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`
	ChartPath  string  `json:"chart_path"`
}

// -----------------------------------------------------------------------------

func (s *WebServer) createAnalysis(c *gin.Context) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	if req.Direction != models.DirectionBuy &&
		req.Direction != models.DirectionSell &&
		req.Direction != models.DirectionNeutral {
		c.JSON(400, gin.H{"error": "direction must be buy, sell or neutral"})
		return
	}

	if req.Confidence < 0 || req.Confidence > 1 {
		c.JSON(400, gin.H{"error": "confidence must be between 0 and 1"})
		return
	}

	if req.Timeframe != "" && !s.knownTimeframe(req.Timeframe) {
		c.JSON(400, gin.H{"error": "unknown timeframe: " + req.Timeframe})
		return
	}

	analysis := &models.MAnalysis{
		Symbol:     req.Symbol,
		Timeframe:  req.Timeframe,
		Direction:  req.Direction,
		Confidence: req.Confidence,
		Summary:    req.Summary,
		ChartPath:  req.ChartPath,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.DB.InsertAnalysis(analysis); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	c.JSON(201, analysis)
}

// -----------------------------------------------------------------------------

func (s *WebServer) getAnalysis(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid id"})
		return
	}

	analysis, err := s.DB.GetAnalysis(id)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	if analysis == nil {
		c.JSON(404, gin.H{"error": "analysis not found"})
		return
	}

	c.JSON(200, analysis)
}

// -----------------------------------------------------------------------------

func (s *WebServer) listAnalyses(c *gin.Context) {
	symbol := c.Query("symbol")
	limit := queryInt(c, "limit", 50)

	analyses, err := s.DB.ListAnalyses(symbol, limit)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{"analyses": analyses})
}

// -----------------------------------------------------------------------------

func (s *WebServer) deleteAnalysis(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid id"})
		return
	}

	if err := s.DB.DeleteAnalysis(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(404, gin.H{"error": "analysis not found"})
			return
		}
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	c.Status(204)
}

// -----------------------------------------------------------------------------
// Uploads
// -----------------------------------------------------------------------------

func (s *WebServer) createUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(400, gin.H{"error": "missing 'file' form field"})
		return
	}

	upload, err := s.Media.Save(header)
	if err != nil {
		var vErr *helpers.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(400, gin.H{"error": vErr.Error()})
			return
		}
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	if err := s.DB.InsertUpload(upload); err != nil {
		// Keep the stored file out of the media root if the row failed
		s.Media.Remove(upload.ID)
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	c.JSON(201, upload)
}

// -----------------------------------------------------------------------------

func (s *WebServer) listUploads(c *gin.Context) {
	limit := queryInt(c, "limit", 50)

	uploads, err := s.DB.ListUploads(limit)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{"uploads": uploads})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// -----------------------------------------------------------------------------

func (s *WebServer) knownTimeframe(tf string) bool {
	for _, known := range s.Config.Timeframes {
		if tf == known {
			return true
		}
	}
	return false
}
