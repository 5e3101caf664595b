package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"smc-analysis/src/config"
	"smc-analysis/src/datasource/remote"
	"smc-analysis/src/datasource/sim"
	"smc-analysis/src/interfaces"
	"smc-analysis/src/logger"
	"smc-analysis/src/media"
	"smc-analysis/src/models"
	"smc-analysis/src/network"
	"smc-analysis/src/series"
	"smc-analysis/src/server"
	"smc-analysis/src/storage"
	"smc-analysis/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "./config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	var appLogger *logger.Logger
	if cfg.LogFile != "" {
		appLogger = logger.NewFileLogger(cfg.LogLevel, cfg.Name, cfg.LogFile)
	} else {
		appLogger = logger.NewLogger(cfg.LogLevel, cfg.Name)
	}

	// 2. Storage
	var db interfaces.IDatabase

	switch cfg.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(cfg.MConfig, appLogger)
	default:
		// Default to SQLite
		db, err = storage.NewAsyncSQLiteDB(cfg.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}

	// 3. Market scheduler and data source
	scheduler := utils.NewMarketScheduler(cfg.Feed.Symbols, appLogger)

	var source interfaces.IDataSource
	switch cfg.Feed.Type {
	case "remote":
		var nm interfaces.INetworkManager = network.NewAsyncNetworkManager(cfg.MConfig, appLogger)
		source = remote.NewRemoteSource(cfg.MConfig, nm, appLogger)
	default:
		source = sim.NewSimSource(cfg.MConfig, scheduler, appLogger)
	}

	aggregator := series.NewAggregator(cfg.Timeframes, appLogger)

	// 4. Media store and web server
	store, err := media.NewStore(cfg.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init media store: %v", err)
	}

	srv := server.NewWebServer(cfg.MConfig, db, store, scheduler, appLogger)

	// 5. Memory Manager
	maxPoints := utils.CalculateMaxDataPoints(cfg.Storage.RetentionDays, cfg.Feed.TickIntervalSeconds)
	memManager := utils.NewMemoryManager(maxPoints, appLogger)

	// 6. Initial Data Load
	appLogger.Info("Fetching initial data...")
	initialData, err := source.FetchInitialData()
	if err != nil {
		appLogger.Warning("Initial fetch failed: %v", err)
	}

	for sym, ticks := range initialData {
		for _, t := range ticks {
			memManager.AddDataPoint(sym, t)
		}
	}

	// 7. Initial Aggregation
	initialCandles := make(map[string]map[string][]models.MCandle)

	for _, tf := range cfg.Timeframes {
		candles := aggregator.AggregateHistorical(initialData, tf)
		if err := db.SaveCandles(candles); err != nil {
			appLogger.Error("Failed to save initial candles for %s: %v", tf, err)
		}

		for sym, windows := range candles {
			if initialCandles[sym] == nil {
				initialCandles[sym] = make(map[string][]models.MCandle)
			}
			for w, list := range windows {
				initialCandles[sym][w] = list
			}
		}
	}

	// 8. Save Raw Data (Bulk)
	var allTicks []models.MTick
	for _, list := range initialData {
		allTicks = append(allTicks, list...)
	}
	if err := db.SaveTicksBulk(allTicks); err != nil {
		appLogger.Error("Failed to save initial ticks: %v", err)
	}

	appLogger.Info("Initialization complete.")

	// -------------------------------------------------------------------------
	// Seed Server State
	// -------------------------------------------------------------------------
	initialTickMap := make(map[string]models.MTick)
	for sym, list := range initialData {
		if len(list) > 0 {
			initialTickMap[sym] = list[len(list)-1]
		}
	}

	srv.UpdateState(&models.MLatestData{
		Type:      "INITIAL",
		Ticks:     initialTickMap,
		Candles:   initialCandles,
		Timestamp: time.Now().Unix(),
	})
	// -------------------------------------------------------------------------

	// 9. Start Server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 10. Main Loop (Push Model)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wrapWg := &sync.WaitGroup{}
	updatesChan := make(chan map[string][]models.MTick, 100)

	// Start Source
	if err := source.Start(ctx, updatesChan, wrapWg); err != nil {
		appLogger.Critical("Failed to start source: %v", err)
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	appLogger.Info("Starting data loop (Push Model)...")

	for {
		select {
		case updates, ok := <-updatesChan:
			if !ok {
				appLogger.Info("Data source closed channel.")
				return
			}

			startProcess := time.Now()
			appLogger.Info("Received update for %d symbols", len(updates))

			// Process Updates
			var newTicks []models.MTick

			for sym, ticks := range updates {
				newTicks = append(newTicks, ticks...)
				for _, t := range ticks {
					memManager.AddDataPoint(sym, t)
				}
			}
			if err := db.SaveTicksBulk(newTicks); err != nil {
				appLogger.Error("Failed to save ticks: %v", err)
			}

			// Aggregate Realtime
			accumulated := make(map[string]map[string][]models.MCandle)
			totalWindows := 0

			for _, tf := range cfg.Timeframes {
				// Windows longer than the update batch need the buffered
				// history, not just the fresh ticks
				histories := make(map[string][]models.MTick, len(updates))
				for sym := range updates {
					histories[sym] = memManager.GetHistory(sym)
				}

				current := aggregator.AggregateRealTime(histories, tf)
				totalWindows += len(current)

				candleMap := make(map[string]map[string][]models.MCandle)
				for sym, windows := range current {
					if candle, ok := windows[tf]; ok {
						if candleMap[sym] == nil {
							candleMap[sym] = make(map[string][]models.MCandle)
						}
						candleMap[sym][tf] = []models.MCandle{candle}

						if accumulated[sym] == nil {
							accumulated[sym] = make(map[string][]models.MCandle)
						}
						accumulated[sym][tf] = []models.MCandle{candle}
					}
				}
				if err := db.SaveCandles(candleMap); err != nil {
					appLogger.Error("Failed to save candles for %s: %v", tf, err)
				}
			}

			elapsed := time.Since(startProcess).Seconds()

			// Broadcast
			tickMap := make(map[string]models.MTick)
			for sym, list := range updates {
				if len(list) > 0 {
					tickMap[sym] = list[len(list)-1]
				}
			}

			payload := &models.MLatestData{
				Type:      "UPDATE",
				Ticks:     tickMap,
				Candles:   accumulated,
				Timestamp: time.Now().Unix(),
				ProcessingMetrics: models.MProcessingMetrics{
					AggregationTimeSeconds: elapsed,
					ValidSymbols:           len(updates),
					WindowsProcessed:       totalWindows,
				},
			}

			srv.UpdateState(payload)
			srv.Broadcast(payload)

			// Cleanup
			if err := db.CleanupOldData(); err != nil {
				appLogger.Error("Cleanup failed: %v", err)
			}

		case <-quit:
			appLogger.Info("Shutting down...")
			cancel()      // Signal source to stop
			wrapWg.Wait() // Wait for source to close
			db.Close()
			return
		}
	}
}
