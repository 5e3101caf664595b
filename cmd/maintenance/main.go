package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"smc-analysis/src/assets"
	"smc-analysis/src/config"
	"smc-analysis/src/interfaces"
	"smc-analysis/src/logger"
	"smc-analysis/src/media"
	"smc-analysis/src/storage"
)

// -----------------------------------------------------------------------------
// Maintenance commands: schema migration, static collection, disk cleanup
// and disk usage reporting. One-shot operations run against the same
// config file as the server.
// -----------------------------------------------------------------------------

func main() {

	configPath := flag.String("config", "./config/default.yaml", "path to config file")
	migrate := flag.Bool("migrate", false, "create or refresh the database schema")
	collectStatic := flag.Bool("collectstatic", false, "copy asset sources into the static root")
	cleanup := flag.Bool("cleanup", false, "remove expired rows, stale caches and oversized logs")
	disk := flag.Bool("disk", false, "print a disk usage report as JSON")
	flag.Parse()

	if !*migrate && !*collectStatic && !*cleanup && !*disk {
		fmt.Println("No command given. Use -migrate, -collectstatic, -cleanup or -disk.")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name+"-maintenance")

	if *migrate {
		runMigrate(cfg, appLogger)
	}

	if *collectStatic {
		collector := assets.NewCollector(cfg.MConfig, appLogger)
		copied, bytes, err := collector.Collect()
		if err != nil {
			appLogger.Critical("collectstatic failed: %v", err)
		}
		fmt.Printf("Collected %d files (%d bytes) into %s\n", copied, bytes, cfg.Static.Root)
	}

	if *cleanup {
		runCleanup(cfg, appLogger)
	}

	if *disk {
		report := media.Usage(cfg.DiskQuotaMB,
			cfg.Media.Root,
			cfg.Static.Root,
			cfg.Storage.DBPath,
			cfg.LogFile,
		)
		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))

		if report.OverQuota {
			os.Exit(2)
		}
	}
}

// -----------------------------------------------------------------------------

func openDB(cfg *config.Config, log *logger.Logger) interfaces.IDatabase {
	var db interfaces.IDatabase
	var err error

	switch cfg.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(cfg.MConfig, log)
	default:
		db, err = storage.NewAsyncSQLiteDB(cfg.MConfig, log)
	}

	if err != nil {
		log.Critical("Failed to open db: %v", err)
	}
	return db
}

// -----------------------------------------------------------------------------

func runMigrate(cfg *config.Config, log *logger.Logger) {
	db := openDB(cfg, log)
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Critical("migrate failed: %v", err)
	}
	fmt.Println("Schema migrated.")
}

// -----------------------------------------------------------------------------

func runCleanup(cfg *config.Config, log *logger.Logger) {
	db := openDB(cfg, log)
	defer db.Close()

	// Connect without migrating: re-running the migration here would drop
	// the tick and candle tables this command is supposed to prune.
	if err := db.Connect(); err != nil {
		log.Critical("Failed to connect: %v", err)
	}

	if err := db.CleanupOldData(); err != nil {
		log.Error("Row cleanup failed: %v", err)
	}

	cleaner := media.NewCleaner(cfg.MConfig, log)
	cleaner.Run(cfg.Storage.RetentionDays)

	fmt.Println("Cleanup complete.")
}
