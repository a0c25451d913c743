package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"industry-analyze/src/cache"
	"industry-analyze/src/config"
	"industry-analyze/src/data_source/eastmoney"
	"industry-analyze/src/data_source/yahoo"
	"industry-analyze/src/helpers"
	"industry-analyze/src/interfaces"
	"industry-analyze/src/logger"
	"industry-analyze/src/network"
	"industry-analyze/src/scheduler"
	"industry-analyze/src/server"
	"industry-analyze/src/service"
	"industry-analyze/src/storage"

	datasource "industry-analyze/src/data_source"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(cfg.Name)
	fresh := cache.NewFreshnessPolicy(cfg.Cache)

	// 1. Cache backend
	var cacheStore interfaces.ICacheStore

	switch cfg.Cache.Backend {
	case "redis":
		redisStore, err := cache.NewRedisStore(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, logger.NewLogger("RedisStore"))
		if err != nil {
			appLogger.Critical("Failed to init redis cache: %v", err)
		}
		defer redisStore.Close()
		cacheStore = redisStore
	default:
		fileStore, err := cache.NewFileStore(cfg.Cache.FilePath, logger.NewLogger("FileStore"))
		if err != nil {
			appLogger.Critical("Failed to init file cache: %v", err)
		}
		cacheStore = fileStore
	}

	// 2. Durable store
	var db interfaces.IDurableStore

	switch cfg.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(cfg.MConfig, appLogger)
	default:
		db, err = storage.NewSQLiteDB(cfg.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	// The database may still be coming up when we start
	if err := helpers.RetryWithBackoff(3, 2*time.Second, db.Initialize); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}
	defer db.Close()

	// 3. Providers behind the selector
	networkManager := network.NewAsyncNetworkManager(cfg.MConfig, appLogger)

	var sources []interfaces.IDataSource
	for _, srcCfg := range cfg.Sources {
		if !srcCfg.Active {
			continue
		}
		switch srcCfg.Name {
		case "yahoo":
			sources = append(sources, yahoo.NewYahooFinanceSource(srcCfg, networkManager))
		default:
			sources = append(sources, eastmoney.NewEastmoneySource(srcCfg, networkManager, fresh))
		}
	}
	if len(sources) == 0 {
		appLogger.Critical("No active data sources configured")
	}
	selector := datasource.NewSourceSelector(sources, logger.NewLogger("SourceSelector"))

	// 4. Services
	incremental := service.NewIncrementalService(cacheStore, selector, fresh)
	realtime := service.NewRealtimeService(cacheStore, selector, db, fresh)

	// 5. HTTP/WebSocket server
	srv := server.NewAPIServer(cfg.MConfig, appLogger, incremental, realtime, cacheStore, db, selector)

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	// 6. Scheduled quote refresh
	refresher := scheduler.NewQuoteRefresher(cfg.Scheduler, realtime, srv)
	if err := refresher.Start(); err != nil {
		appLogger.Critical("Failed to start scheduler: %v", err)
	}
	defer refresher.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	appLogger.Info("Shutting down...")
	srv.Stop()
}
