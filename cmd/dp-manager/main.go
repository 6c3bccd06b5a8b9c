package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/yooh1982/HS4v2/internal/config"
	"github.com/yooh1982/HS4v2/internal/dpxml"
	"github.com/yooh1982/HS4v2/internal/excel"
	httpapi "github.com/yooh1982/HS4v2/internal/http"
	"github.com/yooh1982/HS4v2/internal/repository"
	"github.com/yooh1982/HS4v2/internal/service"
	"github.com/yooh1982/HS4v2/internal/storage"
)

func main() {
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("database is unreachable", zap.Error(err))
	}
	if err := repository.EnsureGlobalTables(ctx, db); err != nil {
		logger.Fatal("failed to ensure global tables", zap.Error(err))
	}

	headers := repository.NewHeadersRepo(db, logger)
	items := repository.NewItemsRepo(db, logger)
	devices := repository.NewDevicesRepo(db, logger)
	namespaces := repository.NewNamespaces(db, logger)
	store := storage.NewStore(cfg.UploadDir, logger)
	reader := excel.NewReader(logger)
	generator := dpxml.NewGenerator(logger)

	svc := service.NewIOListService(headers, items, devices, namespaces, store, reader, generator, logger)
	handler := httpapi.NewIOListHandler(svc, db, logger)

	router := httpapi.NewRouter(logger)
	router.RegisterIOListRoutes(handler)

	srv := service.NewServer(cfg.HTTP.Addr, httpapi.WithCORS(cfg.CORSOrigins, router), logger)
	if err := srv.Run(5 * time.Second); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	_ = db.Close()
}
