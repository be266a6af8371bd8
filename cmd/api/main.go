package main

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ProductsAPI/internal/api"
	"ProductsAPI/internal/auth"
	"ProductsAPI/internal/catalog"
	"ProductsAPI/internal/config"
	"ProductsAPI/pkg/kit"
)

const service = "products-api"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := kit.NewLogger(service, cfg.Debug)
	defer func() { _ = log.Sync() }()

	store := buildStore(cfg, log)

	creds, err := auth.NewCredentials(cfg.AuthUsername, cfg.AuthPassword)
	if err != nil {
		log.Fatal("credentials", zap.Error(err))
	}

	authSrv := &auth.Server{
		Log:      log,
		Creds:    creds,
		JWT:      auth.NewTokenMaker(cfg.JWTSecret),
		TokenTTL: cfg.TokenTTL,
	}

	products := catalog.NewServer(store, log)

	h := api.NewHandler(products, authSrv, api.Deps{
		Log:             log,
		Service:         service,
		Registry:        prometheus.NewRegistry(),
		MetricsEnabled:  cfg.MetricsEnabled,
		MetricsToken:    cfg.MetricsToken,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func buildStore(cfg config.Config, log *zap.Logger) catalog.Store {
	if cfg.DatabaseURL == "" {
		return catalog.LoadSeed(cfg.ProductsPath, log)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}

	log.Info("using postgres store")
	return catalog.NewPostgresStore(db)
}
