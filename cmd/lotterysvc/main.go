package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/avvvet/lottery-services/configs"
	lotterycfg "github.com/avvvet/lottery-services/internal/lottery/config"
	"github.com/avvvet/lottery-services/internal/lottery/db"
	"github.com/avvvet/lottery-services/internal/lottery/handlers"
	"github.com/avvvet/lottery-services/internal/lottery/metrics"
	"github.com/avvvet/lottery-services/internal/lottery/service"
	"github.com/avvvet/lottery-services/internal/lottery/store"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "lottery"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	cfg, err := lotterycfg.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME+"_service_"+instanceId, cfg.LogDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// dev convenience only, production runs cmd/migrate
	if cfg.AutoMigrate {
		if err := migrateUp(cfg.DBUrl); err != nil {
			log.Fatalf("auto migrate failed: %v", err)
		}
		log.Info("schema migrated (AUTO_MIGRATE)")
	}

	// pg connection
	dbpool, err := db.Connect(ctx, cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dbpool.Close()
	log.Printf("pg connection established successfully")

	tx := service.NewPgTransactor(store.New(dbpool))
	gameService := service.NewGameService(tx)
	drawService := service.NewDrawService(tx)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(cfg.CORSOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	r.Handle("/metrics", metrics.Handler())

	// Init handlers and routes
	h := handlers.NewHandler(gameService, drawService)
	h.InitAuth(cfg.JWTSecret)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
		return
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}

func migrateUp(dsn string) error {
	m, err := db.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}
