package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/avvvet/lottery-services/configs"
	lotterycfg "github.com/avvvet/lottery-services/internal/lottery/config"
	"github.com/avvvet/lottery-services/internal/lottery/db"
	"github.com/avvvet/lottery-services/internal/lottery/metrics"
	"github.com/avvvet/lottery-services/internal/lottery/notifier"
	"github.com/avvvet/lottery-services/internal/lottery/service"
	"github.com/avvvet/lottery-services/internal/lottery/store"
	natscli "github.com/avvvet/lottery-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "notifier"

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

	// pg connection
	dbpool, err := db.Connect(ctx, cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dbpool.Close()
	log.Printf("pg connection established successfully")

	// Connect to NATS
	n, err := natscli.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Fatalf("unable to connect to NATS server %v", err)
	}
	defer n.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	drawService := service.NewDrawService(service.NewPgTransactor(store.New(dbpool)))

	nt := notifier.New(drawService, n, notifier.Options{
		Subject:  cfg.NotifySubject,
		Schedule: cfg.NotifierSchedule,
		Batch:    cfg.NotifierBatch,
		Location: cfg.DrawLocation,
	})

	// catch up on anything that fell due while we were down
	if res, err := nt.RunOnce(ctx); err != nil {
		log.Errorf("initial scan failed: %v", err)
	} else {
		log.Infof("initial scan: scanned=%d notified=%d skipped=%d failed=%d",
			res.Scanned, res.Notified, res.Skipped, res.Failed)
	}

	if err := nt.Start(ctx); err != nil {
		log.Fatalf("%v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{
		Addr:              ":" + cfg.NotifierMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics server: %v", err)
		}
	}()

	<-ctx.Done()

	nt.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)

	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
