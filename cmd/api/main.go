package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"fileshare/internal/config"
	"fileshare/internal/jobs"
	"fileshare/internal/pkg/netinfo"
	"fileshare/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := server.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("shutdown: close app: %v", err)
		}
	}()

	if app.IndexEnabled() && cfg.ReconcileSchedule != "" {
		sched, err := jobs.NewScheduler(cfg.ReconcileSchedule, app.Service)
		if err != nil {
			log.Fatal(err)
		}
		go sched.RunOnce()
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("gateway listening on %s (env=%s, upload_dir=%s)", srv.Addr, cfg.AppEnv, app.Store.Dir())
	netinfo.PrintBanner(os.Stdout, cfg.Port, cfg.ShowQR)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server error: %v", err)
	}
}
