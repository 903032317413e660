package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bekiboo/Elevatus-Dashboard/internal/auth"
	"github.com/Bekiboo/Elevatus-Dashboard/internal/blog"
	"github.com/Bekiboo/Elevatus-Dashboard/internal/config"
	"github.com/Bekiboo/Elevatus-Dashboard/internal/httpapi"
	"github.com/Bekiboo/Elevatus-Dashboard/internal/obs"
	"github.com/Bekiboo/Elevatus-Dashboard/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	store, err := pg.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db := store.DB()

	authSvc, err := auth.NewService(auth.NewPGStore(db), cfg.JWTSecret)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}
	blogSvc := blog.NewService(store)

	api := httpapi.New(authSvc, blogSvc, httpapi.ReadyProbe{DB: db}, httpapi.Config{
		Version:       version,
		Origin:        cfg.Origin,
		SecureCookies: !cfg.Development(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting elevatus-dashboard %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = store.Close()
	log.Println("Stopped")
}
