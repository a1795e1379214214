package main

import (
	"context"
	"crypto/rand"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pmoura/listinha/internal/database"
	"github.com/pmoura/listinha/internal/logging"
	"github.com/pmoura/listinha/internal/server"
)

func main() {
	port := os.Getenv("LISTINHA_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("LISTINHA_DB_PATH")
	if dbPath == "" {
		dbPath = "listinha.db"
	}

	logger := logging.Setup(os.Getenv("LISTINHA_LOG_LEVEL"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	shareSecret := []byte(os.Getenv("LISTINHA_SHARE_SECRET"))
	if len(shareSecret) == 0 {
		// Share links signed with an ephemeral key stop working on
		// restart; set LISTINHA_SHARE_SECRET to keep them stable.
		shareSecret = make([]byte, 32)
		if _, err := rand.Read(shareSecret); err != nil {
			log.Fatalf("failed to generate share secret: %v", err)
		}
		logger.Warn("LISTINHA_SHARE_SECRET not set, using an ephemeral key")
	}

	var origins []string
	for _, o := range strings.Split(os.Getenv("LISTINHA_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	srv := server.New(db, server.Config{
		ShareSecret:    shareSecret,
		SnapshotTTL:    7 * 24 * time.Hour,
		AllowedOrigins: origins,
	}, logger)

	// Periodic cleanup of expired sessions and rate limit buckets
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("session cleanup", "error", err)
			} else if n > 0 {
				logger.Info("session cleanup", "deleted", n)
			}
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("listinha running", "addr", "http://localhost:"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
