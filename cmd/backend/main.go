package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"file-intake/internal/server"
)

// defaultMaxUploadBytes is the documented 20 GiB payload cap; override with
// MAX_UPLOAD_BYTES.
const defaultMaxUploadBytes = int64(20) << 30

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		log.Printf("service=backend msg=%q", "PORT is required")
		os.Exit(1)
	}
	addr := ":" + port

	uploadDir := getenvDefault("UPLOAD_DIR", "/var/html/uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Printf("service=backend msg=%q dir=%s err=%v", "upload_dir_create_failed", uploadDir, err)
		os.Exit(1)
	}

	maxBytes := defaultMaxUploadBytes
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "bad MAX_UPLOAD_BYTES", err)
			os.Exit(1)
		}
		maxBytes = n
	}

	scanTimeout := 2 * time.Minute
	if v := os.Getenv("SCAN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			scanTimeout = d
		}
	}

	store := server.NewSessionStore(uploadDir)
	scanner := server.NewClamAVScanner(scanTimeout)

	var notifier server.Notifier
	smtpCfg := server.LoadSMTPConfig()
	if smtpCfg.Complete() {
		notifier = server.NewSMTPNotifier(smtpCfg)
		log.Printf("service=backend msg=%q host=%s to=%s", "notifications_enabled", smtpCfg.Host, smtpCfg.To)
	} else {
		log.Printf("service=backend msg=%q", "notifications_disabled")
	}

	var mirror *server.Mirror
	mirrorCfg := server.LoadMirrorConfig()
	if mirrorCfg.Complete() {
		m, err := server.NewMirror(mirrorCfg)
		if err != nil {
			// The mirror is best-effort; run without it rather than refuse
			// to accept uploads.
			log.Printf("service=backend msg=%q err=%v", "mirror_init_failed", err)
		} else {
			mirror = m
			log.Printf("service=backend msg=%q bucket=%s", "mirror_enabled", mirrorCfg.Bucket)
		}
	} else {
		log.Printf("service=backend msg=%q", "mirror_disabled")
	}

	rateLimit := 100
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			rateLimit = n
		}
	}
	rateWindow := time.Minute
	if v := os.Getenv("RATE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			rateWindow = d
		}
	}

	srv := server.New(server.Config{
		Addr:           addr,
		Store:          store,
		Scanner:        scanner,
		Notifier:       notifier,
		Mirror:         mirror,
		MaxUploadBytes: maxBytes,
		StaticDir:      getenvDefault("STATIC_DIR", "public"),
		RateLimit:      rateLimit,
		RateWindow:     rateWindow,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.StartCleanupJob(ctx, store, server.LoadCleanupConfig())

	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s upload_dir=%s max_bytes=%d",
			"starting", addr, uploadDir, maxBytes)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// getenvDefault reads an environment variable and returns a default value
// if not set.
func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
