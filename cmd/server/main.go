package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kostush/purchase-gateway-sub009/internal/biller"
	"github.com/kostush/purchase-gateway-sub009/internal/config"
	"github.com/kostush/purchase-gateway-sub009/internal/event"
	"github.com/kostush/purchase-gateway-sub009/internal/handler"
	"github.com/kostush/purchase-gateway-sub009/internal/process"
	"github.com/kostush/purchase-gateway-sub009/internal/seed"
	"github.com/kostush/purchase-gateway-sub009/internal/session"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := config.FromEnv()
	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		logger.Error("loading gateway policy", "error", err)
		os.Exit(1)
	}

	// Session storage and the duplicate-request locker share a backend:
	// Redis when configured, otherwise in-process for local development.
	var (
		sessions session.Store
		locker   session.Locker
		memstore *session.MemoryStore
	)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		sessions = session.NewRedisStore(client, cfg.SessionTTL)
		locker = session.NewRedisLocker(client)
		logger.Info("session backend", "kind", "redis", "addr", cfg.RedisAddr)
	} else {
		memstore = session.NewMemoryStore(cfg.SessionTTL)
		sessions = memstore
		locker = session.NewMemoryLocker()
		logger.Info("session backend", "kind", "memory")
	}

	guard := session.NewGuard(locker, cfg.LockTTL, logger)

	var transactions biller.TransactionService
	if cfg.TransactionServiceURL != "" {
		transactions = biller.NewClient(cfg.TransactionServiceURL, logger)
	} else {
		transactions = biller.NewSimulator(time.Now().UnixNano())
		logger.Info("transaction service", "kind", "simulator")
	}

	var sites process.SiteResolver
	if cfg.ConfigServiceURL != "" {
		sites = biller.NewConfigClient(cfg.ConfigServiceURL, logger)
	} else {
		sites = policy.StaticSites()
	}

	var mappings process.MappingResolver
	if cfg.BillerMappingServiceURL != "" {
		mappings = biller.NewMappingClient(cfg.BillerMappingServiceURL, logger)
	} else {
		mappings = biller.NewStaticMappingResolver(nil)
	}

	var routing process.RoutingResolver
	if cfg.BinRoutingServiceURL != "" {
		routing = biller.NewBinRoutingClient(cfg.BinRoutingServiceURL, logger)
	} else {
		routing = biller.NoRouting{}
	}

	events := event.NewPublisher(logger)
	service := process.NewService(sessions, guard, transactions, sites, mappings, routing, policy, policy.Keywords(), events, logger)

	sessionHandler := handler.NewSessionHandler(service, logger)
	attemptsHandler := handler.NewAttemptsHandler(service, events)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "purchase-gateway"})
	})

	mux.HandleFunc("POST /api/session", sessionHandler.Init)
	mux.HandleFunc("GET /api/session/{sessionId}", sessionHandler.Get)
	mux.HandleFunc("POST /api/session/{sessionId}/lookup", sessionHandler.Lookup)
	mux.HandleFunc("POST /api/session/{sessionId}/threed/complete", sessionHandler.CompleteThreeD)
	mux.HandleFunc("POST /api/session/{sessionId}/redirect", sessionHandler.Redirect)
	mux.HandleFunc("POST /api/session/{sessionId}/return", sessionHandler.Return)
	mux.HandleFunc("GET /api/session/{sessionId}/return", sessionHandler.Return)

	mux.HandleFunc("GET /api/session/{sessionId}/attempts", attemptsHandler.Attempts)
	mux.HandleFunc("GET /api/session/{sessionId}/events", attemptsHandler.SessionEvents)
	mux.HandleFunc("GET /api/events", attemptsHandler.Events)

	mux.HandleFunc("POST /api/seed", func(w http.ResponseWriter, r *http.Request) {
		siteID := "dev-site"
		ids, err := seed.Sessions(r.Context(), service, 25, time.Now().UnixNano(), siteID)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			logger.Error("seeding sessions failed", "error", err, "seeded", len(ids))
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{
				"code":        "seed_failed",
				"error":       err.Error(),
				"session_ids": ids,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message":     fmt.Sprintf("Seeded %d purchase sessions", len(ids)),
			"session_ids": ids,
		})
	})

	wrappedMux := corsMiddleware(loggingMiddleware(logger, mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      wrappedMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	if memstore != nil {
		sweeper := session.NewSweeper(memstore, cfg.SweepInterval, logger)
		group.Go(func() error {
			sweeper.Start(ctx)
			return nil
		})
	}

	group.Go(func() error {
		logger.Info("purchase gateway starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration", time.Since(start).String(),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
