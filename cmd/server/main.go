package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"tridify/internal/handler"
	"tridify/internal/middleware"
	"tridify/internal/stats"
	"tridify/internal/store"
	"tridify/internal/ws"
	"tridify/pkg/config"
	"tridify/pkg/logger"
	"tridify/pkg/validator"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("tridify-server")

	log.Info("Starting tridify server", map[string]interface{}{
		"port": cfg.Server.Port,
	})

	profitRate, err := decimal.NewFromString(cfg.Store.ProfitRate)
	if err != nil {
		log.Fatal("Invalid profit rate", map[string]interface{}{
			"value": cfg.Store.ProfitRate,
			"error": err.Error(),
		})
	}

	// Single shared store; the HTTP API and the WebSocket layer observe
	// the same state.
	st := store.New(profitRate, log)
	if cfg.Store.Seed {
		st.Seed()
		log.Info("Demo data seeded", nil)
	}

	agg := stats.New(st)
	val := validator.New()

	hub := ws.NewHub(log)
	router := ws.NewRouter(st, agg, hub, val, log)
	wsHandler := ws.NewHandler(hub, router, log)

	broadcaster := ws.NewBroadcaster(hub, agg, cfg.Broadcast.Interval, log)
	broadcaster.Start()

	api := handler.NewAPI(st, agg, val, log)

	r := mux.NewRouter()
	r.Use(middleware.Recovery)
	r.Use(middleware.CorrelationID)

	r.Handle("/ws", wsHandler)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(middleware.CORS)
	apiRouter.Use(middleware.SecurityHeaders)
	apiRouter.Use(middleware.NewLoggingMiddleware(log).Log)
	apiRouter.Use(middleware.BodyLimit(1 << 20))

	if limiter := buildRateLimiter(cfg, log); limiter != nil {
		apiRouter.Use(limiter.Limit)
	}

	api.Register(apiRouter)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"tridify"}`))
	}).Methods("GET")

	if cfg.Static.Dir != "" {
		r.PathPrefix("/").Handler(spaHandler{dir: cfg.Static.Dir})
	} else {
		r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"message":"tridify 3D conversion service","version":"1.0.0","endpoints":{"stats":"/api/stats","transactions":"/api/transactions","withdrawals":"/api/withdrawals","ws":"/ws"}}`))
		}).Methods("GET")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Server started", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...", nil)

	// Stop new broadcasts first, then close the connections, then stop
	// accepting HTTP.
	broadcaster.Stop()
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Server stopped gracefully", nil)
}

func buildRateLimiter(cfg *config.Config, log logger.Logger) *middleware.RateLimiter {
	if !cfg.RateLimit.Enabled || cfg.Redis.URL == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable, rate limiting disabled", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	log.Info("Redis connected, rate limiting enabled", map[string]interface{}{
		"limit":  cfg.RateLimit.Limit,
		"window": cfg.RateLimit.Window.String(),
	})
	return middleware.NewRateLimiter(client, cfg.RateLimit.Limit, cfg.RateLimit.Window)
}

// spaHandler serves static files with an index.html fallback so client
// side routes resolve.
type spaHandler struct {
	dir string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.dir, filepath.Clean("/"+strings.TrimPrefix(r.URL.Path, "/")))

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}
