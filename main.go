package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/db"
	"github.com/danielhkuo/livepoll/handlers"
	"github.com/danielhkuo/livepoll/metrics"
	"github.com/danielhkuo/livepoll/realtime"
	"github.com/danielhkuo/livepoll/router"
	"github.com/danielhkuo/livepoll/store"
	"github.com/danielhkuo/livepoll/vote"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		slog.Error("Invalid logging config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Server closed")
}

func newLogger(cfg cliparse.Config) (*slog.Logger, error) {
	level, err := cliparse.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == cliparse.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
}

func openStore(ctx context.Context, cfg cliparse.Config) (store.Store, func(), error) {
	if cfg.DatabaseType == cliparse.DatabaseMemory {
		slog.Warn("Using in-memory store; polls are lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}

	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		dbConn.Close()
		return nil, nil, fmt.Errorf("schema creation failed: %w", err)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	return store.NewSQLStore(dbConn, cfg.DatabaseType), func() { dbConn.Close() }, nil
}

func run(ctx context.Context, cfg cliparse.Config) error {
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.New(prometheus.DefaultRegisterer)
	hub := realtime.NewHub(m)
	health := map[string]handlers.Pinger{"database": st}

	g, ctx := errgroup.WithContext(ctx)

	// Votes go straight to the local hub unless Redis fans them out to
	// every instance
	var broadcaster vote.Broadcaster = hub
	var relay *realtime.RedisRelay
	if cfg.RedisURL != "" {
		client, err := realtime.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()

		relay = realtime.NewRedisRelay(client, hub, realtime.DefaultChannel)
		broadcaster = relay
		health["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		g.Go(func() error {
			return relay.Run(ctx)
		})
	}

	votes, err := vote.New(st,
		vote.WithBroadcaster(broadcaster),
		vote.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler: router.NewRouter(router.Dependencies{
			Config:  cfg,
			Votes:   votes,
			Hub:     hub,
			Metrics: m,
			Health:  health,
		}),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		// Viewers on this instance only hear votes once the relay is subscribed
		if relay != nil {
			if err := relay.WaitReady(ctx); err != nil {
				return nil
			}
		}
		slog.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Hijacked websocket connections are not tracked by Shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
