package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/geohash-codec/internal/cache"
	"github.com/mohammed-shakir/geohash-codec/internal/cache/lrustore"
	"github.com/mohammed-shakir/geohash-codec/internal/cache/redisstore"
	"github.com/mohammed-shakir/geohash-codec/internal/codec"
	"github.com/mohammed-shakir/geohash-codec/internal/core/config"
	"github.com/mohammed-shakir/geohash-codec/internal/core/model"
	"github.com/mohammed-shakir/geohash-codec/internal/core/observability"
	"github.com/mohammed-shakir/geohash-codec/internal/core/server"
	"github.com/mohammed-shakir/geohash-codec/internal/hitevents"
	"github.com/mohammed-shakir/geohash-codec/internal/logger"
	"github.com/mohammed-shakir/geohash-codec/internal/mapper"
	ghmapper "github.com/mohammed-shakir/geohash-codec/internal/mapper/geohash"
	h3mapper "github.com/mohammed-shakir/geohash-codec/internal/mapper/h3"
	"github.com/mohammed-shakir/geohash-codec/internal/metrics"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func run() int {
	// a missing .env is fine, the environment still applies
	_ = godotenv.Load(".env")

	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		SampleN:   envInt("LOG_SAMPLE_N", 0),
		Service:   "geohash-codec",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsHandler http.Handler
	if os.Getenv("METRICS_ENABLED") == "true" {
		p := metrics.Init(metrics.Config{
			Enabled: true,
			Addr:    os.Getenv("METRICS_ADDR"),
			Path:    os.Getenv("METRICS_PATH"),
			Build: metrics.BuildInfo{
				Version:   os.Getenv("BUILD_VERSION"),
				Revision:  os.Getenv("BUILD_REVISION"),
				Branch:    os.Getenv("BUILD_BRANCH"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		observability.Init(p.Registerer(), true)
		metricsHandler = p.Handler()

		go func() {
			if err := p.Serve(ctx, appLog); err != nil {
				appLog.Error("metrics server exited", "err", err)
			}
		}()
	} else {
		observability.Init(nil, false)
	}
	observability.ExposeBuildInfo(Version)

	appLog.Info("starting geohash-codec",
		"addr", cfg.Addr,
		"version", Version,
		"cache", cfg.Cache.Enabled,
		"events", cfg.Events.Enabled)

	lru, err := lrustore.New(cfg.Cache.LRUSize)
	if err != nil {
		appLog.Error("lru setup failed", "err", err)
		return 1
	}
	tiers := []cache.Tier{{Name: "lru", Store: lru}}

	opts := codec.Options{
		KeyPrefix: cfg.Cache.KeyPrefix,
		TTL:       cfg.Cache.TTL,
		Mappers: map[string]mapper.Interface{
			model.SchemeGeohash: ghmapper.New(),
			model.SchemeH3:      h3mapper.New(),
		},
	}

	if cfg.Cache.Enabled {
		rc, err := redisstore.New(ctx, cfg.Cache.RedisAddr,
			redisstore.WithReadTimeout(cfg.Cache.OpTimeout),
			redisstore.WithWriteTimeout(cfg.Cache.OpTimeout),
		)
		if err != nil {
			appLog.Error("redis setup failed", "addr", cfg.Cache.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()
		tiers = append(tiers, cache.Tier{Name: "redis", Store: cache.NewRedisTier(rc, cfg.Cache.OpTimeout, cfg.Cache.TTL)})
		opts.Redis = rc
	}
	opts.Cache = cache.NewTiered(appLog, tiers...)

	if cfg.Events.Enabled {
		pub, err := hitevents.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic, cfg.Events.QueueSize, appLog)
		if err != nil {
			appLog.Error("events setup failed", "brokers", cfg.Events.Brokers, "err", err)
			return 1
		}
		defer func() {
			if err := pub.Close(); err != nil {
				appLog.Warn("events close", "err", err)
			}
		}()
		opts.Events = pub
	}

	svc := codec.New(appLog, opts)

	if err := server.Run(ctx, cfg, appLog, svc, metricsHandler); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
