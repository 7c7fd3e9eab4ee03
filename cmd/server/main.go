package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fathima-sithara/realtime-chat/internal/attach"
	"github.com/fathima-sithara/realtime-chat/internal/auth"
	"github.com/fathima-sithara/realtime-chat/internal/blob"
	"github.com/fathima-sithara/realtime-chat/internal/config"
	"github.com/fathima-sithara/realtime-chat/internal/delivery"
	"github.com/fathima-sithara/realtime-chat/internal/events"
	"github.com/fathima-sithara/realtime-chat/internal/history"
	"github.com/fathima-sithara/realtime-chat/internal/httpapi"
	"github.com/fathima-sithara/realtime-chat/internal/logger"
	"github.com/fathima-sithara/realtime-chat/internal/presence"
	"github.com/fathima-sithara/realtime-chat/internal/registry"
	"github.com/fathima-sithara/realtime-chat/internal/store"
	"github.com/fathima-sithara/realtime-chat/internal/ws"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := logger.New(logger.Config{Development: cfg.App.Env != "production"})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	var gateway store.Gateway
	switch cfg.Store.Driver {
	case "memory":
		gateway = store.NewMemoryStore()
		zlog.Warn("using in-memory store; data is lost on restart")
	default:
		client, err := store.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			zlog.Fatalw("mongo connect", "err", err)
		}
		defer client.Disconnect(ctx)
		db := client.Database(cfg.Mongo.Database)
		gateway = store.NewMongoStore(
			db.Collection(cfg.Mongo.UsersCollection),
			db.Collection(cfg.Mongo.MessagesCollection),
			db.Collection(cfg.Mongo.ChannelsCollection),
		)
	}

	var rdb *redis.Client
	var pres *presence.Store
	var limiter *httpapi.RateLimiter
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			zlog.Fatalw("redis ping", "err", err)
		}
		cancel()
		defer rdb.Close()
		pres = presence.NewStore(rdb, cfg.Redis.Prefix)
		if cfg.RateLimit.Enabled {
			limiter = &httpapi.RateLimiter{
				Redis:  rdb,
				Prefix: cfg.Redis.Prefix,
				Limit:  cfg.RateLimit.Limit,
				Window: time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
			}
		}
	}

	var pub *events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicMessageSent)
		defer pub.Close()
	}

	var blobStore blob.Store
	var presigner httpapi.Presigner
	switch cfg.Storage.Driver {
	case "s3":
		s3Store, err := blob.NewS3Store(ctx, cfg.Storage.S3Region, cfg.Storage.S3Bucket)
		if err != nil {
			zlog.Fatalw("s3 init", "err", err)
		}
		blobStore = s3Store
		presigner = s3Store
	default:
		blobStore = blob.NewDiskStore(cfg.Storage.LocalDir)
	}

	verifier := auth.NewVerifier(cfg.App.JWTSecret)
	reg := registry.New()
	router := delivery.NewRouter(gateway, reg, pub, zlog)
	hist := history.NewService(gateway)
	pipeline := attach.NewPipeline(blobStore)
	wsHandler := ws.NewHandler(reg, router, gateway, verifier, pres, zlog)

	app := httpapi.New(httpapi.Options{
		Store:          gateway,
		History:        hist,
		Pipeline:       pipeline,
		Presigner:      presigner,
		PresignTTL:     cfg.PresignTTL,
		Presence:       pres,
		Verifier:       verifier,
		WSHandler:      wsHandler,
		Limiter:        limiter,
		RequestTimeout: cfg.RequestTimeout,
		Log:            zlog,
	})

	errs := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		zlog.Infow("starting realtime chat server", "addr", addr)
		errs <- app.Listen(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errs:
		zlog.Fatalw("server error", "err", err)
	case s := <-sig:
		zlog.Infow("signal received", "signal", s)
	}

	if err := app.Shutdown(); err != nil {
		zlog.Warnw("shutdown", "err", err)
	}
	zlog.Info("stopped")
}
