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

	"github.com/openctf/arena/internal/api/admin"
	"github.com/openctf/arena/internal/api/user"
	"github.com/openctf/arena/internal/cache"
	"github.com/openctf/arena/internal/config"
	"github.com/openctf/arena/internal/contest"
	"github.com/openctf/arena/internal/database"
	"github.com/openctf/arena/internal/engine"
	"github.com/openctf/arena/internal/ledger"
	"github.com/openctf/arena/internal/pubsub"
	"github.com/openctf/arena/internal/ratelimit"
	"github.com/openctf/arena/internal/scoreboard"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var Version = "dev-build"

func main() {

	fmt.Fprintf(os.Stderr, "OpenCTF Arena %s - Flag Submission and Live Scoreboard Engine\n\n", Version)

	// config
	var configPath string
	flag.StringVar(&configPath, "c", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// logger
	var logger *zap.Logger
	if cfg.Logger.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// database
	db, err := database.Init(cfg.Storage.Database)
	if err != nil {
		zap.S().Fatalf("failed to initialize database: %v", err)
	}
	zap.S().Info("database initialized successfully")

	// redis backs the rate limiter and the scoreboard response cache when
	// configured; a single instance runs fine without it
	var rdb *redis.Client
	var limiter ratelimit.Limiter
	var sbCache *cache.ScoreboardCache
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zap.S().Fatalf("failed to connect to redis at %s: %v", cfg.Redis.Addr, err)
		}
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window())
		sbCache = cache.NewScoreboardCache(rdb)
		zap.S().Infof("redis connected at %s", cfg.Redis.Addr)
	} else {
		memLimiter := ratelimit.NewMemoryLimiter(cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window())
		go func() {
			for range time.Tick(5 * time.Minute) {
				memLimiter.Prune(time.Now())
			}
		}()
		limiter = memLimiter
		zap.S().Info("redis not configured, using in-memory rate limiter")
	}

	// core components
	ldg := ledger.New(db)
	clock := contest.NewClock(contest.NewDBStore(db))
	projector := scoreboard.NewProjector()
	broker := pubsub.NewBroker()

	// replay the solve ledger so the projection survives restarts
	if err := projector.Rebuild(context.Background(), ldg); err != nil {
		zap.S().Fatalf("failed to rebuild scoreboard projection: %v", err)
	}
	zap.S().Info("scoreboard projection rebuilt from solve ledger")

	var engineCache engine.Cache
	if sbCache != nil {
		engineCache = sbCache
	}
	eng := engine.New(db, limiter, clock, ldg, projector, broker, engineCache, cfg.Submission.Timeout())

	// API routers
	userEngine := user.NewUserRouter(cfg, db, eng, clock, ldg, projector, broker, sbCache)
	adminEngine := admin.NewAdminRouter(cfg, db, ldg, projector, broker)

	// start servers
	go func() {
		zap.S().Infof("starting user server at %s", cfg.Listen)
		if err := userEngine.Run(cfg.Listen); err != nil {
			zap.S().Fatalf("failed to start user server: %v", err)
		}
	}()

	if cfg.Admin.Enabled {
		go func() {
			zap.S().Infof("starting admin server at %s", cfg.Admin.Listen)
			if err := adminEngine.Run(cfg.Admin.Listen); err != nil {
				zap.S().Fatalf("failed to start admin server: %v", err)
			}
		}()
	}

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.S().Info("shutting down server...")
}
