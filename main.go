package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/mathquest/api/rest"
	"github.com/kasuganosora/mathquest/api/sse"
	"github.com/kasuganosora/mathquest/cache"
	"github.com/kasuganosora/mathquest/config"
	dbadapter "github.com/kasuganosora/mathquest/db"
	"github.com/kasuganosora/mathquest/game/challenge"
	"github.com/kasuganosora/mathquest/game/clock"
	"github.com/kasuganosora/mathquest/game/reward"
	"github.com/kasuganosora/mathquest/metrics"
	mw "github.com/kasuganosora/mathquest/middleware"
	"github.com/kasuganosora/mathquest/mirror"
	"github.com/kasuganosora/mathquest/model"
	"github.com/kasuganosora/mathquest/notify"
	"github.com/kasuganosora/mathquest/resource"
	"github.com/kasuganosora/mathquest/scheduler"
	"github.com/kasuganosora/mathquest/store"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Content ----
	cat, err := resource.NewLoader(cfg.Content.DataDir).Load()
	if err != nil {
		logger.Fatal("content load failed", zap.String("dir", cfg.Content.DataDir), zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("modules", len(cat.Modules)),
		zap.Int("challenges", len(cat.Challenges)),
		zap.Int("scenarios", len(cat.Scenarios)))

	// ---- Cache / PubSub ----
	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cfg.Cache)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Remote mirror ----
	var mirrorSvc *mirror.Service
	if cfg.Sync.Enabled {
		db, err := dbadapter.Open(cfg.Database)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		if err := model.AutoMigrate(db); err != nil {
			log.Fatalf("db migrate: %v", err)
		}
		pub, err := mirror.NewAMQPPublisher(cfg.Sync.AMQPURL, cfg.Sync.AMQPExchange, logger)
		if err != nil {
			log.Fatalf("amqp: %v", err)
		}
		defer pub.Close()
		mirrorSvc = mirror.New(db, pub, cfg.Sync, logger)
		defer mirrorSvc.Stop(context.Background())
		logger.Info("mirror initialized",
			zap.String("db_mode", cfg.Database.Mode),
			zap.Bool("amqp", pub.Enabled()))
	}

	// ---- Game services ----
	clk := clock.System{Loc: cfg.Game.Location()}
	notices := notify.NewPublisher(pubsub, logger)
	svc := reward.NewService(store.New(c, logger), cat, clk, notices, mirrorSvc, cfg.Content.StarterModule, logger)

	sched := scheduler.New(logger)
	defer sched.Stop()
	runs := challenge.NewManager(sched, cfg.Game.RunTick, logger)
	runs.SetFinisher(svc.FinishRun)
	defer runs.Close()

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger, "/health", cfg.Metrics.Path), mw.Recovery(logger))
	r.Use(mw.RateLimit(ctx, rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst, mw.ByProfile))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	rest.Handlers{
		Profiles:    rest.NewProfileHandler(svc, logger),
		Challenges:  rest.NewChallengeHandler(svc, runs, logger),
		Scenarios:   rest.NewScenarioHandler(svc, logger),
		Leaderboard: rest.NewLeaderboardHandler(svc, cfg.Game.LeaderboardSize, logger),
	}.Mount(r.Group("/api"))

	sseH := sse.NewHandler(svc, notices, cfg.Server.SSEKeepalive, logger)
	r.GET("/sse/:id", sseH.ServeSSE)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
}
