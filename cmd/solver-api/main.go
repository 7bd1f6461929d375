package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/classplan/timetable-solver/api/swagger"
	"github.com/classplan/timetable-solver/internal/cache"
	"github.com/classplan/timetable-solver/internal/handler"
	"github.com/classplan/timetable-solver/internal/worker"
	pkgcache "github.com/classplan/timetable-solver/pkg/cache"
	"github.com/classplan/timetable-solver/pkg/config"
	"github.com/classplan/timetable-solver/pkg/database"
	"github.com/classplan/timetable-solver/pkg/jobs"
	"github.com/classplan/timetable-solver/pkg/logger"
	corsmiddleware "github.com/classplan/timetable-solver/pkg/middleware/cors"
	metricsmiddleware "github.com/classplan/timetable-solver/pkg/middleware/metrics"
	reqidmiddleware "github.com/classplan/timetable-solver/pkg/middleware/requestid"
	"github.com/classplan/timetable-solver/pkg/middleware/responsemeta"
	pkgmetrics "github.com/classplan/timetable-solver/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	redisClient, err := pkgcache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("failed to initialise redis, continuing without fast-path cache", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	m := pkgmetrics.New()
	store := cache.New(db, redisClient, cfg.Cache, logr, m)
	validate := validator.New()

	evolveWorker := worker.NewEvolveWorker(store, logr, m)
	// MaxRetries is left at zero, which pkg/jobs raises to 3; the worker
	// never returns an error (failed runs are diagnosed through the
	// cache, not retried), so that retry ceiling is never reached.
	evolveQueue := jobs.NewQueue("evolve", evolveWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Solver.Workers,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	queueCtx, cancelQueue := context.WithCancel(context.Background())
	evolveQueue.Start(queueCtx)
	defer func() {
		cancelQueue()
		evolveQueue.Stop()
	}()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(metricsmiddleware.Middleware(m))

	healthHandler := handler.NewHealthHandler()
	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	solveHandler := handler.NewSolveHandler(store, validate, m)
	evaluateHandler := handler.NewEvaluateHandler(validate)
	rankHandler := handler.NewRankHandler(validate)
	evolveHandler := handler.NewEvolveHandler(evolveQueue, validate)
	cacheHandler := handler.NewCacheHandler(store)

	api := r.Group(cfg.APIPrefix)
	api.Use(responsemeta.Middleware())
	{
		api.POST("/solve", solveHandler.Solve)
		api.POST("/evaluate", evaluateHandler.Evaluate)
		api.POST("/rank", rankHandler.Rank)
		api.POST("/evolve", evolveHandler.Evolve)

		cacheGroup := api.Group("/cache")
		cacheGroup.GET("/sessions/:id/best", cacheHandler.BestOfSession)
		cacheGroup.GET("/sessions/:id/generations/:gen", cacheHandler.PopulationOfGeneration)
		cacheGroup.POST("/sessions/:id/complete", cacheHandler.CompleteSession)
		cacheGroup.GET("/stats", cacheHandler.Stats)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
