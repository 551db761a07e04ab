package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comicstudio/backend/internal/ai"
	"github.com/comicstudio/backend/internal/comic"
	"github.com/comicstudio/backend/internal/config"
	"github.com/comicstudio/backend/internal/credits"
	"github.com/comicstudio/backend/internal/db"
	"github.com/comicstudio/backend/internal/genjob"
	"github.com/comicstudio/backend/internal/httpapi"
	"github.com/comicstudio/backend/internal/models"
	"github.com/comicstudio/backend/internal/store/rabbitmq"
	"github.com/comicstudio/backend/internal/store/redisstore"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	if err := gdb.AutoMigrate(
		&models.User{},
		&credits.Transaction{},
		&comic.Series{},
		&comic.Episode{},
		&comic.Page{},
		&comic.Panel{},
		&comic.TextElement{},
		&genjob.Job{},
	); err != nil {
		slog.Error("migrate failed", "error", err)
		os.Exit(1)
	}

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()
	if err := rds.Ping(context.Background()); err != nil {
		// Rate limiting degrades to allow-all when redis is down.
		slog.Warn("redis unreachable, rate limiting disabled", "addr", cfg.RedisAddr, "error", err)
	}

	reg := ai.NewRegistry()
	reg.Register("mock", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		_ = model
		return ai.NewMockProvider(ai.SleepDelayer{D: cfg.MockGenDelay}), nil
	})
	reg.Register("gemini", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		if model == "" {
			model = cfg.GeminiModel
		}
		return ai.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, model), nil
	})

	creditSvc := credits.NewService(credits.NewRepo(gdb))
	comicSvc := comic.NewService(comic.NewRepo(gdb))
	jobRepo := genjob.NewRepo(gdb)

	pricing := genjob.Pricing{
		BaseCost:        cfg.PanelGenerationCost,
		HighQualityCost: cfg.HighQualityCost,
	}

	var dispatcher genjob.Dispatcher
	switch cfg.DispatchMode {
	case "rabbitmq":
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			slog.Error("rabbitmq connect failed", "url", cfg.RabbitURL, "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		dispatcher = genjob.DispatchFunc(pub.PublishJob)
	default:
		runner := genjob.NewRunner(jobRepo, reg, comicSvc, cfg.GenProvider, cfg.GeminiModel)
		pool := genjob.NewPool(runner, cfg.WorkerConcurrency, 0)
		defer pool.Close()
		dispatcher = pool
	}

	jobSvc := genjob.NewService(jobRepo, creditSvc, dispatcher, pricing)

	r := httpapi.NewRouter(gdb, cfg, rds, creditSvc, jobSvc, comicSvc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "dispatch", cfg.DispatchMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
