package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/comicstudio/backend/internal/ai"
	"github.com/comicstudio/backend/internal/comic"
	"github.com/comicstudio/backend/internal/config"
	"github.com/comicstudio/backend/internal/db"
	"github.com/comicstudio/backend/internal/genjob"
	"github.com/comicstudio/backend/internal/store/rabbitmq"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

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

	comicSvc := comic.NewService(comic.NewRepo(gdb))
	runner := genjob.NewRunner(genjob.NewRepo(gdb), reg, comicSvc, cfg.GenProvider, cfg.GeminiModel)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		slog.Error("rabbit dial failed", "url", cfg.RabbitURL, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		slog.Error("rabbit channel failed", "error", err)
		os.Exit(1)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, nil); err != nil {
		slog.Error("queue declare failed", "queue", cfg.RabbitQueue, "error", err)
		os.Exit(1)
	}

	concurrency := cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	if concurrency > 50 {
		concurrency = 50
	}

	if err := ch.Qos(concurrency, 0, false); err != nil {
		slog.Error("qos failed", "error", err)
		os.Exit(1)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		slog.Error("consume failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("worker started", "queue", cfg.RabbitQueue, "concurrency", concurrency, "provider", cfg.GenProvider)

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m rabbitmq.JobMessage
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					slog.Warn("bad job message", "worker", workerID, "error", err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := runner.Run(ctx, m.JobID); err != nil {
					slog.Error("job run failed", "worker", workerID, "job_id", m.JobID, "cost", time.Since(start).String(), "error", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					slog.Error("ack failed", "worker", workerID, "job_id", m.JobID, "error", err)
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				slog.Warn("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}
