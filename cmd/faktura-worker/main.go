// Faktura Worker — выполняет задачи генерации PDF.
//
// Worker:
//   - Получает задачи из RabbitMQ (плюс polling-фолбэк по журналу)
//   - Переводит задачу QUEUED -> RUNNING, шлёт heartbeat во время работы
//   - Рендерит PDF и кладёт его в хранилище артефактов
//   - Фиксирует терминальный статус COMPLETED или FAILED
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Faktura/internal/config"
	"github.com/shaiso/Faktura/internal/mq"
	"github.com/shaiso/Faktura/internal/render"
	"github.com/shaiso/Faktura/internal/repo"
	"github.com/shaiso/Faktura/internal/store"
	"github.com/shaiso/Faktura/internal/telemetry"
	"github.com/shaiso/Faktura/internal/worker"
)

func main() {
	_ = godotenv.Load()

	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting faktura-worker")

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Создаём репозитории
	invoiceRepo := repo.NewInvoiceRepo(pool)
	jobRepo := repo.NewJobRepo(pool)

	// Хранилище артефактов
	artifacts, err := newArtifactStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to init artifact store", "error", err)
		os.Exit(1)
	}

	// RabbitMQ
	mqConn, err := mq.NewConnection(cfg.AMQPURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
	}

	executor := worker.NewExecutor(worker.ExecutorConfig{
		Ledger:            jobRepo,
		Invoices:          invoiceRepo,
		Renderer:          render.NewPDF(),
		Artifacts:         artifacts,
		Logger:            logger,
		HeartbeatEvery:    cfg.HeartbeatEvery,
		HeartbeatInterval: cfg.HeartbeatInterval,
	})

	// Создаём worker
	w := worker.New(worker.Config{
		Executor:     executor,
		Conn:         mqConn,
		PollInterval: cfg.PollInterval,
		PollBatch:    cfg.PollBatch,
		Logger:       logger,
	})

	// Запускаем worker
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		addr := ":" + cfg.WorkerPort
		logger.Info("listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем worker
	w.Stop()
	logger.Info("faktura-worker stopped")
}

// newArtifactStore создаёт хранилище артефактов по конфигурации.
func newArtifactStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Storage == config.StorageS3 {
		return store.NewS3(ctx, cfg.S3Bucket, cfg.S3Region)
	}
	return store.NewFS(cfg.OutputDir)
}
