// Faktura API — HTTP-слой системы.
//
// API:
//   - CRUD инвойсов с валидацией
//   - Постановка генерации PDF (dispatch в RabbitMQ + журнал задач)
//   - Статусы задач генерации и выдача готовых PDF
//   - health / db-status
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Faktura/internal/api"
	"github.com/shaiso/Faktura/internal/config"
	"github.com/shaiso/Faktura/internal/dispatch"
	"github.com/shaiso/Faktura/internal/mq"
	"github.com/shaiso/Faktura/internal/repo"
	"github.com/shaiso/Faktura/internal/status"
	"github.com/shaiso/Faktura/internal/store"
	"github.com/shaiso/Faktura/internal/telemetry"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faktura_api_http_requests_total",
		Help: "Total HTTP requests handled by faktura_api",
	})
)

func main() {
	// .env удобен в разработке; в проде переменные приходят из окружения
	_ = godotenv.Load()

	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting faktura-api")

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background(), cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Схему накатывает API — он стартует первым
	if err := repo.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Создаём репозитории
	invoiceRepo := repo.NewInvoiceRepo(pool)
	jobRepo := repo.NewJobRepo(pool)

	// Хранилище артефактов
	artifacts, err := newArtifactStore(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to init artifact store", "error", err)
		os.Exit(1)
	}

	// RabbitMQ: опционален — без брокера dispatch кладёт задачу
	// только в журнал, воркер подхватит её через polling
	var publisher dispatch.Publisher
	mqConn, err := mq.NewConnection(cfg.AMQPURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, dispatch will rely on worker polling", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	dispatcher := dispatch.New(dispatch.Config{
		Ledger:    jobRepo,
		Invoices:  invoiceRepo,
		Artifacts: artifacts,
		Publisher: publisher,
		Logger:    logger,
	})

	statusSvc := status.NewService(jobRepo)

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		InvoiceRepo:     invoiceRepo,
		JobRepo:         jobRepo,
		Dispatcher:      dispatcher,
		StatusService:   statusSvc,
		Artifacts:       artifacts,
		Pool:            pool,
		Conn:            mqConn,
		WorkerHealthURL: cfg.WorkerHealthURL,
		Logger:          logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

// newArtifactStore создаёт хранилище артефактов по конфигурации.
func newArtifactStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Storage == config.StorageS3 {
		return store.NewS3(ctx, cfg.S3Bucket, cfg.S3Region)
	}
	return store.NewFS(cfg.OutputDir)
}
