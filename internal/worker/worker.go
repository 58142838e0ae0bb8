// Package worker — цикл выполнения задач генерации.
//
// Worker — stateless компонент:
//   - получает задачи из RabbitMQ (event-driven)
//   - периодически добирает QUEUED-задачи из журнала (polling-фолбэк:
//     подхватывает задачи, поставленные при недоступном брокере,
//     и задачи, накопившиеся пока воркеры были выключены)
//   - выполняет генерацию через Executor
//
// Ошибки выполнения терминальны: retry — осознанное решение вызывающего
// через повторный dispatch, автоматических повторов нет. Воркеры
// масштабируются горизонтально — несколько экземпляров потребляют
// из одной очереди.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Faktura/internal/mq"
)

// Значения конфигурации по умолчанию.
const (
	defaultPollInterval = 10 * time.Second
	defaultPollBatch    = 50
	defaultPrefetch     = 5
)

// Worker связывает consumer очереди и polling-фолбэк с Executor'ом.
type Worker struct {
	executor *Executor
	conn     *mq.Connection
	consumer *mq.Consumer

	pollInterval time.Duration
	pollBatch    int

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	Executor *Executor

	// Conn опционален: без брокера воркер работает в режиме
	// только-polling.
	Conn *mq.Connection

	PollInterval time.Duration // default: 10s
	PollBatch    int           // default: 50

	Logger *slog.Logger
}

// New создаёт Worker.
func New(cfg Config) *Worker {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	pollBatch := cfg.PollBatch
	if pollBatch <= 0 {
		pollBatch = defaultPollBatch
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		executor:     cfg.Executor,
		conn:         cfg.Conn,
		pollInterval: pollInterval,
		pollBatch:    pollBatch,
		logger:       logger,
	}
}

// Start запускает consumer (если брокер доступен) и polling-горутину.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"poll_interval", w.pollInterval,
		"poll_batch", w.pollBatch,
	)

	if w.conn != nil {
		w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueReportsGenerate),
			Handler:  w.handleReportRequested,
			Prefetch: defaultPrefetch,
		})

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("consumer error", "error", err)
			}
		}()
	} else {
		w.logger.Warn("no broker connection, running in polling-only mode")
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и дожидается завершения горутин.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// handleReportRequested обрабатывает сообщение report.requested.
func (w *Worker) handleReportRequested(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.ReportRequestedPayload](&delivery.Message)
	if err != nil {
		w.logger.Error("failed to parse report.requested payload", "error", err)
		return err
	}

	w.logger.Debug("received report.requested",
		"job_id", payload.JobID,
		"invoice_id", payload.InvoiceID,
	)

	if _, err := w.executor.Execute(ctx, payload.JobID, payload.InvoiceID); err != nil {
		// Ожидаемые ситуации (дубликат доставки, задачу забрал polling) —
		// подтверждаем сообщение.
		if errors.Is(err, ErrJobNotFound) || errors.Is(err, ErrJobNotQueued) {
			w.logger.Debug("job not processed", "job_id", payload.JobID, "reason", err)
			return nil
		}
		return err
	}
	return nil
}

// pollLoop — цикл polling-фолбэка.
func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте: подхватываем задачи, накопившиеся
	// пока воркеры были выключены.
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll выполняет один проход по QUEUED-задачам журнала.
func (w *Worker) poll(ctx context.Context) {
	jobs, err := w.executor.ledger.ListQueued(ctx, w.pollBatch)
	if err != nil {
		w.logger.Error("failed to list queued jobs", "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	w.logger.Debug("poll found queued jobs", "count", len(jobs))

	for i := range jobs {
		job := &jobs[i]

		if job.InvoiceID == nil {
			// Патологический случай: запись без ссылки на инвойс.
			w.executor.fail(ctx, job.ID, "invoice reference missing")
			continue
		}

		if _, err := w.executor.Execute(ctx, job.ID, *job.InvoiceID); err != nil {
			if errors.Is(err, ErrJobNotFound) || errors.Is(err, ErrJobNotQueued) {
				continue
			}
			w.logger.Error("failed to process job from poll", "job_id", job.ID, "error", err)
		}
	}
}
