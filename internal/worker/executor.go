package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Faktura/internal/domain"
	"github.com/shaiso/Faktura/internal/render"
	"github.com/shaiso/Faktura/internal/repo"
	"github.com/shaiso/Faktura/internal/store"
)

// Ledger — нужная воркеру часть журнала задач.
type Ledger interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReportJob, error)
	ListQueued(ctx context.Context, limit int) ([]domain.ReportJob, error)
	MarkRunning(ctx context.Context, id uuid.UUID) error
	Heartbeat(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID, size int64, location string) (domain.JobStatus, error)
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

// InvoiceSource — нужная воркеру часть хранилища инвойсов.
type InvoiceSource interface {
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	UpdatePDFMeta(ctx context.Context, id int64, size int64) error
}

// Outcome — результат выполнения задачи. Вызывающий код наблюдает исход
// через журнал; Outcome нужен для логов и подтверждения сообщения.
type Outcome struct {
	JobID  uuid.UUID
	Status domain.JobStatus
	Error  string
}

// Executor выполняет одну задачу генерации от начала до конца:
// RUNNING → рендер с heartbeat'ами → запись артефакта → терминальный статус.
type Executor struct {
	ledger    Ledger
	invoices  InvoiceSource
	renderer  render.Renderer
	artifacts store.Store
	logger    *slog.Logger

	// heartbeatEvery — каждая N-я позиция при построении payload.
	heartbeatEvery int

	// heartbeatInterval — период фонового heartbeat на время
	// рендера и записи в хранилище.
	heartbeatInterval time.Duration
}

// ExecutorConfig — конфигурация Executor.
type ExecutorConfig struct {
	Ledger    Ledger
	Invoices  InvoiceSource
	Renderer  render.Renderer
	Artifacts store.Store
	Logger    *slog.Logger

	HeartbeatEvery    int           // default: 3
	HeartbeatInterval time.Duration // default: 30s
}

// NewExecutor создаёт Executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	heartbeatEvery := cfg.HeartbeatEvery
	if heartbeatEvery <= 0 {
		heartbeatEvery = 3
	}
	heartbeatInterval := cfg.HeartbeatInterval
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		ledger:            cfg.Ledger,
		invoices:          cfg.Invoices,
		renderer:          cfg.Renderer,
		artifacts:         cfg.Artifacts,
		logger:            logger,
		heartbeatEvery:    heartbeatEvery,
		heartbeatInterval: heartbeatInterval,
	}
}

// Execute выполняет задачу генерации.
//
// Ошибки выполнения (рендер, хранилище, отсутствующий инвойс) записываются
// в журнал как терминальный FAILED и наружу не поднимаются — возвращается
// Outcome со статусом. Ошибка возвращается только для ситуаций уровня
// доставки: задача не найдена или уже не в QUEUED.
func (e *Executor) Execute(ctx context.Context, jobID uuid.UUID, invoiceID int64) (*Outcome, error) {
	job, err := e.ledger.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job.Status != domain.JobStatusQueued {
		return nil, ErrJobNotQueued
	}

	// 1. Разрешаем инвойс. Если его нет — терминальный FAILED без retry:
	// политика повторной доставки, если есть, — забота substrate.
	inv, err := e.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return e.fail(ctx, jobID, fmt.Sprintf("invoice %d not found", invoiceID)), nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	// 2. QUEUED → RUNNING.
	if err := e.ledger.MarkRunning(ctx, jobID); err != nil {
		if errors.Is(err, repo.ErrInvalidState) {
			return nil, ErrJobNotQueued
		}
		return nil, fmt.Errorf("mark running: %w", err)
	}

	e.logger.Info("report job started", "job_id", jobID, "invoice_id", invoiceID)

	// 3–4. Проекция инвойса в payload рендера, с heartbeat'ами
	// по ходу итерации позиций.
	payload := e.buildPayload(ctx, jobID, inv)

	key := job.ArtifactKey
	if key == "" {
		key = inv.ArtifactKey()
	}

	// Фоновый heartbeat на время длинных операций: кадентность не зависит
	// от длительности рендера, окно обнаружения протухания ограничено.
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go e.heartbeatLoop(hbCtx, jobID)

	// 5. Рендер.
	pdf, err := e.renderer.Render(ctx, payload)
	if err != nil {
		return e.fail(ctx, jobID, fmt.Sprintf("render: %v", err)), nil
	}

	// 6. Запись артефакта (перезаписывает предыдущую генерацию).
	location, err := e.artifacts.Write(ctx, key, pdf)
	if err != nil {
		return e.fail(ctx, jobID, fmt.Sprintf("store artifact: %v", err)), nil
	}
	stopHeartbeat()

	size := int64(len(pdf))

	// Кэш метаданных PDF на инвойсе — best effort.
	if err := e.invoices.UpdatePDFMeta(ctx, invoiceID, size); err != nil {
		e.logger.Warn("failed to update pdf meta", "invoice_id", invoiceID, "error", err)
	}

	// 7. RUNNING → COMPLETED.
	prev, err := e.ledger.MarkCompleted(ctx, jobID, size, location)
	if err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}
	if prev == domain.JobStatusFailed {
		// Reaper успел счесть задачу протухшей. Поздний успех остаётся
		// в силе — фиксируем конфликт в логе.
		e.logger.Warn("job completed after being reaped", "job_id", jobID)
	}

	e.logger.Info("report job completed",
		"job_id", jobID,
		"invoice_id", invoiceID,
		"artifact", location,
		"size", size,
	)
	jobsCompleted.Inc()

	return &Outcome{JobID: jobID, Status: domain.JobStatusCompleted}, nil
}

// fail записывает терминальный FAILED в журнал и строит Outcome.
func (e *Executor) fail(ctx context.Context, jobID uuid.UUID, msg string) *Outcome {
	if err := e.ledger.MarkFailed(ctx, jobID, msg); err != nil {
		if errors.Is(err, repo.ErrInvalidState) {
			// Задачу уже финализировал Reaper — статус FAILED там уже стоит.
			e.logger.Warn("job already finalized", "job_id", jobID)
		} else {
			e.logger.Error("failed to mark job failed", "job_id", jobID, "error", err)
		}
	}

	e.logger.Warn("report job failed", "job_id", jobID, "error", msg)
	jobsFailed.Inc()

	return &Outcome{JobID: jobID, Status: domain.JobStatusFailed, Error: msg}
}

// heartbeatLoop периодически обновляет heartbeat задачи,
// пока не отменён контекст.
func (e *Executor) heartbeatLoop(ctx context.Context, jobID uuid.UUID) {
	ticker := time.NewTicker(e.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.ledger.Heartbeat(ctx, jobID); err != nil {
				e.logger.Warn("heartbeat failed", "job_id", jobID, "error", err)
			}
		}
	}
}
