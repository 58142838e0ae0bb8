// Package dispatch — постановка задач генерации в очередь.
//
// Dispatcher — единственная точка входа для запуска генерации: явный
// вызов из write-path коллабораторов (создание инвойса, ручной запуск
// через API), никаких скрытых событийных триггеров.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Faktura/internal/domain"
	"github.com/shaiso/Faktura/internal/repo"
	"github.com/shaiso/Faktura/internal/store"
)

// Ledger — нужная Dispatcher'у часть журнала задач.
type Ledger interface {
	Create(ctx context.Context, job *domain.ReportJob) error
	GetLatestByInvoice(ctx context.Context, invoiceID int64) (*domain.ReportJob, error)
}

// InvoiceSource — нужная Dispatcher'у часть хранилища инвойсов.
type InvoiceSource interface {
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
}

// Publisher — публикация события о поставленной задаче.
type Publisher interface {
	PublishReportRequested(ctx context.Context, jobID uuid.UUID, invoiceID int64) error
}

// Result — результат dispatch.
type Result struct {
	// JobID — идентификатор задачи: новой либо существующей активной,
	// если dispatch был пропущен.
	JobID uuid.UUID

	// Skipped — true, если новая задача не создавалась
	// (идемпотентная проверка нашла активную задачу или готовый артефакт).
	Skipped bool
}

// Dispatcher решает, нужна ли новая задача генерации, и ставит её в очередь.
type Dispatcher struct {
	ledger    Ledger
	invoices  InvoiceSource
	artifacts store.Store
	publisher Publisher
	logger    *slog.Logger
}

// Config — конфигурация Dispatcher.
type Config struct {
	Ledger    Ledger
	Invoices  InvoiceSource
	Artifacts store.Store

	// Publisher опционален: без него задачи подхватывает
	// polling-фолбэк воркера.
	Publisher Publisher

	Logger *slog.Logger
}

// New создаёт Dispatcher.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		ledger:    cfg.Ledger,
		invoices:  cfg.Invoices,
		artifacts: cfg.Artifacts,
		publisher: cfg.Publisher,
		logger:    logger,
	}
}

// Dispatch ставит задачу генерации отчёта для инвойса.
//
// Предусловия: инвойс существует и имеет хотя бы одну позицию.
//
// Идемпотентная проверка по последней записи журнала:
//   - QUEUED или RUNNING — активная задача уже есть, возвращаем её id
//     со Skipped=true (защита от дублей при быстрых последовательных
//     добавлениях позиций);
//   - COMPLETED и артефакт существует в хранилище — отчёт уже готов,
//     Skipped=true;
//   - FAILED (включая реапнутые по heartbeat) — новая попытка
//     разрешена всегда.
func (d *Dispatcher) Dispatch(ctx context.Context, invoiceID int64) (*Result, error) {
	inv, err := d.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if !inv.HasItems() {
		return nil, ErrInvoiceEmpty
	}

	last, err := d.ledger.GetLatestByInvoice(ctx, invoiceID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("get latest job: %w", err)
	}

	if last != nil {
		if skip, err := d.shouldSkip(ctx, inv, last); err != nil {
			return nil, err
		} else if skip {
			d.logger.Info("dispatch skipped",
				"invoice_id", invoiceID,
				"job_id", last.ID,
				"last_status", last.Status,
			)
			dispatchesSkipped.Inc()
			return &Result{JobID: last.ID, Skipped: true}, nil
		}
	}

	job := domain.NewReportJob(invoiceID, inv.ArtifactKey())
	if err := d.ledger.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if d.publisher != nil {
		if err := d.publisher.PublishReportRequested(ctx, job.ID, invoiceID); err != nil {
			// Не фатально: задача уже в журнале, воркер подхватит
			// её через polling.
			d.logger.Warn("failed to publish report.requested",
				"job_id", job.ID,
				"invoice_id", invoiceID,
				"error", err,
			)
		}
	}

	d.logger.Info("report job dispatched", "job_id", job.ID, "invoice_id", invoiceID)
	dispatchesStarted.Inc()

	return &Result{JobID: job.ID}, nil
}

// shouldSkip реализует идемпотентную политику по последней записи журнала.
func (d *Dispatcher) shouldSkip(ctx context.Context, inv *domain.Invoice, last *domain.ReportJob) (bool, error) {
	switch {
	case last.Status.IsActive():
		return true, nil

	case last.Status == domain.JobStatusCompleted:
		exists, err := d.artifacts.Exists(ctx, inv.ArtifactKey())
		if err != nil {
			return false, fmt.Errorf("check artifact: %w", err)
		}
		// COMPLETED без артефакта — хранилище почистили; повторная
		// генерация разрешена.
		return exists, nil

	default: // FAILED
		return false, nil
	}
}
