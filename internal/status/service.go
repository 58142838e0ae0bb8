// Package status — read-only проекция состояния задач генерации.
//
// Никаких побочных эффектов и блокирующих чтений: сервис возвращает
// последнее зафиксированное состояние, даже если воркер мутирует ту же
// запись прямо сейчас — каждая запись в журнал атомарна, рваных данных
// читатель не увидит.
package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Faktura/internal/domain"
	"github.com/shaiso/Faktura/internal/repo"
)

// Ошибки запросов: неизвестный идентификатор — это not-found сигнал,
// не исключение.
var (
	// ErrJobNotFound — задачи с таким id нет в журнале.
	ErrJobNotFound = errors.New("job not found")

	// ErrNeverDispatched — для инвойса ещё не ставилось ни одной задачи.
	ErrNeverDispatched = errors.New("no jobs dispatched for invoice")
)

// Ledger — нужная сервису часть журнала задач.
type Ledger interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReportJob, error)
	GetLatestByInvoice(ctx context.Context, invoiceID int64) (*domain.ReportJob, error)
}

// JobView — представление задачи для читателей.
type JobView struct {
	JobID           uuid.UUID        `json:"job_id"`
	InvoiceID       *int64           `json:"invoice_id,omitempty"`
	Status          domain.JobStatus `json:"status"`
	QueuedAt        time.Time        `json:"queued_at"`
	StartedAt       *time.Time       `json:"started_at,omitempty"`
	FinishedAt      *time.Time       `json:"finished_at,omitempty"`
	HeartbeatAt     *time.Time       `json:"heartbeat_at,omitempty"`
	DurationSeconds *float64         `json:"duration_seconds,omitempty"`

	// Result — расположение артефакта (COMPLETED) либо текст ошибки
	// (FAILED). Присутствует только у терминальных задач.
	Result string `json:"result,omitempty"`
}

// Service отвечает на вопросы «что с задачей X» и «что с инвойсом Y».
type Service struct {
	ledger Ledger
}

// NewService создаёт Service.
func NewService(ledger Ledger) *Service {
	return &Service{ledger: ledger}
}

// Status возвращает состояние задачи по id.
func (s *Service) Status(ctx context.Context, jobID uuid.UUID) (*JobView, error) {
	job, err := s.ledger.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return viewFromJob(job), nil
}

// LatestStatus возвращает состояние последней задачи инвойса.
func (s *Service) LatestStatus(ctx context.Context, invoiceID int64) (*JobView, error) {
	job, err := s.ledger.GetLatestByInvoice(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNeverDispatched
		}
		return nil, fmt.Errorf("get latest job: %w", err)
	}
	return viewFromJob(job), nil
}

// viewFromJob строит JobView из записи журнала.
func viewFromJob(job *domain.ReportJob) *JobView {
	view := &JobView{
		JobID:           job.ID,
		InvoiceID:       job.InvoiceID,
		Status:          job.Status,
		QueuedAt:        job.QueuedAt,
		StartedAt:       job.StartedAt,
		FinishedAt:      job.FinishedAt,
		HeartbeatAt:     job.HeartbeatAt,
		DurationSeconds: job.DurationSeconds,
	}

	switch job.Status {
	case domain.JobStatusCompleted:
		view.Result = job.ArtifactLocation
	case domain.JobStatusFailed:
		view.Result = job.Error
	}

	return view
}
