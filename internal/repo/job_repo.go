package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Faktura/internal/domain"
)

// JobRepo — журнал задач генерации (Job Ledger).
//
// Единственный разделяемый мутабельный ресурс системы. Все мутации —
// атомарные однострочные UPDATE по id задачи, многострочных транзакций
// не требуется. Переходы статусов зашиты в WHERE-условия запросов:
// нелегальный переход просто не находит строку.
type JobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// Create вставляет новую запись журнала (статус QUEUED).
func (r *JobRepo) Create(ctx context.Context, job *domain.ReportJob) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO report_jobs (id, invoice_id, status, queued_at, heartbeat_at, artifact_key)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		job.ID,
		job.InvoiceID,
		job.Status,
		job.QueuedAt,
		job.HeartbeatAt,
		job.ArtifactKey,
	)
	if err != nil {
		return fmt.Errorf("insert report job: %w", err)
	}
	return nil
}

// GetByID возвращает задачу по id.
func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReportJob, error) {
	return r.scanJob(r.pool.QueryRow(ctx, selectJob+`WHERE id = $1`, id))
}

// GetLatestByInvoice возвращает последнюю по времени постановки задачу
// для инвойса. Именно её состояние Dispatcher использует в идемпотентной
// проверке (last-write-wins по queued_at).
func (r *JobRepo) GetLatestByInvoice(ctx context.Context, invoiceID int64) (*domain.ReportJob, error) {
	return r.scanJob(r.pool.QueryRow(ctx, selectJob+`
		WHERE invoice_id = $1
		ORDER BY queued_at DESC
		LIMIT 1
	`, invoiceID))
}

// ListQueued возвращает задачи в статусе QUEUED, сначала старые.
// Используется polling-фолбэком воркера.
func (r *JobRepo) ListQueued(ctx context.Context, limit int) ([]domain.ReportJob, error) {
	rows, err := r.pool.Query(ctx, selectJob+`
		WHERE status = 'QUEUED'
		ORDER BY queued_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list queued jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.ReportJob
	for rows.Next() {
		job, err := r.scanJobFromRows(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// MarkRunning переводит задачу QUEUED → RUNNING, проставляя started_at
// и heartbeat_at. Если задача уже не в QUEUED (например, второй воркер
// получил дубликат сообщения) — ErrInvalidState.
func (r *JobRepo) MarkRunning(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE report_jobs
		SET status = 'RUNNING', started_at = NOW(), heartbeat_at = NOW()
		WHERE id = $1 AND status = 'QUEUED'
	`, id)
	if err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// Heartbeat обновляет heartbeat_at выполняющейся задачи.
// Для задачи не в RUNNING — no-op: после реапа или завершения
// heartbeat смысла не имеет.
func (r *JobRepo) Heartbeat(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE report_jobs
		SET heartbeat_at = NOW()
		WHERE id = $1 AND status = 'RUNNING'
	`, id)
	if err != nil {
		return fmt.Errorf("heartbeat job: %w", err)
	}
	return nil
}

// MarkCompleted переводит задачу в COMPLETED и возвращает статус,
// в котором она была до перехода.
//
// Переход не обусловлен текущим статусом: воркер — единственный
// владелец задачи и терминальные статусы не перезапускает по построению.
// Единственный конкурент — Reaper, который мог успеть перевести задачу
// в FAILED за мгновение до завершения; поздний успех при этом остаётся
// в силе, а вызывающий код логирует конфликт по возвращённому статусу.
func (r *JobRepo) MarkCompleted(ctx context.Context, id uuid.UUID, size int64, location string) (domain.JobStatus, error) {
	var prev domain.JobStatus
	err := r.pool.QueryRow(ctx, `
		WITH prev AS (
			SELECT status FROM report_jobs WHERE id = $1
		)
		UPDATE report_jobs
		SET status            = 'COMPLETED',
		    finished_at       = NOW(),
		    heartbeat_at      = NOW(),
		    duration_seconds  = EXTRACT(EPOCH FROM (NOW() - started_at)),
		    error             = NULL,
		    artifact_size     = $2,
		    artifact_location = $3
		WHERE id = $1
		RETURNING (SELECT status FROM prev)
	`, id, size, location).Scan(&prev)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("mark job completed: %w", err)
	}
	return prev, nil
}

// MarkFailed переводит задачу в FAILED с текстом ошибки.
// Применяется только к нетерминальным задачам: уже завершённую
// (в том числе «поздним успехом» после реапа) не трогает.
func (r *JobRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE report_jobs
		SET status           = 'FAILED',
		    finished_at      = NOW(),
		    duration_seconds = CASE WHEN started_at IS NULL THEN NULL
		                            ELSE EXTRACT(EPOCH FROM (NOW() - started_at)) END,
		    error            = $2
		WHERE id = $1 AND status IN ('QUEUED', 'RUNNING')
	`, id, errMsg)
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// ReapStale одним атомарным UPDATE переводит в FAILED все RUNNING-задачи,
// у которых heartbeat_at старше cutoff, и возвращает их id.
//
// Безопасен при конкурентных вызовах (перекрывающиеся тики планировщика)
// и при гонке с воркером, который вот-вот сделает heartbeat: условие
// по статусу гарантирует, что терминальные записи не затрагиваются.
func (r *JobRepo) ReapStale(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE report_jobs
		SET status           = 'FAILED',
		    finished_at      = NOW(),
		    duration_seconds = CASE WHEN started_at IS NULL THEN NULL
		                            ELSE EXTRACT(EPOCH FROM (NOW() - started_at)) END,
		    error            = $2
		WHERE status = 'RUNNING' AND heartbeat_at < $1
		RETURNING id
	`, cutoff, domain.StaleJobError)
	if err != nil {
		return nil, fmt.Errorf("reap stale jobs: %w", err)
	}
	defer rows.Close()

	var reaped []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reaped id: %w", err)
		}
		reaped = append(reaped, id)
	}
	return reaped, rows.Err()
}

// --- Helpers ---

const selectJob = `
	SELECT id, invoice_id, status, queued_at, started_at, finished_at,
	       heartbeat_at, duration_seconds, error, artifact_key,
	       artifact_size, artifact_location
	FROM report_jobs
`

func (r *JobRepo) scanJob(row pgx.Row) (*domain.ReportJob, error) {
	job, err := scanJobRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return job, err
}

func (r *JobRepo) scanJobFromRows(rows pgx.Rows) (*domain.ReportJob, error) {
	return scanJobRow(rows)
}

func scanJobRow(row pgx.Row) (*domain.ReportJob, error) {
	var job domain.ReportJob
	var jobErr, location *string

	err := row.Scan(
		&job.ID,
		&job.InvoiceID,
		&job.Status,
		&job.QueuedAt,
		&job.StartedAt,
		&job.FinishedAt,
		&job.HeartbeatAt,
		&job.DurationSeconds,
		&jobErr,
		&job.ArtifactKey,
		&job.ArtifactSize,
		&location,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan report job: %w", err)
	}

	if jobErr != nil {
		job.Error = *jobErr
	}
	if location != nil {
		job.ArtifactLocation = *location
	}
	return &job, nil
}
