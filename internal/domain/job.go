package domain

import (
	"time"

	"github.com/google/uuid"
)

// StaleJobError — текст ошибки, который Reaper проставляет протухшим задачам.
// По нему операторы отличают crash-recovery от прикладной ошибки генерации.
const StaleJobError = "stale: heartbeat timeout"

// ReportJob — одна попытка сгенерировать PDF для инвойса.
//
// ReportJob создаётся Dispatcher'ом при постановке в очередь и дальше
// мутируется только воркером, который её выполняет, либо Reaper'ом
// (принудительный перевод RUNNING → FAILED по протухшему heartbeat).
// Записи никогда не удаляются — это append-mostly журнал попыток,
// по одной строке на каждую.
type ReportJob struct {
	// ID — уникальный идентификатор попытки.
	ID uuid.UUID `json:"id"`

	// InvoiceID — инвойс, для которого генерируется отчёт.
	// Nil только в патологическом случае, когда инвойс не удалось
	// разрешить к моменту выполнения.
	InvoiceID *int64 `json:"invoice_id,omitempty"`

	// Status — текущий статус задачи.
	Status JobStatus `json:"status"`

	// QueuedAt — время постановки в очередь.
	QueuedAt time.Time `json:"queued_at"`

	// StartedAt — время, когда воркер взял задачу (статус стал RUNNING).
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения (успешного или с ошибкой).
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// HeartbeatAt — последний heartbeat воркера.
	// Обновляется при постановке в очередь, при старте и периодически
	// в процессе генерации. По нему Reaper находит мёртвые задачи.
	HeartbeatAt *time.Time `json:"heartbeat_at,omitempty"`

	// DurationSeconds — длительность выполнения в секундах.
	// Заполняется только на финальном переходе: finished_at - started_at.
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`

	// Error — текст ошибки, если Status == FAILED.
	Error string `json:"error,omitempty"`

	// ArtifactKey — детерминированный ключ артефакта в хранилище
	// (report_<invoice_id>.pdf).
	ArtifactKey string `json:"artifact_key,omitempty"`

	// ArtifactSize — размер сгенерированного PDF в байтах.
	ArtifactSize *int64 `json:"artifact_size,omitempty"`

	// ArtifactLocation — путь или URL артефакта после успешной записи.
	ArtifactLocation string `json:"artifact_location,omitempty"`
}

// NewReportJob создаёт задачу в статусе QUEUED.
// heartbeat_at проставляется сразу, чтобы Reaper не считал задачу
// протухшей до того, как воркер её возьмёт.
func NewReportJob(invoiceID int64, artifactKey string) *ReportJob {
	now := time.Now()
	return &ReportJob{
		ID:          uuid.New(),
		InvoiceID:   &invoiceID,
		Status:      JobStatusQueued,
		QueuedAt:    now,
		HeartbeatAt: &now,
		ArtifactKey: artifactKey,
	}
}

// MarkRunning переводит задачу в RUNNING, проставляя started_at и heartbeat_at.
func (j *ReportJob) MarkRunning() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.HeartbeatAt = &now
}

// Touch обновляет heartbeat_at.
func (j *ReportJob) Touch() {
	now := time.Now()
	j.HeartbeatAt = &now
}

// MarkCompleted переводит задачу в COMPLETED и вычисляет длительность.
func (j *ReportJob) MarkCompleted(size int64, location string) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.FinishedAt = &now
	j.HeartbeatAt = &now
	j.ArtifactSize = &size
	j.ArtifactLocation = location
	j.setDuration()
}

// MarkFailed переводит задачу в FAILED с текстом ошибки.
func (j *ReportJob) MarkFailed(errMsg string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.FinishedAt = &now
	j.Error = errMsg
	j.setDuration()
}

// setDuration вычисляет duration_seconds, если задача успела стартовать.
func (j *ReportJob) setDuration() {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return
	}
	d := j.FinishedAt.Sub(*j.StartedAt).Seconds()
	j.DurationSeconds = &d
}

// IsFinished возвращает true, если задача завершена (в любом статусе).
func (j *ReportJob) IsFinished() bool {
	return j.Status.IsTerminal()
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если задача ещё не завершена.
func (j *ReportJob) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}
