// Package reaper — восстановление после молчаливой смерти воркеров.
//
// Воркер, убитый посреди генерации, не успевает записать терминальный
// статус: задача навсегда остаётся в RUNNING, инвойс показывает
// «генерируется», а идемпотентная политика Dispatcher'а блокирует новые
// попытки. Reaper — единственный механизм выхода из этого состояния:
// периодический проход переводит RUNNING-задачи с протухшим heartbeat
// в FAILED с отличимым текстом ошибки.
//
// Истина — только протухание heartbeat, не живость процесса: substrate
// выполнения может вообще не сообщать о живости воркеров.
package reaper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// defaultStaleAfter — порог протухания heartbeat по умолчанию.
const defaultStaleAfter = 5 * time.Minute

// Ledger — нужная Reaper'у часть журнала задач.
type Ledger interface {
	ReapStale(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

// Reaper находит зависшие задачи и принудительно финализирует их.
type Reaper struct {
	ledger     Ledger
	staleAfter time.Duration
	logger     *slog.Logger
}

// Config — конфигурация Reaper.
type Config struct {
	Ledger Ledger

	// StaleAfter — порог протухания heartbeat (default: 5m).
	StaleAfter time.Duration

	Logger *slog.Logger
}

// New создаёт Reaper.
func New(cfg Config) *Reaper {
	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{
		ledger:     cfg.Ledger,
		staleAfter: staleAfter,
		logger:     logger,
	}
}

// Sweep выполняет один проход: все RUNNING-задачи с heartbeat старше
// порога атомарно переводятся в FAILED. Возвращает количество реапнутых.
//
// Проход идемпотентен и безопасен при конкурентных запусках
// (перекрывающиеся тики планировщика): реап — один атомарный UPDATE,
// который трогает только RUNNING-строки. Гонка с воркером, который
// завершается в этот самый момент, допустима: терминальные статусы
// проход никогда не меняет, а поздний успех воркера после реапа
// остаётся в силе.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.staleAfter)

	reaped, err := r.ledger.ReapStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reap stale jobs: %w", err)
	}

	for _, id := range reaped {
		r.logger.Warn("reaped stale job", "job_id", id, "stale_after", r.staleAfter)
	}
	if len(reaped) > 0 {
		jobsReaped.Add(float64(len(reaped)))
		r.logger.Info("sweep completed", "reaped", len(reaped))
	}

	return len(reaped), nil
}
