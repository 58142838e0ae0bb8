package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations — схема БД. Выполняются идемпотентно на старте каждого
// бинарника, который работает с базой.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		phone      TEXT NOT NULL DEFAULT '',
		address    TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS invoices (
		id               BIGSERIAL PRIMARY KEY,
		company_name     TEXT NOT NULL,
		address          TEXT NOT NULL,
		logo_key         TEXT NOT NULL DEFAULT '',
		customer_id      BIGINT REFERENCES customers(id),
		pdf_size         BIGINT,
		pdf_generated_at TIMESTAMPTZ,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS invoice_items (
		id         BIGSERIAL PRIMARY KEY,
		invoice_id BIGINT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		quantity   INTEGER NOT NULL,
		unit_price NUMERIC(10,2) NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice
		ON invoice_items (invoice_id)`,

	// Журнал попыток генерации: одна строка на попытку, записи не удаляются.
	`CREATE TABLE IF NOT EXISTS report_jobs (
		id                UUID PRIMARY KEY,
		invoice_id        BIGINT REFERENCES invoices(id),
		status            TEXT NOT NULL,
		queued_at         TIMESTAMPTZ NOT NULL,
		started_at        TIMESTAMPTZ,
		finished_at       TIMESTAMPTZ,
		heartbeat_at      TIMESTAMPTZ,
		duration_seconds  DOUBLE PRECISION,
		error             TEXT,
		artifact_key      TEXT NOT NULL DEFAULT '',
		artifact_size     BIGINT,
		artifact_location TEXT NOT NULL DEFAULT ''
	)`,

	// Для идемпотентной проверки Dispatcher'а: последняя попытка по инвойсу.
	`CREATE INDEX IF NOT EXISTS idx_report_jobs_invoice_queued
		ON report_jobs (invoice_id, queued_at DESC)`,

	// Для Reaper'а: RUNNING-задачи с протухшим heartbeat.
	`CREATE INDEX IF NOT EXISTS idx_report_jobs_heartbeat
		ON report_jobs (heartbeat_at)
		WHERE status = 'RUNNING'`,

	// Для polling-фолбэка воркера.
	`CREATE INDEX IF NOT EXISTS idx_report_jobs_queued
		ON report_jobs (queued_at)
		WHERE status = 'QUEUED'`,
}

// Migrate применяет схему БД.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
