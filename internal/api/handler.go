package api

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Faktura/internal/dispatch"
	"github.com/shaiso/Faktura/internal/mq"
	"github.com/shaiso/Faktura/internal/repo"
	"github.com/shaiso/Faktura/internal/status"
	"github.com/shaiso/Faktura/internal/store"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	invoiceRepo     *repo.InvoiceRepo
	jobRepo         *repo.JobRepo
	dispatcher      *dispatch.Dispatcher
	statusSvc       *status.Service
	artifacts       store.Store
	pool            *pgxpool.Pool
	conn            *mq.Connection
	workerHealthURL string
	logger          *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	InvoiceRepo     *repo.InvoiceRepo
	JobRepo         *repo.JobRepo
	Dispatcher      *dispatch.Dispatcher
	StatusService   *status.Service
	Artifacts       store.Store
	Pool            *pgxpool.Pool
	Conn            *mq.Connection
	WorkerHealthURL string
	Logger          *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		invoiceRepo:     cfg.InvoiceRepo,
		jobRepo:         cfg.JobRepo,
		dispatcher:      cfg.Dispatcher,
		statusSvc:       cfg.StatusService,
		artifacts:       cfg.Artifacts,
		pool:            cfg.Pool,
		conn:            cfg.Conn,
		workerHealthURL: cfg.WorkerHealthURL,
		logger:          cfg.Logger,
	}
}
