package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Invoices
	mux.Handle("GET /api/v1/invoices", chain(http.HandlerFunc(h.ListInvoices)))
	mux.Handle("POST /api/v1/invoices", chain(http.HandlerFunc(h.CreateInvoice)))
	mux.Handle("GET /api/v1/invoices/{id}", chain(http.HandlerFunc(h.GetInvoice)))

	// Report generation
	mux.Handle("POST /api/v1/invoices/{id}/report", chain(http.HandlerFunc(h.DispatchReport)))
	mux.Handle("GET /api/v1/invoices/{id}/report", chain(http.HandlerFunc(h.GetLatestJobStatus)))
	mux.Handle("GET /api/v1/invoices/{id}/report/pdf", chain(http.HandlerFunc(h.DownloadReport)))
	mux.Handle("GET /api/v1/jobs/{id}", chain(http.HandlerFunc(h.GetJobStatus)))

	// Health
	mux.Handle("GET /api/v1/health", chain(http.HandlerFunc(h.Health)))
	mux.Handle("GET /api/v1/db-status", chain(http.HandlerFunc(h.DBStatus)))
}
