package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ListInvoices возвращает список инвойсов.
// GET /api/v1/invoices?limit=...&offset=...
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)
	offset := parseIntParam(r, "offset", 0)

	invoices, err := h.invoiceRepo.List(r.Context(), limit, offset)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		result[i] = InvoiceFromDomain(&invoices[i])
	}

	List(w, result, len(result))
}

// CreateInvoice создаёт инвойс вместе с позициями и покупателем.
// POST /api/v1/invoices
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		BadRequest(w, err.Error())
		return
	}

	inv := req.ToDomain()
	if err := h.invoiceRepo.Create(r.Context(), inv); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("invoice created", "invoice_id", inv.ID, "items", len(inv.Items))

	Created(w, InvoiceFromDomain(inv))
}

// GetInvoice возвращает инвойс по ID.
// GET /api/v1/invoices/{id}
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		BadRequest(w, "invalid invoice id")
		return
	}

	inv, err := h.invoiceRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "invoice not found") {
		return
	}

	Success(w, InvoiceFromDomain(inv))
}

// parseIntParam парсит целочисленный query параметр с дефолтным значением.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
