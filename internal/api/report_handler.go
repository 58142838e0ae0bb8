package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/Faktura/internal/dispatch"
	"github.com/shaiso/Faktura/internal/status"
)

// DispatchReport ставит генерацию PDF для инвойса.
// POST /api/v1/invoices/{id}/report
//
// Повторный запрос для инвойса с активной задачей или актуальным
// артефактом не создаёт дубликат — возвращается существующая задача
// со статусом "skipped".
func (h *Handler) DispatchReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		BadRequest(w, "invalid invoice id")
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrInvoiceNotFound):
			NotFound(w, "invoice not found")
		case errors.Is(err, dispatch.ErrInvoiceEmpty):
			InvalidState(w, "invoice has no items")
		default:
			InternalError(w, h.logger, err)
		}
		return
	}

	resp := DispatchResponse{JobID: result.JobID, Status: "started"}
	if result.Skipped {
		resp.Status = "skipped"
		Success(w, resp)
		return
	}

	Accepted(w, resp)
}

// GetJobStatus возвращает состояние задачи генерации по её ID.
// GET /api/v1/jobs/{id}
func (h *Handler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	view, err := h.statusSvc.Status(r.Context(), id)
	if err != nil {
		if errors.Is(err, status.ErrJobNotFound) {
			NotFound(w, "job not found")
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Success(w, JobStatusFromView(view))
}

// GetLatestJobStatus возвращает состояние последней задачи инвойса.
// GET /api/v1/invoices/{id}/report
func (h *Handler) GetLatestJobStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		BadRequest(w, "invalid invoice id")
		return
	}

	view, err := h.statusSvc.LatestStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, status.ErrNeverDispatched) {
			NotFound(w, "no report jobs for invoice")
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Success(w, JobStatusFromView(view))
}

// DownloadReport отдаёт сгенерированный PDF инвойса.
// GET /api/v1/invoices/{id}/report/pdf
func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		BadRequest(w, "invalid invoice id")
		return
	}

	inv, err := h.invoiceRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "invoice not found") {
		return
	}

	key := inv.ArtifactKey()
	exists, err := h.artifacts.Exists(r.Context(), key)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}
	if !exists {
		NotFound(w, "report not generated yet")
		return
	}

	rc, err := h.artifacts.Open(r.Context(), key)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", key))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("report download interrupted", "invoice_id", id, "error", err)
	}
}
