package status

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Faktura/internal/domain"
	"github.com/shaiso/Faktura/internal/repo"
)

type fakeLedger struct {
	byID      map[uuid.UUID]*domain.ReportJob
	byInvoice map[int64]*domain.ReportJob
}

func (f *fakeLedger) GetByID(_ context.Context, id uuid.UUID) (*domain.ReportJob, error) {
	job, ok := f.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return job, nil
}

func (f *fakeLedger) GetLatestByInvoice(_ context.Context, invoiceID int64) (*domain.ReportJob, error) {
	job, ok := f.byInvoice[invoiceID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return job, nil
}

func newFakeLedger(jobs ...*domain.ReportJob) *fakeLedger {
	f := &fakeLedger{byID: make(map[uuid.UUID]*domain.ReportJob), byInvoice: make(map[int64]*domain.ReportJob)}
	for _, job := range jobs {
		f.byID[job.ID] = job
		if job.InvoiceID != nil {
			f.byInvoice[*job.InvoiceID] = job
		}
	}
	return f
}

func TestStatus_QueuedJob(t *testing.T) {
	job := domain.NewReportJob(1, "report_1.pdf")
	svc := NewService(newFakeLedger(job))

	view, err := svc.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != domain.JobStatusQueued {
		t.Errorf("expected QUEUED, got %s", view.Status)
	}
	// Result только у терминальных задач
	if view.Result != "" {
		t.Errorf("queued job should have no result, got %q", view.Result)
	}
	if view.HeartbeatAt == nil {
		t.Error("heartbeat_at should be exposed")
	}
}

func TestStatus_CompletedJob(t *testing.T) {
	job := domain.NewReportJob(1, "report_1.pdf")
	job.MarkRunning()
	job.MarkCompleted(2048, "/tmp/report_1.pdf")

	svc := NewService(newFakeLedger(job))

	view, err := svc.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != domain.JobStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", view.Status)
	}
	if view.Result != "/tmp/report_1.pdf" {
		t.Errorf("result should carry the artifact location, got %q", view.Result)
	}
	if view.DurationSeconds == nil {
		t.Error("duration should be exposed for terminal jobs")
	}
}

func TestStatus_FailedJob(t *testing.T) {
	job := domain.NewReportJob(1, "report_1.pdf")
	job.MarkRunning()
	job.MarkFailed(domain.StaleJobError)

	svc := NewService(newFakeLedger(job))

	view, err := svc.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Result != domain.StaleJobError {
		t.Errorf("result should carry the error text, got %q", view.Result)
	}
}

func TestStatus_NotFound(t *testing.T) {
	svc := NewService(newFakeLedger())

	_, err := svc.Status(context.Background(), uuid.New())
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestLatestStatus(t *testing.T) {
	job := domain.NewReportJob(7, "report_7.pdf")
	svc := NewService(newFakeLedger(job))

	view, err := svc.LatestStatus(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.JobID != job.ID {
		t.Error("should return the latest job for the invoice")
	}
}

func TestLatestStatus_NeverDispatched(t *testing.T) {
	svc := NewService(newFakeLedger())

	_, err := svc.LatestStatus(context.Background(), 99)
	if !errors.Is(err, ErrNeverDispatched) {
		t.Errorf("expected ErrNeverDispatched, got %v", err)
	}
}
