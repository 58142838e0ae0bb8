package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shaiso/Faktura/internal/domain"
	"github.com/shaiso/Faktura/internal/render"
	"github.com/shaiso/Faktura/internal/repo"
)

// --- Fakes ---

// memLedger повторяет переходные гарантии SQL-журнала: условные UPDATE
// по текущему статусу, терминальные статусы никогда не откатываются.
type memLedger struct {
	mu         sync.Mutex
	jobs       map[uuid.UUID]*domain.ReportJob
	heartbeats int
}

func newMemLedger() *memLedger {
	return &memLedger{jobs: make(map[uuid.UUID]*domain.ReportJob)}
}

func (l *memLedger) add(job *domain.ReportJob) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jobs[job.ID] = job
}

func (l *memLedger) get(id uuid.UUID) *domain.ReportJob {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.jobs[id]
}

func (l *memLedger) GetByID(_ context.Context, id uuid.UUID) (*domain.ReportJob, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	job, ok := l.jobs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (l *memLedger) ListQueued(_ context.Context, limit int) ([]domain.ReportJob, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.ReportJob
	for _, job := range l.jobs {
		if job.Status == domain.JobStatusQueued && len(out) < limit {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (l *memLedger) MarkRunning(_ context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	job, ok := l.jobs[id]
	if !ok || job.Status != domain.JobStatusQueued {
		return repo.ErrInvalidState
	}
	job.MarkRunning()
	return nil
}

func (l *memLedger) Heartbeat(_ context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	job, ok := l.jobs[id]
	if ok && job.Status == domain.JobStatusRunning {
		job.Touch()
		l.heartbeats++
	}
	return nil
}

func (l *memLedger) MarkCompleted(_ context.Context, id uuid.UUID, size int64, location string) (domain.JobStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	job, ok := l.jobs[id]
	if !ok {
		return "", repo.ErrNotFound
	}
	prev := job.Status
	job.MarkCompleted(size, location)
	return prev, nil
}

func (l *memLedger) MarkFailed(_ context.Context, id uuid.UUID, errMsg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	job, ok := l.jobs[id]
	if !ok || job.Status.IsTerminal() {
		return repo.ErrInvalidState
	}
	job.MarkFailed(errMsg)
	return nil
}

type memInvoices struct {
	invoices map[int64]*domain.Invoice
	pdfMeta  map[int64]int64
}

func newMemInvoices(invs ...*domain.Invoice) *memInvoices {
	m := &memInvoices{invoices: make(map[int64]*domain.Invoice), pdfMeta: make(map[int64]int64)}
	for _, inv := range invs {
		m.invoices[inv.ID] = inv
	}
	return m
}

func (m *memInvoices) GetByID(_ context.Context, id int64) (*domain.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return inv, nil
}

func (m *memInvoices) UpdatePDFMeta(_ context.Context, id int64, size int64) error {
	m.pdfMeta[id] = size
	return nil
}

// fakeRenderer позволяет подсунуть ошибку или хук по ходу рендера.
type fakeRenderer struct {
	data []byte
	err  error
	hook func()
}

func (r *fakeRenderer) Render(_ context.Context, _ *render.Payload) ([]byte, error) {
	if r.hook != nil {
		r.hook()
	}
	return r.data, r.err
}

type memStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	writeErr error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memStore) Write(_ context.Context, key string, data []byte) (string, error) {
	if s.writeErr != nil {
		return "", s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return "/mem/" + key, nil
}

func (s *memStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Location(key string) string {
	return "/mem/" + key
}

func testInvoice(id int64, itemCount int) *domain.Invoice {
	inv := &domain.Invoice{
		ID:          id,
		CompanyName: "Acme",
		Address:     "Main st. 1",
	}
	for i := 0; i < itemCount; i++ {
		inv.Items = append(inv.Items, domain.InvoiceItem{
			Name:      "Widget",
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("9.99"),
		})
	}
	return inv
}

// --- Tests ---

func TestExecutor_Execute_Success(t *testing.T) {
	inv := testInvoice(1, 7)
	ledger := newMemLedger()
	invoices := newMemInvoices(inv)
	artifacts := newMemStore()
	renderer := &fakeRenderer{data: []byte("%PDF-1.4 fake")}

	job := domain.NewReportJob(1, inv.ArtifactKey())
	ledger.add(job)

	e := NewExecutor(ExecutorConfig{
		Ledger:    ledger,
		Invoices:  invoices,
		Renderer:  renderer,
		Artifacts: artifacts,
	})

	outcome, err := e.Execute(context.Background(), job.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != domain.JobStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", outcome.Status)
	}

	stored := ledger.get(job.ID)
	if stored.Status != domain.JobStatusCompleted {
		t.Errorf("ledger should show COMPLETED, got %s", stored.Status)
	}
	if stored.StartedAt == nil || stored.FinishedAt == nil {
		t.Error("started_at and finished_at should be set")
	}
	if stored.DurationSeconds == nil {
		t.Error("duration should be recorded")
	}
	if stored.ArtifactSize == nil || *stored.ArtifactSize != int64(len(renderer.data)) {
		t.Error("artifact size should match the rendered PDF")
	}
	if stored.ArtifactLocation != "/mem/report_1.pdf" {
		t.Errorf("unexpected artifact location %q", stored.ArtifactLocation)
	}

	// Артефакт записан под детерминированным ключом
	if _, ok := artifacts.objects["report_1.pdf"]; !ok {
		t.Error("artifact should be written under report_<id>.pdf")
	}

	// Кэш метаданных PDF на инвойсе обновлён
	if invoices.pdfMeta[1] != int64(len(renderer.data)) {
		t.Error("pdf meta cache should be updated")
	}

	// 7 позиций при кадентности 3: heartbeat на 3-й, 6-й и последней
	if ledger.heartbeats < 3 {
		t.Errorf("expected at least 3 item heartbeats, got %d", ledger.heartbeats)
	}
}

func TestExecutor_Execute_RenderFailure(t *testing.T) {
	inv := testInvoice(1, 1)
	ledger := newMemLedger()
	job := domain.NewReportJob(1, inv.ArtifactKey())
	ledger.add(job)

	e := NewExecutor(ExecutorConfig{
		Ledger:    ledger,
		Invoices:  newMemInvoices(inv),
		Renderer:  &fakeRenderer{err: errors.New("font missing")},
		Artifacts: newMemStore(),
	})

	outcome, err := e.Execute(context.Background(), job.ID, 1)
	if err != nil {
		t.Fatalf("execution failures should not surface as errors: %v", err)
	}
	if outcome.Status != domain.JobStatusFailed {
		t.Fatalf("expected FAILED, got %s", outcome.Status)
	}

	stored := ledger.get(job.ID)
	if stored.Status != domain.JobStatusFailed {
		t.Errorf("ledger should show FAILED, got %s", stored.Status)
	}
	if !strings.Contains(stored.Error, "render") {
		t.Errorf("error text should mention render, got %q", stored.Error)
	}
}

func TestExecutor_Execute_StoreFailure(t *testing.T) {
	inv := testInvoice(1, 1)
	ledger := newMemLedger()
	job := domain.NewReportJob(1, inv.ArtifactKey())
	ledger.add(job)

	artifacts := newMemStore()
	artifacts.writeErr = errors.New("disk full")

	e := NewExecutor(ExecutorConfig{
		Ledger:    ledger,
		Invoices:  newMemInvoices(inv),
		Renderer:  &fakeRenderer{data: []byte("%PDF")},
		Artifacts: artifacts,
	})

	outcome, err := e.Execute(context.Background(), job.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != domain.JobStatusFailed {
		t.Fatalf("expected FAILED, got %s", outcome.Status)
	}
	if !strings.Contains(ledger.get(job.ID).Error, "store artifact") {
		t.Error("error text should mention the storage step")
	}
}

func TestExecutor_Execute_InvoiceMissing(t *testing.T) {
	// Инвойс удалили между dispatch и выполнением: терминальный FAILED,
	// никаких повторов
	ledger := newMemLedger()
	job := domain.NewReportJob(1, "report_1.pdf")
	ledger.add(job)

	e := NewExecutor(ExecutorConfig{
		Ledger:    ledger,
		Invoices:  newMemInvoices(),
		Renderer:  &fakeRenderer{data: []byte("%PDF")},
		Artifacts: newMemStore(),
	})

	outcome, err := e.Execute(context.Background(), job.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != domain.JobStatusFailed {
		t.Fatalf("expected FAILED, got %s", outcome.Status)
	}
	if !strings.Contains(ledger.get(job.ID).Error, "not found") {
		t.Error("error text should mention the missing invoice")
	}
}

func TestExecutor_Execute_JobNotQueued(t *testing.T) {
	// Дубликат доставки: задача уже RUNNING
	inv := testInvoice(1, 1)
	ledger := newMemLedger()
	job := domain.NewReportJob(1, inv.ArtifactKey())
	job.MarkRunning()
	ledger.add(job)

	e := NewExecutor(ExecutorConfig{
		Ledger:    ledger,
		Invoices:  newMemInvoices(inv),
		Renderer:  &fakeRenderer{data: []byte("%PDF")},
		Artifacts: newMemStore(),
	})

	_, err := e.Execute(context.Background(), job.ID, 1)
	if !errors.Is(err, ErrJobNotQueued) {
		t.Errorf("expected ErrJobNotQueued, got %v", err)
	}
}

func TestExecutor_Execute_JobNotFound(t *testing.T) {
	e := NewExecutor(ExecutorConfig{
		Ledger:    newMemLedger(),
		Invoices:  newMemInvoices(testInvoice(1, 1)),
		Renderer:  &fakeRenderer{data: []byte("%PDF")},
		Artifacts: newMemStore(),
	})

	_, err := e.Execute(context.Background(), uuid.New(), 1)
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestExecutor_Execute_LateSuccessAfterReap(t *testing.T) {
	// Reaper реапнул задачу прямо во время рендера. Поздний успех
	// воркера остаётся в силе: COMPLETED перезаписывает FAILED.
	inv := testInvoice(1, 1)
	ledger := newMemLedger()
	job := domain.NewReportJob(1, inv.ArtifactKey())
	ledger.add(job)

	renderer := &fakeRenderer{
		data: []byte("%PDF"),
		hook: func() {
			stored := ledger.get(job.ID)
			ledger.mu.Lock()
			stored.MarkFailed(domain.StaleJobError)
			ledger.mu.Unlock()
		},
	}

	e := NewExecutor(ExecutorConfig{
		Ledger:    ledger,
		Invoices:  newMemInvoices(inv),
		Renderer:  renderer,
		Artifacts: newMemStore(),
	})

	outcome, err := e.Execute(context.Background(), job.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != domain.JobStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", outcome.Status)
	}
	if ledger.get(job.ID).Status != domain.JobStatusCompleted {
		t.Error("late success should supersede the reaped FAILED")
	}
}

func TestExecutor_BuildPayload(t *testing.T) {
	inv := testInvoice(1, 2)
	inv.Customer = &domain.Customer{Name: "Ivan", Email: "ivan@example.com"}

	ledger := newMemLedger()
	job := domain.NewReportJob(1, inv.ArtifactKey())
	job.MarkRunning()
	ledger.add(job)

	e := NewExecutor(ExecutorConfig{
		Ledger:    ledger,
		Invoices:  newMemInvoices(inv),
		Renderer:  &fakeRenderer{data: []byte("%PDF")},
		Artifacts: newMemStore(),
	})

	p := e.buildPayload(context.Background(), job.ID, inv)

	if p.Company != "Acme" {
		t.Errorf("unexpected company %q", p.Company)
	}
	if len(p.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(p.Items))
	}
	// 2 × 9.99 на позицию, две позиции
	if !p.Items[0].Total.Equal(decimal.RequireFromString("19.98")) {
		t.Errorf("unexpected line total %s", p.Items[0].Total)
	}
	if !p.Total.Equal(decimal.RequireFromString("39.96")) {
		t.Errorf("unexpected grand total %s", p.Total)
	}
	if p.Customer == nil || p.Customer.Name != "Ivan" {
		t.Error("customer should be projected into the payload")
	}
	// Последняя позиция всегда даёт heartbeat
	if ledger.heartbeats == 0 {
		t.Error("expected at least one heartbeat during payload build")
	}
}

func TestWorker_PollingOnly(t *testing.T) {
	// Без брокера воркер подхватывает QUEUED-задачи из журнала
	inv := testInvoice(1, 1)
	ledger := newMemLedger()
	job := domain.NewReportJob(1, inv.ArtifactKey())
	ledger.add(job)

	e := NewExecutor(ExecutorConfig{
		Ledger:    ledger,
		Invoices:  newMemInvoices(inv),
		Renderer:  &fakeRenderer{data: []byte("%PDF")},
		Artifacts: newMemStore(),
	})

	w := New(Config{
		Executor:     e,
		PollInterval: 10 * time.Millisecond,
		PollBatch:    10,
	})

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	deadline := time.After(500 * time.Millisecond)
	for ledger.get(job.ID).Status != domain.JobStatusCompleted {
		select {
		case <-deadline:
			t.Fatalf("job not completed by polling, status %s", ledger.get(job.ID).Status)
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}
