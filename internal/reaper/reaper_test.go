package reaper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeLedger struct {
	reaped  []uuid.UUID
	cutoffs []time.Time
	err     error
}

func (f *fakeLedger) ReapStale(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	if f.err != nil {
		return nil, f.err
	}
	return f.reaped, nil
}

func TestSweep_ReapsStaleJobs(t *testing.T) {
	ledger := &fakeLedger{reaped: []uuid.UUID{uuid.New(), uuid.New()}}
	r := New(Config{Ledger: ledger, StaleAfter: 5 * time.Minute})

	n, err := r.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 reaped, got %d", n)
	}

	// Cutoff = now - staleAfter, с небольшим допуском на время теста
	want := time.Now().Add(-5 * time.Minute)
	got := ledger.cutoffs[0]
	if got.Before(want.Add(-time.Second)) || got.After(want.Add(time.Second)) {
		t.Errorf("cutoff %s too far from %s", got, want)
	}
}

func TestSweep_NothingStale(t *testing.T) {
	ledger := &fakeLedger{}
	r := New(Config{Ledger: ledger})

	n, err := r.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 reaped, got %d", n)
	}
}

func TestSweep_Idempotent(t *testing.T) {
	// Повторный проход по уже реапнутым задачам ничего не находит:
	// ReapStale трогает только RUNNING-строки
	ledger := &fakeLedger{reaped: []uuid.UUID{uuid.New()}}
	r := New(Config{Ledger: ledger, StaleAfter: time.Minute})

	if _, err := r.Sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ledger.reaped = nil
	n, err := r.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("second sweep should find nothing, got %d", n)
	}
}

func TestSweep_LedgerError(t *testing.T) {
	ledger := &fakeLedger{err: errors.New("connection refused")}
	r := New(Config{Ledger: ledger})

	if _, err := r.Sweep(context.Background()); err == nil {
		t.Error("expected error from ledger")
	}
}

func TestNew_DefaultStaleAfter(t *testing.T) {
	r := New(Config{Ledger: &fakeLedger{}})

	if r.staleAfter != defaultStaleAfter {
		t.Errorf("expected default stale threshold, got %s", r.staleAfter)
	}
}
