package domain

import (
	"testing"
	"time"
)

func TestNewReportJob(t *testing.T) {
	job := NewReportJob(42, "report_42.pdf")

	if job.Status != JobStatusQueued {
		t.Errorf("expected QUEUED, got %s", job.Status)
	}
	if job.InvoiceID == nil || *job.InvoiceID != 42 {
		t.Error("invoice id should be set")
	}
	if job.ArtifactKey != "report_42.pdf" {
		t.Errorf("unexpected artifact key %q", job.ArtifactKey)
	}
	if job.QueuedAt.IsZero() {
		t.Error("queued_at should be set")
	}
	// Свежий heartbeat при постановке — иначе Reaper реапнет задачу,
	// которая просто долго ждёт воркера
	if job.HeartbeatAt == nil {
		t.Fatal("heartbeat_at should be set on enqueue")
	}
	if job.StartedAt != nil || job.FinishedAt != nil {
		t.Error("started_at and finished_at should be nil for a queued job")
	}
}

func TestReportJob_MarkRunning(t *testing.T) {
	job := NewReportJob(1, "report_1.pdf")
	before := *job.HeartbeatAt

	time.Sleep(time.Millisecond)
	job.MarkRunning()

	if job.Status != JobStatusRunning {
		t.Errorf("expected RUNNING, got %s", job.Status)
	}
	if job.StartedAt == nil {
		t.Fatal("started_at should be set")
	}
	if !job.HeartbeatAt.After(before) {
		t.Error("heartbeat_at should be refreshed on start")
	}
}

func TestReportJob_MarkCompleted(t *testing.T) {
	job := NewReportJob(1, "report_1.pdf")
	job.MarkRunning()
	job.MarkCompleted(1024, "/tmp/report_1.pdf")

	if job.Status != JobStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", job.Status)
	}
	if job.FinishedAt == nil {
		t.Fatal("finished_at should be set")
	}
	if job.ArtifactSize == nil || *job.ArtifactSize != 1024 {
		t.Error("artifact size should be recorded")
	}
	if job.ArtifactLocation != "/tmp/report_1.pdf" {
		t.Errorf("unexpected artifact location %q", job.ArtifactLocation)
	}
	if job.DurationSeconds == nil {
		t.Fatal("duration should be computed")
	}
	if *job.DurationSeconds < 0 {
		t.Errorf("duration should be non-negative, got %f", *job.DurationSeconds)
	}
	if !job.IsFinished() {
		t.Error("completed job should be finished")
	}
}

func TestReportJob_MarkFailed(t *testing.T) {
	job := NewReportJob(1, "report_1.pdf")
	job.MarkRunning()
	job.MarkFailed("render: boom")

	if job.Status != JobStatusFailed {
		t.Errorf("expected FAILED, got %s", job.Status)
	}
	if job.Error != "render: boom" {
		t.Errorf("unexpected error text %q", job.Error)
	}
	if job.DurationSeconds == nil {
		t.Error("duration should be computed for a started job")
	}
	if !job.IsFinished() {
		t.Error("failed job should be finished")
	}
}

func TestReportJob_MarkFailed_BeforeStart(t *testing.T) {
	// Провал до старта (инвойс не найден): started_at нет — duration не считается
	job := NewReportJob(1, "report_1.pdf")
	job.MarkFailed("invoice 1 not found")

	if job.Status != JobStatusFailed {
		t.Errorf("expected FAILED, got %s", job.Status)
	}
	if job.DurationSeconds != nil {
		t.Error("duration should not be set for a job that never started")
	}
	if job.Duration() != 0 {
		t.Error("Duration() should be zero for a job that never started")
	}
}

func TestReportJob_Touch(t *testing.T) {
	job := NewReportJob(1, "report_1.pdf")
	job.MarkRunning()
	before := *job.HeartbeatAt

	time.Sleep(time.Millisecond)
	job.Touch()

	if !job.HeartbeatAt.After(before) {
		t.Error("Touch should advance heartbeat_at")
	}
	if job.Status != JobStatusRunning {
		t.Error("Touch should not change status")
	}
}

func TestJobStatus_Transitions(t *testing.T) {
	cases := []struct {
		status   JobStatus
		terminal bool
		active   bool
	}{
		{JobStatusQueued, false, true},
		{JobStatusRunning, false, true},
		{JobStatusCompleted, true, false},
		{JobStatusFailed, true, false},
	}

	for _, tc := range cases {
		if tc.status.IsTerminal() != tc.terminal {
			t.Errorf("%s: IsTerminal should be %v", tc.status, tc.terminal)
		}
		if tc.status.IsActive() != tc.active {
			t.Errorf("%s: IsActive should be %v", tc.status, tc.active)
		}
	}
}
