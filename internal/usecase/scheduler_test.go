package usecase

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// manualScheduler hands the registered job back to the test instead of
// running a timer loop.
type manualScheduler struct {
	job     func(time.Time)
	stopped bool
}

func (m *manualScheduler) NextDue(now time.Time) time.Time { return now.Add(time.Hour) }

func (m *manualScheduler) Start(_ context.Context, job func(time.Time)) error {
	m.job = job
	return nil
}

func (m *manualScheduler) Stop(context.Context) error {
	m.stopped = true
	return nil
}

func TestRunnerTriggersBatchThenGate(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepository(
		rawArticle(1, "Critical exploit advisory", "urgent patch for CVE-2024-1111 under active exploitation"),
	)
	transport := &recordingTransport{}

	var logs bytes.Buffer
	driver := &manualScheduler{}
	runner := NewRunner(
		driver,
		NewPipeline(PipelineDeps{Repository: repo}),
		NewAlertGate(AlertGateDeps{Repository: repo, Transport: transport, Recipients: []string{"ops@example.com"}}),
		slog.New(slog.NewTextHandler(&logs, nil)),
	)

	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if driver.job == nil {
		t.Fatalf("runner did not register a job")
	}

	driver.job(time.Now())

	if len(repo.processed) != 1 {
		t.Fatalf("trigger must process the pending article")
	}
	if len(transport.sent) != 1 {
		t.Fatalf("critical article must be dispatched in the same trigger")
	}
	if line := logs.String(); !strings.Contains(line, "persisted=1") || !strings.Contains(line, "notified=1") {
		t.Fatalf("run summary must carry both batch and alert counts: %s", line)
	}

	driver.job(time.Now())
	if len(transport.sent) != 1 {
		t.Fatalf("second trigger must not re-dispatch")
	}

	if err := runner.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !driver.stopped {
		t.Fatalf("stop must reach the driver")
	}
}

func TestRunnerWithoutDriverIsNoOp(t *testing.T) {
	t.Parallel()

	runner := NewRunner(nil, nil, nil, nil)
	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := runner.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
