package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/dgallion1/notepress/internal/config"
	"github.com/dgallion1/notepress/internal/graph"
	"github.com/dgallion1/notepress/internal/render"
)

func testOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	cfg := config.Config{
		WorkerCount:  1,
		MaxQueueSize: 4,
		JobTTL:       time.Hour,
	}
	client := graph.NewClient("http://unused.invalid", "token", graph.DefaultRetryPolicy(), discardLog())
	return NewOrchestrator(cfg, client, "section-1", render.Default(), discardLog())
}

func TestOrchestrator_SubmitAfterStopFailsCleanly(t *testing.T) {
	o := testOrchestrator(t)
	o.Start(context.Background())
	o.Stop()

	job := &Job{ID: "late-1", Status: StatusQueued, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := o.Submit(job); err == nil {
		t.Fatal("expected an error submitting into a stopped pipeline")
	}

	got := o.GetJob("late-1")
	if got == nil {
		t.Fatal("job must still be recorded so its status is queryable")
	}
	snap := got.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("status = %q, want %q", snap.Status, StatusFailed)
	}
	if snap.Phase != "shutting_down" {
		t.Errorf("phase = %q, want shutting_down", snap.Phase)
	}
}

func TestOrchestrator_StopTwiceIsSafe(t *testing.T) {
	o := testOrchestrator(t)
	o.Start(context.Background())
	o.Stop()
	o.Stop()
}

func TestOrchestrator_SubmitFailsWhenQueueFull(t *testing.T) {
	o := testOrchestrator(t)
	// Workers never started, so the queue only drains by capacity.
	for i := range 4 {
		job := &Job{ID: ContentHashHex([]byte{byte(i)})[:8], Status: StatusQueued}
		if err := o.Submit(job); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	overflow := &Job{ID: "overflow", Status: StatusQueued}
	if err := o.Submit(overflow); err == nil {
		t.Fatal("expected queue_full error")
	}
	if snap := o.GetJob("overflow").Snapshot(); snap.Status != StatusFailed || snap.Phase != "queue_full" {
		t.Errorf("overflow job = %q/%q, want failed/queue_full", snap.Status, snap.Phase)
	}
}
