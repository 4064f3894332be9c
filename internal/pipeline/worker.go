package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/notepress/internal/chunker"
	"github.com/dgallion1/notepress/internal/graph"
	"github.com/dgallion1/notepress/internal/render"
	"github.com/dgallion1/notepress/internal/source"
)

// Worker publishes a single record job end to end.
type Worker struct {
	publisher *Publisher
	sectionID string
	layout    render.Layout
	ceiling   int
	log       *slog.Logger
}

func NewWorker(publisher *Publisher, sectionID string, layout render.Layout, ceiling int, log *slog.Logger) *Worker {
	if ceiling <= 0 {
		ceiling = chunker.DefaultCeiling
	}
	return &Worker{
		publisher: publisher,
		sectionID: sectionID,
		layout:    layout,
		ceiling:   ceiling,
		log:       log,
	}
}

// Process runs the full publish pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	reader, err := source.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	rec, err := reader.Read(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Walk and render
	job.SetStatus(StatusRendering, "rendering")
	payload := BuildPayload(rec, w.layout, 1, log)
	job.SetTitle(payload.Title)

	plan := chunker.Split(payload.Segments, w.ceiling)
	job.SetPlan(len(payload.Segments), plan.NumChunks(), payload.Unresolved)
	log.Info("payload built",
		"title", payload.Title,
		"segments", len(payload.Segments),
		"chunks", plan.NumChunks(),
		"unresolved", len(payload.Unresolved),
	)

	// Phase 3: Deliver
	job.SetStatus(StatusDelivering, "delivering")
	page, done, err := w.publisher.Publish(ctx, w.sectionID, payload)
	job.SetChunksDelivered(done)
	if err != nil {
		job.AddError(err.Error())
		if page.ID != "" {
			// The page exists but later chunks never landed.
			job.SetPage(page.ID, page.WebURL)
			job.SetStatus(StatusPartial, "delivering")
			return
		}
		var authErr *graph.AuthError
		if errors.As(err, &authErr) {
			log.Error("authentication failed, job abandoned", "error", err)
		}
		job.SetStatus(StatusFailed, "delivering")
		return
	}

	job.SetPage(page.ID, page.WebURL)
	job.SetStatus(StatusCompleted, "done")
}
