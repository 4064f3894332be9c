// Package pipeline turns parsed records into delivered pages: walk the
// rich fields, compose the body, split segments under the binary-part
// ceiling, then create the page and append the remaining chunks.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/notepress/internal/chunker"
	"github.com/dgallion1/notepress/internal/graph"
	"github.com/dgallion1/notepress/internal/record"
	"github.com/dgallion1/notepress/internal/render"
	"github.com/dgallion1/notepress/internal/richtext"
)

// PagePayload is one record prepared for delivery: the composed body
// fragment plus every segment from every rich field, in body order.
type PagePayload struct {
	Title       string
	Body        richtext.Fragment
	Segments    []richtext.Segment
	Unresolved  []string
	Unsupported []string
}

// BuildPayload walks each rich field and composes the page body. Rich
// fields are walked in render order, so the combined segment list
// matches the order their anchors appear in the body. One Walker spans
// the whole record: each field is walked exactly once, and anchors
// never collide even across same-named or same-slugged fields.
func BuildPayload(rec *record.Record, layout render.Layout, rowNo int, log *slog.Logger) PagePayload {
	resolve := rec.Resolver()
	walker := richtext.NewWalker()

	p := PagePayload{Title: render.Title(rec, layout)}
	var sections []render.RichSection
	for _, i := range render.RichFieldOrder(rec, layout) {
		f := rec.Rich[i]
		res := walker.Walk(f.Name, f.Nodes, resolve)
		sections = append(sections, render.RichSection{Name: f.Name, Body: res.Body})
		p.Segments = append(p.Segments, res.Segments...)
		p.Unresolved = append(p.Unresolved, res.Unresolved...)
		p.Unsupported = append(p.Unsupported, res.Unsupported...)
	}
	p.Body = render.Body(rec, layout, sections, rowNo)

	for _, ref := range p.Unresolved {
		log.Warn("attachment payload missing, placeholder kept",
			"title", p.Title, "filename", ref)
	}
	for _, format := range p.Unsupported {
		log.Warn("unsupported picture encoding, marker emitted",
			"title", p.Title, "format", format)
	}
	return p
}

// Publisher delivers payloads to a section under the per-request
// binary-part ceiling.
type Publisher struct {
	client  *graph.Client
	ceiling int
	log     *slog.Logger
}

func NewPublisher(client *graph.Client, ceiling int, log *slog.Logger) *Publisher {
	if ceiling <= 0 {
		ceiling = chunker.DefaultCeiling
	}
	return &Publisher{client: client, ceiling: ceiling, log: log}
}

// Publish creates the page with the first chunk's binaries resolved
// into the body, then appends each remaining chunk in order. Returns
// the page and the number of requests completed.
//
// A creation failure delivers nothing. An append failure leaves the
// page partial: anchors past the failed chunk render empty, and the
// error says to resubmit the whole record rather than patch in place.
func (p *Publisher) Publish(ctx context.Context, sectionID string, payload PagePayload) (graph.Page, int, error) {
	plan := chunker.Split(payload.Segments, p.ceiling)

	parts, embeds := graph.MaterializeChunk(plan.First)
	bodyHTML := payload.Body.Render(embeds)

	page, err := p.client.CreatePage(ctx, sectionID, payload.Title, bodyHTML, parts)
	if err != nil {
		return graph.Page{}, 0, fmt.Errorf("create page %q: %w", payload.Title, err)
	}
	done := 1

	for i, chunk := range plan.Rest {
		if err := p.client.AppendSegments(ctx, page.ID, chunk); err != nil {
			return page, done, fmt.Errorf(
				"page %q created but append %d of %d failed, page is partial, resubmit the record: %w",
				payload.Title, i+1, len(plan.Rest), err)
		}
		done++
	}

	p.log.Info("page delivered",
		"title", payload.Title,
		"page_id", page.ID,
		"segments", len(payload.Segments),
		"chunks", plan.NumChunks(),
		"unresolved", len(payload.Unresolved),
	)
	return page, done, nil
}
