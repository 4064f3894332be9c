package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/notepress/internal/graph"
	"github.com/dgallion1/notepress/internal/record"
	"github.com/dgallion1/notepress/internal/render"
	"github.com/dgallion1/notepress/internal/richtext"
)

// requestLog captures one delivery request's shape.
type requestLog struct {
	method      string
	binaryParts int
	body        string // Presentation or Commands part content
}

// deliveryServer accepts creates and appends, recording each request.
func deliveryServer(t *testing.T, failCreate, failAppendAt int) (*httptest.Server, *[]requestLog) {
	t.Helper()
	var logged []requestLog
	appends := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			t.Fatalf("bad content type: %v", err)
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		entry := requestLog{method: r.Method}
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("read part: %v", err)
			}
			data, _ := io.ReadAll(p)
			switch p.FormName() {
			case "Presentation", "Commands":
				entry.body = string(data)
			default:
				entry.binaryParts++
			}
		}
		logged = append(logged, entry)

		if r.Method == http.MethodPost {
			if failCreate != 0 {
				http.Error(w, "boom", failCreate)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"id": "page-1", "title": "T"})
			return
		}
		appends++
		if failAppendAt > 0 && appends == failAppendAt {
			http.Error(w, "boom", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	return srv, &logged
}

func testPublisher(t *testing.T, srv *httptest.Server, ceiling int) *Publisher {
	t.Helper()
	client := graph.NewClient(srv.URL, "tok",
		graph.RetryPolicy{MaxRetries: 1, DefaultRetryAfter: time.Millisecond}, nil)
	t.Cleanup(client.Close)
	return NewPublisher(client, ceiling, discardLog())
}

func discardLog() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func payloadWith(n int) PagePayload {
	var body richtext.Fragment
	body.WriteHTML("<p>text</p>")
	var segments []richtext.Segment
	for i := 0; i < n; i++ {
		anchor := fmt.Sprintf("seg-body-img-%03d", i+1)
		body.WriteSlot(anchor)
		segments = append(segments, richtext.Segment{
			AnchorID:    anchor,
			Kind:        richtext.KindImage,
			Filename:    anchor + ".png",
			ContentType: "image/png",
			Data:        []byte{byte(i)},
		})
	}
	return PagePayload{Title: "T", Body: body, Segments: segments}
}

func TestPublish_NoSegmentsSendsSingleBareCreate(t *testing.T) {
	srv, logged := deliveryServer(t, 0, 0)
	defer srv.Close()

	page, done, err := testPublisher(t, srv, 3).Publish(context.Background(), "sec-1", payloadWith(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.ID != "page-1" || done != 1 {
		t.Errorf("expected page-1 after 1 request, got %q after %d", page.ID, done)
	}
	if len(*logged) != 1 {
		t.Fatalf("expected exactly 1 request, got %d", len(*logged))
	}
	if (*logged)[0].binaryParts != 0 {
		t.Errorf("expected no binary parts, got %d", (*logged)[0].binaryParts)
	}
	if !strings.Contains((*logged)[0].body, "<p>text</p>") {
		t.Errorf("presentation missing body markup:\n%s", (*logged)[0].body)
	}
}

func TestPublish_UnderCeilingNeedsNoAppend(t *testing.T) {
	srv, logged := deliveryServer(t, 0, 0)
	defer srv.Close()

	_, done, err := testPublisher(t, srv, 5).Publish(context.Background(), "sec-1", payloadWith(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done != 1 || len(*logged) != 1 {
		t.Fatalf("expected single create, got %d requests", len(*logged))
	}
	if (*logged)[0].binaryParts != 4 {
		t.Errorf("expected 4 binary parts on creation, got %d", (*logged)[0].binaryParts)
	}
	// First-chunk segments resolve inline; their anchors carry content.
	if !strings.Contains((*logged)[0].body, "name:p1") {
		t.Errorf("first chunk not resolved into the body:\n%s", (*logged)[0].body)
	}
}

func TestPublish_SevenOverThreeIsCreatePlusTwoAppends(t *testing.T) {
	srv, logged := deliveryServer(t, 0, 0)
	defer srv.Close()

	_, done, err := testPublisher(t, srv, 3).Publish(context.Background(), "sec-1", payloadWith(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done != 3 {
		t.Errorf("expected 3 completed requests, got %d", done)
	}

	reqs := *logged
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(reqs))
	}
	wantMethods := []string{http.MethodPost, http.MethodPatch, http.MethodPatch}
	wantParts := []int{3, 3, 1}
	for i := range reqs {
		if reqs[i].method != wantMethods[i] {
			t.Errorf("request %d: expected %s, got %s", i, wantMethods[i], reqs[i].method)
		}
		if reqs[i].binaryParts != wantParts[i] {
			t.Errorf("request %d: expected %d binary parts, got %d", i, wantParts[i], reqs[i].binaryParts)
		}
	}

	// The creation body resolves only the first chunk; segments 4..7
	// stay as empty anchors for the appends to target.
	create := reqs[0].body
	if !strings.Contains(create, `<div id="seg-body-img-004" data-id="seg-body-img-004"></div>`) {
		t.Errorf("fourth anchor should be empty in the creation body:\n%s", create)
	}
	if !strings.Contains(reqs[1].body, "#seg-body-img-004") {
		t.Errorf("first append should target the fourth anchor:\n%s", reqs[1].body)
	}
	if !strings.Contains(reqs[2].body, "#seg-body-img-007") {
		t.Errorf("second append should target the seventh anchor:\n%s", reqs[2].body)
	}
}

func TestPublish_CreateFailureSendsNoAppends(t *testing.T) {
	srv, logged := deliveryServer(t, http.StatusBadRequest, 0)
	defer srv.Close()

	page, done, err := testPublisher(t, srv, 3).Publish(context.Background(), "sec-1", payloadWith(7))
	if err == nil {
		t.Fatal("expected an error")
	}
	if page.ID != "" || done != 0 {
		t.Errorf("nothing should be delivered, got page=%q done=%d", page.ID, done)
	}
	if len(*logged) != 1 {
		t.Fatalf("appends must not run after a failed create, got %d requests", len(*logged))
	}
	if !strings.Contains(err.Error(), `create page "T"`) {
		t.Errorf("error should name the failed operation: %v", err)
	}
}

func TestPublish_AppendFailureReportsPartialPage(t *testing.T) {
	srv, logged := deliveryServer(t, 0, 1)
	defer srv.Close()

	page, done, err := testPublisher(t, srv, 3).Publish(context.Background(), "sec-1", payloadWith(7))
	if err == nil {
		t.Fatal("expected an error")
	}
	if page.ID != "page-1" {
		t.Errorf("the created page must be reported, got %q", page.ID)
	}
	if done != 1 {
		t.Errorf("expected 1 completed request, got %d", done)
	}
	if len(*logged) != 2 {
		t.Errorf("delivery must stop at the failed append, got %d requests", len(*logged))
	}
	for _, want := range []string{"partial", "resubmit", "append 1 of 2"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q: %v", want, err)
		}
	}
}

func TestBuildPayload_SegmentsFollowRenderOrder(t *testing.T) {
	rec := &record.Record{
		Source: "doc1.dxl",
		Rich: []richtext.RichField{
			{Name: "Body", Nodes: []richtext.Node{
				&richtext.Paragraph{Refs: []string{"a.pdf"}},
			}},
			{Name: "Notes", Nodes: []richtext.Node{
				&richtext.Paragraph{Refs: []string{"b.pdf"}},
			}},
		},
		Attachments: []record.Attachment{
			{Filename: "a.pdf", ContentType: "application/pdf", Data: []byte("a")},
			{Filename: "b.pdf", ContentType: "application/pdf", Data: []byte("b")},
		},
	}

	// The layout reverses the record's field order; segments must follow.
	layout := render.Default()
	layout.RichFields = []string{"Notes", "Body"}

	p := BuildPayload(rec, layout, 1, discardLog())
	if len(p.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(p.Segments))
	}
	if p.Segments[0].Filename != "b.pdf" || p.Segments[1].Filename != "a.pdf" {
		t.Errorf("segments not in render order: %q, %q",
			p.Segments[0].Filename, p.Segments[1].Filename)
	}

	anchors := p.Body.Anchors()
	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors in the body, got %d", len(anchors))
	}
	for i := range anchors {
		if anchors[i] != p.Segments[i].AnchorID {
			t.Errorf("anchor %d: body has %q, segment has %q", i, anchors[i], p.Segments[i].AnchorID)
		}
	}
}

func TestBuildPayload_RepeatedFieldNamesKeepAllContent(t *testing.T) {
	rec := &record.Record{
		Source: "doc1.dxl",
		Rich: []richtext.RichField{
			{Name: "Body", Nodes: []richtext.Node{
				&richtext.Paragraph{Refs: []string{"a.pdf"}},
			}},
			{Name: "Body", Nodes: []richtext.Node{
				&richtext.Paragraph{Refs: []string{"b.pdf"}},
			}},
		},
		Attachments: []record.Attachment{
			{Filename: "a.pdf", ContentType: "application/pdf", Data: []byte("a")},
			{Filename: "b.pdf", ContentType: "application/pdf", Data: []byte("b")},
		},
	}

	p := BuildPayload(rec, render.Default(), 1, discardLog())
	if len(p.Segments) != 2 {
		t.Fatalf("expected 2 segments from two same-named fields, got %d", len(p.Segments))
	}
	if p.Segments[0].Filename != "a.pdf" || p.Segments[1].Filename != "b.pdf" {
		t.Errorf("segments = %q, %q", p.Segments[0].Filename, p.Segments[1].Filename)
	}
	if p.Segments[0].AnchorID == p.Segments[1].AnchorID {
		t.Errorf("anchors must stay unique across same-named fields, both are %q", p.Segments[0].AnchorID)
	}

	anchors := p.Body.Anchors()
	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors in the body, got %d", len(anchors))
	}
	for i := range anchors {
		if anchors[i] != p.Segments[i].AnchorID {
			t.Errorf("anchor %d: body has %q, segment has %q", i, anchors[i], p.Segments[i].AnchorID)
		}
	}
}

func TestBuildPayload_TitleFallsBackToFilename(t *testing.T) {
	rec := &record.Record{Source: "2024_export.dxl"}
	p := BuildPayload(rec, render.Default(), 1, discardLog())
	if p.Title != "2024_export" {
		t.Errorf("expected filename title, got %q", p.Title)
	}
}

func TestBuildPayload_CollectsUnresolvedAcrossFields(t *testing.T) {
	rec := &record.Record{
		Source: "doc.dxl",
		Rich: []richtext.RichField{
			{Name: "Body", Nodes: []richtext.Node{
				&richtext.Paragraph{Refs: []string{"gone.xlsx"}},
			}},
		},
	}
	p := BuildPayload(rec, render.Default(), 1, discardLog())
	if len(p.Segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(p.Segments))
	}
	if len(p.Unresolved) != 1 || p.Unresolved[0] != "gone.xlsx" {
		t.Errorf("expected unresolved [gone.xlsx], got %v", p.Unresolved)
	}
	if len(p.Body.Anchors()) != 1 {
		t.Errorf("the placeholder anchor must survive into the body")
	}
}
