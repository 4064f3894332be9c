package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"

	"github.com/dgallion1/notepress/internal/richtext"
)

// Page identifies a created page.
type Page struct {
	ID     string
	Title  string
	WebURL string
}

// CreatePage posts one multipart request: the Presentation markup part
// (a complete XHTML document; first-chunk binaries already resolved to
// name:<part> embeds by the caller) plus the chunk's binary parts.
// Placeholders for segments outside the first chunk stay in the body
// untouched, waiting for appends.
func (c *Client) CreatePage(ctx context.Context, sectionID, title, bodyHTML string, parts []Part) (Page, error) {
	reqURL := fmt.Sprintf("%s/me/onenote/sections/%s/pages", c.baseURL, url.PathEscape(sectionID))

	xhtml := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body>
%s
</body>
</html>`, html.EscapeString(title), bodyHTML)

	all := make([]Part, 0, len(parts)+1)
	all = append(all, Part{
		Name:        "Presentation",
		Filename:    "presentation.html",
		ContentType: "text/html",
		Data:        []byte(xhtml),
	})
	all = append(all, parts...)

	_, body, err := c.doMultipart(ctx, http.MethodPost, reqURL, all)
	if err != nil {
		return Page{}, fmt.Errorf("create page: %w", err)
	}

	var resp struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Links struct {
			OneNoteWebURL struct {
				HRef string `json:"href"`
			} `json:"oneNoteWebUrl"`
		} `json:"links"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, fmt.Errorf("decode create response: %w", err)
	}
	if resp.ID == "" {
		return Page{}, fmt.Errorf("create page: response carries no page id")
	}
	return Page{ID: resp.ID, Title: resp.Title, WebURL: resp.Links.OneNoteWebURL.HRef}, nil
}

// appendCommand is one entry of the structured-command part: append
// embed markup after the anchor the creation step preserved verbatim.
type appendCommand struct {
	Target  string `json:"target"`
	Action  string `json:"action"`
	Content string `json:"content"`
}

// AppendSegments patches one chunk onto an existing page: a Commands
// JSON part with one append-after-anchor command per segment, in chunk
// order, plus the chunk's binary parts.
func (c *Client) AppendSegments(ctx context.Context, pageID string, segments []richtext.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	reqURL := fmt.Sprintf("%s/me/onenote/pages/%s/content", c.baseURL, url.PathEscape(pageID))

	parts, embeds := MaterializeChunk(segments)
	commands := make([]appendCommand, 0, len(segments))
	for _, seg := range segments {
		commands = append(commands, appendCommand{
			Target:  "#" + seg.AnchorID,
			Action:  "append",
			Content: embeds[seg.AnchorID],
		})
	}
	commandsJSON, err := json.Marshal(commands)
	if err != nil {
		return fmt.Errorf("marshal commands: %w", err)
	}

	all := make([]Part, 0, len(parts)+1)
	all = append(all, Part{
		Name:        "Commands",
		Filename:    "commands.json",
		ContentType: "application/json",
		Data:        commandsJSON,
	})
	all = append(all, parts...)

	if _, _, err := c.doMultipart(ctx, http.MethodPatch, reqURL, all); err != nil {
		return fmt.Errorf("append segments: %w", err)
	}
	return nil
}

// MaterializeChunk assigns request-local part names (p1..pN) to a
// chunk and returns the binary parts together with the embed markup
// for each segment, keyed by anchor id.
func MaterializeChunk(segments []richtext.Segment) ([]Part, map[string]string) {
	parts := make([]Part, 0, len(segments))
	embeds := make(map[string]string, len(segments))
	for i, seg := range segments {
		name := fmt.Sprintf("p%d", i+1)
		parts = append(parts, Part{
			Name:        name,
			Filename:    seg.Filename,
			ContentType: seg.ContentType,
			Data:        seg.Data,
		})
		embeds[seg.AnchorID] = EmbedHTML(seg, name)
	}
	return parts, embeds
}

// EmbedHTML renders the markup that places one segment's binary,
// referencing the request-local part by the name:<part> scheme.
func EmbedHTML(seg richtext.Segment, partName string) string {
	pn := html.EscapeString(partName)
	if seg.Kind == richtext.KindImage {
		style := "max-width:100%;"
		if seg.Width > 0 {
			style += fmt.Sprintf(" width:%dpx;", seg.Width)
		}
		if seg.Height > 0 {
			style += fmt.Sprintf(" height:%dpx;", seg.Height)
		}
		return fmt.Sprintf("<div style='margin:8px 0;'><img src='name:%s' style='%s'/></div>", pn, style)
	}

	fn := html.EscapeString(seg.Filename)
	mt := html.EscapeString(seg.ContentType)
	if mt == "" {
		mt = "application/octet-stream"
	}
	return fmt.Sprintf(
		"<div style='margin:8px 0; padding:10px; border:1px solid #e3e3e3; border-radius:10px; background:#fff;'>"+
			"<object data='name:%s' data-attachment='%s' type='%s'></object></div>", pn, fn, mt)
}
