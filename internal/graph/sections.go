package graph

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type namedEntity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type listResponse struct {
	Value    []namedEntity `json:"value"`
	NextLink string        `json:"@odata.nextLink"`
}

// FindNotebook resolves a notebook id from its display name. Missing
// and ambiguous names are both errors: a page must never land in a
// guessed container.
func (c *Client) FindNotebook(ctx context.Context, displayName string) (string, error) {
	reqURL := c.baseURL + "/me/onenote/notebooks?" + displayNameFilter(displayName)
	var resp listResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return "", fmt.Errorf("find notebook %q: %w", displayName, err)
	}
	return onlyMatch(resp.Value, "notebook", displayName)
}

// FindSection resolves a section id by display name within a notebook.
func (c *Client) FindSection(ctx context.Context, notebookID, displayName string) (string, error) {
	reqURL := fmt.Sprintf("%s/me/onenote/notebooks/%s/sections?%s",
		c.baseURL, url.PathEscape(notebookID), displayNameFilter(displayName))
	var resp listResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return "", fmt.Errorf("find section %q: %w", displayName, err)
	}
	return onlyMatch(resp.Value, "section", displayName)
}

func displayNameFilter(displayName string) string {
	// OData string literals double embedded quotes.
	escaped := strings.ReplaceAll(displayName, "'", "''")
	q := url.Values{}
	q.Set("$filter", fmt.Sprintf("displayName eq '%s'", escaped))
	q.Set("$select", "id,displayName")
	return q.Encode()
}

func onlyMatch(items []namedEntity, kind, displayName string) (string, error) {
	switch len(items) {
	case 0:
		return "", fmt.Errorf("%s not found: %s", kind, displayName)
	case 1:
		return items[0].ID, nil
	default:
		return "", fmt.Errorf("%s name is ambiguous (%d matches): %s", kind, len(items), displayName)
	}
}

// PageRef is a page listing entry.
type PageRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListPages returns every page in a section, following result paging.
func (c *Client) ListPages(ctx context.Context, sectionID string) ([]PageRef, error) {
	reqURL := fmt.Sprintf("%s/me/onenote/sections/%s/pages?%s",
		c.baseURL, url.PathEscape(sectionID),
		url.Values{"$select": {"id,title"}, "$top": {"100"}}.Encode())

	var pages []PageRef
	for reqURL != "" {
		var resp struct {
			Value    []PageRef `json:"value"`
			NextLink string    `json:"@odata.nextLink"`
		}
		if err := c.getJSON(ctx, reqURL, &resp); err != nil {
			return nil, fmt.Errorf("list pages: %w", err)
		}
		pages = append(pages, resp.Value...)
		reqURL = resp.NextLink
	}
	return pages, nil
}

// DeletePage removes one page.
func (c *Client) DeletePage(ctx context.Context, pageID string) error {
	reqURL := fmt.Sprintf("%s/me/onenote/pages/%s", c.baseURL, url.PathEscape(pageID))
	if _, _, err := c.do(ctx, "DELETE", reqURL, "", nil); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}

// DeleteAllPages wipes a section, pausing between deletions to stay
// under the service rate limit. Returns the number of pages deleted.
func (c *Client) DeleteAllPages(ctx context.Context, sectionID string, throttle time.Duration) (int, error) {
	pages, err := c.ListPages(ctx, sectionID)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, p := range pages {
		if err := c.DeletePage(ctx, p.ID); err != nil {
			return deleted, fmt.Errorf("wipe section: page %q: %w", p.Title, err)
		}
		deleted++
		c.log.Info("deleted page", "title", p.Title, "page_id", p.ID, "deleted", deleted)
		if throttle > 0 {
			select {
			case <-time.After(throttle):
			case <-ctx.Done():
				return deleted, ctx.Err()
			}
		}
	}
	return deleted, nil
}
