// Command publish delivers a directory of exported records to a
// notebook section, one page per file, in sorted filename order.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/dgallion1/notepress/internal/config"
	"github.com/dgallion1/notepress/internal/graph"
	"github.com/dgallion1/notepress/internal/pipeline"
	"github.com/dgallion1/notepress/internal/render"
	"github.com/dgallion1/notepress/internal/source"
)

func main() {
	var (
		dir   = flag.String("dir", ".", "directory of export files to publish")
		purge = flag.Bool("purge", false, "delete every page in the section and exit")
		limit = flag.Int("limit", 0, "publish at most N files (0 means all)")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if cfg.GraphAccessToken == "" {
		log.Error("GRAPH_ACCESS_TOKEN is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := graph.NewClient(cfg.GraphBaseURL, cfg.GraphAccessToken, graph.RetryPolicy{
		MaxRetries:        cfg.MaxRetries,
		DefaultRetryAfter: cfg.DefaultRetryAfter,
	}, log)
	defer client.Close()

	notebookID, err := client.FindNotebook(ctx, cfg.NotebookName)
	if err != nil {
		log.Error("notebook lookup failed", "notebook", cfg.NotebookName, "error", err)
		os.Exit(1)
	}
	sectionID, err := client.FindSection(ctx, notebookID, cfg.SectionName)
	if err != nil {
		log.Error("section lookup failed", "section", cfg.SectionName, "error", err)
		os.Exit(1)
	}

	if *purge {
		deleted, err := client.DeleteAllPages(ctx, sectionID, cfg.Throttle)
		if err != nil {
			log.Error("purge failed", "deleted", deleted, "error", err)
			os.Exit(1)
		}
		log.Info("section purged", "deleted", deleted)
		return
	}

	files, err := listExports(*dir)
	if err != nil {
		log.Error("scan failed", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if *limit > 0 && len(files) > *limit {
		files = files[:*limit]
	}
	if len(files) == 0 {
		log.Info("nothing to publish", "dir", *dir)
		return
	}

	layout := render.Default()
	layout.TitleFields = cfg.TitleFields
	layout.RichFields = cfg.RichFields

	publisher := pipeline.NewPublisher(client, cfg.BinaryPartCeiling, log)

	published, failed := 0, 0
	for i, path := range files {
		rowNo := i + 1
		if err := publishFile(ctx, publisher, sectionID, layout, path, rowNo, log); err != nil {
			failed++
			log.Error("publish failed", "file", filepath.Base(path), "row", rowNo, "error", err)
			var authErr *graph.AuthError
			if errors.As(err, &authErr) {
				// The token is dead; every remaining record would fail
				// the same way.
				break
			}
		} else {
			published++
		}

		if rowNo < len(files) && cfg.Throttle > 0 {
			select {
			case <-time.After(cfg.Throttle):
			case <-ctx.Done():
				log.Error("interrupted", "published", published, "failed", failed)
				os.Exit(1)
			}
		}
	}

	log.Info("batch complete",
		"published", published, "failed", failed, "total", len(files))
	if failed > 0 {
		os.Exit(1)
	}
}

func publishFile(ctx context.Context, publisher *pipeline.Publisher, sectionID string, layout render.Layout, path string, rowNo int, log *slog.Logger) error {
	reader, err := source.ForFile(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	rec, err := reader.Read(f, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	payload := pipeline.BuildPayload(rec, layout, rowNo, log)
	page, _, err := publisher.Publish(ctx, sectionID, payload)
	if err != nil {
		return err
	}
	log.Info("published",
		"file", filepath.Base(path), "row", rowNo,
		"title", payload.Title, "page_id", page.ID)
	return nil
}

// listExports returns the supported files directly under dir, sorted
// by name so batch order is reproducible.
func listExports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !source.IsSupportedExtension(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
