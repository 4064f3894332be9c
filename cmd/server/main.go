package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/notepress/internal/api"
	"github.com/dgallion1/notepress/internal/config"
	"github.com/dgallion1/notepress/internal/graph"
	"github.com/dgallion1/notepress/internal/pipeline"
	"github.com/dgallion1/notepress/internal/render"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := graph.NewClient(cfg.GraphBaseURL, cfg.GraphAccessToken, graph.RetryPolicy{
		MaxRetries:        cfg.MaxRetries,
		DefaultRetryAfter: cfg.DefaultRetryAfter,
	}, log)

	// Resolve the destination once at startup. A bad notebook or
	// section name should fail here, not on the first job.
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
	log.Info("destination resolved",
		"notebook", cfg.NotebookName, "section", cfg.SectionName, "section_id", sectionID)

	layout := render.Default()
	layout.TitleFields = cfg.TitleFields
	layout.RichFields = cfg.RichFields

	orch := pipeline.NewOrchestrator(cfg, client, sectionID, layout, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Stop accepting requests before draining the pipeline, so
		// no handler submits into a closing queue.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		client.Close()
	}()

	log.Info("starting notepress", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
