package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/deckedit/internal/api"
	"github.com/dgallion1/deckedit/internal/decks"
	"github.com/dgallion1/deckedit/internal/edit"
	"github.com/dgallion1/deckedit/internal/journal"
	"github.com/dgallion1/deckedit/internal/notify"
	"github.com/dgallion1/deckedit/internal/pipeline"
	"github.com/dgallion1/deckedit/internal/render"
	"github.com/dgallion1/deckedit/internal/translate"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return serve(opts)
		},
	}
}

func serve(opts *rootOptions) error {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage.
	store, err := decks.NewStore(cfg.DataDir)
	if err != nil {
		return err
	}
	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer j.Close()

	// Initialize clients.
	claude := translate.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	hub := notify.NewHub(log)
	renderer := render.NewRenderer(cfg.SofficePath, cfg.RenderTimeout, log).WithRasterizer(cfg.PdftoppmPath)
	if !renderer.Available() {
		log.Warn("soffice not found, previews disabled", "path", cfg.SofficePath)
	}

	// Initialize pipeline.
	editor := pipeline.NewEditor(edit.NewEngine(log), store, j, hub, log)
	orch := pipeline.NewOrchestrator(cfg, claude, editor, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Decks:        store,
		Editor:       editor,
		Orchestrator: orch,
		History:      j,
		Hub:          hub,
		Renderer:     renderer,
		Claude:       claude,
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RenderTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		claude.Close()
	}()

	log.Info("starting deckedit", "port", cfg.Port, "data_dir", cfg.DataDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	<-done
	return nil
}
