package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/chatpro/internal/adapters/http"
	"github.com/PabloGalante/chatpro/internal/adapters/llm"
	"github.com/PabloGalante/chatpro/internal/adapters/storage"
	"github.com/PabloGalante/chatpro/internal/app/conversation"
	"github.com/PabloGalante/chatpro/internal/observability"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and web client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
	}
}

func (a *app) runServe(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.Server.Addr, err)
	}
	return a.serve(ctx, ln)
}

// serve runs the API on ln until ctx is cancelled, then shuts down gracefully.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	cfg := a.cfg
	log := observability.WithFields(
		zap.String("storage", string(cfg.Storage.Backend)),
		zap.String("provider", string(cfg.LLM.Provider)),
	)

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		ln.Close()
		return fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("closing store", zap.Error(err))
		}
	}()
	log.Info("store ready")

	llmClient, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		ln.Close()
		return fmt.Errorf("init %s llm client: %w", cfg.LLM.Provider, err)
	}
	log.Info("llm client ready", zap.String("model", cfg.LLM.Model))

	svc := conversation.NewService(llmClient, store, conversation.WithReplyTimeout(cfg.LLM.Timeout))

	srv := &http.Server{
		Handler:           httpadapter.NewServer(svc, httpadapter.Options{CORSOrigins: cfg.Server.CORSOrigins}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("chatpro API listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
