package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/salesdesk-backend/internal/adapter/attachment"
	"github.com/heartmarshall/salesdesk-backend/internal/auth"
	"github.com/heartmarshall/salesdesk-backend/internal/config"
	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/mirror"
	"github.com/heartmarshall/salesdesk-backend/internal/service/quote"
	"github.com/heartmarshall/salesdesk-backend/internal/service/sale"
	"github.com/heartmarshall/salesdesk-backend/internal/service/settings"
)

type attachmentRemover interface {
	Remove(ctx context.Context, path string) error
}

// Services holds the mirrors and services built on top of one store.
type Services struct {
	Quotes   *quote.Service
	Sales    *sale.Service
	Settings *settings.Service

	quoteMirror    *mirror.Collection[domain.Quote]
	saleMirror     *mirror.Collection[domain.Sale]
	settingsMirror *mirror.Document[domain.Settings]
}

// NewServices starts the shared mirrors (all quotes, all sales, the
// follow-up settings document) and builds the services over them.
// attachments may be nil.
func NewServices(store docstore.Store, attachments attachmentRemover, cfg config.FollowUpConfig, log *slog.Logger) *Services {
	s := &Services{
		quoteMirror:    mirror.NewCollection(store, quote.Decode),
		saleMirror:     mirror.NewCollection(store, sale.Decode),
		settingsMirror: mirror.NewDocument(store, settings.Decode),
	}

	quotes := docstore.CollectionQuery(domain.CollectionQuotes)
	s.quoteMirror.SetQuery(&quotes)
	sales := docstore.CollectionQuery(domain.CollectionSales)
	s.saleMirror.SetQuery(&sales)
	ref := settings.Ref
	s.settingsMirror.SetRef(&ref)

	s.Settings = settings.NewService(log, store, s.settingsMirror, cfg.Settings())
	s.Quotes = quote.NewService(log, store, s.quoteMirror, attachments, s.Settings, cfg.Location)
	s.Sales = sale.NewService(log, store, s.saleMirror, attachments)
	return s
}

// Close cancels the mirror subscriptions.
func (s *Services) Close() {
	s.quoteMirror.Close()
	s.saleMirror.Close()
	s.settingsMirror.Close()
}

// mirrorHealth reports a mirror as down while its push channel is failing.
func (s *Services) mirrorHealth() map[string]func() error {
	return map[string]func() error{
		"mirror.quotes":   func() error { return s.quoteMirror.State().Err },
		"mirror.sales":    func() error { return s.saleMirror.State().Err },
		"mirror.settings": func() error { return s.settingsMirror.State().Err },
	}
}

// Run is the application entry point. It loads configuration, opens the
// store backend, starts the mirrors, the change listener and the HTTP
// server, and shuts everything down when ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("timezone", cfg.FollowUp.Timezone),
	)

	backend, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.Store.Backend, err)
	}
	defer backend.Close()

	var attachments attachmentRemover
	if cfg.Storage.Enabled() {
		store, err := attachment.New(cfg.Storage, logger)
		if err != nil {
			return fmt.Errorf("attachment storage: %w", err)
		}
		attachments = store
	} else {
		logger.Info("attachment storage disabled")
	}

	services := NewServices(backend.Store, attachments, cfg.FollowUp, logger)
	defer services.Close()

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	router, stopRouter := NewRouter(RouterDeps{
		Config:   cfg,
		Services: services,
		Store:    backend.Store,
		Health:   backend.Health,
		Tokens:   jwtManager,
		Logger:   logger,
	})
	defer stopRouter()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	if backend.Listen != nil {
		g.Go(func() error {
			return backend.Listen(gctx)
		})
	}

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("application stopped")
	return nil
}
