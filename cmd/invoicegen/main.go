package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/elitepdf/invoicegen/internal/app"
	"github.com/elitepdf/invoicegen/internal/editor"
	"github.com/elitepdf/invoicegen/internal/invoice"
	"github.com/elitepdf/invoicegen/internal/render"
	"github.com/elitepdf/invoicegen/internal/shared"
	"github.com/elitepdf/invoicegen/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	taxRate, err := cfg.TaxRate()
	if err != nil {
		logger.Error("parse tax rate", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "invoicegen_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	var renderer render.Renderer = render.NewFPDF()
	if cfg.Renderer == "gotenberg" {
		gotenberg := render.NewGotenberg(cfg.GotenbergURL)
		if err := gotenberg.Ping(ctx); err != nil {
			logger.Warn("gotenberg ping", slog.Any("error", err))
		}
		renderer = gotenberg
	}

	seed := editor.Seed{
		Seller: invoice.PartyInfo{
			Name:         cfg.SellerName,
			AddressLines: cfg.SellerAddress,
			TaxID:        cfg.SellerTaxID,
			Contact:      cfg.SellerContact,
		},
		TaxRate: taxRate,
	}
	bank := invoice.BankDetails{
		AccountName:   cfg.BankAccountName,
		AccountNumber: cfg.BankAccountNumber,
		BankName:      cfg.BankName,
		IFSC:          cfg.BankIFSC,
	}
	if bank.HasData() {
		seed.Bank = &bank
	}

	editorHandler := editor.NewHandler(logger, templates, csrfManager, renderer, editor.Config{
		Seed:           seed,
		Title:          cfg.InvoiceTitle,
		CurrencySymbol: cfg.InvoiceCurrency,
		Page:           render.DefaultPage,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		EditorHandler:  editorHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
