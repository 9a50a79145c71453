// Walletpay merchant backend.
//
// Serves checkout contexts for the wallet button, receives wallet tokens on the
// order endpoint, charges them through the configured gateway and applies
// gateway notifications.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fitstack/walletpay/config"
	"github.com/fitstack/walletpay/internal/api"
	"github.com/fitstack/walletpay/internal/domain"
	"github.com/fitstack/walletpay/internal/payment"
	"github.com/fitstack/walletpay/internal/platform/database"
	"github.com/fitstack/walletpay/internal/platform/dlocal"
	"github.com/fitstack/walletpay/internal/platform/memstore"
	"github.com/fitstack/walletpay/internal/platform/mercadopago"
	"github.com/fitstack/walletpay/internal/platform/redisstore"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// demoCatalog seeds an empty catalog.
var demoCatalog = []domain.Product{
	{SKU: "gpay-demo", Name: "Demo product", UnitPrice: decimal.RequireFromString("1.00"), Currency: "EUR"},
	{SKU: "gpay-tee", Name: "Walletpay T-shirt", UnitPrice: decimal.RequireFromString("12.50"), Currency: "EUR"},
	{SKU: "gpay-mug", Name: "Walletpay mug", UnitPrice: decimal.RequireFromString("7.90"), Currency: "EUR"},
}

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.Server.GinMode)
	slog.SetDefault(logger)

	logger.Info("starting walletpay backend",
		"port", cfg.Server.Port, "gateway", cfg.GatewayName(), "environment", cfg.Wallet.Environment)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Infrastructure Layer
	var (
		catalog domain.ProductCatalog
		orders  domain.OrderRepository
		local   = memstore.New(demoCatalog...)
	)
	if cfg.Database.DSN != "" {
		db, err := database.Open(cfg.Database.DSN)
		if err != nil {
			return err
		}
		repo := database.NewRepository(db)
		if err := repo.SeedProducts(ctx, demoCatalog); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		catalog, orders = repo, repo
		logger.Info("using postgres for catalog and orders")
	} else {
		catalog, orders = local, local
		logger.Warn("DATABASE_URL not set, orders are kept in memory")
	}

	var (
		tokens      domain.TokenRegistry    = local
		idempotency domain.IdempotencyStore = local
	)
	if cfg.Redis.Addr != "" {
		client, err := redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		store := redisstore.New(client)
		tokens, idempotency = store, store
		logger.Info("using redis for token claims and idempotency", "addr", cfg.Redis.Addr)
	} else {
		logger.Warn("REDIS_URL not set, token claims are kept in memory")
	}

	gateway, verifiers, err := newGateways(cfg)
	if err != nil {
		return err
	}

	// Service Layer
	paymentService := payment.NewService(payment.Dependencies{
		Catalog:     catalog,
		Orders:      orders,
		Gateway:     gateway,
		Verifiers:   verifiers,
		Tokens:      tokens,
		Idempotency: idempotency,
	}, payment.Settings{
		Environment: cfg.Wallet.Environment,
		Merchant: domain.MerchantInfo{
			MerchantID:   cfg.Wallet.MerchantID,
			MerchantName: cfg.Wallet.MerchantName,
		},
		Wallet: domain.NewWalletConfiguration(domain.NewCardPaymentMethod(
			gateway.Name(), cfg.Wallet.GatewayMerchantID, cfg.Wallet.Networks, cfg.Wallet.AuthMethods,
		)),
		NotificationURL: cfg.NotificationURL(),
	}, logger)

	// API Layer
	handler := api.NewHandler(paymentService, gateway.Name(), logger)
	router := api.SetupRouter(handler, cfg.Server.GinMode, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newGateways builds the charging gateway and a verifier for every gateway
// that has credentials, so late notifications are still accepted after a switch.
func newGateways(cfg *config.Config) (domain.PaymentGateway, map[string]domain.NotificationVerifier, error) {
	verifiers := make(map[string]domain.NotificationVerifier)

	var dl *dlocal.Client
	if cfg.Gateway.DLocal.Configured() {
		dl = dlocal.NewClient(dlocal.Config{
			BaseURL:   cfg.Gateway.DLocal.BaseURL,
			Login:     cfg.Gateway.DLocal.Login,
			TransKey:  cfg.Gateway.DLocal.TransKey,
			SecretKey: cfg.Gateway.DLocal.SecretKey,
			Timeout:   cfg.Gateway.DLocal.Timeout,
		})
		verifiers[dlocal.GatewayName] = dl
	}

	var mp *mercadopago.Adapter
	if cfg.Gateway.MercadoPago.Configured() {
		var err error
		mp, err = mercadopago.NewAdapter(mercadopago.Config{
			AccessToken:   cfg.Gateway.MercadoPago.AccessToken,
			WebhookSecret: cfg.Gateway.MercadoPago.WebhookSecret,
		})
		if err != nil {
			return nil, nil, err
		}
		verifiers[mercadopago.GatewayName] = mp
	}

	switch cfg.Gateway.Provider {
	case config.ProviderMercadoPago:
		if mp == nil {
			return nil, nil, errors.New("mercadopago is not configured")
		}
		return mp, verifiers, nil
	default:
		if dl == nil {
			return nil, nil, errors.New("dlocal is not configured")
		}
		return dl, verifiers, nil
	}
}

func newLogger(ginMode string) *slog.Logger {
	if ginMode == gin.ReleaseMode {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
