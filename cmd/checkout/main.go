// Headless wallet checkout.
//
// Fetches a checkout context from the merchant backend, renders the wallet
// trigger on the terminal and, on Enter, runs the payment flow against the
// TEST wallet and posts the token to the order endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/fitstack/walletpay/config"
	"github.com/fitstack/walletpay/internal/checkout"
	"github.com/fitstack/walletpay/internal/domain"
	"github.com/fitstack/walletpay/internal/platform/console"
	"github.com/fitstack/walletpay/internal/platform/walletsim"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		fmt.Fprintln(os.Stderr, "checkout:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Checkout.PayerName == "" {
		return errors.New("CHECKOUT_PAYER_NAME is required")
	}
	backend := checkout.NewBackendClient(cfg.Checkout.BackendURL, cfg.Checkout.Timeout)

	product, err := backend.FeaturedProduct(ctx)
	if err != nil {
		return fmt.Errorf("load featured product: %w", err)
	}
	cc, err := backend.CreateCheckout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{SKU: product.SKU, Quantity: 1}},
		Country: cfg.Checkout.Country,
		Payer: &domain.Payer{
			Name:     cfg.Checkout.PayerName,
			Email:    cfg.Checkout.PayerEmail,
			Document: cfg.Checkout.PayerDocument,
		},
	})
	if err != nil {
		return fmt.Errorf("create checkout: %w", err)
	}
	fmt.Printf("%s  %s %s\n", product.Name, cc.TransactionInfo.TotalPrice, cc.TransactionInfo.CurrencyCode)

	provider := walletsim.New()
	renderer := console.NewRenderer(os.Stdin, os.Stdout, "")
	submitter := checkout.NewOrderSubmitter(checkout.SubmitterConfig{
		BackendURL: cfg.Checkout.BackendURL,
		OrderID:    cc.OrderID,
		Timeout:        cfg.Checkout.Timeout,
		MaxRetries:     cfg.Checkout.MaxRetries,
		InitialBackoff: cfg.Checkout.InitialBackoff,
		MaxBackoff:     cfg.Checkout.MaxBackoff,
	}, logger)

	var done atomic.Bool
	session, err := checkout.NewSession(provider, checkout.SessionConfig{
		Context:   *cc,
		Renderer:  renderer,
		Submitter: submitter,
		Fallback: func() {
			fmt.Println("Google Pay is not available. Please choose another payment method.")
		},
		OnOutcome: func(out checkout.Outcome) {
			if out.Ignored {
				return
			}
			switch out.State {
			case checkout.StateTokenReceived:
				fmt.Printf("%s (order %s, status %s)\n", out.Message, out.Result.OrderID, out.Result.Status)
				done.Store(true)
			case checkout.StateCancelled:
				fmt.Println("Payment cancelled.")
			default:
				fmt.Println(out.Message)
			}
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	ready, err := session.Start(ctx)
	if err != nil {
		return err
	}
	if !ready {
		return nil
	}

	return renderer.Run(ctx, done.Load)
}
