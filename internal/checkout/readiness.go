// Package checkout implements the client side of a wallet payment: readiness,
// trigger presentation, payment data requests and order submission.
package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fitstack/walletpay/internal/domain"
)

// ReadinessChecker asks the wallet provider whether the user can pay with it.
type ReadinessChecker struct {
	provider domain.WalletProvider
	config   domain.WalletConfiguration
	logger   *slog.Logger
}

// NewReadinessChecker creates a checker for the given accepted methods.
func NewReadinessChecker(provider domain.WalletProvider, config domain.WalletConfiguration, logger *slog.Logger) *ReadinessChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadinessChecker{
		provider: provider,
		config:   config.Clone(),
		logger:   logger,
	}
}

// Check returns true only when the provider positively confirms readiness.
// Provider failures are folded into false and returned as ErrReadiness for the
// caller's records; they never propagate as panics.
func (c *ReadinessChecker) Check(ctx context.Context) (ready bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("wallet readiness check panicked", "panic", r)
			ready = false
			err = domain.NewPaymentError(domain.ErrReadiness, fmt.Sprintf("provider panic: %v", r), "READINESS_ERROR")
		}
	}()

	resp, err := c.provider.IsReadyToPay(ctx, domain.IsReadyToPayRequest{WalletConfiguration: c.config.Clone()})
	if err != nil {
		c.logger.Warn("wallet readiness check failed, falling back", "error", err)
		return false, domain.NewPaymentError(domain.ErrReadiness, err.Error(), "READINESS_ERROR")
	}

	if !resp.Result {
		c.logger.Info("wallet not available for this user")
	}
	return resp.Result, nil
}
