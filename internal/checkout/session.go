package checkout

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/fitstack/walletpay/internal/domain"
)

// SessionConfig holds everything one checkout needs besides the wallet client.
type SessionConfig struct {
	Context   domain.CheckoutContext
	Renderer  TriggerRenderer
	Submitter Submitter
	Fallback  func()
	OnOutcome OutcomeFunc
	Logger    *slog.Logger
}

// Session owns a wallet client for the lifetime of one checkout and wires
// readiness, presentation and the payment flow together.
type Session struct {
	readiness    *ReadinessChecker
	presenter    *ButtonPresenter
	orchestrator *Orchestrator
	logger       *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession validates the checkout context and builds the components.
func NewSession(provider domain.WalletProvider, cfg SessionConfig) (*Session, error) {
	if provider == nil {
		return nil, errors.New("wallet provider is required")
	}
	if cfg.Renderer == nil {
		return nil, errors.New("trigger renderer is required")
	}
	if cfg.Submitter == nil {
		return nil, errors.New("order submitter is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("order_id", cfg.Context.OrderID)

	builder := NewRequestBuilder(cfg.Context.Configuration)
	params := ParamsFromContext(cfg.Context)
	// Fail before any wallet call if the server context is incomplete.
	if _, err := builder.Build(params); err != nil {
		return nil, err
	}

	orchestrator := NewOrchestrator(provider, func() (domain.PaymentDataRequest, error) {
		return builder.Build(params)
	}, cfg.Submitter, logger)
	if cfg.OnOutcome != nil {
		orchestrator.OnOutcome(cfg.OnOutcome)
	}

	return &Session{
		readiness:    NewReadinessChecker(provider, cfg.Context.Configuration, logger),
		presenter:    NewButtonPresenter(cfg.Renderer, cfg.Fallback),
		orchestrator: orchestrator,
		logger:       logger,
	}, nil
}

// Start checks readiness and, when ready, renders the trigger. Activations run
// under ctx until Close is called.
func (s *Session) Start(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.ctx == nil {
		s.ctx, s.cancel = context.WithCancel(ctx)
	}
	runCtx := s.ctx
	s.mu.Unlock()

	ready, err := s.readiness.Check(runCtx)
	if err != nil {
		s.logger.Warn("wallet unavailable", "error", err)
	}

	trigger, perr := s.presenter.Present(ready, func() {
		s.orchestrator.Activate(runCtx)
	})
	if perr != nil {
		return false, perr
	}
	if trigger != nil {
		s.orchestrator.AttachTrigger(trigger)
	}
	return ready, nil
}

// Activate runs the payment flow directly, as if the trigger was pressed.
func (s *Session) Activate() Outcome {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	return s.orchestrator.Activate(ctx)
}

// State returns the orchestrator state.
func (s *Session) State() State {
	return s.orchestrator.State()
}

// Close cancels in-flight work and disables the trigger.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	if t := s.presenter.Trigger(); t != nil {
		t.SetEnabled(false)
	}
}
