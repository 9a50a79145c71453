package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fitstack/walletpay/internal/domain"
)

// State is the orchestrator's position in one checkout.
type State string

const (
	StateIdle          State = "IDLE"
	StateRequesting    State = "REQUESTING"
	StateTokenReceived State = "TOKEN_RECEIVED"
	StateCancelled     State = "CANCELLED"
	StateFailed        State = "FAILED"
	StateCompleted     State = "COMPLETED"
)

// User-facing messages. Raw provider and backend errors are only logged.
const (
	MessageProviderFailed = "We couldn't start the wallet payment. Please try again or choose another payment method."
	MessageRejected       = "Your payment was not accepted. Please try again."
	MessageUnavailable    = "We couldn't reach the store to confirm your payment. Please try again."
	MessageCompleted      = "Thank you! Your order has been placed."
)

// Outcome is the single terminal result of one activation.
type Outcome struct {
	State   State
	Ignored bool
	Result  *domain.OrderSubmissionResult
	Err     error
	Message string
}

// OutcomeFunc observes every outcome, including ignored activations.
type OutcomeFunc func(Outcome)

// RequestFunc builds a fresh payment data request for one activation.
type RequestFunc func() (domain.PaymentDataRequest, error)

// Orchestrator drives one wallet payment per activation.
// Activations while a request is in flight are no-ops.
type Orchestrator struct {
	provider  domain.WalletProvider
	build     RequestFunc
	submitter Submitter
	onOutcome OutcomeFunc
	logger    *slog.Logger

	mu      sync.Mutex
	state   State
	trigger Trigger
}

// NewOrchestrator wires the provider, request builder and submitter together.
func NewOrchestrator(provider domain.WalletProvider, build RequestFunc, submitter Submitter, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		provider:  provider,
		build:     build,
		submitter: submitter,
		logger:    logger,
		state:     StateIdle,
	}
}

// OnOutcome registers an observer.
func (o *Orchestrator) OnOutcome(fn OutcomeFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onOutcome = fn
}

// AttachTrigger gives the orchestrator control of the trigger's enabled state.
func (o *Orchestrator) AttachTrigger(t Trigger) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.trigger = t
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Activate runs the payment data flow once and returns its outcome.
func (o *Orchestrator) Activate(ctx context.Context) Outcome {
	if !o.begin() {
		current := o.State()
		o.logger.Debug("activation ignored", "state", current)
		return o.emit(Outcome{State: current, Ignored: true})
	}

	req, err := o.build()
	if err != nil {
		o.logger.Error("payment data request could not be built", "error", err)
		return o.finish(StateIdle, Outcome{State: StateFailed, Err: err, Message: MessageProviderFailed})
	}

	data, err := o.loadPaymentData(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrUserCancelled) {
			o.logger.Info("wallet sheet dismissed by user")
			return o.finish(StateIdle, Outcome{State: StateCancelled, Err: domain.ErrUserCancelled})
		}
		o.logger.Error("wallet payment data request failed", "error", err)
		return o.finish(StateIdle, Outcome{State: StateFailed, Err: domain.Classify(err), Message: MessageProviderFailed})
	}
	if data.Token().Empty() {
		o.logger.Error("wallet returned no payment token")
		return o.finish(StateIdle, Outcome{State: StateFailed, Err: domain.ErrProvider, Message: MessageProviderFailed})
	}

	o.setState(StateTokenReceived)
	o.logger.Info("payment token received", "token", data.Token(), "network", data.PaymentMethodData.Info.CardNetwork)

	result, err := o.submitter.Submit(ctx, Submission{PaymentData: data, TransactionInfo: req.TransactionInfo})
	if err != nil {
		class := domain.Classify(err)
		message := MessageUnavailable
		if class == domain.ErrBackendRejection {
			message = MessageRejected
		}
		o.logger.Error("order submission failed", "error", err, "class", class)
		return o.finish(StateIdle, Outcome{State: StateFailed, Err: err, Message: message})
	}

	return o.finish(StateCompleted, Outcome{State: StateTokenReceived, Result: result, Message: MessageCompleted})
}

// begin moves IDLE to REQUESTING and locks the trigger.
func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle {
		return false
	}
	o.state = StateRequesting
	if o.trigger != nil {
		o.trigger.SetEnabled(false)
	}
	return true
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = s
}

// finish settles the resting state, releases the trigger and emits the outcome.
func (o *Orchestrator) finish(rest State, out Outcome) Outcome {
	o.mu.Lock()
	o.state = rest
	if o.trigger != nil && rest == StateIdle {
		o.trigger.SetEnabled(true)
	}
	o.mu.Unlock()
	return o.emit(out)
}

func (o *Orchestrator) emit(out Outcome) Outcome {
	o.mu.Lock()
	fn := o.onOutcome
	o.mu.Unlock()
	if fn != nil {
		fn(out)
	}
	return out
}

func (o *Orchestrator) loadPaymentData(ctx context.Context, req domain.PaymentDataRequest) (data domain.PaymentData, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: provider panic: %v", domain.ErrProvider, r)
		}
	}()
	return o.provider.LoadPaymentData(ctx, req)
}
