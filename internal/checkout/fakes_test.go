package checkout

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/fitstack/walletpay/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfiguration() domain.WalletConfiguration {
	return domain.NewWalletConfiguration(
		domain.NewCardPaymentMethod("dlocal", "gw-merchant", []string{"VISA", "MASTERCARD"}, []string{"PAN_ONLY", "CRYPTOGRAM_3DS"}),
	)
}

func testContext() domain.CheckoutContext {
	return domain.CheckoutContext{
		OrderID:       "order-1",
		Environment:   "TEST",
		Configuration: testConfiguration(),
		MerchantInfo:  domain.MerchantInfo{MerchantID: "BCR2DN6T7P04XAJG", MerchantName: "Your Shop Name"},
		TransactionInfo: domain.TransactionInfo{
			TotalPriceStatus: domain.PriceStatusFinal,
			TotalPrice:       "1.00",
			CurrencyCode:     "EUR",
			CountryCode:      "ES",
		},
	}
}

func paymentDataWithToken(token string) domain.PaymentData {
	return domain.PaymentData{
		APIVersion:      2,
		APIVersionMinor: 0,
		PaymentMethodData: domain.PaymentMethodData{
			Type: domain.PaymentMethodCard,
			Info: domain.CardInfo{CardNetwork: "VISA", CardDetails: "1111"},
			TokenizationData: domain.TokenizationData{
				Type:  domain.TokenizationPaymentGateway,
				Token: domain.OpaquePaymentToken(token),
			},
		},
	}
}

// fakeProvider is a scriptable wallet provider.
type fakeProvider struct {
	ready    bool
	readyErr error

	data    domain.PaymentData
	loadErr error
	// gate, when set, blocks LoadPaymentData until closed.
	gate    chan struct{}
	entered chan struct{}

	readyCalls atomic.Int32
	loadCalls  atomic.Int32

	mu       sync.Mutex
	requests []domain.PaymentDataRequest
}

func (p *fakeProvider) IsReadyToPay(ctx context.Context, req domain.IsReadyToPayRequest) (domain.IsReadyToPayResponse, error) {
	p.readyCalls.Add(1)
	if p.readyErr != nil {
		return domain.IsReadyToPayResponse{}, p.readyErr
	}
	return domain.IsReadyToPayResponse{Result: p.ready}, nil
}

func (p *fakeProvider) LoadPaymentData(ctx context.Context, req domain.PaymentDataRequest) (domain.PaymentData, error) {
	p.loadCalls.Add(1)
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	if p.entered != nil {
		p.entered <- struct{}{}
	}
	if p.gate != nil {
		<-p.gate
	}
	if p.loadErr != nil {
		return domain.PaymentData{}, p.loadErr
	}
	return p.data, nil
}

// fakeTrigger records enable/disable transitions.
type fakeTrigger struct {
	mu      sync.Mutex
	enabled bool
	history []bool
	press   func()
}

func (t *fakeTrigger) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	t.history = append(t.history, enabled)
}

func (t *fakeTrigger) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// fakeRenderer counts rendered triggers.
type fakeRenderer struct {
	mu       sync.Mutex
	rendered []*fakeTrigger
	err      error
}

func (r *fakeRenderer) RenderTrigger(onActivate func()) (Trigger, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t := &fakeTrigger{enabled: true, press: onActivate}
	r.rendered = append(r.rendered, t)
	return t, nil
}

func (r *fakeRenderer) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rendered)
}

// fakeSubmitter records submissions.
type fakeSubmitter struct {
	mu          sync.Mutex
	submissions []Submission
	result      *domain.OrderSubmissionResult
	err         error
}

func (s *fakeSubmitter) Submit(ctx context.Context, sub Submission) (*domain.OrderSubmissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, sub)
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &domain.OrderSubmissionResult{Accepted: true, OrderID: "order-1", Status: domain.OrderPaid}, nil
}

func (s *fakeSubmitter) Calls() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.submissions...)
}
