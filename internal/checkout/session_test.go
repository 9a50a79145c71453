package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/fitstack/walletpay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_ReadyUserCompletesFlow(t *testing.T) {
	provider := &fakeProvider{ready: true, data: paymentDataWithToken("T1")}
	renderer := &fakeRenderer{}
	submitter := &fakeSubmitter{}
	var outcomes []Outcome

	session, err := NewSession(provider, SessionConfig{
		Context:   testContext(),
		Renderer:  renderer,
		Submitter: submitter,
		OnOutcome: func(o Outcome) { outcomes = append(outcomes, o) },
		Logger:    discardLogger(),
	})
	require.NoError(t, err)
	defer session.Close()

	ready, err := session.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, ready)

	// A second readiness resolution must not add a button.
	_, err = session.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, renderer.Count())

	renderer.rendered[0].press()

	require.Len(t, outcomes, 1)
	assert.Equal(t, StateTokenReceived, outcomes[0].State)
	calls := submitter.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "T1", calls[0].PaymentData.Token().Reveal())
	assert.Equal(t, "1.00", calls[0].TransactionInfo.TotalPrice)
	assert.Equal(t, "EUR", calls[0].TransactionInfo.CurrencyCode)
	assert.Equal(t, "ES", calls[0].TransactionInfo.CountryCode)
	assert.Equal(t, StateCompleted, session.State())
}

func TestSession_NotReadyFallsBack(t *testing.T) {
	provider := &fakeProvider{readyErr: errors.New("unsupported browser")}
	renderer := &fakeRenderer{}
	fellBack := false

	session, err := NewSession(provider, SessionConfig{
		Context:   testContext(),
		Renderer:  renderer,
		Submitter: &fakeSubmitter{},
		Fallback:  func() { fellBack = true },
		Logger:    discardLogger(),
	})
	require.NoError(t, err)

	ready, err := session.Start(context.Background())

	require.NoError(t, err)
	assert.False(t, ready)
	assert.True(t, fellBack)
	assert.Equal(t, 0, renderer.Count())
	assert.Equal(t, int32(0), provider.loadCalls.Load())
}

func TestSession_IncompleteContextFailsBeforeWalletCalls(t *testing.T) {
	provider := &fakeProvider{ready: true}
	cc := testContext()
	cc.TransactionInfo.CurrencyCode = ""

	_, err := NewSession(provider, SessionConfig{
		Context:   cc,
		Renderer:  &fakeRenderer{},
		Submitter: &fakeSubmitter{},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidPaymentRequest)
	assert.Equal(t, int32(0), provider.readyCalls.Load())
	assert.Equal(t, int32(0), provider.loadCalls.Load())
}

func TestSession_CloseDisablesTrigger(t *testing.T) {
	renderer := &fakeRenderer{}
	session, err := NewSession(&fakeProvider{ready: true}, SessionConfig{
		Context:   testContext(),
		Renderer:  renderer,
		Submitter: &fakeSubmitter{},
		Logger:    discardLogger(),
	})
	require.NoError(t, err)
	_, err = session.Start(context.Background())
	require.NoError(t, err)

	session.Close()

	assert.False(t, renderer.rendered[0].Enabled())
}
