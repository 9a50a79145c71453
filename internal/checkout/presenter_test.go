package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/fitstack/walletpay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadinessChecker_ProviderErrorMeansNotReady(t *testing.T) {
	provider := &fakeProvider{readyErr: errors.New("network down")}
	checker := NewReadinessChecker(provider, testConfiguration(), discardLogger())

	ready, err := checker.Check(context.Background())

	assert.False(t, ready)
	assert.ErrorIs(t, err, domain.ErrReadiness)
}

type panickingProvider struct{ fakeProvider }

func (p *panickingProvider) IsReadyToPay(context.Context, domain.IsReadyToPayRequest) (domain.IsReadyToPayResponse, error) {
	panic("sdk exploded")
}

func TestReadinessChecker_RecoversFromProviderPanic(t *testing.T) {
	checker := NewReadinessChecker(&panickingProvider{}, testConfiguration(), discardLogger())

	ready, err := checker.Check(context.Background())

	assert.False(t, ready)
	assert.ErrorIs(t, err, domain.ErrReadiness)
}

func TestReadinessChecker_PassesResult(t *testing.T) {
	checker := NewReadinessChecker(&fakeProvider{ready: true}, testConfiguration(), discardLogger())

	ready, err := checker.Check(context.Background())

	require.NoError(t, err)
	assert.True(t, ready)
}

func TestButtonPresenter_NotReadyRendersNothing(t *testing.T) {
	renderer := &fakeRenderer{}
	fallbacks := 0
	presenter := NewButtonPresenter(renderer, func() { fallbacks++ })

	for i := 0; i < 3; i++ {
		trigger, err := presenter.Present(false, func() {})
		require.NoError(t, err)
		assert.Nil(t, trigger)
	}

	assert.Equal(t, 0, renderer.Count())
	assert.Equal(t, 3, fallbacks)
}

func TestButtonPresenter_ReadyRendersExactlyOnce(t *testing.T) {
	renderer := &fakeRenderer{}
	presenter := NewButtonPresenter(renderer, nil)

	first, err := presenter.Present(true, func() {})
	require.NoError(t, err)
	second, err := presenter.Present(true, func() {})
	require.NoError(t, err)

	assert.Equal(t, 1, renderer.Count())
	assert.Same(t, first, second)
	assert.Same(t, first, presenter.Trigger())
}

func TestButtonPresenter_RenderErrorAllowsRetry(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("no container")}
	presenter := NewButtonPresenter(renderer, nil)

	_, err := presenter.Present(true, func() {})
	require.Error(t, err)
	assert.Nil(t, presenter.Trigger())

	renderer.err = nil
	trigger, err := presenter.Present(true, func() {})
	require.NoError(t, err)
	assert.NotNil(t, trigger)
}

func TestButtonPresenter_RequiresHandler(t *testing.T) {
	presenter := NewButtonPresenter(&fakeRenderer{}, nil)

	_, err := presenter.Present(true, nil)
	assert.Error(t, err)
}
