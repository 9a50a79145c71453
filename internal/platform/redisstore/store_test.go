package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fitstack/walletpay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestStore_ClaimOnce(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	ok, err := s.Claim(ctx, "fp-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Claim(ctx, "fp-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Hour)
	ok, err = s.Claim(ctx, "fp-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_Idempotency(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	got, err := s.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	want := domain.OrderSubmissionResult{Accepted: true, OrderID: "o1", Status: domain.OrderPaid}
	require.NoError(t, s.Put(ctx, "key-1", want, time.Minute))

	got, err = s.Get(ctx, "key-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	mr.FastForward(2 * time.Minute)
	got, err = s.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
