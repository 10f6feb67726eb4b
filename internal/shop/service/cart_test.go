package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopease/shopease/internal/common/shoperrors"
)

func TestCart_AddAccumulates(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(newTestProductService(t, newTestStore(t, 5)))

	require.NoError(t, cart.Add(ctx, "P000000001", 4))
	require.NoError(t, cart.Add(ctx, "P000000001", 7))
	assert.Equal(t, 11, cart.Quantity("P000000001"))

	// P000000001 has 11 in stock.
	err := cart.Add(ctx, "P000000001", 1)
	var insufficient *shoperrors.ErrInsufficientStock
	require.True(t, errors.As(err, &insufficient), "%v", err)
	assert.Equal(t, 12, insufficient.Requested)
	assert.Equal(t, 11, insufficient.Available)
	assert.Equal(t, 11, cart.Quantity("P000000001"))
}

func TestCart_AddRejects(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(newTestProductService(t, newTestStore(t, 5)))

	var invalid *shoperrors.ErrInvalidArgument
	assert.True(t, errors.As(cart.Add(ctx, "P000000001", 0), &invalid))
	assert.True(t, errors.As(cart.Add(ctx, "P000000001", -2), &invalid))

	var notFound *shoperrors.ErrNotFound
	assert.True(t, errors.As(cart.Add(ctx, "P999999999", 1), &notFound))
	assert.True(t, cart.IsEmpty())
}

func TestCart_Update(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(newTestProductService(t, newTestStore(t, 5)))
	require.NoError(t, cart.Add(ctx, "P000000002", 1))

	require.NoError(t, cart.Update(ctx, "P000000002", 12))
	assert.Equal(t, 12, cart.Quantity("P000000002"))

	var insufficient *shoperrors.ErrInsufficientStock
	assert.True(t, errors.As(cart.Update(ctx, "P000000002", 13), &insufficient))
	assert.Equal(t, 12, cart.Quantity("P000000002"))

	require.NoError(t, cart.Update(ctx, "P000000002", 0))
	assert.True(t, cart.IsEmpty())

	// Updating a product not in the cart adds it.
	require.NoError(t, cart.Update(ctx, "P000000003", 2))
	assert.Equal(t, []string{"P000000003"}, cart.ProductIDs())
}

func TestCart_KeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(newTestProductService(t, newTestStore(t, 5)))
	for _, id := range []string{"P000000003", "P000000001", "P000000005", "P000000002"} {
		require.NoError(t, cart.Add(ctx, id, 1))
	}
	require.NoError(t, cart.Add(ctx, "P000000003", 1))
	assert.True(t, cart.Remove("P000000001"))
	assert.False(t, cart.Remove("P000000001"))

	assert.Equal(t, []string{"P000000003", "P000000005", "P000000002"}, cart.ProductIDs())

	lines, err := cart.Items(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "Headphones 3", lines[0].Product.Name)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "Speaker 5", lines[1].Product.Name)
	assert.Equal(t, "Tablet 2", lines[2].Product.Name)
	assert.Equal(t, map[string]int{"P000000003": 2, "P000000005": 1, "P000000002": 1}, cart.Quantities())
}

func TestCart_Total(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(newTestProductService(t, newTestStore(t, 5)))

	total, err := cart.Total(ctx)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	// 2 x 10.10 + 3 x 10.20
	require.NoError(t, cart.Add(ctx, "P000000001", 2))
	require.NoError(t, cart.Add(ctx, "P000000002", 3))
	total, err = cart.Total(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("50.8").Equal(total), total.String())

	cart.Clear()
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0, cart.Len())
	assert.Empty(t, cart.ProductIDs())
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	session := NewSession(newTestProductService(t, newTestStore(t, 5)))
	assert.False(t, session.IsAuthenticated())
	assert.Nil(t, session.User())

	auth := newTestAuthService(t)
	user, err := auth.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	session.Login(user)
	assert.True(t, session.IsAuthenticated())
	assert.Equal(t, user, session.User())
	require.NoError(t, session.Cart().Add(ctx, "P000000001", 1))

	session.Logout()
	assert.False(t, session.IsAuthenticated())
	assert.True(t, session.Cart().IsEmpty())
}
