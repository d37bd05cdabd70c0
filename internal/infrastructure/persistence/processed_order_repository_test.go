package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
)

func TestGormProcessedOrderRepository_CreateAndExists(t *testing.T) {
	repo := NewGormProcessedOrderRepository(setupTestDB(t))
	ctx := context.Background()

	order := marketplace.Order{
		ExternalOrderID: "A1",
		Lines:           []marketplace.OrderLine{{ExternalSKU: "111", Quantity: 3}},
	}
	marker, err := ordersync.NewProcessedOrder(marketplace.PlatformWB, order, time.Now())
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, marketplace.PlatformWB, "A1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(ctx, marker))

	exists, err = repo.Exists(ctx, marketplace.PlatformWB, "A1")
	require.NoError(t, err)
	assert.True(t, exists)

	t.Run("same id on another platform is distinct", func(t *testing.T) {
		exists, err := repo.Exists(ctx, marketplace.PlatformOzon, "A1")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("duplicate insert is rejected", func(t *testing.T) {
		err := repo.Create(ctx, marker)
		assert.ErrorIs(t, err, ordersync.ErrOrderAlreadyApplied)
	})
}

func TestGormProcessedOrderRepository_ListSince(t *testing.T) {
	repo := NewGormProcessedOrderRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"o1", "o2", "o3"} {
		marker, err := ordersync.NewProcessedOrder(marketplace.PlatformYM, marketplace.Order{
			ExternalOrderID: id,
			Lines:           []marketplace.OrderLine{{ExternalSKU: "s", Quantity: i + 1}},
		}, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, marker))
	}

	orders, err := repo.ListSince(ctx, marketplace.PlatformYM, base.Add(time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o2", orders[0].OrderID)
	assert.Equal(t, "o3", orders[1].OrderID)
	require.Len(t, orders[1].Lines, 1)
	assert.Equal(t, 3, orders[1].Lines[0].Quantity)

	orders, err = repo.ListSince(ctx, marketplace.PlatformYM, base, 1)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].OrderID)
}
