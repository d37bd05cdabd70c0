package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse/stocksync/internal/domain/inventory"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

func seedItem(t *testing.T, repo *GormItemRepository, id string, aliases map[marketplace.Platform]string) *inventory.Item {
	t.Helper()
	item, err := inventory.NewItem(id, "Item "+id)
	require.NoError(t, err)
	for p, sku := range aliases {
		require.NoError(t, item.SetAlias(p, sku))
	}
	require.NoError(t, repo.Save(context.Background(), item))
	return item
}

func TestGormItemRepository_FindByID(t *testing.T) {
	repo := NewGormItemRepository(setupTestDB(t))
	ctx := context.Background()
	seedItem(t, repo, "X", map[marketplace.Platform]string{marketplace.PlatformWB: "111"})

	t.Run("finds existing item", func(t *testing.T) {
		item, err := repo.FindByID(ctx, "X")
		require.NoError(t, err)
		assert.Equal(t, "Item X", item.Name)
		assert.Equal(t, "pcs", item.Unit)
		sku, ok := item.Alias(marketplace.PlatformWB)
		assert.True(t, ok)
		assert.Equal(t, "111", sku)
		_, ok = item.Alias(marketplace.PlatformOzon)
		assert.False(t, ok)
	})

	t.Run("returns ErrItemNotFound", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, inventory.ErrItemNotFound)
	})
}

func TestGormItemRepository_FindByAlias(t *testing.T) {
	repo := NewGormItemRepository(setupTestDB(t))
	ctx := context.Background()
	seedItem(t, repo, "X", map[marketplace.Platform]string{
		marketplace.PlatformWB:   "111",
		marketplace.PlatformOzon: "oz-x",
	})

	item, err := repo.FindByAlias(ctx, marketplace.PlatformOzon, "oz-x")
	require.NoError(t, err)
	assert.Equal(t, "X", item.ID)

	_, err = repo.FindByAlias(ctx, marketplace.PlatformYM, "oz-x")
	assert.ErrorIs(t, err, inventory.ErrAliasNotFound)

	_, err = repo.FindByAlias(ctx, marketplace.PlatformWB, "")
	assert.ErrorIs(t, err, inventory.ErrAliasNotFound)

	_, err = repo.FindByAlias(ctx, marketplace.Platform("amazon"), "111")
	assert.ErrorIs(t, err, marketplace.ErrUnknownPlatform)
}

func TestGormItemRepository_ListAliasedAndMissing(t *testing.T) {
	repo := NewGormItemRepository(setupTestDB(t))
	ctx := context.Background()
	seedItem(t, repo, "A", map[marketplace.Platform]string{marketplace.PlatformWB: "1"})
	seedItem(t, repo, "B", map[marketplace.Platform]string{marketplace.PlatformYM: "ym-b"})
	seedItem(t, repo, "C", nil)

	aliased, err := repo.ListAliased(ctx)
	require.NoError(t, err)
	require.Len(t, aliased, 2)
	assert.Equal(t, "A", aliased[0].ID)
	assert.Equal(t, "B", aliased[1].ID)

	missing, err := repo.ListMissingAlias(ctx, marketplace.PlatformWB)
	require.NoError(t, err)
	require.Len(t, missing, 2)
	assert.Equal(t, "B", missing[0].ID)
	assert.Equal(t, "C", missing[1].ID)
}

func TestGormItemRepository_FindByIDs(t *testing.T) {
	repo := NewGormItemRepository(setupTestDB(t))
	ctx := context.Background()
	seedItem(t, repo, "A", nil)
	seedItem(t, repo, "B", nil)

	items, err := repo.FindByIDs(ctx, []string{"B", "A", "Z"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].ID)

	items, err = repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGormItemRepository_SetAlias(t *testing.T) {
	repo := NewGormItemRepository(setupTestDB(t))
	ctx := context.Background()
	seedItem(t, repo, "A", map[marketplace.Platform]string{marketplace.PlatformWB: "1"})
	seedItem(t, repo, "B", nil)

	t.Run("sets alias", func(t *testing.T) {
		require.NoError(t, repo.SetAlias(ctx, "B", marketplace.PlatformWB, " 2 "))
		item, err := repo.FindByAlias(ctx, marketplace.PlatformWB, "2")
		require.NoError(t, err)
		assert.Equal(t, "B", item.ID)
	})

	t.Run("rejects alias held by another item", func(t *testing.T) {
		err := repo.SetAlias(ctx, "B", marketplace.PlatformWB, "1")
		assert.ErrorIs(t, err, inventory.ErrAliasAlreadyUsed)
	})

	t.Run("re-setting own alias is allowed", func(t *testing.T) {
		assert.NoError(t, repo.SetAlias(ctx, "A", marketplace.PlatformWB, "1"))
	})

	t.Run("unknown item", func(t *testing.T) {
		err := repo.SetAlias(ctx, "Z", marketplace.PlatformOzon, "oz")
		assert.ErrorIs(t, err, inventory.ErrItemNotFound)
	})

	t.Run("empty alias", func(t *testing.T) {
		err := repo.SetAlias(ctx, "A", marketplace.PlatformOzon, "  ")
		assert.ErrorIs(t, err, inventory.ErrInvalidAlias)
	})
}

func TestGormItemRepository_SaveUpdates(t *testing.T) {
	repo := NewGormItemRepository(setupTestDB(t))
	ctx := context.Background()
	item := seedItem(t, repo, "A", nil)

	item.Name = "Renamed"
	item.MinQuantity = 4
	require.NoError(t, item.SetAlias(marketplace.PlatformYM, "ym-a"))
	require.NoError(t, repo.Save(ctx, item))

	got, err := repo.FindByID(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, 4, got.MinQuantity)
	sku, ok := got.Alias(marketplace.PlatformYM)
	assert.True(t, ok)
	assert.Equal(t, "ym-a", sku)
}
