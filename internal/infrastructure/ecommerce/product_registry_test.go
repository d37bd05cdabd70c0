package ecommerce

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRegistry_Resolve(t *testing.T) {
	loads := 0
	catalog := map[string]int64{"A": 1}
	reg := NewProductRegistry(func(context.Context) (map[string]int64, error) {
		loads++
		return catalog, nil
	})
	ctx := context.Background()

	found, missing, err := reg.Resolve(ctx, []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"A": 1}, found)
	assert.Equal(t, []string{"B"}, missing)
	assert.Equal(t, 1, loads)

	found, missing, err = reg.Resolve(ctx, []string{"A"})
	require.NoError(t, err)
	assert.Empty(t, missing)
	assert.Len(t, found, 1)
	assert.Equal(t, 1, loads, "known offers need no load")

	catalog = map[string]int64{"A": 1, "B": 2}
	found, missing, err = reg.Resolve(ctx, []string{"B"})
	require.NoError(t, err)
	assert.Empty(t, missing)
	assert.Equal(t, int64(2), found["B"])
	assert.Equal(t, 2, loads)
	assert.Len(t, reg.ids, 2)
}

func TestProductRegistry_LoadError(t *testing.T) {
	boom := errors.New("boom")
	reg := NewProductRegistry(func(context.Context) (map[string]int64, error) {
		return nil, boom
	})

	_, _, err := reg.Resolve(context.Background(), []string{"A"})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, reg.Refresh(context.Background()), boom)
}

func TestProductRegistry_ReplaceCopies(t *testing.T) {
	reg := NewProductRegistry(nil)
	reg.Replace(map[string]int64{"A": 1})

	src := map[string]int64{"B": 2}
	reg.Replace(src)
	src["C"] = 3

	found, missing := reg.split([]string{"A", "B", "C"})
	assert.Equal(t, map[string]int64{"B": 2}, found)
	assert.Equal(t, []string{"A", "C"}, missing)
}
