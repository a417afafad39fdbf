package session

import (
	"context"
	"testing"

	"checkout-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	s := New("mem-1", t0)
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Load(ctx, "mem-1")
	require.NoError(t, err)
	assert.Equal(t, s, loaded)

	// Mutating the loaded copy does not leak into the store until saved.
	require.NoError(t, loaded.SetCart(cartLines(), models.CartTotals{TotalPrice: 1}, "", offered, t0))
	again, err := store.Load(ctx, "mem-1")
	require.NoError(t, err)
	assert.Empty(t, again.Lines)
}

func TestMemoryStoreLock(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	unlock, err := store.Lock(ctx, "a")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		unlock2, _ := store.Lock(ctx, "a")
		close(acquired)
		unlock2()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first held")
	default:
	}

	unlock()
	<-acquired
}
