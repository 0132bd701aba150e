package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("put then get round-trips", func(t *testing.T) {
		m := NewMemory()

		require.NoError(t, m.Put(ctx, "plan/1", []byte("value")))
		got, err := m.Get(ctx, "plan/1")
		require.NoError(t, err)
		assert.Equal(t, []byte("value"), got)
	})

	t.Run("get of a missing key returns ErrKeyNotFound", func(t *testing.T) {
		m := NewMemory()

		_, err := m.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("put overwrites", func(t *testing.T) {
		m := NewMemory()

		require.NoError(t, m.Put(ctx, "k", []byte("first")))
		require.NoError(t, m.Put(ctx, "k", []byte("second")))
		got, err := m.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		m := NewMemory()

		require.NoError(t, m.Put(ctx, "k", []byte("v")))
		require.NoError(t, m.Delete(ctx, "k"))
		require.NoError(t, m.Delete(ctx, "k"))

		_, err := m.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("scan returns matching keys in order", func(t *testing.T) {
		m := NewMemory()

		require.NoError(t, m.Put(ctx, "ledger/a/2", []byte("2")))
		require.NoError(t, m.Put(ctx, "plan/x", []byte("p")))
		require.NoError(t, m.Put(ctx, "ledger/a/1", []byte("1")))
		require.NoError(t, m.Put(ctx, "ledger/b/1", []byte("b")))

		pairs, err := m.Scan(ctx, "ledger/a/")
		require.NoError(t, err)
		require.Len(t, pairs, 2)
		assert.Equal(t, "ledger/a/1", pairs[0].Key)
		assert.Equal(t, "ledger/a/2", pairs[1].Key)
	})

	t.Run("scan with an empty prefix returns everything", func(t *testing.T) {
		m := NewMemory()

		require.NoError(t, m.Put(ctx, "a", []byte("1")))
		require.NoError(t, m.Put(ctx, "b", []byte("2")))

		pairs, err := m.Scan(ctx, "")
		require.NoError(t, err)
		assert.Len(t, pairs, 2)
	})

	t.Run("stored values are defensive copies", func(t *testing.T) {
		m := NewMemory()

		buf := []byte("original")
		require.NoError(t, m.Put(ctx, "k", buf))
		buf[0] = 'X'

		got, err := m.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), got)

		got[0] = 'Y'
		again, err := m.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), again)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		m := NewMemory()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		assert.Error(t, m.Put(cancelled, "k", []byte("v")))
		_, err := m.Get(cancelled, "k")
		assert.Error(t, err)
	})
}
