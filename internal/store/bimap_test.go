package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBimap_PutLookup(t *testing.T) {
	b := NewBimap[string, int]()
	b.Put("a", 1)
	b.Put("b", 2)

	v, ok := b.Value("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	k, ok := b.Key(2)
	require.True(t, ok)
	assert.Equal(t, "b", k)

	_, ok = b.Value("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, b.Len())
}

func TestBimap_PutKeepsBijection(t *testing.T) {
	b := NewBimap[string, int]()
	b.Put("a", 1)
	b.Put("a", 2) // rebind key

	v, ok := b.Value("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	_, ok = b.Key(1)
	assert.False(t, ok, "stale reverse entry must be removed")

	b.Put("b", 2) // steal value from "a"
	_, ok = b.Value("a")
	assert.False(t, ok, "stale forward entry must be removed")
	assert.Equal(t, 1, b.Len())
}

func TestBimap_Delete(t *testing.T) {
	b := NewBimap[string, int]()
	b.Put("a", 1)
	b.Put("b", 2)

	b.DeleteKey("a")
	_, ok := b.Key(1)
	assert.False(t, ok)

	b.DeleteValue(2)
	_, ok = b.Value("b")
	assert.False(t, ok)
	assert.Equal(t, 0, b.Len())
}

func TestBimap_Clear(t *testing.T) {
	b := NewBimap[string, int]()
	b.Put("a", 1)
	b.Clear()
	assert.Equal(t, 0, b.Len())

	b.Put("a", 3)
	v, ok := b.Value("a")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}
