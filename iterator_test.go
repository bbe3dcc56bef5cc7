package recurly_test

import (
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-recurly"
)

func seqOf[T any](items ...T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// seqFailingAt yields items until index failAt, where it yields err.
func seqFailingAt[T any](failAt int, err error, items ...T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for i, item := range items {
			if i == failAt {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

var errPageFailed = errors.New("page failed")

func TestCollect(t *testing.T) {
	t.Run("collects all items", func(t *testing.T) {
		got, err := recurly.Collect(seqOf("acme", "globex", "initech"))
		require.NoError(t, err)
		assert.Equal(t, []string{"acme", "globex", "initech"}, got)
	})

	t.Run("returns partial results with the error", func(t *testing.T) {
		got, err := recurly.Collect(seqFailingAt(2, errPageFailed, "a", "b", "c", "d"))
		require.ErrorIs(t, err, errPageFailed)
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("empty sequence", func(t *testing.T) {
		got, err := recurly.Collect(seqOf[string]())
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestCollectN(t *testing.T) {
	t.Run("stops after n", func(t *testing.T) {
		pulled := 0
		seq := func(yield func(int, error) bool) {
			for i := 1; i <= 10; i++ {
				pulled++
				if !yield(i, nil) {
					return
				}
			}
		}

		got, err := recurly.CollectN(seq, 3)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, got)
		assert.Equal(t, 3, pulled)
	})

	t.Run("fewer than n", func(t *testing.T) {
		got, err := recurly.CollectN(seqOf(1, 2), 5)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, got)
	})

	t.Run("zero", func(t *testing.T) {
		got, err := recurly.CollectN(seqOf(1, 2), 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("error before n", func(t *testing.T) {
		got, err := recurly.CollectN(seqFailingAt(1, errPageFailed, 1, 2, 3), 3)
		require.ErrorIs(t, err, errPageFailed)
		assert.Equal(t, []int{1}, got)
	})
}

func TestIndex(t *testing.T) {
	type item struct{ code, name string }

	t.Run("keys items", func(t *testing.T) {
		got, err := recurly.Index(seqOf(item{"gold", "Gold"}, item{"silver", "Silver"}), func(i item) string { return i.code })
		require.NoError(t, err)
		assert.Equal(t, map[string]item{
			"gold":   {"gold", "Gold"},
			"silver": {"silver", "Silver"},
		}, got)
	})

	t.Run("later duplicates win", func(t *testing.T) {
		got, err := recurly.Index(seqOf(item{"gold", "old"}, item{"gold", "new"}), func(i item) string { return i.code })
		require.NoError(t, err)
		assert.Equal(t, "new", got["gold"].name)
	})

	t.Run("error keeps what was indexed", func(t *testing.T) {
		got, err := recurly.Index(seqFailingAt(1, errPageFailed, item{"a", ""}, item{"b", ""}), func(i item) string { return i.code })
		require.ErrorIs(t, err, errPageFailed)
		assert.Len(t, got, 1)
		assert.Contains(t, got, "a")
	})
}

func TestFirst(t *testing.T) {
	t.Run("returns first item", func(t *testing.T) {
		got, err := recurly.First(seqOf("x", "y"))
		require.NoError(t, err)
		assert.Equal(t, "x", got)
	})

	t.Run("empty iterator", func(t *testing.T) {
		_, err := recurly.First(seqOf[string]())
		require.ErrorIs(t, err, recurly.ErrEmptyIterator)
	})

	t.Run("first item errors", func(t *testing.T) {
		_, err := recurly.First(seqFailingAt(0, errPageFailed, "x"))
		require.ErrorIs(t, err, errPageFailed)
	})
}

func TestTake(t *testing.T) {
	t.Run("limits items", func(t *testing.T) {
		got, err := recurly.Collect(recurly.Take(seqOf(1, 2, 3, 4), 2))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, got)
	})

	t.Run("non-positive n yields nothing", func(t *testing.T) {
		got, err := recurly.Collect(recurly.Take(seqOf(1, 2), 0))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("propagates errors", func(t *testing.T) {
		_, err := recurly.Collect(recurly.Take(seqFailingAt(1, errPageFailed, 1, 2, 3), 3))
		require.ErrorIs(t, err, errPageFailed)
	})
}

func TestWhereAndMap(t *testing.T) {
	states := seqOf("active", "closed", "active", "future")

	active, err := recurly.Collect(recurly.Where(states, func(s string) bool { return s == "active" }))
	require.NoError(t, err)
	assert.Equal(t, []string{"active", "active"}, active)

	upper, err := recurly.Collect(recurly.Map(recurly.Take(states, 2), strings.ToUpper))
	require.NoError(t, err)
	assert.Equal(t, []string{"ACTIVE", "CLOSED"}, upper)

	t.Run("errors pass through", func(t *testing.T) {
		_, err := recurly.Collect(recurly.Map(
			recurly.Where(seqFailingAt(1, errPageFailed, "a", "b"), func(string) bool { return true }),
			strings.ToUpper,
		))
		require.ErrorIs(t, err, errPageFailed)
	})
}
