package tree

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertPopMaxOrdering(t *testing.T) {
	tr := New()
	priorities := []float64{0.5, 2.0, 1.25, 0.1, 3.75, 2.0}
	for i, p := range priorities {
		tr.Insert(p, i)
	}

	sorted := append([]float64(nil), priorities...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	for _, want := range sorted {
		got, _ := tr.PopMax()
		assert.Equal(t, want, got)
	}
	assert.True(t, tr.Empty())
}

func TestRandomizedInterleavings(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tr := New()
	var shadow []float64

	for step := 0; step < 5000; step++ {
		if len(shadow) == 0 || rng.Float64() < 0.6 {
			p := rng.NormFloat64()
			tr.Insert(p, step)
			shadow = append(shadow, p)
			continue
		}

		got, _ := tr.PopMax()

		maxIdx := 0
		for i, p := range shadow {
			if p > shadow[maxIdx] {
				maxIdx = i
			}
		}
		require.Equal(t, shadow[maxIdx], got, "step %d", step)
		shadow = append(shadow[:maxIdx], shadow[maxIdx+1:]...)
	}

	for len(shadow) > 0 {
		got, _ := tr.PopMax()
		maxIdx := 0
		for i, p := range shadow {
			if p > shadow[maxIdx] {
				maxIdx = i
			}
		}
		require.Equal(t, shadow[maxIdx], got)
		shadow = append(shadow[:maxIdx], shadow[maxIdx+1:]...)
	}
	assert.True(t, tr.Empty())
}

func TestInfinitySentinel(t *testing.T) {
	tr := New()
	tr.Insert(0.3, 0)
	tr.Insert(math.Inf(1), 1)
	tr.Insert(7.5, 2)
	tr.Insert(math.Inf(1), 3)

	// Fresh +Inf entries pop before any scored entry, most recent first.
	p, idx := tr.PopMax()
	assert.True(t, math.IsInf(p, 1))
	assert.Equal(t, 3, idx)

	p, idx = tr.PopMax()
	assert.True(t, math.IsInf(p, 1))
	assert.Equal(t, 1, idx)

	p, idx = tr.PopMax()
	assert.Equal(t, 7.5, p)
	assert.Equal(t, 2, idx)
}

func TestPopMaxSplicesLeftSubtree(t *testing.T) {
	tr := New()
	// Shape: 5 -> right 8, 8 has left child 7. Popping 8 must splice 7 in
	// as 5's right child, not drop it.
	tr.Insert(5, 0)
	tr.Insert(8, 1)
	tr.Insert(7, 2)

	p, idx := tr.PopMax()
	assert.Equal(t, 8.0, p)
	assert.Equal(t, 1, idx)

	p, idx = tr.PopMax()
	assert.Equal(t, 7.0, p)
	assert.Equal(t, 2, idx)

	p, idx = tr.PopMax()
	assert.Equal(t, 5.0, p)
	assert.Equal(t, 0, idx)
	assert.True(t, tr.Empty())
}

func TestPopMaxRootWithLeftSubtree(t *testing.T) {
	tr := New()
	tr.Insert(9, 0)
	tr.Insert(4, 1)
	tr.Insert(6, 2)

	// Root is the maximum; its left subtree becomes the new root.
	p, _ := tr.PopMax()
	assert.Equal(t, 9.0, p)
	require.False(t, tr.Empty())

	p, _ = tr.PopMax()
	assert.Equal(t, 6.0, p)
	p, _ = tr.PopMax()
	assert.Equal(t, 4.0, p)
	assert.True(t, tr.Empty())
}

func TestPopMaxEmptyPanics(t *testing.T) {
	tr := New()
	assert.Panics(t, func() { tr.PopMax() })
}

func TestDepth(t *testing.T) {
	tr := New()
	assert.Equal(t, 0, tr.Depth())

	tr.Insert(1, 0)
	assert.Equal(t, 1, tr.Depth())

	// Sorted insertion degrades to a rightmost chain.
	tr.Insert(2, 1)
	tr.Insert(3, 2)
	assert.Equal(t, 3, tr.Depth())

	tr.Insert(0.5, 3)
	assert.Equal(t, 3, tr.Depth())
}
