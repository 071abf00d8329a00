package mining

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostingList(t *testing.T) {
	var pl postingList
	pl = pl.newPosting()
	pl = pl.addNonNegativeInt(0)
	pl = pl.addNonNegativeInt(127)
	pl = pl.addNonNegativeInt(1 << 20)
	pl = pl.newPosting()
	pl = pl.newPosting()
	pl = pl.addNonNegativeInt(5)

	var it postingIterator
	it.reset(pl)
	assert.True(t, it.nextPosting())
	assert.Equal(t, 0, it.nextNonNegativeInt())
	assert.Equal(t, 127, it.nextNonNegativeInt())
	assert.Equal(t, 1<<20, it.nextNonNegativeInt())
	assert.False(t, it.hasNext())

	assert.True(t, it.nextPosting())
	assert.False(t, it.hasNext())

	// skipping the unread rest of a posting
	assert.True(t, it.nextPosting())
	assert.True(t, it.hasNext())
	assert.False(t, it.nextPosting())
}

func TestPostingListPanicsOnNegative(t *testing.T) {
	assert.Panics(t, func() { postingList(nil).addNonNegativeInt(-1) })
}

func TestPivotHeapUnion(t *testing.T) {
	testCases := []struct {
		name     string
		current  []int
		add      []int
		expected []int
	}{
		{"empty current", nil, []int{2, 5}, []int{2, 5}},
		{"disjoint above", []int{1, 2}, []int{4, 6}, []int{4, 6}},
		{"disjoint below", []int{4, 6}, []int{1, 2}, []int{4, 6}},
		{"interleaved", []int{2, 5, 7}, []int{3, 5, 8}, []int{3, 5, 7, 8}},
		{"equal", []int{3}, []int{3}, []int{3}},
	}
	for _, tc := range testCases {
		var current *pivotHeap
		if tc.current != nil {
			current = &pivotHeap{items: tc.current}
		}
		var h pivotHeap
		h.union(current, tc.add)
		assert.Equal(t, tc.expected, h.items, tc.name)
	}
}
