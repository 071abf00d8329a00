package dictionary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildHierarchy(t *testing.T) *Dictionary {
	d := New()
	require.Nil(t, d.AddItem(1, "animal", 0))
	require.Nil(t, d.AddItem(2, "plant", 0))
	require.Nil(t, d.AddItem(3, "dog", 0, 1))
	require.Nil(t, d.AddItem(4, "cat", 0, 1))
	require.Nil(t, d.AddItem(5, "puppy", 0, 3))
	require.Nil(t, d.AddItem(6, "tree", 0, 2))
	return d
}

func TestAscendants(t *testing.T) {
	d := buildHierarchy(t)
	assert.Equal(t, []int{1, 3, 5}, d.Ascendants(5))
	assert.Equal(t, []int{2}, d.Ascendants(2))
	assert.Equal(t, []int{42}, d.Ascendants(42))

	assert.True(t, d.IsDescendantOrSelf(5, 1))
	assert.True(t, d.IsDescendantOrSelf(5, 5))
	assert.False(t, d.IsDescendantOrSelf(1, 5))
	assert.False(t, d.IsDescendantOrSelf(6, 1))
}

func TestAddItemValidation(t *testing.T) {
	d := New()
	assert.NotNil(t, d.AddItem(0, "zero", 0))
	assert.Nil(t, d.AddItem(1, "a", 0))
	assert.NotNil(t, d.AddItem(1, "b", 0))
	assert.NotNil(t, d.AddItem(2, "a", 0))
}

func TestIncCountsAndLargestFid(t *testing.T) {
	d := buildHierarchy(t)
	d.IncCounts([]int{5, 4, 5}, 2)
	d.IncCounts([]int{6}, 1)

	animal, _ := d.Item(1)
	assert.Equal(t, int64(2), animal.Dfreq)
	assert.Equal(t, int64(6), animal.Cfreq)
	puppy, _ := d.Item(5)
	assert.Equal(t, int64(2), puppy.Dfreq)
	tree, _ := d.Item(6)
	assert.Equal(t, int64(1), tree.Dfreq)

	assert.Equal(t, 5, d.LargestFidAboveDfreq(2))
	assert.Equal(t, 6, d.LargestFidAboveDfreq(1))
	assert.Equal(t, 0, d.LargestFidAboveDfreq(3))
}

func TestRecomputeFids(t *testing.T) {
	d := buildHierarchy(t)
	d.IncCounts([]int{6}, 5)
	d.IncCounts([]int{5}, 1)

	mapping := d.RecomputeFids()
	// plant and tree are the most frequent, then animal, dog, puppy, then cat.
	assert.Equal(t, 1, mapping[2])
	assert.Equal(t, 2, mapping[6])
	fid, ok := d.FidOf("tree")
	assert.True(t, ok)
	assert.Equal(t, 2, fid)
	assert.Equal(t, []int{1, 2}, d.Ascendants(fid))

	puppy, _ := d.FidOf("puppy")
	animal, _ := d.FidOf("animal")
	assert.True(t, d.IsDescendantOrSelf(puppy, animal))
	assert.Equal(t, 6, mapping[4])
}

func TestWriteAndLoad(t *testing.T) {
	d := buildHierarchy(t)
	d.IncCounts([]int{5, 6}, 3)

	var buf bytes.Buffer
	require.Nil(t, d.Write(&buf))
	loaded, err := Load(&buf)
	require.Nil(t, err)

	assert.Equal(t, d.Size(), loaded.Size())
	assert.Equal(t, d.Ascendants(5), loaded.Ascendants(5))
	item, _ := loaded.Item(2)
	assert.Equal(t, int64(3), item.Dfreq)
	sids := loaded.SidsOf([]int{5, 6})
	assert.Equal(t, []string{"puppy", "tree"}, sids)
}

func TestLoadUnknownParent(t *testing.T) {
	_, err := Load(bytes.NewBufferString(`[{"fid":1,"sid":"a","parents":[7]}]`))
	assert.NotNil(t, err)
}
