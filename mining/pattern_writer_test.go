package mining

import (
	"bytes"
	"testing"

	"desq/dictionary"
	"desq/sequence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPatternWriter(t *testing.T) {
	w := &MemoryPatternWriter{}
	items := []int{1, 2}
	require.Nil(t, w.Write(items, 3))
	items[0] = 9
	require.Nil(t, w.WriteReverse([]int{5, 4}, 2))

	assert.Equal(t, []sequence.WeightedSequence{
		{Items: []int{1, 2}, Support: 3},
		{Items: []int{4, 5}, Support: 2},
	}, w.Patterns)
	assert.Equal(t, map[string]int64{"1 2": 3, "4 5": 2}, w.Map())
}

func TestMemoryPatternWriterDuplicates(t *testing.T) {
	w := &MemoryPatternWriter{}
	require.Nil(t, w.Write([]int{1, 2}, 3))
	require.Nil(t, w.Write([]int{2}, 1))
	assert.Empty(t, w.Duplicates())

	require.Nil(t, w.WriteReverse([]int{2, 1}, 3))
	assert.Equal(t, []sequence.WeightedSequence{{Items: []int{1, 2}, Support: 3}}, w.Duplicates())
	assert.Len(t, w.Map(), 2)

	w.Reset()
	assert.Empty(t, w.Duplicates())
}

func TestJSONPatternWriter(t *testing.T) {
	dict := dictionary.New()
	require.Nil(t, dict.AddItem(1, "a", 5))
	require.Nil(t, dict.AddItem(2, "b", 4))

	var buf bytes.Buffer
	w := NewJSONPatternWriter(&buf, dict)
	require.Nil(t, w.WriteReverse([]int{2, 1}, 4))
	assert.Equal(t, `{"items":[1,2],"sids":["a","b"],"support":4}`+"\n", buf.String())

	buf.Reset()
	w = NewJSONPatternWriter(&buf, nil)
	require.Nil(t, w.Write([]int{2}, 1))
	assert.Equal(t, `{"items":[2],"support":1}`+"\n", buf.String())
}

func TestDelPatternWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewDelPatternWriter(&buf)
	require.Nil(t, w.Write([]int{1, 2}, 3))
	require.Nil(t, w.WriteReverse([]int{3}, 1))
	assert.Equal(t, "3\t1 2\n3\n", buf.String())

	seqs, err := sequence.ReadAll(sequence.NewDelReader(&buf))
	require.Nil(t, err)
	assert.Equal(t, []sequence.WeightedSequence{
		{Items: []int{1, 2}, Support: 3},
		{Items: []int{3}, Support: 1},
	}, seqs)
}
