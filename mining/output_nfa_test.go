package mining

import (
	"math/rand"
	"sort"
	"testing"

	"desq/fst/fsttest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pathKeys(paths [][]int) []string {
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = fsttest.Key(p)
	}
	sort.Strings(keys)
	return keys
}

func uniquePathKeys(paths [][]int) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, p := range paths {
		k := fsttest.Key(p)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func TestOutputNfaMergesCommonSuffixes(t *testing.T) {
	paths := [][]int{
		{0, 1, 2, 7, 3, 9},
		{1, 4, 2, 7, 3, 9},
		{1, 5, 3, 9},
	}

	tree := NewOutputNfa(false)
	merged := NewOutputNfa(true)
	for _, p := range paths {
		tree.AddPath(p)
		merged.AddPath(p)
	}
	merged.MergeSuffixes()

	assert.Equal(t, 9, tree.NumStates())
	assert.Less(t, merged.NumStates(), tree.NumStates())

	decoded, err := PathsFromNfa(tree.Write(nil), false)
	require.Nil(t, err)
	assert.Equal(t, pathKeys(paths), pathKeys(decoded))

	decoded, err = PathsFromNfa(merged.Write(nil), true)
	require.Nil(t, err)
	assert.Equal(t, pathKeys(paths), pathKeys(decoded))
}

func TestOutputNfaKeepsFinalPrefixes(t *testing.T) {
	paths := [][]int{{0, 1}, {0, 1, 2, 3}, {4, 5, 2, 3}}
	n := NewOutputNfa(true)
	for _, p := range paths {
		n.AddPath(p)
	}
	n.MergeSuffixes()

	decoded, err := PathsFromNfa(n.Write(nil), true)
	require.Nil(t, err)
	assert.Equal(t, pathKeys(paths), pathKeys(decoded))
}

func TestOutputNfaRandomPaths(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 200; round++ {
		var paths [][]int
		for i := 0; i < 1+rng.Intn(6); i++ {
			p := make([]int, 2*(1+rng.Intn(4)))
			for j := range p {
				p[j] = rng.Intn(3)
			}
			paths = append(paths, p)
		}
		expected := uniquePathKeys(paths)

		for _, merge := range []bool{false, true} {
			n := NewOutputNfa(merge)
			for _, p := range paths {
				n.AddPath(p)
			}
			n.MergeSuffixes()
			decoded, err := PathsFromNfa(n.Write(nil), merge)
			require.Nil(t, err)
			assert.Equal(t, expected, pathKeys(decoded), "round %d merge %v", round, merge)
		}
	}
}

func TestConcatPaths(t *testing.T) {
	paths := [][]int{{0, 1, 2, 3}, {4, 5}}
	buf := encodeConcat(paths)
	assert.Equal(t, []int{2, 3, 7, 0, 1, 2, 3, 4, 5}, buf)

	decoded, err := PathsFromConcat(buf)
	require.Nil(t, err)
	assert.Equal(t, paths, decoded)

	_, err = PathsFromConcat([]int{2, 3})
	assert.NotNil(t, err)
	_, err = PathsFromConcat([]int{1, 2, 0, 1, 2})
	assert.NotNil(t, err)
}
