package edfa

import (
	"math/rand"
	"testing"

	"desq/fst"
	"desq/fst/fsttest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// .* a .* with full match: 0 -[.]-> 0, 0 -[a]-> 1, 1 -[.]-> 1, 1 final.
func containsA(t *testing.T, requireFullMatch bool) *fst.Fst {
	b := fst.NewBuilder(fsttest.Hierarchy())
	b.AddState(false)
	b.AddState(true)
	b.SetRequireFullMatch(requireFullMatch)
	b.AddTransition(0, 0, 0, false, fst.OutputEpsilon, 0)
	b.AddTransition(0, 1, 1, false, fst.OutputSelf, 0)
	b.AddTransition(1, 1, 0, false, fst.OutputEpsilon, 0)
	f, err := b.Build()
	require.Nil(t, err)
	return f
}

func TestIsRelevant(t *testing.T) {
	e, err := New(containsA(t, true), 16)
	require.Nil(t, err)

	assert.True(t, e.IsRelevant([]int{2, 5, 6}, 0))
	assert.False(t, e.IsRelevant([]int{2, 6, 6}, 0))
	assert.False(t, e.IsRelevant([]int{}, 0))
	assert.True(t, e.IsRelevant([]int{6, 4}, 1))
	assert.False(t, e.IsRelevant([]int{4, 6}, 1))
}

func TestStatesAreInterned(t *testing.T) {
	e, err := New(containsA(t, true), 16)
	require.Nil(t, err)

	s1 := e.Transition(e.InitialState(), 1)
	s2 := e.Transition(e.InitialState(), 3)
	assert.Same(t, s1, s2)
	assert.True(t, s1.IsFinal())
	assert.Equal(t, []uint32{0, 1}, s1.FstStates().ToArray())
	assert.Same(t, e.InitialState(), e.Transition(e.InitialState(), 2))
	assert.Equal(t, 2, e.NumStates())
}

func TestIsRelevantTrace(t *testing.T) {
	e, err := New(containsA(t, false), 16)
	require.Nil(t, err)

	states, finalPos, ok := e.IsRelevantTrace([]int{2, 3, 6}, 0, nil, nil)
	assert.True(t, ok)
	assert.Len(t, states, 4)
	assert.Same(t, e.InitialState(), states[0])
	assert.Equal(t, []int{2, 3}, finalPos)
	assert.Len(t, states[2].FstFinalStates(), 1)

	e, err = New(containsA(t, true), 16)
	require.Nil(t, err)
	states, finalPos, ok = e.IsRelevantTrace([]int{2, 3, 6}, 0, states, finalPos)
	assert.True(t, ok)
	assert.Equal(t, []int{3}, finalPos)

	_, _, ok = e.IsRelevantTrace([]int{2, 6}, 0, states, finalPos)
	assert.False(t, ok)
}

func TestIsRelevantTraceFromOffset(t *testing.T) {
	e, err := New(containsA(t, false), 16)
	require.Nil(t, err)

	states, finalPos, ok := e.IsRelevantTrace([]int{6, 3, 2}, 1, nil, nil)
	assert.True(t, ok)
	require.Len(t, states, 4)
	assert.Nil(t, states[0])
	assert.Same(t, e.InitialState(), states[1])
	assert.Equal(t, []int{2, 3}, finalPos)
	for _, pos := range finalPos {
		assert.True(t, states[pos].IsFinal(), "pos %d", pos)
	}

	_, finalPos, ok = e.IsRelevantTrace([]int{3, 2, 6}, 1, states, finalPos)
	assert.False(t, ok)
	assert.Empty(t, finalPos)
}

func TestRelevanceAgreesWithBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	dict := fsttest.Hierarchy()
	for round := 0; round < 40; round++ {
		f := fsttest.Random(rng, dict)
		e, err := New(f, 8)
		require.Nil(t, err)
		for _, seq := range fsttest.RandomSequences(rng, 10, 5) {
			expected := fsttest.Accepts(f, seq.Items)
			assert.Equal(t, expected, e.IsRelevant(seq.Items, 0), "round %d seq %v", round, seq.Items)
			_, _, ok := e.IsRelevantTrace(seq.Items, 0, nil, nil)
			assert.Equal(t, expected, ok, "round %d seq %v", round, seq.Items)
		}
	}
}
