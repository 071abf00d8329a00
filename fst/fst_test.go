package fst

import (
	"bytes"
	"encoding/json"
	"testing"

	"desq/dictionary"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDictionary(t *testing.T) *dictionary.Dictionary {
	d := dictionary.New()
	require.Nil(t, d.AddItem(1, "a", 10))
	require.Nil(t, d.AddItem(2, "b", 8))
	require.Nil(t, d.AddItem(3, "a1", 5, 1))
	require.Nil(t, d.AddItem(4, "a11", 3, 3))
	return d
}

// 0 -[.:eps]-> 0, 0 -[a:self_generalize]-> 1, 0 -[=a1:self]-> 1, 1 -[b:const a]-> 2 (final)
func testFst(t *testing.T) *Fst {
	b := NewBuilder(testDictionary(t))
	s0 := b.AddState(false)
	s1 := b.AddState(false)
	s2 := b.AddState(true)
	b.AddTransition(s0, s0, 0, false, OutputEpsilon, 0)
	b.AddTransition(s0, s1, 1, false, OutputSelfGeneralize, 0)
	b.AddTransition(s0, s1, 3, true, OutputSelf, 0)
	b.AddTransition(s1, s2, 2, false, OutputConstant, 1)
	f, err := b.Build()
	require.Nil(t, err)
	return f
}

func collect(it *ItemStateIterator) [][2]int {
	var result [][2]int
	for it.Next() {
		v := it.Value()
		result = append(result, [2]int{v.Item, v.State.ID()})
	}
	return result
}

func TestMatches(t *testing.T) {
	f := testFst(t)
	generalize := f.TransitionByNumber(1)
	assert.True(t, generalize.Matches(1))
	assert.True(t, generalize.Matches(4))
	assert.False(t, generalize.Matches(2))

	exact := f.TransitionByNumber(2)
	assert.True(t, exact.Matches(3))
	assert.False(t, exact.Matches(4))

	assert.True(t, f.TransitionByNumber(0).Matches(42))
}

func TestOutputElements(t *testing.T) {
	f := testFst(t)
	assert.Equal(t, []int{1, 3, 4}, f.TransitionByNumber(1).OutputElements(4))
	assert.Equal(t, []int{3}, f.TransitionByNumber(2).OutputElements(3))
	assert.Equal(t, []int{1}, f.TransitionByNumber(3).OutputElements(2))
	assert.Empty(t, f.TransitionByNumber(0).OutputElements(2))
	assert.Equal(t, []int{1, 3}, f.TransitionByNumber(1).AddAscendantFids(4, nil))
}

func TestConsume(t *testing.T) {
	f := testFst(t)
	it := f.InitialState().Consume(4, nil)
	assert.Equal(t, [][2]int{{0, 0}, {1, 1}, {3, 1}, {4, 1}}, collect(it))

	// iterators are reusable
	f.InitialState().Consume(3, it)
	assert.Equal(t, [][2]int{{0, 0}, {1, 1}, {3, 1}, {3, 1}}, collect(it))

	f.State(1).Consume(1, it)
	assert.Empty(t, collect(it))
}

func TestConsumeReverse(t *testing.T) {
	f := testFst(t)
	it := f.State(1).ConsumeReverse(3, nil, nil)
	assert.Equal(t, [][2]int{{1, 0}, {3, 0}, {3, 0}}, collect(it))

	allowed := roaring.BitmapOf(1, 2)
	f.State(1).ConsumeReverse(3, it, allowed)
	assert.Empty(t, collect(it))
}

func TestConsumeCompressed(t *testing.T) {
	f := testFst(t)
	it := f.InitialState().ConsumeCompressed(3, nil)
	var numbers []int
	for it.Next() {
		numbers = append(numbers, it.Transition().Number())
	}
	assert.Equal(t, []int{0, 1, 2}, numbers)

	f.State(2).ConsumeCompressedReverse(2, it, roaring.BitmapOf(1))
	require.True(t, it.Next())
	assert.Equal(t, 3, it.Transition().Number())
	assert.False(t, it.Next())
}

func TestBuildValidation(t *testing.T) {
	dict := testDictionary(t)

	b := NewBuilder(dict)
	_, err := b.Build()
	assert.NotNil(t, err)

	b = NewBuilder(dict)
	b.AddState(true)
	b.AddTransition(0, 1, 0, false, OutputEpsilon, 0)
	_, err = b.Build()
	assert.NotNil(t, err)

	b = NewBuilder(dict)
	b.AddState(true)
	b.AddTransition(0, 0, 0, false, OutputConstant, 99)
	_, err = b.Build()
	assert.NotNil(t, err)

	b = NewBuilder(dict)
	b.AddState(true)
	b.AddTransition(0, 0, 0, false, OutputSelf, 2)
	_, err = b.Build()
	assert.NotNil(t, err)
}

func TestDefinitionRoundTrip(t *testing.T) {
	f := testFst(t)
	raw, err := json.Marshal(f.Definition())
	require.Nil(t, err)
	assert.Contains(t, string(raw), `"self_generalize"`)

	def, err := LoadDefinition(bytes.NewReader(raw))
	require.Nil(t, err)
	rebuilt, err := def.Build(f.Dictionary())
	require.Nil(t, err)

	assert.Equal(t, f.NumStates(), rebuilt.NumStates())
	assert.Equal(t, f.NumTransitions(), rebuilt.NumTransitions())
	for i := 0; i < f.NumTransitions(); i++ {
		assert.Equal(t, f.TransitionByNumber(i).String(), rebuilt.TransitionByNumber(i).String())
	}
	assert.Len(t, rebuilt.FinalStates(), 1)
}

func TestDefinitionRejectsBadStateIds(t *testing.T) {
	def := &Definition{States: []StateDefinition{{ID: 0}, {ID: 0}}}
	_, err := def.Build(testDictionary(t))
	assert.NotNil(t, err)
}
