package sequence

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelReader(t *testing.T) {
	input := "1 2 3\n\n3\t4 5\n   \n7\n"
	seqs, err := ReadAll(NewDelReader(strings.NewReader(input)))
	require.Nil(t, err)
	assert.Equal(t, []WeightedSequence{
		{Items: []int{1, 2, 3}, Support: 1},
		{Items: []int{4, 5}, Support: 3},
		{Items: []int{7}, Support: 1},
	}, seqs)
}

func TestDelReaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad item", "1 x 3\n"},
		{"bad weight", "w\t1 2\n"},
		{"zero weight", "0\t1 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadAll(NewDelReader(strings.NewReader("5 6\n" + tt.input)))
			require.NotNil(t, err)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestWriteDel(t *testing.T) {
	seqs := []WeightedSequence{
		{Items: []int{3, 1}, Support: 1},
		{Items: []int{-2, 9, 0}, Support: 4},
	}
	var buf bytes.Buffer
	require.Nil(t, WriteDel(&buf, seqs))
	assert.Equal(t, "3 1\n4\t-2 9 0\n", buf.String())

	read, err := ReadAll(NewDelReader(&buf))
	require.Nil(t, err)
	assert.Equal(t, seqs, read)
}

func TestWriteDelEmptySequences(t *testing.T) {
	seqs := []WeightedSequence{
		{Items: []int{}, Support: 3},
		{Items: []int{}, Support: 1},
		{Items: []int{5}, Support: 1},
	}
	var buf bytes.Buffer
	require.Nil(t, WriteDel(&buf, seqs))
	assert.Equal(t, "3\t\n1\t\n5\n", buf.String())

	read, err := ReadAll(NewDelReader(&buf))
	require.Nil(t, err)
	assert.Equal(t, seqs, read)
}

func TestParseDel(t *testing.T) {
	tests := []struct {
		line     string
		expected WeightedSequence
	}{
		{"3\t", WeightedSequence{Items: []int{}, Support: 3}},
		{"3\t  ", WeightedSequence{Items: []int{}, Support: 3}},
		{" 2 \t4 5 ", WeightedSequence{Items: []int{4, 5}, Support: 2}},
		{"3", WeightedSequence{Items: []int{3}, Support: 1}},
		{"4 6", WeightedSequence{Items: []int{4, 6}, Support: 1}},
	}
	for _, tt := range tests {
		seq, err := ParseDel(tt.line)
		require.Nil(t, err, tt.line)
		assert.Equal(t, tt.expected, seq, tt.line)
	}
}

func TestDelReaderCarriageReturn(t *testing.T) {
	seqs, err := ReadAll(NewDelReader(strings.NewReader("2\t\r\n1 2\r\n")))
	require.Nil(t, err)
	assert.Equal(t, []WeightedSequence{
		{Items: []int{}, Support: 2},
		{Items: []int{1, 2}, Support: 1},
	}, seqs)
}
