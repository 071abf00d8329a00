package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIntListFromString(t *testing.T) {
	testCases := []struct {
		input    string
		expected []int
		wantErr  bool
	}{
		{"", []int{}, false},
		{"3", []int{3}, false},
		{"3, 1,7", []int{3, 1, 7}, false},
		{"1,,2", []int{1, 2}, false},
		{"1,a", nil, true},
	}
	for _, tc := range testCases {
		result, err := GetIntListFromString(tc.input)
		if tc.wantErr {
			assert.NotNil(t, err, tc.input)
			continue
		}
		assert.Nil(t, err, tc.input)
		assert.Equal(t, tc.expected, result, tc.input)
	}
}

func TestGetIntListAsBatch(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, GetIntListAsBatch([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{}, GetIntListAsBatch(nil, 3))
}

func TestUUID(t *testing.T) {
	assert.Len(t, GetUUID(), 36)
	assert.NotEqual(t, GetUUID(), GetUUID())
	v := RandomIntInRange(3, 5)
	assert.True(t, v >= 3 && v < 5)
}
