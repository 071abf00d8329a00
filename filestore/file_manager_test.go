package filestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayout(t *testing.T) {
	testCases := []struct {
		name         string
		layout       Layout
		expectedDir  string
		expectedPart string
	}{
		{"object store", Layout{}, "runs/r1/", "runs/r1/partitions/"},
		{"disk", Layout{Root: "/tmp/desq"}, "/tmp/desq/runs/r1/", "/tmp/desq/runs/r1/partitions/"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expectedDir, tc.layout.GetRunDir("r1"), tc.name)

		path, name := tc.layout.GetPartitionFilePathAndName("r1", 7)
		assert.Equal(t, tc.expectedPart, path, tc.name)
		assert.Equal(t, "partition_7.del", name, tc.name)

		path, name = tc.layout.GetPatternsFilePathAndName("r1", 0)
		assert.Equal(t, tc.expectedDir, path, tc.name)
		assert.Equal(t, "patterns.json", name, tc.name)

		path, name = tc.layout.GetPatternsFilePathAndName("r1", 3)
		assert.Equal(t, tc.expectedDir+"patterns/", path, tc.name)
		assert.Equal(t, "patterns_3.json", name, tc.name)

		path, name = tc.layout.GetDictionaryFilePathAndName("r1")
		assert.Equal(t, tc.expectedDir, path, tc.name)
		assert.Equal(t, "dictionary.json", name, tc.name)
	}
}
