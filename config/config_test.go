package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"desq/mining"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.Nil(t, ioutil.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromJSONFile(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"env": "staging",
		"storage": {"backend": "gcs", "bucket": "desq-staging"},
		"run_id": "r1",
		"distributed": true,
		"mining": {"min_support": 10, "use_two_pass": true, "prune_irrelevant_inputs": true}
	}`)

	conf, err := LoadFromFile(path)
	require.Nil(t, err)
	assert.Equal(t, STAGING, conf.Env)
	assert.Equal(t, "desq_mine_job", conf.AppName)
	assert.Equal(t, StorageConf{Backend: StorageGCS, Bucket: "desq-staging"}, conf.Storage)
	assert.Equal(t, 3, conf.NumRoutines)
	assert.True(t, conf.Distributed)
	assert.Equal(t, mining.Config{
		MinSupport:            10,
		PruneIrrelevantInputs: true,
		UseTwoPass:            true,
		EdfaCacheSize:         1 << 16,
	}, conf.Mining)
	assert.Nil(t, conf.Validate())
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
env: development
num_routines: 8
mining:
  min_support: 2
  use_transition_representation: true
  use_tree_representation: true
  merge_suffixes: true
`)

	conf, err := LoadFromFile(path)
	require.Nil(t, err)
	assert.Equal(t, DEVELOPMENT, conf.Env)
	assert.Equal(t, 8, conf.NumRoutines)
	assert.Equal(t, StorageDisk, conf.Storage.Backend)
	assert.Equal(t, int64(2), conf.Mining.MinSupport)
	assert.True(t, conf.Mining.MergeSuffixes)
	assert.Nil(t, conf.Validate())
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.NotNil(t, err)

	_, err = LoadFromFile(writeFile(t, "config.json", `{"env": `))
	assert.NotNil(t, err)

	_, err = LoadFromFile(writeFile(t, "config.yml", "unknown_field: 1\n"))
	assert.NotNil(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		modify  func(c *Configuration)
		wantErr bool
	}{
		{"defaults", func(c *Configuration) {}, false},
		{"unknown env", func(c *Configuration) { c.Env = "test" }, true},
		{"unknown backend", func(c *Configuration) { c.Storage.Backend = "ftp" }, true},
		{"s3 without region", func(c *Configuration) { c.Storage.Backend = StorageS3 }, true},
		{"s3 with region", func(c *Configuration) {
			c.Storage.Backend = StorageS3
			c.Storage.Region = "us-east-1"
		}, false},
		{"no routines", func(c *Configuration) { c.NumRoutines = 0 }, true},
		{"beam without partitions", func(c *Configuration) { c.RunOnBeam = true }, true},
		{"beam", func(c *Configuration) {
			c.RunOnBeam = true
			c.Distributed = true
		}, false},
		{"invalid mining", func(c *Configuration) { c.Mining.MinSupport = 0 }, true},
		{"no beam batch", func(c *Configuration) { c.BeamBatchSize = 0 }, true},
		{"pivots", func(c *Configuration) { c.Pivots = []int{3, 1} }, false},
		{"invalid pivot", func(c *Configuration) { c.Pivots = []int{0} }, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := DefaultConfiguration()
			tc.modify(conf)
			err := conf.Validate()
			if tc.wantErr {
				assert.NotNil(t, err)
			} else {
				assert.Nil(t, err)
			}
		})
	}
}

func TestInitConf(t *testing.T) {
	conf := DefaultConfiguration()
	InitConf(conf)
	assert.Same(t, conf, GetConfig())
	assert.True(t, IsDevelopment())
}
