package mining

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Config selects the mining algorithm. The zero value of every flag is the
// plain one-pass miner with the running-max pivot search.
type Config struct {
	// MinSupport is the minimum total weight of inputs producing a pattern.
	MinSupport int64 `json:"min_support" yaml:"min_support"`

	// PruneIrrelevantInputs drops inputs that have no accepting run.
	PruneIrrelevantInputs bool `json:"prune_irrelevant_inputs" yaml:"prune_irrelevant_inputs"`

	// UseTwoPass scans each input forward once to record its automaton trace
	// and then mines it backwards from the accepting positions.
	UseTwoPass bool `json:"use_two_pass" yaml:"use_two_pass"`

	SkipNonPivotTransitions bool `json:"skip_non_pivot_transitions" yaml:"skip_non_pivot_transitions"`
	UseMaxPivot             bool `json:"use_max_pivot" yaml:"use_max_pivot"`
	UseFirstPivotVersion    bool `json:"use_first_pivot_version" yaml:"use_first_pivot_version"`

	// UseCompressedTransitions computes pivot candidates per transition
	// instead of per output item.
	UseCompressedTransitions bool `json:"use_compressed_transitions" yaml:"use_compressed_transitions"`

	// UseTransitionRepresentation ships accepting paths instead of raw inputs
	// to the partitions. Inputs of a miner are then encoded paths.
	UseTransitionRepresentation bool `json:"use_transition_representation" yaml:"use_transition_representation"`
	UseTreeRepresentation       bool `json:"use_tree_representation" yaml:"use_tree_representation"`
	MergeSuffixes               bool `json:"merge_suffixes" yaml:"merge_suffixes"`

	EdfaCacheSize int `json:"edfa_cache_size" yaml:"edfa_cache_size"`
}

func DefaultConfig(minSupport int64) Config {
	return Config{
		MinSupport:            minSupport,
		PruneIrrelevantInputs: true,
	}
}

func (c Config) Validate() error {
	if c.MinSupport < 1 {
		return fmt.Errorf("min support must be at least 1, got %d", c.MinSupport)
	}
	if c.EdfaCacheSize < 0 {
		return fmt.Errorf("edfa cache size must not be negative, got %d", c.EdfaCacheSize)
	}
	return nil
}

// Normalized resolves inconsistent flag combinations and logs a warning for
// each of them.
func (c Config) Normalized() Config {
	logCtx := log.WithFields(log.Fields{"config": c})
	if c.UseTwoPass && !c.PruneIrrelevantInputs {
		logCtx.Warn("Two-pass mining always prunes irrelevant inputs.")
	}
	if c.UseTreeRepresentation && !c.UseTransitionRepresentation {
		logCtx.Warn("Tree representation requires the transition representation. Enabling it.")
		c.UseTransitionRepresentation = true
	}
	if c.MergeSuffixes && !c.UseTreeRepresentation {
		logCtx.Warn("Merging suffixes requires the tree representation. Ignoring merge_suffixes.")
		c.MergeSuffixes = false
	}
	if c.UseTwoPass && c.UseTransitionRepresentation {
		logCtx.Warn("Two-pass mining is not available on path representations. Using one-pass.")
		c.UseTwoPass = false
	}
	if c.UseFirstPivotVersion && (c.UseCompressedTransitions || c.UseTwoPass) {
		logCtx.Warn("First pivot version only runs one-pass on output items. Ignoring it.")
		c.UseFirstPivotVersion = false
	}
	return c
}

func (c Config) usesPaths() bool {
	return c.UseTransitionRepresentation
}

func (c Config) needsEdfa() bool {
	return c.PruneIrrelevantInputs || c.UseTwoPass
}
