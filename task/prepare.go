package task

import (
	"fmt"

	"desq/dictionary"
	"desq/filestore"
	"desq/fst"
	"desq/partition"
	"desq/sequence"

	log "github.com/sirupsen/logrus"
)

var prepareLog = taskLog.WithField("prefix", "Task#PrepareRun")

// PrepareRun validates a dictionary, fst definition and input and writes them
// as the files of run runID. With recomputeFids the item frequencies are
// counted on the input and fids are reassigned by descending frequency; the
// input and the item labels of def are rewritten accordingly.
func PrepareRun(cloudManager filestore.FileManager, runID string, dict *dictionary.Dictionary,
	def *fst.Definition, inputs []sequence.WeightedSequence, recomputeFids bool) error {

	logCtx := prepareLog.WithFields(log.Fields{"runID": runID, "inputs": len(inputs)})
	for i, in := range inputs {
		for _, item := range in.Items {
			if !dict.Contains(item) {
				return fmt.Errorf("input %d: unknown item %d", i, item)
			}
		}
	}

	if recomputeFids {
		dict.ClearCounts()
		for _, in := range inputs {
			dict.IncCounts(in.Items, in.Support)
		}
		mapping := dict.RecomputeFids()
		for i := range inputs {
			inputs[i].Items = remapItems(inputs[i].Items, mapping)
		}
		if err := remapDefinition(def, mapping); err != nil {
			return err
		}
		logCtx.WithField("items", len(mapping)).Info("Recomputed fids.")
	}

	f, err := def.Build(dict)
	if err != nil {
		logCtx.WithError(err).Error("Invalid fst definition.")
		return err
	}

	store := partition.NewStore(cloudManager, runID)
	if err := store.WriteDictionary(dict); err != nil {
		return err
	}
	if err := store.WriteFst(f); err != nil {
		return err
	}
	if err := store.WriteInput(inputs); err != nil {
		return err
	}
	logCtx.Info("Prepared run.")
	return nil
}

func remapItems(items []int, mapping map[int]int) []int {
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = mapping[item]
	}
	return out
}

// remapDefinition rewrites input labels and constant output labels. Label 0
// matches any item and is kept.
func remapDefinition(def *fst.Definition, mapping map[int]int) error {
	for i := range def.Transitions {
		t := &def.Transitions[i]
		if t.Input != 0 {
			fid, ok := mapping[t.Input]
			if !ok {
				return fmt.Errorf("transition %d: unknown input label %d", i, t.Input)
			}
			t.Input = fid
		}
		if t.Output == fst.OutputConstant {
			fid, ok := mapping[t.OutputLabel]
			if !ok {
				return fmt.Errorf("transition %d: unknown output label %d", i, t.OutputLabel)
			}
			t.OutputLabel = fid
		}
	}
	return nil
}
