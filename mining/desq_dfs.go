package mining

import (
	"fmt"
	"time"

	"desq/dictionary"
	"desq/edfa"
	"desq/fst"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DesqDfs mines the frequent output sequences of an Fst by depth-first search
// over output prefixes. A DesqDfs is not safe for concurrent use; run one per
// partition.
type DesqDfs struct {
	conf               Config
	fst                *fst.Fst
	dict               *dictionary.Dictionary
	edfa               *edfa.ExtendedDfa
	writer             PatternWriter
	largestFrequentFid int
	numStates          int

	inputs []input
	pivot  int

	pivotItems *roaring.Bitmap
	paths      map[int][][]int
	nfas       map[int]*OutputNfa

	scratch scratch
	stats   Stats
}

type input struct {
	items      []int
	support    int64
	edfaStates []*edfa.State
	finalPos   []int
}

// incStepArgs bundles what every step of one input needs.
type incStepArgs struct {
	inputID int
	input   *input
	node    *searchTreeNode
}

// abort carries a fatal error out of the recursion.
type abort struct {
	err error
}

func (d *DesqDfs) fail(err error) {
	panic(abort{err: err})
}

func recoverAbort(err *error) {
	if r := recover(); r != nil {
		a, ok := r.(abort)
		if !ok {
			panic(r)
		}
		*err = a.err
	}
}

// NewDesqDfs creates a miner. The writer may be nil when the miner is only
// used to compute pivot items or partitions.
func NewDesqDfs(conf Config, f *fst.Fst, dict *dictionary.Dictionary, writer PatternWriter) (*DesqDfs, error) {
	if f == nil || dict == nil {
		return nil, fmt.Errorf("miner requires an fst and a dictionary")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	conf = conf.Normalized()

	d := &DesqDfs{
		conf:               conf,
		fst:                f,
		dict:               dict,
		writer:             writer,
		largestFrequentFid: dict.LargestFidAboveDfreq(conf.MinSupport),
		numStates:          f.NumStates(),
		pivotItems:         roaring.New(),
	}
	if conf.needsEdfa() {
		e, err := edfa.New(f, conf.EdfaCacheSize)
		if err != nil {
			return nil, err
		}
		d.edfa = e
	}

	log.WithFields(log.Fields{
		"minSupport":         conf.MinSupport,
		"largestFrequentFid": d.largestFrequentFid,
		"fstStates":          d.numStates,
	}).Debug("Created miner.")
	return d, nil
}

func (d *DesqDfs) Config() Config { return d.conf }

func (d *DesqDfs) LargestFrequentFid() int { return d.largestFrequentFid }

func (d *DesqDfs) Stats() Stats { return d.stats }

func (d *DesqDfs) NumInputs() int { return len(d.inputs) }

// AddInputSequence stores one input. Raw inputs without an accepting run are
// dropped when pruning or two-pass mining is on. With a path representation
// configured, items must be an encoded path buffer.
func (d *DesqDfs) AddInputSequence(items []int, support int64) error {
	if support < 1 {
		return fmt.Errorf("input support must be positive, got %d", support)
	}
	in := input{items: append([]int(nil), items...), support: support}

	if !d.conf.usesPaths() {
		if d.conf.UseTwoPass {
			states, finalPos, relevant := d.edfa.IsRelevantTrace(in.items, 0,
				d.scratch.edfaStates, d.scratch.edfaFinalPos)
			d.scratch.edfaStates, d.scratch.edfaFinalPos = states, finalPos
			if !relevant {
				d.stats.NumPrunedInputs++
				return nil
			}
			in.edfaStates = append([]*edfa.State(nil), states...)
			in.finalPos = append([]int(nil), finalPos...)
		} else if d.conf.PruneIrrelevantInputs && !d.edfa.IsRelevant(in.items, 0) {
			d.stats.NumPrunedInputs++
			return nil
		}
	}

	d.inputs = append(d.inputs, in)
	d.stats.NumInputs++
	return nil
}

// Clear drops all stored inputs.
func (d *DesqDfs) Clear() {
	d.inputs = nil
	d.pivot = 0
	d.scratch.reset()
}

// Mine writes every frequent output sequence of the stored inputs.
func (d *DesqDfs) Mine() error {
	return d.MinePivot(0)
}

// MinePivot writes the frequent output sequences whose largest item is pivot.
// Pivot 0 mines everything.
func (d *DesqDfs) MinePivot(pivot int) (err error) {
	if d.writer == nil {
		return fmt.Errorf("miner has no pattern writer")
	}
	if pivot < 0 {
		return fmt.Errorf("invalid pivot %d", pivot)
	}
	defer recoverAbort(&err)

	start := time.Now()
	numPatterns := d.stats.NumPatterns
	d.pivot = pivot

	root := newSearchTreeNode(0)
	for inputID := range d.inputs {
		d.rootStep(root, inputID)
	}
	root.pruneInfrequentChildren(d.conf.MinSupport)
	d.expand(nil, root)

	log.WithFields(log.Fields{
		"pivot":    pivot,
		"inputs":   len(d.inputs),
		"patterns": d.stats.NumPatterns - numPatterns,
		"timeMs":   time.Since(start).Milliseconds(),
	}).Debug("Mined partition.")
	if d.edfa != nil {
		d.edfa.LogStats()
	}
	return nil
}

func (d *DesqDfs) rootStep(root *searchTreeNode, inputID int) {
	a := incStepArgs{inputID: inputID, input: &d.inputs[inputID], node: root}
	switch {
	case d.conf.usesPaths():
		d.incStepPath(&a, 0)
	case d.conf.UseTwoPass:
		for _, pos := range a.input.finalPos {
			for _, state := range a.input.edfaStates[pos].FstFinalStates() {
				d.incStepTwoPass(&a, state, pos, 0)
			}
		}
	default:
		d.incStepOnePass(&a, d.fst.InitialState(), 0, 0)
	}
}

// expand processes all children of node: it computes their support from
// their projected databases, emits them, and recurses. prefix holds the
// output of node and is returned with the same content.
func (d *DesqDfs) expand(prefix []int, node *searchTreeNode) []int {
	var it postingIterator
	for _, item := range node.childItems {
		child := node.children[item]
		prefix = append(prefix, item)

		var support int64
		inputID := -1
		it.reset(child.projectedDatabase)
		for it.nextPosting() {
			inputID += it.nextNonNegativeInt()
			a := incStepArgs{inputID: inputID, input: &d.inputs[inputID], node: child}
			accepted := false
			for it.hasNext() {
				if d.conf.usesPaths() {
					accepted = d.incStepPath(&a, it.nextNonNegativeInt()) || accepted
					continue
				}
				state := d.fst.State(it.nextNonNegativeInt())
				pos := it.nextNonNegativeInt()
				if d.conf.UseTwoPass {
					accepted = d.incStepTwoPass(&a, state, pos, 0) || accepted
				} else {
					accepted = d.incStepOnePass(&a, state, pos, 0) || accepted
				}
			}
			if accepted {
				support += a.input.support
			}
		}

		if support >= d.conf.MinSupport && (d.pivot == 0 || maxItem(prefix) == d.pivot) {
			d.emit(prefix, support)
		}
		child.pruneInfrequentChildren(d.conf.MinSupport)
		if len(child.childItems) > 0 {
			prefix = d.expand(prefix, child)
		}
		child.invalidate()
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}

func (d *DesqDfs) emit(prefix []int, support int64) {
	var err error
	if d.conf.UseTwoPass {
		err = d.writer.WriteReverse(prefix, support)
	} else {
		err = d.writer.Write(prefix, support)
	}
	if err != nil {
		d.fail(errors.Wrap(err, "failed to write pattern"))
	}
	d.stats.NumPatterns++
}

// admits reports whether an output item may extend the current prefix.
func (d *DesqDfs) admits(item int) bool {
	return item <= d.largestFrequentFid && (d.pivot == 0 || item <= d.pivot)
}

func (d *DesqDfs) checkInitial(state *fst.State, inputLen int) {
	if state.ID() != d.fst.InitialState().ID() {
		d.fail(fmt.Errorf("backward run over input of length %d reached its start in state %d", inputLen, state.ID()))
	}
}

func maxItem(items []int) int {
	m := 0
	for _, item := range items {
		if item > m {
			m = item
		}
	}
	return m
}
