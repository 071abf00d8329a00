package mining

import (
	"sort"

	"desq/edfa"
	"desq/fst"

	"github.com/RoaringBitmap/roaring/v2"
)

// pivotSearch is the per-sequence context of a pivot item search.
type pivotSearch struct {
	seq        []int
	twoPass    bool
	edfaStates []*edfa.State
	// record the (transition, item) pairs of accepting paths per pivot
	recordPaths bool
}

// PivotItems returns the ascending pivot items of one input sequence: the
// largest item of each of its outputs that contain only frequent items.
func (d *DesqDfs) PivotItems(items []int) (pivots []int, err error) {
	defer recoverAbort(&err)
	d.pivotItems.Clear()
	ps := pivotSearch{seq: items}

	if d.conf.UseTwoPass && !d.conf.usesPaths() {
		states, finalPos, relevant := d.edfa.IsRelevantTrace(items, 0, d.scratch.edfaStates, d.scratch.edfaFinalPos)
		d.scratch.edfaStates, d.scratch.edfaFinalPos = states, finalPos
		if !relevant {
			return nil, nil
		}
		ps.twoPass = true
		ps.edfaStates = states
		for _, pos := range finalPos {
			for _, state := range states[pos].FstFinalStates() {
				if d.conf.UseCompressedTransitions {
					d.piStepCompressed(&ps, nil, state, pos, 0)
				} else {
					d.piStep(&ps, 0, state, pos, 0)
				}
			}
		}
		return bitmapInts(d.pivotItems), nil
	}

	if d.edfa != nil && d.conf.PruneIrrelevantInputs && !d.edfa.IsRelevant(items, 0) {
		return nil, nil
	}
	initial := d.fst.InitialState()
	switch {
	case d.conf.UseFirstPivotVersion:
		d.scratch.outputPrefix = d.scratch.outputPrefix[:0]
		d.piStepFirst(&ps, initial, 0, 0)
	case d.conf.UseCompressedTransitions:
		d.piStepCompressed(&ps, nil, initial, 0, 0)
	default:
		d.piStep(&ps, 0, initial, 0, 0)
	}
	return bitmapInts(d.pivotItems), nil
}

// DeterminePivotItems runs the pivot search over all inputs and returns the
// number of inputs with at least one pivot and the total number of pivots.
func (d *DesqDfs) DeterminePivotItems(inputs [][]int) (int, int, error) {
	numSequences, numPivots := 0, 0
	for _, items := range inputs {
		pivots, err := d.PivotItems(items)
		if err != nil {
			return numSequences, numPivots, err
		}
		if len(pivots) > 0 {
			numSequences++
			numPivots += len(pivots)
		}
	}
	return numSequences, numPivots, nil
}

func bitmapInts(b *roaring.Bitmap) []int {
	values := b.ToArray()
	if len(values) == 0 {
		return nil
	}
	ints := make([]int, len(values))
	for i, v := range values {
		ints[i] = int(v)
	}
	return ints
}

// accepting reports whether (state, pos) ends an accepting run.
func (d *DesqDfs) accepting(ps *pivotSearch, state *fst.State, pos int) bool {
	if ps.twoPass {
		if pos == 0 {
			d.checkInitial(state, len(ps.seq))
			return true
		}
		return false
	}
	return state.IsFinal() && (pos == len(ps.seq) || !d.fst.RequireFullMatch())
}

// step returns the item read when leaving pos and the position after it, or
// false at the end of the input in the search direction.
func (ps *pivotSearch) step(pos int) (int, int, bool) {
	if ps.twoPass {
		if pos == 0 {
			return 0, 0, false
		}
		return ps.seq[pos-1], pos - 1, true
	}
	if pos == len(ps.seq) {
		return 0, 0, false
	}
	return ps.seq[pos], pos + 1, true
}

// piStepFirst enumerates output prefixes and takes the maximum of each
// accepted one.
func (d *DesqDfs) piStepFirst(ps *pivotSearch, state *fst.State, pos, level int) {
	d.stats.TotalRecursions++
	if len(d.scratch.outputPrefix) > 0 && d.accepting(ps, state, pos) {
		d.pivotItems.Add(uint32(maxItem(d.scratch.outputPrefix)))
	}
	item, next, ok := ps.step(pos)
	if !ok {
		return
	}
	it := state.Consume(item, d.scratch.itemStateIterator(level))
	for it.Next() {
		is := it.Value()
		if is.Item == 0 {
			d.piStepFirst(ps, is.State, next, level+1)
		} else if is.Item <= d.largestFrequentFid {
			d.scratch.outputPrefix = append(d.scratch.outputPrefix, is.Item)
			d.piStepFirst(ps, is.State, next, level+1)
			d.scratch.outputPrefix = d.scratch.outputPrefix[:len(d.scratch.outputPrefix)-1]
		}
	}
}

// piStep tracks the running maximum of the output. It returns the largest
// pivot accepted below (state, pos) and whether any run was accepted.
func (d *DesqDfs) piStep(ps *pivotSearch, pivot int, state *fst.State, pos, level int) (int, bool) {
	d.stats.TotalRecursions++
	best, accepted := 0, false
	if d.accepting(ps, state, pos) {
		accepted, best = true, pivot
		if pivot > 0 {
			d.pivotItems.Add(uint32(pivot))
		}
	}
	item, next, ok := ps.step(pos)
	if !ok {
		return best, accepted
	}

	var it *fst.ItemStateIterator
	if ps.twoPass {
		it = state.ConsumeReverse(item, d.scratch.itemStateIterator(level), ps.edfaStates[next].FstStates())
	} else {
		it = state.Consume(item, d.scratch.itemStateIterator(level))
	}

	var visited *roaring.Bitmap
	if d.conf.SkipNonPivotTransitions {
		visited = d.scratch.visitedStates(level)
	}
	var memo map[int]pivotMemo
	if d.conf.UseMaxPivot {
		memo = d.scratch.memo(level)
	}

	for it.Next() {
		is := it.Value()
		if is.Item > d.largestFrequentFid {
			continue
		}
		newPivot := pivot
		if is.Item > newPivot {
			newPivot = is.Item
		}
		to := is.State.ID()

		// the same state with the same pivot is the same subproblem
		if visited != nil && newPivot == pivot && !visited.CheckedAdd(uint32(to)) {
			d.stats.NonPivotTransitionsSkipped++
			continue
		}
		if memo != nil {
			if m, seen := memo[to]; seen {
				if !m.accepted {
					d.stats.MaxPivotUsed++
					continue
				}
				// every run below to yields newPivot itself
				if newPivot >= m.max {
					d.stats.MaxPivotUsed++
					if newPivot > 0 {
						d.pivotItems.Add(uint32(newPivot))
					}
					accepted = true
					if newPivot > best {
						best = newPivot
					}
					continue
				}
			}
		}

		found, foundAccepted := d.piStep(ps, newPivot, is.State, next, level+1)
		if foundAccepted {
			accepted = true
			if found > best {
				best = found
			}
		}
		if memo != nil {
			m := memo[to]
			if foundAccepted {
				m.accepted = true
				if found > m.max {
					m.max = found
				}
			}
			memo[to] = m
		}
	}
	return best, accepted
}

// piStepCompressed follows whole transitions and keeps the set of candidate
// pivots: current[>=min(add)] ∪ add[>=min(current)] for the frequent outputs
// add of each transition.
func (d *DesqDfs) piStepCompressed(ps *pivotSearch, current *pivotHeap, state *fst.State, pos, level int) {
	d.stats.TotalRecursions++
	if current != nil && current.size() > 0 && d.accepting(ps, state, pos) {
		for _, pivot := range current.items {
			d.pivotItems.Add(uint32(pivot))
		}
		if ps.recordPaths {
			d.recordPath(current.items)
		}
	}
	item, next, ok := ps.step(pos)
	if !ok {
		return
	}

	var it *fst.TransitionIterator
	if ps.twoPass {
		it = state.ConsumeCompressedReverse(item, d.scratch.transitionIterator(level), ps.edfaStates[next].FstStates())
	} else {
		it = state.ConsumeCompressed(item, d.scratch.transitionIterator(level))
	}

	for it.Next() {
		tr := it.Transition()
		target := tr.To()
		if ps.twoPass {
			target = tr.From()
		}
		if tr.OutputLabelType() == fst.OutputEpsilon {
			d.piStepCompressed(ps, current, target, next, level+1)
			continue
		}

		outputs := tr.AppendOutputElements(d.scratch.outputs[:0], item)
		d.scratch.outputs = outputs
		outputs = outputs[:sort.SearchInts(outputs, d.largestFrequentFid+1)]
		if len(outputs) == 0 {
			continue
		}
		heap := d.scratch.heap(level)
		heap.union(current, outputs)

		if ps.recordPaths {
			pathItem := item
			if tr.OutputLabelType() == fst.OutputConstant {
				pathItem = tr.OutputLabel()
			}
			d.scratch.pathPrefix = append(d.scratch.pathPrefix, tr.Number(), pathItem)
		}
		d.piStepCompressed(ps, heap, target, next, level+1)
		if ps.recordPaths {
			d.scratch.pathPrefix = d.scratch.pathPrefix[:len(d.scratch.pathPrefix)-2]
		}
	}
}
