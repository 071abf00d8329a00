package mining

import (
	"sort"

	"desq/fst"
)

// incStepOnePass follows the FST forward from (state, pos) through epsilon
// outputs and records every admitted output item in the children of a.node.
// It reports whether an accepting configuration is reachable without further
// output.
func (d *DesqDfs) incStepOnePass(a *incStepArgs, state *fst.State, pos, level int) bool {
	d.stats.TotalRecursions++
	seq := a.input.items
	accepted := state.IsFinal() && (pos == len(seq) || !d.fst.RequireFullMatch())
	if pos == len(seq) {
		return accepted
	}

	it := state.Consume(seq[pos], d.scratch.itemStateIterator(level))
	for it.Next() {
		is := it.Value()
		if is.Item == 0 {
			if d.incStepOnePass(a, is.State, pos+1, level+1) {
				accepted = true
			}
		} else if d.admits(is.Item) {
			a.node.expandWithItem(is.Item, a.inputID, a.input.support, is.State.ID(), pos+1, d.numStates)
		}
	}
	return accepted
}

// incStepTwoPass is incStepOnePass run backwards: pos is the number of items
// not yet consumed and transitions are only taken from states the forward
// scan reached. Outputs are therefore collected in reverse.
func (d *DesqDfs) incStepTwoPass(a *incStepArgs, state *fst.State, pos, level int) bool {
	d.stats.TotalRecursions++
	seq := a.input.items
	if pos == 0 {
		d.checkInitial(state, len(seq))
		return true
	}

	accepted := false
	allowed := a.input.edfaStates[pos-1].FstStates()
	it := state.ConsumeReverse(seq[pos-1], d.scratch.itemStateIterator(level), allowed)
	for it.Next() {
		is := it.Value()
		if is.Item == 0 {
			if d.incStepTwoPass(a, is.State, pos-1, level+1) {
				accepted = true
			}
		} else if d.admits(is.Item) {
			a.node.expandWithItem(is.Item, a.inputID, a.input.support, is.State.ID(), pos-1, d.numStates)
		}
	}
	return accepted
}

func (d *DesqDfs) incStepPath(a *incStepArgs, pos int) bool {
	if d.conf.UseTreeRepresentation {
		return d.incStepTree(a, pos)
	}
	return d.incStepConcat(a, pos)
}

// incStepConcat reads the (transition, item) pair at pos of a concatenated
// path buffer. pos 0 starts every path; reaching the end of a path accepts.
func (d *DesqDfs) incStepConcat(a *incStepArgs, pos int) bool {
	buf := a.input.items
	if pos >= len(buf) {
		return true
	}
	numPaths := buf[0]
	if pos == 0 {
		accepted := false
		for i := 0; i < numPaths; i++ {
			accepted = d.followPair(a, buf[1+i], buf[1+i]+2) || accepted
		}
		return accepted
	}
	starts := buf[1 : 1+numPaths]
	if i := sort.SearchInts(starts, pos); i < len(starts) && starts[i] == pos {
		return true
	}
	return d.followPair(a, pos, pos+2)
}

// incStepTree reads the path state serialized at pos of an OutputNfa buffer.
func (d *DesqDfs) incStepTree(a *incStepArgs, pos int) bool {
	buf := a.input.items
	numOutgoing := buf[pos]
	accepted := numOutgoing <= 0
	if numOutgoing < 0 {
		numOutgoing = -numOutgoing
	}
	for i := 0; i < numOutgoing; i++ {
		readPos := buf[pos+1+i]
		followPos := readPos + 2
		if d.conf.MergeSuffixes {
			followPos = buf[readPos+2]
		}
		accepted = d.followPair(a, readPos, followPos) || accepted
	}
	return accepted
}

func (d *DesqDfs) followPair(a *incStepArgs, readPos, followPos int) bool {
	d.stats.TotalRecursions++
	buf := a.input.items
	tr := d.fst.TransitionByNumber(buf[readPos])
	if tr.OutputLabelType() == fst.OutputEpsilon {
		return d.incStepPath(a, followPos)
	}
	outputs := tr.AppendOutputElements(d.scratch.outputs[:0], buf[readPos+1])
	d.scratch.outputs = outputs
	for _, item := range outputs {
		if d.admits(item) {
			a.node.expandWithOffset(item, a.inputID, a.input.support, followPos)
		}
	}
	return false
}
