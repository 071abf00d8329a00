package mining

import (
	"fmt"
	"sort"

	"desq/sequence"

	log "github.com/sirupsen/logrus"
)

// Partitions maps a pivot item to the inputs that produce at least one output
// with that pivot. With a path representation configured the inputs are
// encoded path buffers.
type Partitions map[int][]sequence.WeightedSequence

// Pivots returns the partition keys in ascending order.
func (p Partitions) Pivots() []int {
	pivots := make([]int, 0, len(p))
	for pivot := range p {
		pivots = append(pivots, pivot)
	}
	sort.Ints(pivots)
	return pivots
}

func (p Partitions) NumSequences() int {
	n := 0
	for _, seqs := range p {
		n += len(seqs)
	}
	return n
}

// CreatePartitions routes every input to the partitions of its pivot items.
func (d *DesqDfs) CreatePartitions(inputs []sequence.WeightedSequence) (Partitions, error) {
	partitions := make(Partitions)
	for i, in := range inputs {
		if d.conf.usesPaths() {
			encoded, err := d.EncodePaths(in.Items)
			if err != nil {
				return nil, fmt.Errorf("input %d: %v", i, err)
			}
			for pivot, buf := range encoded {
				partitions[pivot] = append(partitions[pivot], sequence.WeightedSequence{Items: buf, Support: in.Support})
			}
			continue
		}
		pivots, err := d.PivotItems(in.Items)
		if err != nil {
			return nil, fmt.Errorf("input %d: %v", i, err)
		}
		for _, pivot := range pivots {
			partitions[pivot] = append(partitions[pivot], in)
		}
	}

	log.WithFields(log.Fields{
		"inputs":     len(inputs),
		"partitions": len(partitions),
		"sequences":  partitions.NumSequences(),
	}).Debug("Created partitions.")
	return partitions, nil
}

// EncodePaths returns, per pivot item, the accepting paths of one input that
// produce an output with that pivot, encoded for the configured path
// representation.
func (d *DesqDfs) EncodePaths(items []int) (encoded map[int][]int, err error) {
	defer recoverAbort(&err)
	d.pivotItems.Clear()
	d.paths = make(map[int][][]int)
	d.nfas = make(map[int]*OutputNfa)
	d.scratch.pathPrefix = d.scratch.pathPrefix[:0]

	if d.edfa != nil && d.conf.PruneIrrelevantInputs && !d.edfa.IsRelevant(items, 0) {
		return nil, nil
	}
	ps := pivotSearch{seq: items, recordPaths: true}
	d.piStepCompressed(&ps, nil, d.fst.InitialState(), 0, 0)

	encoded = make(map[int][]int)
	if d.conf.UseTreeRepresentation {
		for pivot, nfa := range d.nfas {
			nfa.MergeSuffixes()
			encoded[pivot] = nfa.Write(nil)
		}
	} else {
		for pivot, paths := range d.paths {
			encoded[pivot] = encodeConcat(paths)
		}
	}
	return encoded, nil
}

func (d *DesqDfs) recordPath(pivots []int) {
	for _, pivot := range pivots {
		if d.conf.UseTreeRepresentation {
			nfa, ok := d.nfas[pivot]
			if !ok {
				nfa = NewOutputNfa(d.conf.MergeSuffixes)
				d.nfas[pivot] = nfa
			}
			nfa.AddPath(d.scratch.pathPrefix)
			continue
		}
		d.paths[pivot] = append(d.paths[pivot], append([]int(nil), d.scratch.pathPrefix...))
	}
}

// encodeConcat lays paths out as [n, start_1 .. start_n, pairs...].
func encodeConcat(paths [][]int) []int {
	size := 1 + len(paths)
	for _, p := range paths {
		size += len(p)
	}
	buf := make([]int, 1+len(paths), size)
	buf[0] = len(paths)
	for i, p := range paths {
		buf[1+i] = len(buf)
		buf = append(buf, p...)
	}
	return buf
}

// PathsFromConcat decodes a concatenated path buffer.
func PathsFromConcat(buf []int) ([][]int, error) {
	if len(buf) == 0 || buf[0] < 0 || len(buf) < 1+buf[0] {
		return nil, fmt.Errorf("invalid concatenated path buffer")
	}
	n := buf[0]
	paths := make([][]int, n)
	for i := 0; i < n; i++ {
		start, end := buf[1+i], len(buf)
		if i+1 < n {
			end = buf[2+i]
		}
		if start < 1+n || end < start || end > len(buf) || (end-start)%2 != 0 {
			return nil, fmt.Errorf("invalid offsets for path %d", i)
		}
		paths[i] = append([]int(nil), buf[start:end]...)
	}
	return paths, nil
}

// PathsFromNfa enumerates the accepted paths of a serialized OutputNfa.
func PathsFromNfa(buf []int, mergedSuffixes bool) ([][]int, error) {
	var paths [][]int
	var prefix []int
	var visit func(pos, depth int) error
	visit = func(pos, depth int) error {
		if pos < 0 || pos >= len(buf) || depth > len(buf) {
			return fmt.Errorf("invalid state offset %d", pos)
		}
		numOutgoing := buf[pos]
		if numOutgoing <= 0 {
			paths = append(paths, append([]int{}, prefix...))
			numOutgoing = -numOutgoing
		}
		for i := 0; i < numOutgoing; i++ {
			readPos := buf[pos+1+i]
			if readPos+1 >= len(buf) {
				return fmt.Errorf("invalid arc offset %d", readPos)
			}
			followPos := readPos + 2
			if mergedSuffixes {
				followPos = buf[readPos+2]
			}
			prefix = append(prefix, buf[readPos], buf[readPos+1])
			if err := visit(followPos, depth+1); err != nil {
				return err
			}
			prefix = prefix[:len(prefix)-2]
		}
		return nil
	}
	if err := visit(0, 0); err != nil {
		return nil, err
	}
	return paths, nil
}
