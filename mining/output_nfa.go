package mining

import (
	"sort"
)

// pathState is a state of an OutputNfa. Arcs are keyed by the packed
// (transition number, item) pair.
type pathState struct {
	id        int
	final     bool
	retired   bool
	writtenAt int
	out       map[uint64]int
	in        map[uint64][]int
}

func pathKey(trNo, item int) uint64 {
	return uint64(uint32(trNo))<<32 | uint64(uint32(item))
}

func unpackPathKey(key uint64) (int, int) {
	return int(int32(key >> 32)), int(int32(uint32(key)))
}

// OutputNfa collects the accepting paths of one input for one pivot as a
// tree of (transition, item) arcs, optionally with equal suffixes merged.
type OutputNfa struct {
	states        []*pathState
	mergeSuffixes bool
}

func NewOutputNfa(mergeSuffixes bool) *OutputNfa {
	n := &OutputNfa{mergeSuffixes: mergeSuffixes}
	n.newState()
	return n
}

func (n *OutputNfa) newState() *pathState {
	s := &pathState{id: len(n.states), writtenAt: -1, out: make(map[uint64]int)}
	if n.mergeSuffixes {
		s.in = make(map[uint64][]int)
	}
	n.states = append(n.states, s)
	return s
}

func (n *OutputNfa) root() *pathState {
	return n.states[0]
}

// NumStates returns the number of live states.
func (n *OutputNfa) NumStates() int {
	live := 0
	for _, s := range n.states {
		if !s.retired {
			live++
		}
	}
	return live
}

// AddPath adds a path of (transition number, item) pairs and marks its end
// as final.
func (n *OutputNfa) AddPath(path []int) {
	current := n.root()
	for i := 0; i+1 < len(path); i += 2 {
		current = n.followTransition(current, pathKey(path[i], path[i+1]))
	}
	current.final = true
}

func (n *OutputNfa) followTransition(from *pathState, key uint64) *pathState {
	if to, ok := from.out[key]; ok {
		return n.states[to]
	}
	to := n.newState()
	if n.mergeSuffixes {
		to.in[key] = []int{from.id}
	}
	from.out[key] = to.id
	return to
}

// MergeSuffixes merges every leaf into the first one and, transitively, every
// predecessor pair that then has identical outgoing arcs and finality.
func (n *OutputNfa) MergeSuffixes() {
	if !n.mergeSuffixes {
		return
	}
	var leaves []*pathState
	for _, s := range n.states[1:] {
		if !s.retired && len(s.out) == 0 {
			leaves = append(leaves, s)
		}
	}
	if len(leaves) < 2 {
		return
	}
	keep := leaves[0]
	for _, leaf := range leaves[1:] {
		n.attemptMerge(keep, leaf)
	}
}

func (n *OutputNfa) sameOutgoing(a, b *pathState) bool {
	if len(a.out) != len(b.out) {
		return false
	}
	for key, to := range a.out {
		if other, ok := b.out[key]; !ok || other != to {
			return false
		}
	}
	return true
}

// attemptMerge merges drop into keep if both have the same finality and
// outgoing arcs. Predecessors reaching both by the same arc are merged
// recursively.
func (n *OutputNfa) attemptMerge(keep, drop *pathState) bool {
	if keep == drop {
		return true
	}
	if keep.retired || drop.retired || keep.id == 0 || drop.id == 0 || keep.final != drop.final || !n.sameOutgoing(keep, drop) {
		return false
	}

	for _, key := range sortedKeys(drop.in) {
		predecessors := drop.in[key]
		if _, ok := keep.in[key]; !ok {
			keep.in[key] = predecessors
			for _, p := range predecessors {
				n.states[p].out[key] = keep.id
			}
			continue
		}
		for _, p := range predecessors {
			pred := n.states[p]
			pred.out[key] = keep.id
			merged := false
			candidates := append([]int(nil), keep.in[key]...)
			for _, c := range candidates {
				if n.attemptMerge(n.states[c], pred) {
					merged = true
					break
				}
			}
			if !merged {
				keep.in[key] = append(keep.in[key], p)
			}
		}
	}

	for key, to := range drop.out {
		target := n.states[to]
		target.in[key] = removeID(target.in[key], drop.id)
	}
	drop.retired = true
	return true
}

func removeID(ids []int, id int) []int {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Write appends the serialized NFA to dst. Each state is written as its arc
// count (negated for final states) followed by one offset per arc; each arc
// is the pair (transition, item), followed by the offset of its target state
// when suffixes are merged and by the target state itself otherwise.
func (n *OutputNfa) Write(dst []int) []int {
	for _, s := range n.states {
		s.writtenAt = -1
	}
	return n.write(dst, n.root())
}

func (n *OutputNfa) write(dst []int, s *pathState) []int {
	start := len(dst)
	s.writtenAt = start
	numOutgoing := len(s.out)
	if s.final {
		dst = append(dst, -numOutgoing)
	} else {
		dst = append(dst, numOutgoing)
	}
	for i := 0; i < numOutgoing; i++ {
		dst = append(dst, 0)
	}

	for i, key := range sortedKeys(s.out) {
		dst[start+1+i] = len(dst)
		trNo, item := unpackPathKey(key)
		dst = append(dst, trNo, item)
		target := n.states[s.out[key]]
		if !n.mergeSuffixes {
			dst = n.write(dst, target)
			continue
		}
		if target.writtenAt >= 0 {
			dst = append(dst, target.writtenAt)
		} else {
			dst = append(dst, len(dst)+1)
			dst = n.write(dst, target)
		}
	}
	return dst
}
