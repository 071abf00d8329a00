package mining

import (
	"sort"

	"desq/edfa"
	"desq/fst"

	"github.com/RoaringBitmap/roaring/v2"
)

// pivotHeap is an ascending set of pivot candidates.
type pivotHeap struct {
	items []int
}

func (h *pivotHeap) clear() {
	h.items = h.items[:0]
}

func (h *pivotHeap) size() int {
	return len(h.items)
}

// union sets h to current[>=min(add)] ∪ add[>=min(current)]. add must be
// ascending without duplicates; an empty current yields add.
func (h *pivotHeap) union(current *pivotHeap, add []int) {
	h.items = h.items[:0]
	if current == nil || len(current.items) == 0 {
		h.items = append(h.items, add...)
		return
	}
	cur := current.items[sort.SearchInts(current.items, add[0]):]
	add = add[sort.SearchInts(add, current.items[0]):]
	i, j := 0, 0
	for i < len(cur) || j < len(add) {
		switch {
		case j == len(add) || (i < len(cur) && cur[i] < add[j]):
			h.items = append(h.items, cur[i])
			i++
		case i == len(cur) || add[j] < cur[i]:
			h.items = append(h.items, add[j])
			j++
		default:
			h.items = append(h.items, cur[i])
			i++
			j++
		}
	}
}

// pivotMemo remembers, for one target state, the best pivot an explored
// branch accepted with.
type pivotMemo struct {
	max      int
	accepted bool
}

// scratch holds per-recursion-level buffers. A frame at level l only uses
// index l; the frames it calls use l+1.
type scratch struct {
	itemStateIts  []*fst.ItemStateIterator
	transitionIts []*fst.TransitionIterator
	heaps         []*pivotHeap
	visited       []*roaring.Bitmap
	memos         []map[int]pivotMemo

	outputs      []int
	edfaStates   []*edfa.State
	edfaFinalPos []int
	pathPrefix   []int
	outputPrefix []int
}

func (s *scratch) itemStateIterator(level int) *fst.ItemStateIterator {
	for len(s.itemStateIts) <= level {
		s.itemStateIts = append(s.itemStateIts, fst.NewItemStateIterator())
	}
	return s.itemStateIts[level]
}

func (s *scratch) transitionIterator(level int) *fst.TransitionIterator {
	for len(s.transitionIts) <= level {
		s.transitionIts = append(s.transitionIts, fst.NewTransitionIterator())
	}
	return s.transitionIts[level]
}

func (s *scratch) heap(level int) *pivotHeap {
	for len(s.heaps) <= level {
		s.heaps = append(s.heaps, &pivotHeap{})
	}
	return s.heaps[level]
}

// visitedStates returns the cleared target-state set of a frame.
func (s *scratch) visitedStates(level int) *roaring.Bitmap {
	for len(s.visited) <= level {
		s.visited = append(s.visited, roaring.New())
	}
	s.visited[level].Clear()
	return s.visited[level]
}

// memo returns the cleared max-pivot memo of a frame.
func (s *scratch) memo(level int) map[int]pivotMemo {
	for len(s.memos) <= level {
		s.memos = append(s.memos, make(map[int]pivotMemo))
	}
	m := s.memos[level]
	for k := range m {
		delete(m, k)
	}
	return m
}

// reset drops buffers grown by an unusually long input.
func (s *scratch) reset() {
	const keepLevels = 1024
	if len(s.itemStateIts) > keepLevels {
		s.itemStateIts = s.itemStateIts[:keepLevels]
	}
	if len(s.transitionIts) > keepLevels {
		s.transitionIts = s.transitionIts[:keepLevels]
	}
	if len(s.heaps) > keepLevels {
		s.heaps = s.heaps[:keepLevels]
	}
	if len(s.visited) > keepLevels {
		s.visited = s.visited[:keepLevels]
	}
	if len(s.memos) > keepLevels {
		s.memos = s.memos[:keepLevels]
	}
	s.outputs = s.outputs[:0]
	s.pathPrefix = s.pathPrefix[:0]
	s.outputPrefix = s.outputPrefix[:0]
}
