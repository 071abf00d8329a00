package fst

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// ItemState is one (output item, next state) pair produced by consuming an
// input item. Item is 0 for epsilon output. When consuming in reverse, State
// is the state the transition starts from.
type ItemState struct {
	Item       int
	State      *State
	Transition *Transition
}

// ItemStateIterator enumerates the ItemStates for one input item. Iterators
// are reusable; Consume and ConsumeReverse reset them.
type ItemStateIterator struct {
	transitions []*Transition
	item        int
	reverse     bool
	allowed     *roaring.Bitmap
	next        int

	outputs []int
	outIdx  int
	current ItemState
}

func NewItemStateIterator() *ItemStateIterator {
	return &ItemStateIterator{}
}

func (it *ItemStateIterator) reset(transitions []*Transition, item int, reverse bool, allowed *roaring.Bitmap) {
	it.transitions = transitions
	it.item = item
	it.reverse = reverse
	it.allowed = allowed
	it.next = 0
	it.outputs = it.outputs[:0]
	it.outIdx = 0
	it.current = ItemState{}
}

func (it *ItemStateIterator) Next() bool {
	for {
		if it.outIdx < len(it.outputs) {
			it.current.Item = it.outputs[it.outIdx]
			it.outIdx++
			return true
		}
		tr, target := nextMatching(it.transitions, &it.next, it.item, it.reverse, it.allowed)
		if tr == nil {
			return false
		}
		it.current.State = target
		it.current.Transition = tr
		it.outputs = tr.AppendOutputElements(it.outputs[:0], it.item)
		if len(it.outputs) == 0 {
			it.outputs = append(it.outputs, 0)
		}
		it.outIdx = 0
	}
}

func (it *ItemStateIterator) Value() ItemState {
	return it.current
}

// TransitionIterator enumerates whole matching transitions without
// expanding their outputs.
type TransitionIterator struct {
	transitions []*Transition
	item        int
	reverse     bool
	allowed     *roaring.Bitmap
	next        int
	current     *Transition
}

func NewTransitionIterator() *TransitionIterator {
	return &TransitionIterator{}
}

func (it *TransitionIterator) reset(transitions []*Transition, item int, reverse bool, allowed *roaring.Bitmap) {
	it.transitions = transitions
	it.item = item
	it.reverse = reverse
	it.allowed = allowed
	it.next = 0
	it.current = nil
}

func (it *TransitionIterator) Next() bool {
	it.current, _ = nextMatching(it.transitions, &it.next, it.item, it.reverse, it.allowed)
	return it.current != nil
}

func (it *TransitionIterator) Transition() *Transition {
	return it.current
}

func nextMatching(transitions []*Transition, next *int, item int, reverse bool, allowed *roaring.Bitmap) (*Transition, *State) {
	for *next < len(transitions) {
		tr := transitions[*next]
		*next++
		if !tr.Matches(item) {
			continue
		}
		target := tr.to
		if reverse {
			target = tr.from
		}
		if allowed != nil && !allowed.Contains(uint32(target.id)) {
			continue
		}
		return tr, target
	}
	return nil, nil
}

// Consume prepares it to enumerate the outputs of reading item in this state.
// A nil iterator is allocated.
func (s *State) Consume(item int, it *ItemStateIterator) *ItemStateIterator {
	if it == nil {
		it = NewItemStateIterator()
	}
	it.reset(s.outgoing, item, false, nil)
	return it
}

// ConsumeReverse enumerates the incoming transitions that read item and start
// in one of the allowed states (all states when allowed is nil).
func (s *State) ConsumeReverse(item int, it *ItemStateIterator, allowed *roaring.Bitmap) *ItemStateIterator {
	if it == nil {
		it = NewItemStateIterator()
	}
	it.reset(s.incoming, item, true, allowed)
	return it
}

func (s *State) ConsumeCompressed(item int, it *TransitionIterator) *TransitionIterator {
	if it == nil {
		it = NewTransitionIterator()
	}
	it.reset(s.outgoing, item, false, nil)
	return it
}

func (s *State) ConsumeCompressedReverse(item int, it *TransitionIterator, allowed *roaring.Bitmap) *TransitionIterator {
	if it == nil {
		it = NewTransitionIterator()
	}
	it.reset(s.incoming, item, true, allowed)
	return it
}
