package fst

import (
	"fmt"
	"sort"

	"desq/dictionary"
)

// OutputLabelType tells what a transition emits for the item it consumes.
type OutputLabelType int

const (
	OutputEpsilon OutputLabelType = iota
	OutputConstant
	OutputSelf
	OutputSelfGeneralize
)

var outputLabelTypeNames = map[OutputLabelType]string{
	OutputEpsilon:        "epsilon",
	OutputConstant:       "constant",
	OutputSelf:           "self",
	OutputSelfGeneralize: "self_generalize",
}

func (t OutputLabelType) String() string {
	if name, ok := outputLabelTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("OutputLabelType(%d)", int(t))
}

func (t OutputLabelType) MarshalText() ([]byte, error) {
	name, ok := outputLabelTypeNames[t]
	if !ok {
		return nil, fmt.Errorf("invalid output label type %d", int(t))
	}
	return []byte(name), nil
}

func (t *OutputLabelType) UnmarshalText(text []byte) error {
	for value, name := range outputLabelTypeNames {
		if name == string(text) {
			*t = value
			return nil
		}
	}
	return fmt.Errorf("invalid output label type %q", string(text))
}

// Transition consumes one input item. An input label of 0 matches every item.
type Transition struct {
	number      int
	from        *State
	to          *State
	inputLabel  int
	matchExact  bool
	outputType  OutputLabelType
	outputLabel int
	dict        *dictionary.Dictionary
}

func (t *Transition) Number() int                      { return t.number }
func (t *Transition) From() *State                     { return t.from }
func (t *Transition) To() *State                       { return t.to }
func (t *Transition) InputLabel() int                  { return t.inputLabel }
func (t *Transition) MatchExact() bool                 { return t.matchExact }
func (t *Transition) OutputLabelType() OutputLabelType { return t.outputType }
func (t *Transition) OutputLabel() int                 { return t.outputLabel }

// Matches reports whether the transition can consume the item.
func (t *Transition) Matches(item int) bool {
	if t.inputLabel == 0 || item == t.inputLabel {
		return true
	}
	return !t.matchExact && t.dict.IsDescendantOrSelf(item, t.inputLabel)
}

// AddAscendantFids appends the proper ancestors of item that the transition
// may emit when generalizing: those still below the input label, or all of
// them for a transition matching any item.
func (t *Transition) AddAscendantFids(item int, dst []int) []int {
	for _, a := range t.dict.Ascendants(item) {
		if a == item {
			continue
		}
		if t.inputLabel == 0 || t.dict.IsDescendantOrSelf(a, t.inputLabel) {
			dst = append(dst, a)
		}
	}
	return dst
}

// AppendOutputElements appends the items emitted when consuming item, in
// ascending order. Nothing is appended for epsilon output.
func (t *Transition) AppendOutputElements(dst []int, item int) []int {
	switch t.outputType {
	case OutputEpsilon:
		return dst
	case OutputConstant:
		return append(dst, t.outputLabel)
	case OutputSelf:
		return append(dst, item)
	case OutputSelfGeneralize:
		start := len(dst)
		dst = append(dst, item)
		dst = t.AddAscendantFids(item, dst)
		sort.Ints(dst[start:])
		return dst
	}
	panic(fmt.Sprintf("unhandled output label type %v", t.outputType))
}

func (t *Transition) OutputElements(item int) []int {
	return t.AppendOutputElements(nil, item)
}

func (t *Transition) String() string {
	exact := ""
	if t.matchExact {
		exact = "="
	}
	return fmt.Sprintf("%d: %d -[%s%d:%v/%d]-> %d", t.number, t.from.id, exact,
		t.inputLabel, t.outputType, t.outputLabel, t.to.id)
}

type State struct {
	id       int
	final    bool
	outgoing []*Transition
	incoming []*Transition
}

func (s *State) ID() int                            { return s.id }
func (s *State) IsFinal() bool                      { return s.final }
func (s *State) Transitions() []*Transition         { return s.outgoing }
func (s *State) IncomingTransitions() []*Transition { return s.incoming }

// Fst is an immutable item transducer. State 0 is the initial state.
type Fst struct {
	states           []*State
	transitions      []*Transition
	finalStates      []*State
	requireFullMatch bool
	dict             *dictionary.Dictionary
}

func (f *Fst) InitialState() *State                 { return f.states[0] }
func (f *Fst) NumStates() int                       { return len(f.states) }
func (f *Fst) State(id int) *State                  { return f.states[id] }
func (f *Fst) NumTransitions() int                  { return len(f.transitions) }
func (f *Fst) FinalStates() []*State                { return f.finalStates }
func (f *Fst) RequireFullMatch() bool               { return f.requireFullMatch }
func (f *Fst) Dictionary() *dictionary.Dictionary   { return f.dict }
func (f *Fst) TransitionByNumber(n int) *Transition { return f.transitions[n] }
