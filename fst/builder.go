package fst

import (
	"encoding/json"
	"fmt"
	"io"

	"desq/dictionary"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type transitionSpec struct {
	from, to    int
	inputLabel  int
	matchExact  bool
	outputType  OutputLabelType
	outputLabel int
}

// Builder assembles an Fst. The first state added is the initial state.
type Builder struct {
	dict             *dictionary.Dictionary
	finals           []bool
	transitions      []transitionSpec
	requireFullMatch bool
}

func NewBuilder(dict *dictionary.Dictionary) *Builder {
	return &Builder{dict: dict}
}

// AddState adds a state and returns its id.
func (b *Builder) AddState(final bool) int {
	b.finals = append(b.finals, final)
	return len(b.finals) - 1
}

func (b *Builder) SetFinal(id int, final bool) {
	if id >= 0 && id < len(b.finals) {
		b.finals[id] = final
	}
}

func (b *Builder) SetRequireFullMatch(requireFullMatch bool) {
	b.requireFullMatch = requireFullMatch
}

// AddTransition adds a transition and returns its number. Validation happens
// in Build.
func (b *Builder) AddTransition(from, to, inputLabel int, matchExact bool,
	outputType OutputLabelType, outputLabel int) int {
	b.transitions = append(b.transitions, transitionSpec{
		from:        from,
		to:          to,
		inputLabel:  inputLabel,
		matchExact:  matchExact,
		outputType:  outputType,
		outputLabel: outputLabel,
	})
	return len(b.transitions) - 1
}

func (b *Builder) Build() (*Fst, error) {
	if b.dict == nil {
		return nil, fmt.Errorf("fst requires a dictionary")
	}
	if len(b.finals) == 0 {
		return nil, fmt.Errorf("fst has no states")
	}

	f := &Fst{
		states:           make([]*State, len(b.finals)),
		transitions:      make([]*Transition, 0, len(b.transitions)),
		requireFullMatch: b.requireFullMatch,
		dict:             b.dict,
	}
	for id, final := range b.finals {
		f.states[id] = &State{id: id, final: final}
		if final {
			f.finalStates = append(f.finalStates, f.states[id])
		}
	}

	for number, ts := range b.transitions {
		if ts.from < 0 || ts.from >= len(f.states) || ts.to < 0 || ts.to >= len(f.states) {
			return nil, fmt.Errorf("transition %d connects unknown states %d -> %d", number, ts.from, ts.to)
		}
		if ts.inputLabel < 0 || (ts.inputLabel > 0 && !b.dict.Contains(ts.inputLabel)) {
			return nil, fmt.Errorf("transition %d has unknown input label %d", number, ts.inputLabel)
		}
		switch ts.outputType {
		case OutputConstant:
			if !b.dict.Contains(ts.outputLabel) {
				return nil, fmt.Errorf("transition %d has unknown output label %d", number, ts.outputLabel)
			}
		case OutputEpsilon, OutputSelf, OutputSelfGeneralize:
			if ts.outputLabel != 0 {
				return nil, fmt.Errorf("transition %d of type %v must not carry an output label", number, ts.outputType)
			}
		default:
			return nil, fmt.Errorf("transition %d has invalid output label type %d", number, int(ts.outputType))
		}

		tr := &Transition{
			number:      number,
			from:        f.states[ts.from],
			to:          f.states[ts.to],
			inputLabel:  ts.inputLabel,
			matchExact:  ts.matchExact,
			outputType:  ts.outputType,
			outputLabel: ts.outputLabel,
			dict:        b.dict,
		}
		tr.from.outgoing = append(tr.from.outgoing, tr)
		tr.to.incoming = append(tr.to.incoming, tr)
		f.transitions = append(f.transitions, tr)
	}

	log.WithFields(log.Fields{
		"states":      len(f.states),
		"transitions": len(f.transitions),
		"finalStates": len(f.finalStates),
	}).Debug("Built fst.")
	return f, nil
}

// Definition is the file representation of an Fst.
type Definition struct {
	RequireFullMatch bool                   `json:"require_full_match"`
	States           []StateDefinition      `json:"states"`
	Transitions      []TransitionDefinition `json:"transitions"`
}

type StateDefinition struct {
	ID    int  `json:"id"`
	Final bool `json:"final"`
}

type TransitionDefinition struct {
	From        int             `json:"from"`
	To          int             `json:"to"`
	Input       int             `json:"input"`
	MatchExact  bool            `json:"match_exact"`
	Output      OutputLabelType `json:"output"`
	OutputLabel int             `json:"output_label,omitempty"`
}

func LoadDefinition(r io.Reader) (*Definition, error) {
	var def Definition
	if err := json.NewDecoder(r).Decode(&def); err != nil {
		return nil, errors.Wrap(err, "failed to decode fst definition")
	}
	return &def, nil
}

// Build creates the Fst. State ids must be 0..n-1, state 0 is initial.
func (def *Definition) Build(dict *dictionary.Dictionary) (*Fst, error) {
	finals := make([]bool, len(def.States))
	seen := make([]bool, len(def.States))
	for _, s := range def.States {
		if s.ID < 0 || s.ID >= len(def.States) || seen[s.ID] {
			return nil, fmt.Errorf("state ids must be unique and in [0, %d), got %d", len(def.States), s.ID)
		}
		seen[s.ID] = true
		finals[s.ID] = s.Final
	}

	b := NewBuilder(dict)
	for _, final := range finals {
		b.AddState(final)
	}
	b.SetRequireFullMatch(def.RequireFullMatch)
	for _, t := range def.Transitions {
		b.AddTransition(t.From, t.To, t.Input, t.MatchExact, t.Output, t.OutputLabel)
	}
	return b.Build()
}

// Definition returns the file representation of f.
func (f *Fst) Definition() *Definition {
	def := &Definition{RequireFullMatch: f.requireFullMatch}
	for _, s := range f.states {
		def.States = append(def.States, StateDefinition{ID: s.id, Final: s.final})
	}
	for _, t := range f.transitions {
		def.Transitions = append(def.Transitions, TransitionDefinition{
			From:        t.from.id,
			To:          t.to.id,
			Input:       t.inputLabel,
			MatchExact:  t.matchExact,
			Output:      t.outputType,
			OutputLabel: t.outputLabel,
		})
	}
	return def
}
