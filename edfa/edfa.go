package edfa

import (
	"encoding/binary"
	"fmt"

	"desq/fst"

	"github.com/RoaringBitmap/roaring/v2"
	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"
)

const DefaultCacheSize = 1 << 16

// State is a set of FST states reachable on some input prefix.
type State struct {
	id          int
	fstStates   *roaring.Bitmap
	finalStates []*fst.State
}

func (s *State) ID() int { return s.id }

// FstStates returns the FST states of s. The bitmap must not be modified.
func (s *State) FstStates() *roaring.Bitmap { return s.fstStates }

// FstFinalStates returns the final FST states contained in s.
func (s *State) FstFinalStates() []*fst.State { return s.finalStates }

func (s *State) IsFinal() bool { return len(s.finalStates) > 0 }

func (s *State) IsEmpty() bool { return s.fstStates.IsEmpty() }

// ExtendedDfa is the deterministic automaton over sets of FST states. States
// and transitions are built lazily while sequences are scanned.
type ExtendedDfa struct {
	fst         *fst.Fst
	initial     *State
	states      []*State
	index       map[string]*State
	transitions *lru.Cache
	it          *fst.TransitionIterator
}

func New(f *fst.Fst, cacheSize int) (*ExtendedDfa, error) {
	if f == nil {
		return nil, fmt.Errorf("edfa requires an fst")
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	e := &ExtendedDfa{
		fst:         f,
		index:       make(map[string]*State),
		transitions: cache,
		it:          fst.NewTransitionIterator(),
	}
	e.initial = e.intern(roaring.BitmapOf(uint32(f.InitialState().ID())))
	return e, nil
}

func (e *ExtendedDfa) InitialState() *State { return e.initial }

// NumStates returns the number of states materialized so far.
func (e *ExtendedDfa) NumStates() int { return len(e.states) }

func stateKey(fstStates *roaring.Bitmap) string {
	values := fstStates.ToArray()
	key := make([]byte, 0, 4*len(values))
	for _, v := range values {
		key = binary.LittleEndian.AppendUint32(key, v)
	}
	return string(key)
}

func (e *ExtendedDfa) intern(fstStates *roaring.Bitmap) *State {
	key := stateKey(fstStates)
	if s, ok := e.index[key]; ok {
		return s
	}
	s := &State{id: len(e.states), fstStates: fstStates}
	it := fstStates.Iterator()
	for it.HasNext() {
		fs := e.fst.State(int(it.Next()))
		if fs.IsFinal() {
			s.finalStates = append(s.finalStates, fs)
		}
	}
	e.states = append(e.states, s)
	e.index[key] = s
	return s
}

// Transition returns the state reached from s when reading item.
func (e *ExtendedDfa) Transition(s *State, item int) *State {
	key := uint64(s.id)<<32 | uint64(uint32(item))
	if next, ok := e.transitions.Get(key); ok {
		return next.(*State)
	}

	reached := roaring.New()
	it := s.fstStates.Iterator()
	for it.HasNext() {
		fs := e.fst.State(int(it.Next()))
		fs.ConsumeCompressed(item, e.it)
		for e.it.Next() {
			reached.Add(uint32(e.it.Transition().To().ID()))
		}
	}
	next := e.intern(reached)
	e.transitions.Add(key, next)
	return next
}

// IsRelevant reports whether some run of the FST on seq[startPos:] is
// accepting.
func (e *ExtendedDfa) IsRelevant(seq []int, startPos int) bool {
	requireFullMatch := e.fst.RequireFullMatch()
	s := e.initial
	for pos := startPos; pos < len(seq); pos++ {
		if !requireFullMatch && s.IsFinal() {
			return true
		}
		s = e.Transition(s, seq[pos])
		if s.IsEmpty() {
			return false
		}
	}
	return s.IsFinal()
}

// IsRelevantTrace scans seq like IsRelevant but records the trace needed for
// backward processing. Both outputs are indexed by position in seq:
// states[i] is the state before reading seq[i] (nil for i < startPos) and
// finalPos lists the positions at which an accepting run may end. The given
// slices are reused.
func (e *ExtendedDfa) IsRelevantTrace(seq []int, startPos int, states []*State, finalPos []int) ([]*State, []int, bool) {
	requireFullMatch := e.fst.RequireFullMatch()
	states = states[:0]
	for i := 0; i < startPos; i++ {
		states = append(states, nil)
	}
	states = append(states, e.initial)
	finalPos = finalPos[:0]
	s := e.initial
	for pos := startPos; ; pos++ {
		if s.IsFinal() && (!requireFullMatch || pos == len(seq)) {
			finalPos = append(finalPos, pos)
		}
		if pos == len(seq) {
			break
		}
		s = e.Transition(s, seq[pos])
		if s.IsEmpty() {
			break
		}
		states = append(states, s)
	}
	return states, finalPos, len(finalPos) > 0
}

// LogStats logs the number of states and cached transitions at debug level.
func (e *ExtendedDfa) LogStats() {
	log.WithFields(log.Fields{
		"states":            len(e.states),
		"cachedTransitions": e.transitions.Len(),
	}).Debug("Edfa stats.")
}
