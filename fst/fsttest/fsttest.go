// Package fsttest provides small item hierarchies, random transducers and a
// brute-force reference for testing code that consumes an fst.Fst.
package fsttest

import (
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"desq/dictionary"
	"desq/fst"
)

const NumItems = 6

// Hierarchy returns items 1..6 with 3 and 4 below 1, 5 below 3 and 6 below 2.
// All counts are zero.
func Hierarchy() *dictionary.Dictionary {
	d := dictionary.New()
	d.AddItem(1, "a", 0)
	d.AddItem(2, "b", 0)
	d.AddItem(3, "c", 0, 1)
	d.AddItem(4, "d", 0, 1)
	d.AddItem(5, "e", 0, 3)
	d.AddItem(6, "f", 0, 2)
	return d
}

// Sequence is a weighted test input.
type Sequence struct {
	Items  []int
	Weight int64
}

// RandomSequences draws n sequences of length 1..maxLen over Hierarchy items.
func RandomSequences(rng *rand.Rand, n, maxLen int) []Sequence {
	seqs := make([]Sequence, n)
	for i := range seqs {
		length := 1 + rng.Intn(maxLen)
		items := make([]int, length)
		for j := range items {
			items[j] = 1 + rng.Intn(NumItems)
		}
		seqs[i] = Sequence{Items: items, Weight: int64(1 + rng.Intn(3))}
	}
	return seqs
}

// Random builds a transducer with 2..4 states and a few transitions per state.
func Random(rng *rand.Rand, dict *dictionary.Dictionary) *fst.Fst {
	b := fst.NewBuilder(dict)
	numStates := 2 + rng.Intn(3)
	for i := 0; i < numStates; i++ {
		b.AddState(i == numStates-1 || rng.Intn(4) == 0)
	}
	b.SetRequireFullMatch(rng.Intn(2) == 0)
	for from := 0; from < numStates; from++ {
		numTransitions := 1 + rng.Intn(3)
		for i := 0; i < numTransitions; i++ {
			to := rng.Intn(numStates)
			if i == 0 && from < numStates-1 {
				to = from + 1
			}
			input := 0
			if rng.Intn(3) > 0 {
				input = 1 + rng.Intn(NumItems)
			}
			exact := rng.Intn(4) == 0
			outputType := fst.OutputLabelType(rng.Intn(4))
			label := 0
			if outputType == fst.OutputConstant {
				label = 1 + rng.Intn(NumItems)
			}
			b.AddTransition(from, to, input, exact, outputType, label)
		}
	}
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}

// Key renders an item sequence as a map key.
func Key(items []int) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = strconv.Itoa(item)
	}
	return strings.Join(parts, " ")
}

// Accepts reports whether some run of f over seq is accepting.
func Accepts(f *fst.Fst, seq []int) bool {
	var visit func(state *fst.State, pos int) bool
	visit = func(state *fst.State, pos int) bool {
		if state.IsFinal() && (pos == len(seq) || !f.RequireFullMatch()) {
			return true
		}
		if pos == len(seq) {
			return false
		}
		for _, tr := range state.Transitions() {
			if tr.Matches(seq[pos]) && visit(tr.To(), pos+1) {
				return true
			}
		}
		return false
	}
	return visit(f.InitialState(), 0)
}

// Outputs returns every non-empty output sequence f produces for seq, keyed
// by Key.
func Outputs(f *fst.Fst, seq []int) map[string][]int {
	type config struct{ state, pos int }
	memo := make(map[config]map[string][]int)

	var suffixes func(state *fst.State, pos int) map[string][]int
	suffixes = func(state *fst.State, pos int) map[string][]int {
		c := config{state.ID(), pos}
		if result, ok := memo[c]; ok {
			return result
		}
		result := make(map[string][]int)
		if state.IsFinal() && (pos == len(seq) || !f.RequireFullMatch()) {
			result[""] = []int{}
		}
		if pos < len(seq) {
			for _, tr := range state.Transitions() {
				if !tr.Matches(seq[pos]) {
					continue
				}
				rest := suffixes(tr.To(), pos+1)
				outputs := tr.OutputElements(seq[pos])
				if len(outputs) == 0 {
					for k, v := range rest {
						result[k] = v
					}
					continue
				}
				for _, o := range outputs {
					for _, v := range rest {
						out := append([]int{o}, v...)
						result[Key(out)] = out
					}
				}
			}
		}
		memo[c] = result
		return result
	}

	all := suffixes(f.InitialState(), 0)
	delete(all, "")
	return all
}

// Frequent aggregates outputs over all sequences and keeps those with support
// at least sigma whose items are all at most largestFid.
func Frequent(f *fst.Fst, seqs []Sequence, sigma int64, largestFid int) map[string]int64 {
	support := make(map[string]int64)
	for _, seq := range seqs {
		for key, out := range Outputs(f, seq.Items) {
			if maxItem(out) <= largestFid {
				support[key] += seq.Weight
			}
		}
	}
	for key, s := range support {
		if s < sigma {
			delete(support, key)
		}
	}
	return support
}

// Pivots returns the ascending distinct maxima of the outputs of seq whose
// items are all at most largestFid.
func Pivots(f *fst.Fst, seq []int, largestFid int) []int {
	set := make(map[int]bool)
	for _, out := range Outputs(f, seq) {
		if m := maxItem(out); m <= largestFid {
			set[m] = true
		}
	}
	pivots := make([]int, 0, len(set))
	for p := range set {
		pivots = append(pivots, p)
	}
	sort.Ints(pivots)
	return pivots
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
