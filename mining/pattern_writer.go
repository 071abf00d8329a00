package mining

import (
	"encoding/json"
	"io"
	"sync"

	"desq/dictionary"
	"desq/sequence"
)

// PatternWriter receives the frequent sequences found by a miner. The items
// slice is only valid during the call.
type PatternWriter interface {
	Write(items []int, support int64) error
	// WriteReverse receives a pattern whose items are in reverse order.
	WriteReverse(reversed []int, support int64) error
}

// MemoryPatternWriter collects patterns in memory. It is safe for concurrent
// use.
type MemoryPatternWriter struct {
	mu       sync.Mutex
	Patterns []sequence.WeightedSequence
}

func (w *MemoryPatternWriter) Write(items []int, support int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Patterns = append(w.Patterns, sequence.WeightedSequence{Items: append([]int(nil), items...), Support: support})
	return nil
}

func (w *MemoryPatternWriter) WriteReverse(reversed []int, support int64) error {
	return w.Write(reverse(reversed), support)
}

// Reset drops the collected patterns.
func (w *MemoryPatternWriter) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Patterns = nil
}

// Map returns the collected patterns keyed by their items.
func (w *MemoryPatternWriter) Map() map[string]int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	m := make(map[string]int64, len(w.Patterns))
	for _, p := range w.Patterns {
		m[sequence.FormatDel(sequence.WeightedSequence{Items: p.Items, Support: 1})] = p.Support
	}
	return m
}

// Duplicates returns the patterns collected more than once.
func (w *MemoryPatternWriter) Duplicates() []sequence.WeightedSequence {
	w.mu.Lock()
	defer w.mu.Unlock()
	seen := make(map[string]bool, len(w.Patterns))
	var dups []sequence.WeightedSequence
	for _, p := range w.Patterns {
		key := sequence.FormatDel(sequence.WeightedSequence{Items: p.Items, Support: 1})
		if seen[key] {
			dups = append(dups, p)
		}
		seen[key] = true
	}
	return dups
}

func reverse(items []int) []int {
	out := make([]int, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return out
}

// jsonPattern is one line written by JSONPatternWriter.
type jsonPattern struct {
	Items   []int    `json:"items"`
	Sids    []string `json:"sids,omitempty"`
	Support int64    `json:"support"`
}

// JSONPatternWriter writes one JSON object per pattern. With a dictionary the
// sids of the items are included.
type JSONPatternWriter struct {
	mu   sync.Mutex
	enc  *json.Encoder
	dict *dictionary.Dictionary
}

func NewJSONPatternWriter(w io.Writer, dict *dictionary.Dictionary) *JSONPatternWriter {
	return &JSONPatternWriter{enc: json.NewEncoder(w), dict: dict}
}

func (w *JSONPatternWriter) Write(items []int, support int64) error {
	p := jsonPattern{Items: items, Support: support}
	if w.dict != nil {
		p.Sids = w.dict.SidsOf(items)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(p)
}

func (w *JSONPatternWriter) WriteReverse(reversed []int, support int64) error {
	return w.Write(reverse(reversed), support)
}

// DelPatternWriter writes patterns in the delimited format with their
// support as weight.
type DelPatternWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewDelPatternWriter(w io.Writer) *DelPatternWriter {
	return &DelPatternWriter{w: w}
}

func (w *DelPatternWriter) Write(items []int, support int64) error {
	line := sequence.FormatDel(sequence.WeightedSequence{Items: items, Support: support})
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := io.WriteString(w.w, line+"\n")
	return err
}

func (w *DelPatternWriter) WriteReverse(reversed []int, support int64) error {
	return w.Write(reverse(reversed), support)
}
