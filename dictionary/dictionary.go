package dictionary

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Item is one entry of the item hierarchy. Fids are positive and smaller
// fids belong to more frequent items.
type Item struct {
	Fid     int    `json:"fid"`
	Sid     string `json:"sid"`
	Dfreq   int64  `json:"dfreq"`
	Cfreq   int64  `json:"cfreq"`
	Parents []int  `json:"parents,omitempty"`
}

// Dictionary holds the item hierarchy and its frequency statistics.
// It is safe for concurrent readers once fully populated.
type Dictionary struct {
	items map[int]*Item
	sids  map[string]int

	indexOnce  *sync.Once
	ascendants map[int][]int
}

func New() *Dictionary {
	return &Dictionary{
		items:     make(map[int]*Item),
		sids:      make(map[string]int),
		indexOnce: new(sync.Once),
	}
}

// AddItem registers an item. Parents may be added later.
func (d *Dictionary) AddItem(fid int, sid string, dfreq int64, parents ...int) error {
	if fid <= 0 {
		return fmt.Errorf("invalid fid %d for item %q", fid, sid)
	}
	if _, exists := d.items[fid]; exists {
		return fmt.Errorf("duplicate fid %d", fid)
	}
	if sid == "" {
		sid = fmt.Sprintf("%d", fid)
	}
	if other, exists := d.sids[sid]; exists {
		return fmt.Errorf("duplicate sid %q (fids %d and %d)", sid, other, fid)
	}
	item := &Item{Fid: fid, Sid: sid, Dfreq: dfreq, Parents: append([]int(nil), parents...)}
	d.items[fid] = item
	d.sids[sid] = fid
	d.invalidate()
	return nil
}

func (d *Dictionary) invalidate() {
	d.indexOnce = new(sync.Once)
	d.ascendants = nil
}

func (d *Dictionary) Size() int {
	return len(d.items)
}

func (d *Dictionary) Contains(fid int) bool {
	_, ok := d.items[fid]
	return ok
}

func (d *Dictionary) Item(fid int) (*Item, bool) {
	item, ok := d.items[fid]
	return item, ok
}

func (d *Dictionary) FidOf(sid string) (int, bool) {
	fid, ok := d.sids[sid]
	return fid, ok
}

func (d *Dictionary) SidOf(fid int) string {
	if item, ok := d.items[fid]; ok {
		return item.Sid
	}
	return fmt.Sprintf("%d", fid)
}

// SidsOf maps a fid sequence to its sids.
func (d *Dictionary) SidsOf(fids []int) []string {
	sids := make([]string, len(fids))
	for i, fid := range fids {
		sids[i] = d.SidOf(fid)
	}
	return sids
}

// FidsOf maps a sid sequence to fids.
func (d *Dictionary) FidsOf(sids ...string) ([]int, error) {
	fids := make([]int, len(sids))
	for i, sid := range sids {
		fid, ok := d.sids[sid]
		if !ok {
			return nil, fmt.Errorf("unknown item %q", sid)
		}
		fids[i] = fid
	}
	return fids, nil
}

// Fids returns all fids in ascending order.
func (d *Dictionary) Fids() []int {
	fids := make([]int, 0, len(d.items))
	for fid := range d.items {
		fids = append(fids, fid)
	}
	sort.Ints(fids)
	return fids
}

func (d *Dictionary) index() {
	d.indexOnce.Do(func() {
		ascendants := make(map[int][]int, len(d.items))
		for fid := range d.items {
			seen := map[int]bool{fid: true}
			stack := []int{fid}
			for len(stack) > 0 {
				current := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				item, ok := d.items[current]
				if !ok {
					continue
				}
				for _, parent := range item.Parents {
					if !seen[parent] {
						seen[parent] = true
						stack = append(stack, parent)
					}
				}
			}
			list := make([]int, 0, len(seen))
			for a := range seen {
				list = append(list, a)
			}
			sort.Ints(list)
			ascendants[fid] = list
		}
		d.ascendants = ascendants
	})
}

// Ascendants returns the item and all its ancestors in ascending fid order.
// The returned slice must not be modified.
func (d *Dictionary) Ascendants(fid int) []int {
	d.index()
	if list, ok := d.ascendants[fid]; ok {
		return list
	}
	return []int{fid}
}

// IsDescendantOrSelf reports whether fid equals ancestor or lies below it.
func (d *Dictionary) IsDescendantOrSelf(fid, ancestor int) bool {
	if fid == ancestor {
		return true
	}
	list := d.Ascendants(fid)
	i := sort.SearchInts(list, ancestor)
	return i < len(list) && list[i] == ancestor
}

// LargestFidAboveDfreq returns the largest fid whose document frequency is
// at least minDfreq, or 0 if there is none.
func (d *Dictionary) LargestFidAboveDfreq(minDfreq int64) int {
	largest := 0
	for fid, item := range d.items {
		if item.Dfreq >= minDfreq && fid > largest {
			largest = fid
		}
	}
	return largest
}

// ClearCounts resets all frequencies.
func (d *Dictionary) ClearCounts() {
	for _, item := range d.items {
		item.Dfreq = 0
		item.Cfreq = 0
	}
}

// IncCounts adds the weighted frequencies of one input sequence. Each
// ascendant of an item of the sequence counts once towards dfreq.
func (d *Dictionary) IncCounts(seq []int, weight int64) {
	seen := make(map[int]struct{})
	for _, fid := range seq {
		for _, a := range d.Ascendants(fid) {
			item, ok := d.items[a]
			if !ok {
				continue
			}
			item.Cfreq += weight
			if _, dup := seen[a]; !dup {
				seen[a] = struct{}{}
				item.Dfreq += weight
			}
		}
	}
}

// RecomputeFids reassigns fids by descending document frequency, ties
// broken by sid. Returns the mapping from old to new fids.
func (d *Dictionary) RecomputeFids() map[int]int {
	items := make([]*Item, 0, len(d.items))
	for _, item := range d.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Dfreq != items[j].Dfreq {
			return items[i].Dfreq > items[j].Dfreq
		}
		return items[i].Sid < items[j].Sid
	})

	mapping := make(map[int]int, len(items))
	for idx, item := range items {
		mapping[item.Fid] = idx + 1
	}

	reindexed := make(map[int]*Item, len(items))
	for _, item := range items {
		item.Fid = mapping[item.Fid]
		for i, parent := range item.Parents {
			if newFid, ok := mapping[parent]; ok {
				item.Parents[i] = newFid
			}
		}
		reindexed[item.Fid] = item
		d.sids[item.Sid] = item.Fid
	}
	d.items = reindexed
	d.invalidate()

	log.WithFields(log.Fields{"items": len(items)}).Debug("Recomputed fids.")
	return mapping
}

// Load reads a dictionary written as a JSON array of items.
func Load(r io.Reader) (*Dictionary, error) {
	var items []Item
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, errors.Wrap(err, "failed to decode dictionary")
	}
	d := New()
	for _, item := range items {
		if err := d.AddItem(item.Fid, item.Sid, item.Dfreq, item.Parents...); err != nil {
			return nil, err
		}
		d.items[item.Fid].Cfreq = item.Cfreq
	}
	for _, item := range d.items {
		for _, parent := range item.Parents {
			if _, ok := d.items[parent]; !ok {
				return nil, fmt.Errorf("item %d has unknown parent %d", item.Fid, parent)
			}
		}
	}
	return d, nil
}

// Write stores the dictionary in the format read by Load.
func (d *Dictionary) Write(w io.Writer) error {
	items := make([]Item, 0, len(d.items))
	for _, fid := range d.Fids() {
		items = append(items, *d.items[fid])
	}
	return json.NewEncoder(w).Encode(items)
}
