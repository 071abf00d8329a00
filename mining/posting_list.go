package mining

import (
	"encoding/binary"
	"fmt"
)

// postingList stores one posting per input as a run of uvarints, each value
// v written as v+1 so that a zero byte can separate postings.
type postingList []byte

func (pl postingList) newPosting() postingList {
	return append(pl, 0)
}

func (pl postingList) addNonNegativeInt(v int) postingList {
	if v < 0 {
		panic(fmt.Sprintf("posting value %d is negative", v))
	}
	return binary.AppendUvarint(pl, uint64(v)+1)
}

type postingIterator struct {
	data postingList
	off  int
}

func (it *postingIterator) reset(data postingList) {
	it.data = data
	it.off = 0
}

// nextPosting skips the rest of the current posting and moves to the next
// one. It reports false at the end of the list.
func (it *postingIterator) nextPosting() bool {
	for it.hasNext() {
		it.nextNonNegativeInt()
	}
	if it.off >= len(it.data) {
		return false
	}
	it.off++
	return true
}

// hasNext reports whether the current posting has more values.
func (it *postingIterator) hasNext() bool {
	return it.off < len(it.data) && it.data[it.off] != 0
}

func (it *postingIterator) nextNonNegativeInt() int {
	v, n := binary.Uvarint(it.data[it.off:])
	if n <= 0 {
		panic(fmt.Sprintf("corrupt posting list at offset %d", it.off))
	}
	it.off += n
	return int(v - 1)
}
