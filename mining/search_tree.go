package mining

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// searchTreeNode is one output prefix of the search. Its projected database
// lists, per input, the positions from which the prefix can be continued.
type searchTreeNode struct {
	item              int
	prefixSupport     int64
	projectedDatabase postingList
	currentInputID    int

	// positions already recorded for currentInputID
	currentSnapshots *roaring64.Bitmap

	children   map[int]*searchTreeNode
	childItems []int
}

func newSearchTreeNode(item int) *searchTreeNode {
	return &searchTreeNode{
		item:             item,
		currentInputID:   -1,
		currentSnapshots: roaring64.New(),
	}
}

func (n *searchTreeNode) child(item int) *searchTreeNode {
	if n.children == nil {
		n.children = make(map[int]*searchTreeNode)
	}
	c, ok := n.children[item]
	if !ok {
		c = newSearchTreeNode(item)
		n.children[item] = c
	}
	return c
}

// startInput opens a posting for inputID unless it is already open.
func (n *searchTreeNode) startInput(inputID int, support int64) {
	if inputID == n.currentInputID {
		return
	}
	n.projectedDatabase = n.projectedDatabase.newPosting()
	n.projectedDatabase = n.projectedDatabase.addNonNegativeInt(inputID - n.currentInputID)
	n.currentInputID = inputID
	n.prefixSupport += support
	n.currentSnapshots.Clear()
}

// expandWithItem records (state, pos) for the child of the given item.
func (n *searchTreeNode) expandWithItem(item, inputID int, support int64, state, pos, numStates int) {
	c := n.child(item)
	c.startInput(inputID, support)
	if c.currentSnapshots.CheckedAdd(uint64(pos)*uint64(numStates) + uint64(state)) {
		c.projectedDatabase = c.projectedDatabase.addNonNegativeInt(state)
		c.projectedDatabase = c.projectedDatabase.addNonNegativeInt(pos)
	}
}

// expandWithOffset records a read offset into an encoded path input.
func (n *searchTreeNode) expandWithOffset(item, inputID int, support int64, offset int) {
	c := n.child(item)
	c.startInput(inputID, support)
	if c.currentSnapshots.CheckedAdd(uint64(offset)) {
		c.projectedDatabase = c.projectedDatabase.addNonNegativeInt(offset)
	}
}

// pruneInfrequentChildren drops children below minSupport and fixes the
// ascending order in which the rest are expanded.
func (n *searchTreeNode) pruneInfrequentChildren(minSupport int64) {
	n.childItems = n.childItems[:0]
	for item, c := range n.children {
		if c.prefixSupport < minSupport {
			delete(n.children, item)
			continue
		}
		n.childItems = append(n.childItems, item)
	}
	sort.Ints(n.childItems)
}

// invalidate releases everything but the item and support.
func (n *searchTreeNode) invalidate() {
	n.projectedDatabase = nil
	n.currentSnapshots = nil
	n.children = nil
	n.childItems = nil
}
