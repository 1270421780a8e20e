package orderbook

import (
	"container/list"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"
	"tradecore/domain"
)

// bucketSize is the price span covered by one bucket; must be a power of
// two so bucket-local indexing can use a bitmask instead of modulo.
const bucketSize = 128

const bucketMask = bucketSize - 1

// bucket is one price shard: a fixed-size array indexed by price&bucketMask
// for O(1) level lookup, plus a doubly-linked list (via priceLevel.next/prev)
// threading the occupied slots in price-priority order.
type bucket struct {
	id         uint64
	levels     [bucketSize]*priceLevel
	best       *priceLevel
	size       int
	descending bool
}

func newBucket(id uint64, descending bool) *bucket {
	return &bucket{id: id, descending: descending}
}

func (b *bucket) betterPrice(a, c uint64) bool {
	if b.descending {
		return a > c
	}
	return a < c
}

func (b *bucket) insert(lvl *priceLevel) {
	b.levels[lvl.Price&bucketMask] = lvl
	b.size++

	if b.best == nil {
		b.best = lvl
		return
	}
	if b.betterPrice(lvl.Price, b.best.Price) {
		lvl.next = b.best
		b.best.prev = lvl
		b.best = lvl
		return
	}
	cur := b.best
	for cur.next != nil && !b.betterPrice(lvl.Price, cur.next.Price) {
		cur = cur.next
	}
	lvl.next = cur.next
	lvl.prev = cur
	if cur.next != nil {
		cur.next.prev = lvl
	}
	cur.next = lvl
}

func (b *bucket) remove(price uint64) {
	idx := price & bucketMask
	lvl := b.levels[idx]
	if lvl == nil {
		return
	}
	b.levels[idx] = nil
	b.size--

	if lvl.prev != nil {
		lvl.prev.next = lvl.next
	} else {
		b.best = lvl.next
	}
	if lvl.next != nil {
		lvl.next.prev = lvl.prev
	}
	lvl.next, lvl.prev = nil, nil
}

// shardedTree indexes price levels two layers deep: an outer red-black tree
// of buckets ordered by bucket id (O(log m) insert/remove of a bucket), and
// an inner fixed-array + linked-list bucket (O(1) level insert/remove).
// Better suited than hashMapTree to markets with many simultaneously-open
// price levels, since per-bucket operations stay O(1) regardless of book
// depth and only the rare cross-bucket case pays O(log m).
type shardedTree struct {
	buckets    *rbt.Tree[uint64, *bucket]
	bestBucket *bucket
	bestLevel  *priceLevel
	descending bool
}

var _ priceTree = (*shardedTree)(nil)

func newShardedTree(descending bool) *shardedTree {
	var cmp func(a, b uint64) int
	if descending {
		cmp = func(a, b uint64) int {
			switch {
			case a > b:
				return -1
			case a < b:
				return 1
			default:
				return 0
			}
		}
	} else {
		cmp = func(a, b uint64) int {
			switch {
			case a < b:
				return -1
			case a > b:
				return 1
			default:
				return 0
			}
		}
	}
	return &shardedTree{
		buckets:    rbt.NewWith[uint64, *bucket](cmp),
		descending: descending,
	}
}

func (t *shardedTree) bucketBetter(a, b uint64) bool {
	if t.descending {
		return a > b
	}
	return a < b
}

func (t *shardedTree) insert(order *domain.Order) {
	bucketID := order.Price / bucketSize
	bkt, found := t.buckets.Get(bucketID)
	if !found {
		bkt = newBucket(bucketID, t.descending)
		t.buckets.Put(bucketID, bkt)
	}

	idx := order.Price & bucketMask
	lvl := bkt.levels[idx]
	if lvl == nil {
		lvl = newPriceLevel(order.Price)
		bkt.insert(lvl)
	}
	lvl.push(order)

	if t.bestBucket == nil || t.bucketBetter(bucketID, t.bestBucket.id) {
		t.bestBucket = bkt
		t.bestLevel = bkt.best
	} else if bkt == t.bestBucket {
		t.bestLevel = bkt.best
	}
}

func (t *shardedTree) remove(order *domain.Order) *priceLevel {
	bucketID := order.Price / bucketSize
	bkt, found := t.buckets.Get(bucketID)
	if !found {
		return nil
	}
	lvl := bkt.levels[order.Price&bucketMask]
	if lvl == nil || order.ListElement == nil {
		return nil
	}
	elem, ok := order.ListElement.(*list.Element)
	if !ok {
		return nil
	}
	lvl.removeElem(elem, order.Remaining())
	order.ListElement = nil

	if lvl.Orders.Len() == 0 {
		bkt.remove(order.Price)
		if bkt.size == 0 {
			t.buckets.Remove(bucketID)
			if t.bestBucket == bkt {
				t.recomputeBest()
			}
		} else if t.bestLevel != nil && t.bestLevel.Price == order.Price {
			t.bestLevel = bkt.best
		}
	}
	return lvl
}

func (t *shardedTree) recomputeBest() {
	if t.buckets.Empty() {
		t.bestBucket = nil
		t.bestLevel = nil
		return
	}
	node := t.buckets.Left()
	t.bestBucket = node.Value
	t.bestLevel = node.Value.best
}

func (t *shardedTree) best() *priceLevel {
	return t.bestLevel
}

// walk visits buckets in the red-black tree's natural (already-sorted)
// order, then each bucket's internal price-priority chain, which together
// give global price-priority order without maintaining a cross-bucket list.
func (t *shardedTree) walk(visit func(*priceLevel) bool) {
	it := t.buckets.Iterator()
	for it.Next() {
		bkt := it.Value()
		for lvl := bkt.best; lvl != nil; lvl = lvl.next {
			if !visit(lvl) {
				return
			}
		}
	}
}

func (t *shardedTree) isEmpty() bool {
	return t.buckets.Empty()
}
