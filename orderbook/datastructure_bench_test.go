package orderbook

import (
	"fmt"
	"math/rand"
	"testing"

	"tradecore/domain"
)

// benchmarkInsertions measures the cost of resting numLevels distinct-price
// orders in one side of a book backed by kind, the scenario the two
// priceTree implementations are tuned for differently (see
// price_tree_factory.go).
func benchmarkInsertions(b *testing.B, kind TreeKind, numLevels int) {
	prices := make([]uint64, numLevels)
	for i := range prices {
		prices[i] = uint64(1000 + i)
	}
	rng := rand.New(rand.NewSource(1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree := newPriceTree(kind, false)
		rng.Shuffle(len(prices), func(a, c int) { prices[a], prices[c] = prices[c], prices[a] })
		for j, price := range prices {
			order := domain.NewOrder(fmt.Sprintf("o%d", j), "BENCH", "u", domain.SideSell, price, 1)
			tree.insert(order)
		}
	}
}

func BenchmarkHashMapTreeInsert100Levels(b *testing.B)   { benchmarkInsertions(b, HashMapListKind, 100) }
func BenchmarkShardedTreeInsert100Levels(b *testing.B)   { benchmarkInsertions(b, ShardedKind, 100) }
func BenchmarkHashMapTreeInsert2000Levels(b *testing.B)  { benchmarkInsertions(b, HashMapListKind, 2000) }
func BenchmarkShardedTreeInsert2000Levels(b *testing.B)  { benchmarkInsertions(b, ShardedKind, 2000) }

// BenchmarkOrderBookAddNoMatch measures resting throughput: every order
// lands on its own side with nothing to match, the steady-state cost of
// quoting a deep book.
func BenchmarkOrderBookAddNoMatch(b *testing.B) {
	ob := New("BENCH", ShardedKind)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		order := domain.NewOrder(fmt.Sprintf("o%d", i), "BENCH", "u", domain.SideBuy, uint64(1000+i%5000), 1)
		ob.Add(order)
	}
}

// BenchmarkOrderBookAddCrossingMatch measures matching throughput against a
// pre-populated resting side.
func BenchmarkOrderBookAddCrossingMatch(b *testing.B) {
	ob := New("BENCH", ShardedKind)
	for i := 0; i < 5000; i++ {
		ob.Add(domain.NewOrder(fmt.Sprintf("rest%d", i), "BENCH", "maker", domain.SideSell, uint64(1000+i), 10))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		order := domain.NewOrder(fmt.Sprintf("taker%d", i), "BENCH", "taker", domain.SideBuy, 1000, 10)
		ob.Add(order)
		// rest another maker back at the front so the book doesn't drain
		ob.Add(domain.NewOrder(fmt.Sprintf("refill%d", i), "BENCH", "maker", domain.SideSell, 1000, 10))
	}
}
