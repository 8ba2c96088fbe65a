package main

import (
	"fmt"
	"sync"

	bitlock "github.com/facebookincubator/go-bitlock"
)

func main() {
	const nodes = 1 << 12
	const buckets = 16
	const workers = 8

	// one flag per node records whether some worker claimed it, and one
	// bit-lock per bucket guards that bucket's slice
	visited := bitlock.New(nodes)
	locks := bitlock.New(buckets)
	grouped := make([][]uint64, buckets)

	claims := make([]int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// every worker walks every node, starting at a different offset
			for n := uint64(0); n < nodes; n++ {
				node := (n + uint64(w)*nodes/workers) % nodes
				if visited.TestAndSet(node) {
					continue
				}
				claims[w]++
				b := node % buckets
				locks.Lock(b)
				grouped[b] = append(grouped[b], node)
				locks.Unlock(b)
			}
		}()
	}
	wg.Wait()

	total := 0
	for w, c := range claims {
		fmt.Printf("worker %d claimed %d nodes\n", w, c)
		total += c
	}
	fmt.Printf("%d of %d nodes claimed exactly once, %d visited bits set\n",
		total, nodes, visited.Count())
	for b, g := range grouped {
		fmt.Printf("bucket %2d: %d nodes\n", b, len(g))
	}
}
