package clob

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDAllocator_SeedsFirstValue(t *testing.T) {
	a := NewIDAllocator(5, 100)
	assert.Equal(t, uint64(5), a.NextOrderID())
	assert.Equal(t, uint64(6), a.NextOrderID())
	assert.Equal(t, uint64(100), a.NextTradeID())
}

func TestIDAllocator_ConcurrentAllocationsAreUnique(t *testing.T) {
	a := NewIDAllocator(1, 1)
	const n = 500
	seen := make(chan uint64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- a.NextOrderID()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]bool)
	for id := range seen {
		assert.False(t, unique[id], "id %d allocated twice", id)
		unique[id] = true
	}
	assert.Len(t, unique, n)
}
