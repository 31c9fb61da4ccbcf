package clob

import "sync/atomic"

// IDAllocator hands out monotonically increasing order and trade ids. It is
// safe for concurrent use; allocation never reuses a value within process
// lifetime (§4.2). The counters themselves are not persisted — callers seed
// them from the high-water mark in storage at startup (§9).
type IDAllocator struct {
	nextOrderID uint64
	nextTradeID uint64
}

// NewIDAllocator seeds the allocator so the next call to NextOrderID /
// NextTradeID returns firstOrderID / firstTradeID respectively.
func NewIDAllocator(firstOrderID, firstTradeID uint64) *IDAllocator {
	return &IDAllocator{
		nextOrderID: firstOrderID - 1,
		nextTradeID: firstTradeID - 1,
	}
}

// NextOrderID atomically allocates the next order id.
func (a *IDAllocator) NextOrderID() uint64 {
	return atomic.AddUint64(&a.nextOrderID, 1)
}

// NextTradeID atomically allocates the next trade id.
func (a *IDAllocator) NextTradeID() uint64 {
	return atomic.AddUint64(&a.nextTradeID, 1)
}
