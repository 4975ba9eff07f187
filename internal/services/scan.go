package services

import "sync"

const DefaultScanCapacity = 10

// ScanBuffer is a bounded FIFO of scanned strings. When full, the oldest
// entry is dropped to make room.
type ScanBuffer struct {
	mu       sync.Mutex
	items    []string
	capacity int
}

func NewScanBuffer(capacity int) *ScanBuffer {
	if capacity <= 0 {
		capacity = DefaultScanCapacity
	}
	return &ScanBuffer{capacity: capacity, items: make([]string, 0, capacity)}
}

func (b *ScanBuffer) Push(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) >= b.capacity {
		copy(b.items, b.items[1:])
		b.items = b.items[:len(b.items)-1]
	}
	b.items = append(b.items, s)
}

func (b *ScanBuffer) HasData() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items) > 0
}

// Pop removes and returns the oldest entry. ok is false when empty.
func (b *ScanBuffer) Pop() (s string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		return "", false
	}
	s = b.items[0]
	copy(b.items, b.items[1:])
	b.items = b.items[:len(b.items)-1]
	return s, true
}

func (b *ScanBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
