package bloomfilter

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter is a concurrency-safe bloom filter over short codes.
type Filter struct {
	mu sync.RWMutex
	bf *bloom.BloomFilter
}

// New sizes a filter for capacity codes at the given false-positive rate.
func New(capacity uint, fpRate float64) *Filter {
	return &Filter{bf: bloom.NewWithEstimates(capacity, fpRate)}
}

// Add records code as taken.
func (f *Filter) Add(code string) {
	f.mu.Lock()
	f.bf.AddString(code)
	f.mu.Unlock()
}

// MayContain reports whether code may have been added.
func (f *Filter) MayContain(code string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.TestString(code)
}

// ApproximateCount estimates how many distinct codes were added.
func (f *Filter) ApproximateCount() uint32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.ApproximatedSize()
}
