package bloomfilter

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_NoFalseNegatives(t *testing.T) {
	f := New(10_000, 0.01)

	for i := 0; i < 1000; i++ {
		f.Add(fmt.Sprintf("code%03d", i))
	}
	for i := 0; i < 1000; i++ {
		assert.True(t, f.MayContain(fmt.Sprintf("code%03d", i)))
	}
}

func TestFilter_FalsePositiveRateIsBounded(t *testing.T) {
	f := New(10_000, 0.01)
	for i := 0; i < 5000; i++ {
		f.Add(fmt.Sprintf("in%05d", i))
	}

	positives := 0
	for i := 0; i < 10_000; i++ {
		if f.MayContain(fmt.Sprintf("out%05d", i)) {
			positives++
		}
	}
	// Half full at 1% target; allow generous slack.
	assert.Less(t, positives, 300)
}

func TestFilter_ConcurrentAddAndTest(t *testing.T) {
	f := New(10_000, 0.01)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				code := fmt.Sprintf("w%di%d", w, i)
				f.Add(code)
				assert.True(t, f.MayContain(code))
			}
		}(w)
	}
	wg.Wait()

	assert.InDelta(t, 1600, float64(f.ApproximateCount()), 100)
}
