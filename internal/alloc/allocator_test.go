package alloc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatorAppends(t *testing.T) {
	a := New(1024)

	assert.Equal(t, uint64(1024), a.Alloc(100, "header"))
	assert.Equal(t, uint64(1124), a.Alloc(200, "data"))
	assert.Equal(t, uint64(1324), a.EOFAddr())
	assert.Equal(t, uint64(1024), a.BaseAddr())
}

func TestAllocatorZeroSize(t *testing.T) {
	a := New(100)
	assert.Equal(t, uint64(100), a.Alloc(0, ""))
	assert.Equal(t, uint64(100), a.EOFAddr())
	assert.Empty(t, a.Allocations())
}

func TestAllocatorStats(t *testing.T) {
	a := New(0)
	a.Alloc(100, "")
	a.Alloc(200, "")
	addr := a.Alloc(50, "")
	a.Free(addr, 50, "superseded")

	stats := a.Stats()
	assert.Equal(t, uint64(3), stats.TotalAllocations)
	assert.Equal(t, uint64(350), stats.TotalBytesAlloc)
	assert.Equal(t, uint64(200), stats.LargestAlloc)
	assert.Equal(t, uint64(50), stats.TotalBytesFree)
}

func TestAllocatorValidate(t *testing.T) {
	a := New(100)
	a.Alloc(50, "a")
	a.Alloc(50, "b")
	require.NoError(t, a.Validate())
}

func TestAllocatorConcurrent(t *testing.T) {
	a := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				a.Alloc(8, "")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(16*100*8), a.EOFAddr())
	require.NoError(t, a.Validate())
}
