package alloc

import (
	"fmt"
	"sync"
)

// Allocator tracks the end-of-file address of a file being written.
type Allocator struct {
	mu sync.Mutex

	eofAddr  uint64
	baseAddr uint64

	allocations []Allocation
	freeBlocks  []Allocation
	stats       Stats
}

// Allocation is a block handed out (or released) during this session.
type Allocation struct {
	Addr uint64
	Size uint64
	Tag  string
}

// Stats summarises the allocator's activity since it was created.
type Stats struct {
	TotalAllocations uint64
	TotalBytesAlloc  uint64
	TotalBytesFree   uint64
	LargestAlloc     uint64
}

// New creates an allocator whose first allocation lands at baseAddr.
func New(baseAddr uint64) *Allocator {
	return &Allocator{
		eofAddr:  baseAddr,
		baseAddr: baseAddr,
	}
}

// Alloc reserves size bytes at the end of the file. A zero size returns the
// current end of file without reserving anything.
func (a *Allocator) Alloc(size uint64, tag string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	addr := a.eofAddr
	if size == 0 {
		return addr
	}
	a.eofAddr += size
	a.allocations = append(a.allocations, Allocation{Addr: addr, Size: size, Tag: tag})

	a.stats.TotalAllocations++
	a.stats.TotalBytesAlloc += size
	a.stats.LargestAlloc = max(a.stats.LargestAlloc, size)
	return addr
}

// Free records that a block is no longer referenced.
func (a *Allocator) Free(addr, size uint64, tag string) {
	if size == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.freeBlocks = append(a.freeBlocks, Allocation{Addr: addr, Size: size, Tag: tag})
	a.stats.TotalBytesFree += size
}

// EOFAddr returns the current end-of-file address.
func (a *Allocator) EOFAddr() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eofAddr
}

// BaseAddr returns the address the allocator started from.
func (a *Allocator) BaseAddr() uint64 {
	return a.baseAddr
}

// Stats returns a snapshot of the allocation counters.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Allocations returns a copy of every allocation made so far.
func (a *Allocator) Allocations() []Allocation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Allocation(nil), a.allocations...)
}

// Validate checks that allocations lie inside [base, eof) and do not
// overlap.
func (a *Allocator) Validate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, x := range a.allocations {
		if x.Addr < a.baseAddr {
			return fmt.Errorf("allocation %q at 0x%x is before base address 0x%x", x.Tag, x.Addr, a.baseAddr)
		}
		if x.Addr+x.Size > a.eofAddr {
			return fmt.Errorf("allocation %q at 0x%x size %d extends past EOF 0x%x", x.Tag, x.Addr, x.Size, a.eofAddr)
		}
		for _, y := range a.allocations[i+1:] {
			if x.Addr < y.Addr+y.Size && y.Addr < x.Addr+x.Size {
				return fmt.Errorf("overlapping allocations: [0x%x, size %d] and [0x%x, size %d]",
					x.Addr, x.Size, y.Addr, y.Size)
			}
		}
	}
	return nil
}
