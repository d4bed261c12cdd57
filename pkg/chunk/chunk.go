// Package chunk implements a reference-counted byte buffer pool. The
// scheduler's workers and the per-bridge reader goroutines allocate and
// release concurrently, so every free-list access goes through Pool.mu and
// reference counts are atomic.
package chunk

import (
	"sync"
	"sync/atomic"
)

const (
	paddingBytes      = 50
	maxReservedChunks = 1000
)

// Chunk is a single allocation backing zero or more live Buffers.
type Chunk struct {
	data []byte
	refs int32
}

func (c *Chunk) Size() int { return len(c.data) }

// Pool is a process-wide free list of recycled Chunks, sized by a
// high-water mark: the largest chunk ever recycled sets the minimum size a
// chunk must have to stay in the free list, so the pool converges toward
// chunks the workload actually needs instead of accumulating every odd
// size ever requested.
type Pool struct {
	mu              sync.Mutex
	free            []*Chunk
	highWaterMark   int
	maxFreeListSize int
}

// NewPool returns an empty pool. maxFreeListSize caps how many recycled
// chunks it retains before it starts discarding instead of recycling;
// 0 uses the default of 1000.
func NewPool(maxFreeListSize int) *Pool {
	if maxFreeListSize <= 0 {
		maxFreeListSize = maxReservedChunks
	}
	return &Pool{maxFreeListSize: maxFreeListSize}
}

// Default is the package-wide pool used by the top-level NewBuffer.
var Default = NewPool(maxReservedChunks)

// Allocate returns a Chunk of at least size bytes, reusing a recycled
// chunk when one big enough is available.
func (p *Pool) Allocate(size int) *Chunk {
	p.mu.Lock()
	for len(p.free) > 0 {
		last := len(p.free) - 1
		c := p.free[last]
		p.free = p.free[:last]
		if c.Size() >= size {
			p.mu.Unlock()
			atomic.StoreInt32(&c.refs, 1)
			return c
		}
		// too small, drop it permanently
	}
	p.mu.Unlock()
	return p.allocateNew(size)
}

func (p *Pool) allocateNew(size int) *Chunk {
	return &Chunk{data: make([]byte, size+paddingBytes), refs: 1}
}

// recycle returns a chunk with no remaining references to the free list,
// unless it falls below the pool's high-water mark or the list is full.
func (p *Pool) recycle(c *Chunk) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c.Size() > p.highWaterMark {
		p.highWaterMark = c.Size()
	}
	if c.Size() < p.highWaterMark || len(p.free) >= p.maxFreeListSize {
		return
	}
	p.free = append(p.free, c)
}

// Buffer is a reference-counted view over a Chunk. The zero value is not
// usable; construct with Pool.NewBuffer.
type Buffer struct {
	pool  *Pool
	chunk *Chunk
}

// NewBuffer allocates a Buffer of size bytes from the pool.
func (p *Pool) NewBuffer(size int) *Buffer {
	return &Buffer{pool: p, chunk: p.Allocate(size)}
}

// NewBuffer allocates from the package default pool.
func NewBuffer(size int) *Buffer { return Default.NewBuffer(size) }

// Bytes exposes the chunk's backing slice, truncated to n bytes of valid
// data. Callers must not retain the slice past the Buffer's lifetime.
func (b *Buffer) Bytes(n int) []byte {
	if n > len(b.chunk.data) {
		n = len(b.chunk.data)
	}
	return b.chunk.data[:n]
}

func (b *Buffer) Cap() int { return b.chunk.Size() }

// Write copies data into the buffer, returning false if it does not fit.
func (b *Buffer) Write(data []byte) bool {
	if len(data) > b.chunk.Size() {
		return false
	}
	copy(b.chunk.data, data)
	return true
}

// Clone returns a new Buffer referencing the same Chunk, incrementing its
// refcount. Safe for concurrent use across goroutines.
func (b *Buffer) Clone() *Buffer {
	atomic.AddInt32(&b.chunk.refs, 1)
	return &Buffer{pool: b.pool, chunk: b.chunk}
}

// Release decrements the chunk's refcount, recycling it into the pool once
// the last reference is gone. Safe to call exactly once per Buffer
// (including the original and every Clone); releasing a chunk more times
// than it was referenced is an invariant violation and panics.
func (b *Buffer) Release() {
	switch n := atomic.AddInt32(&b.chunk.refs, -1); {
	case n == 0:
		b.pool.recycle(b.chunk)
	case n < 0:
		panic("chunk: buffer released more times than it was referenced")
	}
}

func (b *Buffer) RefCount() int32 { return atomic.LoadInt32(&b.chunk.refs) }
