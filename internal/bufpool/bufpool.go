// Package bufpool provides reusable pixel buffer management for imgbatch.
package bufpool

import "sync"

// Pool is a thread-safe pool for reusing byte buffers of identical size.
//
// Pool groups buffers by their exact length, allowing efficient reuse of
// identically-sized pixel buffers. This reduces GC pressure for
// workloads that repeatedly filter or extract images of similar sizes.
//
// Thread safety: All methods are safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	buckets map[int][][]uint8
	maxSize int // max buffers per bucket
}

// NewPool creates a buffer pool with the given maximum buffers per
// bucket. A maxPerBucket of 0 means unlimited (use with caution).
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[int][][]uint8),
		maxSize: maxPerBucket,
	}
}

// Get retrieves a buffer of exactly n bytes from the pool or allocates a
// new one. Reused buffers are zeroed before return.
func (p *Pool) Get(n int) []uint8 {
	if n <= 0 {
		return nil
	}

	p.mu.Lock()
	bucket := p.buckets[n]
	if len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		p.buckets[n] = bucket[:len(bucket)-1]
		p.mu.Unlock()

		clear(buf)
		return buf
	}
	p.mu.Unlock()

	return make([]uint8, n)
}

// Put returns a buffer to the pool for reuse. Nil or empty buffers are
// discarded, as is anything beyond the bucket's capacity.
func (p *Pool) Put(buf []uint8) {
	if len(buf) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[len(buf)]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		// Bucket full, discard buffer (GC will clean up)
		return
	}
	p.buckets[len(buf)] = append(bucket, buf)
}

// defaultPool is the package-level pool for convenient usage.
var defaultPool = NewPool(8)

// GetDefault retrieves a buffer from the default pool.
func GetDefault(n int) []uint8 { return defaultPool.Get(n) }

// PutDefault returns a buffer to the default pool.
func PutDefault(buf []uint8) { defaultPool.Put(buf) }
