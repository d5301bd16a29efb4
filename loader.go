package imgbatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gogpu/imgbatch/sched"
)

// Loader errors. Per-slot decode failures never surface here; they are
// recorded in Metadata and the load as a whole still succeeds.
var (
	// ErrBatchFull is returned when a load would exceed the batch's slot
	// capacity. No slot is modified.
	ErrBatchFull = errors.New("imgbatch: batch slot capacity exceeded")

	// ErrMetadataTooSmall is returned when the metadata arrays cannot
	// cover the batch's slot capacity.
	ErrMetadataTooSmall = errors.New("imgbatch: metadata smaller than batch capacity")
)

// DefaultParallelThreshold is the source count at or above which Load
// uses a supplied pool for parallel decoding. Below it the fixed cost of
// scheduling outweighs the decode overlap.
const DefaultParallelThreshold = 4

// LoadOptions configures a batch load. The zero value selects sequential
// decoding with http.DefaultClient.
type LoadOptions struct {
	// Pool, when non-nil, decodes sources in parallel once len(sources)
	// reaches ParallelThreshold. The pool is caller-owned and may be
	// shared across loads; Load never closes it.
	Pool *sched.Pool[Decoded]

	// ParallelThreshold overrides DefaultParallelThreshold. 0 means the
	// default.
	ParallelThreshold int

	// HTTPClient fetches URL sources. Nil means http.DefaultClient.
	HTTPClient *http.Client
}

// Load decodes sources into the batch, appending at slot Count().
//
// Every source occupies exactly one slot, in source order, whether its
// decode succeeds or fails: failed slots get a zero-size pixel range
// (preserving offset contiguity) and their failure class in
// meta.ErrorCodes. After Load, batch.Count() has grown by len(sources)
// and meta.Status holds StatusLoaded or StatusError for each new slot.
//
// Load returns an error only for structural problems: exceeding the slot
// capacity, or metadata too small for the batch. ctx cancellation aborts
// in-flight URL fetches; affected slots record ErrCodeNetwork.
func Load(ctx context.Context, sources []Source, b *Batch, meta *Metadata, opts LoadOptions) error {
	if len(sources) == 0 {
		return nil
	}

	start := b.Count()
	if start+len(sources) > b.Capacity() {
		return fmt.Errorf("%w: %d sources into %d free slots",
			ErrBatchFull, len(sources), b.Capacity()-start)
	}
	if len(meta.Status) < b.Capacity() {
		return fmt.Errorf("%w: %d < %d", ErrMetadataTooSmall, len(meta.Status), b.Capacity())
	}

	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	for i, src := range sources {
		slot := start + i
		if t, ok := Classify(src); ok {
			meta.SourceTypes[slot] = t
		}
		meta.mark(slot, StatusLoading, ErrCodeNone)
	}

	threshold := opts.ParallelThreshold
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}

	var decoded []Decoded
	var errs []error
	if opts.Pool != nil && len(sources) >= threshold {
		decoded, errs = decodeParallel(ctx, sources, opts.Pool, client)
	} else {
		decoded, errs = decodeSequential(ctx, sources, client)
	}

	// Placement is sequential in source order regardless of decode
	// strategy, so offsets depend only on the inputs.
	for i := range sources {
		slot := start + i
		if errs[i] != nil {
			b.setSlot(slot, 0, 0, b.offsetAfter(slot))
			b.commit(slot)
			meta.mark(slot, StatusError, CodeOf(errs[i]))
			Logger().Warn("imgbatch: slot load failed", "slot", slot, "error", errs[i])
			continue
		}

		d := decoded[i]
		off := b.offsetAfter(slot)
		elems := d.Width * d.Height * 4
		if off+elems > b.PixelCapacity() {
			b.setSlot(slot, 0, 0, off)
			b.commit(slot)
			meta.mark(slot, StatusError, ErrCodeOutOfMemory)
			Logger().Warn("imgbatch: slot exceeds pixel capacity",
				"slot", slot, "need", off+elems, "capacity", b.PixelCapacity())
			continue
		}

		b.setSlot(slot, d.Width, d.Height, off)
		b.commit(slot)
		normalize(d.Pix, b.Pixels()[off:off+elems])
		meta.mark(slot, StatusLoaded, ErrCodeNone)
	}

	return nil
}

// decodeSequential decodes sources one by one on the calling goroutine.
func decodeSequential(ctx context.Context, sources []Source, client *http.Client) ([]Decoded, []error) {
	decoded := make([]Decoded, len(sources))
	errs := make([]error, len(sources))
	for i, src := range sources {
		decoded[i], errs[i] = decodeSource(ctx, src, client)
	}
	return decoded, errs
}

// decodeParallel fans decode work out over the pool and collects results
// back into source order. If the pool cannot take the submission (queue
// full or closed), decoding falls back to sequential.
func decodeParallel(ctx context.Context, sources []Source, pool *sched.Pool[Decoded], client *http.Client) ([]Decoded, []error) {
	tasks := make([]sched.Task[Decoded], len(sources))
	ids := make([]uint64, len(sources))
	for i, src := range sources {
		src := src
		id := sched.NextID()
		ids[i] = id
		tasks[i] = sched.Task[Decoded]{
			ID:  id,
			Run: func() (Decoded, error) { return decodeSource(ctx, src, client) },
		}
	}

	if err := pool.Submit(tasks); err != nil {
		Logger().Warn("imgbatch: parallel decode unavailable", "error", err)
		return decodeSequential(ctx, sources, client)
	}

	results, taskErrs := pool.Wait(ids)

	decoded := make([]Decoded, len(sources))
	errs := make([]error, len(sources))
	for i, id := range ids {
		decoded[i] = results[id]
		errs[i] = taskErrs[id]
	}
	return decoded, errs
}

// normalize converts 8-bit channel values to normalized float32.
// len(dst) == len(src).
func normalize(src []uint8, dst []float32) {
	for i, v := range src {
		dst[i] = float32(v) / 255.0
	}
}
