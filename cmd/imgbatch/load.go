package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/gogpu/imgbatch"
	"github.com/gogpu/imgbatch/sched"
)

// fallbackDim sizes pixel space for files whose header cannot be read up
// front; their load will fail anyway, but the batch must not under-allocate
// in case the header read and the decoder disagree.
const fallbackDim = 4096

// measure reads just the image headers to size the pixel buffer exactly.
func measure(paths []string) int {
	total := 0
	for _, p := range paths {
		w, h := fallbackDim, fallbackDim
		if f, err := os.Open(filepath.Clean(p)); err == nil {
			if cfg, _, err := image.DecodeConfig(f); err == nil {
				w, h = cfg.Width, cfg.Height
			}
			_ = f.Close()
		}
		total += w * h * 4
	}
	return total
}

// loadBatch decodes the given files into a fresh batch using a worker
// pool. The caller must Close the returned pool.
func loadBatch(ctx context.Context, paths []string) (*imgbatch.Batch, *imgbatch.Metadata, *sched.Pool[imgbatch.Decoded], error) {
	if len(paths) == 0 {
		return nil, nil, nil, fmt.Errorf("no input files")
	}

	b, err := imgbatch.New(len(paths), measure(paths))
	if err != nil {
		return nil, nil, nil, err
	}
	meta := imgbatch.NewMetadata(len(paths))

	pool := sched.NewPool[imgbatch.Decoded](sched.Config{
		Workers:   workers,
		QueueSize: queueSize,
	})

	sources := make([]imgbatch.Source, len(paths))
	for i, p := range paths {
		sources[i] = imgbatch.FileSource{Path: p}
	}

	if err := imgbatch.Load(ctx, sources, b, meta, imgbatch.LoadOptions{Pool: pool}); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	return b, meta, pool, nil
}

// reportFailures prints one line per failed slot and returns the failure
// count.
func reportFailures(paths []string, meta *imgbatch.Metadata) int {
	failed := 0
	for i := range paths {
		if meta.Status[i] == imgbatch.StatusError {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %s\n", paths[i], meta.ErrorCodes[i])
		}
	}
	return failed
}
