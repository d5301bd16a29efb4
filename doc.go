// Package imgbatch loads, batches, and filters raster images for
// downstream GPU or CPU rendering.
//
// # Overview
//
// imgbatch packs many images into a single structure-of-arrays container
// with one contiguous normalized pixel buffer, distributes decode work
// across a fixed pool of workers, and applies pixel filters with explicit
// allocation contracts (copy, in-place, or batch).
//
// # Quick Start
//
//	import "github.com/gogpu/imgbatch"
//
//	// A batch of up to 16 images, each at most 1024x1024.
//	batch, _ := imgbatch.New(16, imgbatch.PixelCapacityFor(1024, 1024, 16))
//	meta := imgbatch.NewMetadata(batch.Capacity())
//
//	sources := []imgbatch.Source{
//	    imgbatch.FileSource{Path: "photo.png"},
//	    imgbatch.URLSource{URL: "https://example.com/tile.webp"},
//	}
//	_ = imgbatch.Load(context.Background(), sources, batch, meta, imgbatch.LoadOptions{})
//
//	// Per-slot status, never an aggregate boolean.
//	for i := 0; i < batch.Count(); i++ {
//	    if meta.Status[i] == imgbatch.StatusLoaded {
//	        img, _ := imgbatch.Extract(batch, i)
//	        _ = img.SavePNG(fmt.Sprintf("out_%d.png", i))
//	    }
//	}
//
// # Architecture
//
// The module is organized into:
//   - Root package: Batch, Metadata, Source, loader, extraction, and the
//     renderer backend boundary
//   - filter/: filter application (grayscale reference filter)
//   - sched/: fixed-slot worker pool for parallel decode
//   - snapshot/: compressed batch persistence
//   - backend/wgpu/: WebGPU compute renderer backend
//
// # Pixel Model
//
// Sources decode to 8-bit RGBA. Inside a Batch, channels are stored as
// normalized float32 values in [0, 1]; they are denormalized back to 8-bit
// integers (with rounding) only at extraction time.
package imgbatch

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
