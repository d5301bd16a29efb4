package imgbatch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"

	// Standard library formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	// Extended formats from golang.org/x/image.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoded is the output of the decode collaborator: dimensions plus 8-bit
// RGBA pixels, 4 bytes per pixel. It is the working form before
// normalization into a batch.
type Decoded struct {
	Width  int
	Height int
	Pix    []uint8
}

// maxResponseBytes bounds URL fetches so a misbehaving server cannot
// exhaust memory. 256 MiB covers any realistic raster source.
const maxResponseBytes = 256 << 20

// decodeSource converts one source into decoded pixels. All failures come
// back as *LoadError so the loader can record the error code in the slot's
// metadata without type-based control flow.
func decodeSource(ctx context.Context, src Source, client *http.Client) (Decoded, error) {
	switch s := src.(type) {
	case FileSource:
		f, err := os.Open(filepath.Clean(s.Path))
		if err != nil {
			return Decoded{}, loadErr(ErrCodeInvalidSource, "open", err)
		}
		defer func() { _ = f.Close() }()
		return decodeReader(f)

	case URLSource:
		return fetchURL(ctx, s.URL, client)

	case BlobSource:
		if len(s.Data) == 0 {
			return Decoded{}, loadErr(ErrCodeInvalidSource, "blob", fmt.Errorf("empty data"))
		}
		return decodeReader(bytes.NewReader(s.Data))

	case BufferSource:
		if len(s.Data) == 0 {
			return Decoded{}, loadErr(ErrCodeInvalidSource, "buffer", fmt.Errorf("empty data"))
		}
		return decodeReader(bytes.NewReader(s.Data))

	case BitmapSource:
		if s.Image == nil {
			return Decoded{}, loadErr(ErrCodeInvalidSource, "bitmap", fmt.Errorf("nil image"))
		}
		img := ImageFromStd(s.Image)
		return Decoded{Width: img.Width(), Height: img.Height(), Pix: img.Data()}, nil

	case CanvasSource:
		if s.Image == nil {
			return Decoded{}, loadErr(ErrCodeInvalidSource, "canvas", fmt.Errorf("nil surface"))
		}
		return Decoded{Width: s.Image.Width(), Height: s.Image.Height(), Pix: s.Image.Data()}, nil

	default:
		// Source is a closed interface, so this only triggers for nil or
		// a foreign implementation smuggled in from another package.
		return Decoded{}, loadErr(ErrCodeInvalidSource, "classify", fmt.Errorf("unrecognized source %T", src))
	}
}

// decodeReader decodes an encoded image stream, auto-detecting the format
// among the registered decoders (PNG, JPEG, GIF, WebP, BMP, TIFF).
func decodeReader(r io.Reader) (Decoded, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return Decoded{}, loadErr(ErrCodeDecode, "decode", err)
	}
	out := ImageFromStd(img)
	return Decoded{Width: out.Width(), Height: out.Height(), Pix: out.Data()}, nil
}

// fetchURL retrieves an encoded image over HTTP and decodes it.
func fetchURL(ctx context.Context, url string, client *http.Client) (Decoded, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Decoded{}, loadErr(ErrCodeInvalidSource, "request", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Decoded{}, loadErr(ErrCodeNetwork, "fetch", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Decoded{}, loadErr(ErrCodeNetwork, "fetch", fmt.Errorf("status %s", resp.Status))
	}

	return decodeReader(io.LimitReader(resp.Body, maxResponseBytes))
}
