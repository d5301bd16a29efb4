package imgbatch

import "image"

// SourceType is the integer tag of a classified image source.
type SourceType uint8

const (
	// SourceFile is a path to an image file on disk.
	SourceFile SourceType = iota

	// SourceURL is an HTTP(S) URL to fetch and decode.
	SourceURL

	// SourceBlob is an in-memory encoded image (PNG, JPEG, WebP, ...).
	SourceBlob

	// SourceBitmap is an already-decoded standard library image.
	SourceBitmap

	// SourceCanvas is a rendered 8-bit RGBA surface.
	SourceCanvas

	// SourceBuffer is a raw byte buffer holding an encoded image.
	SourceBuffer
)

// String returns a human-readable name for the source type.
func (t SourceType) String() string {
	switch t {
	case SourceFile:
		return "File"
	case SourceURL:
		return "URL"
	case SourceBlob:
		return "Blob"
	case SourceBitmap:
		return "Bitmap"
	case SourceCanvas:
		return "Canvas"
	case SourceBuffer:
		return "Buffer"
	default:
		return "Unknown"
	}
}

// Source is one image input to a batch load. It is a closed sum over the
// six supported kinds; the loader matches it exhaustively, and anything
// else (including a nil Source) fails that slot with ErrCodeInvalidSource.
type Source interface {
	sourceType() SourceType
}

// FileSource is an image file on disk.
type FileSource struct {
	Path string
}

// URLSource is an image fetched over HTTP(S).
type URLSource struct {
	URL string
}

// BlobSource is an in-memory encoded image with an optional MIME hint.
// The hint is informational; decoding sniffs the actual format.
type BlobSource struct {
	Data []byte
	MIME string
}

// BitmapSource is an already-decoded standard library image.
type BitmapSource struct {
	Image image.Image
}

// CanvasSource is a rendered surface, already in 8-bit RGBA form.
type CanvasSource struct {
	Image *Image
}

// BufferSource is a raw byte buffer holding an encoded image.
type BufferSource struct {
	Data []byte
}

func (FileSource) sourceType() SourceType   { return SourceFile }
func (URLSource) sourceType() SourceType    { return SourceURL }
func (BlobSource) sourceType() SourceType   { return SourceBlob }
func (BitmapSource) sourceType() SourceType { return SourceBitmap }
func (CanvasSource) sourceType() SourceType { return SourceCanvas }
func (BufferSource) sourceType() SourceType { return SourceBuffer }

// Classify returns the SourceType tag for src. A nil source reports
// ErrCodeInvalidSource via the returned ok flag.
func Classify(src Source) (SourceType, bool) {
	if src == nil {
		return 0, false
	}
	return src.sourceType(), true
}
