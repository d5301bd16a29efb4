package imgbatch

import "time"

// LoadStatus is the per-slot lifecycle state of a batch load.
type LoadStatus uint8

const (
	// StatusPending marks a slot that has not been touched by a load.
	StatusPending LoadStatus = iota

	// StatusLoading marks a slot whose source is being decoded.
	StatusLoading

	// StatusLoaded marks a slot whose pixels are valid.
	StatusLoaded

	// StatusError marks a slot whose load failed. The slot's pixel region
	// is unwritten; consult ErrorCodes for the failure class.
	StatusError
)

// String returns a human-readable name for the status.
func (s LoadStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusLoading:
		return "Loading"
	case StatusLoaded:
		return "Loaded"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ErrorCode classifies a per-slot load failure.
type ErrorCode uint8

const (
	// ErrCodeNone means no failure.
	ErrCodeNone ErrorCode = iota

	// ErrCodeInvalidSource means the source could not be classified
	// (nil, or an unrecognized implementation).
	ErrCodeInvalidSource

	// ErrCodeNetwork means a URL source could not be fetched.
	ErrCodeNetwork

	// ErrCodeDecode means the source bytes could not be decoded.
	ErrCodeDecode

	// ErrCodeOutOfMemory means the decoded image does not fit in the
	// batch's remaining pixel capacity.
	ErrCodeOutOfMemory

	// ErrCodeUnsupported means the source kind is recognized but not
	// supported by the decode collaborator.
	ErrCodeUnsupported
)

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeNone:
		return "None"
	case ErrCodeInvalidSource:
		return "InvalidSource"
	case ErrCodeNetwork:
		return "NetworkError"
	case ErrCodeDecode:
		return "DecodeError"
	case ErrCodeOutOfMemory:
		return "OutOfMemory"
	case ErrCodeUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// Metadata is per-slot bookkeeping for a Batch, kept separate from pixel
// storage so it can be cleared and reused independently.
//
// The four arrays are index-aligned 1:1 with batch slots. Metadata is
// caller-owned and passed alongside a Batch; no cross-validation is
// performed beyond index alignment, so the caller must keep the array
// lengths equal to the capacity of the batch they describe.
type Metadata struct {
	// SourceTypes records the classified kind of each slot's source.
	SourceTypes []SourceType

	// Status records each slot's load state.
	Status []LoadStatus

	// ErrorCodes classifies each slot's failure, ErrCodeNone on success.
	ErrorCodes []ErrorCode

	// Timestamps records the time of each slot's last status change,
	// in seconds since the Unix epoch.
	Timestamps []float64
}

// NewMetadata creates metadata for a batch of the given slot capacity.
// All slots start as StatusPending with ErrCodeNone.
func NewMetadata(capacity int) *Metadata {
	return &Metadata{
		SourceTypes: make([]SourceType, capacity),
		Status:      make([]LoadStatus, capacity),
		ErrorCodes:  make([]ErrorCode, capacity),
		Timestamps:  make([]float64, capacity),
	}
}

// Reset returns every slot to StatusPending with ErrCodeNone.
// Timestamps are cleared as well.
func (m *Metadata) Reset() {
	clear(m.SourceTypes)
	clear(m.Status)
	clear(m.ErrorCodes)
	clear(m.Timestamps)
}

// mark records a status change for slot i and stamps the current time.
func (m *Metadata) mark(i int, s LoadStatus, code ErrorCode) {
	m.Status[i] = s
	m.ErrorCodes[i] = code
	m.Timestamps[i] = nowSeconds()
}

// nowSeconds returns the current time in seconds since the Unix epoch.
func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
