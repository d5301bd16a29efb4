package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/png"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/gogpu/imgbatch"
)

func loadedBatch(t *testing.T) (*imgbatch.Batch, *imgbatch.Metadata) {
	t.Helper()
	rng := rand.New(rand.NewSource(1))

	encode := func(w, h int) []byte {
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for i := range img.Pix {
			img.Pix[i] = uint8(rng.Intn(256))
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}

	b, err := imgbatch.New(4, imgbatch.PixelCapacityFor(8, 8, 4))
	if err != nil {
		t.Fatal(err)
	}
	meta := imgbatch.NewMetadata(4)

	sources := []imgbatch.Source{
		imgbatch.BlobSource{Data: encode(8, 8)},
		imgbatch.BlobSource{Data: []byte("junk")}, // one failed slot
		imgbatch.BlobSource{Data: encode(3, 5)},
	}
	if err := imgbatch.Load(context.Background(), sources, b, meta, imgbatch.LoadOptions{}); err != nil {
		t.Fatal(err)
	}
	return b, meta
}

func TestSnapshot_RoundTrip(t *testing.T) {
	b, meta := loadedBatch(t)

	var buf bytes.Buffer
	id, err := Save(&buf, b, meta)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == uuid.Nil {
		t.Error("Save returned the nil id")
	}

	got, gotMeta, hdr, err := Load(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if hdr.ID != id {
		t.Errorf("header id = %s, want %s", hdr.ID, id)
	}
	if hdr.Count != b.Count() || hdr.Capacity != b.Capacity() {
		t.Errorf("header counts = %d/%d, want %d/%d", hdr.Count, hdr.Capacity, b.Count(), b.Capacity())
	}

	if got.Count() != b.Count() {
		t.Fatalf("Count() = %d, want %d", got.Count(), b.Count())
	}
	for i := 0; i < b.Count(); i++ {
		if got.Width(i) != b.Width(i) || got.Height(i) != b.Height(i) || got.Offset(i) != b.Offset(i) {
			t.Errorf("slot %d geometry differs: %dx%d@%d vs %dx%d@%d",
				i, got.Width(i), got.Height(i), got.Offset(i), b.Width(i), b.Height(i), b.Offset(i))
		}
		if gotMeta.Status[i] != meta.Status[i] || gotMeta.ErrorCodes[i] != meta.ErrorCodes[i] {
			t.Errorf("slot %d metadata differs: %s/%s vs %s/%s",
				i, gotMeta.Status[i], gotMeta.ErrorCodes[i], meta.Status[i], meta.ErrorCodes[i])
		}
		if gotMeta.SourceTypes[i] != meta.SourceTypes[i] {
			t.Errorf("slot %d source type differs", i)
		}
		if gotMeta.Timestamps[i] != meta.Timestamps[i] {
			t.Errorf("slot %d timestamp differs", i)
		}

		want, err := b.Slot(i)
		if err != nil {
			t.Fatal(err)
		}
		have, err := got.Slot(i)
		if err != nil {
			t.Fatal(err)
		}
		for j := range want {
			if have[j] != want[j] {
				t.Fatalf("slot %d pixel %d differs", i, j)
			}
		}
	}
}

func TestSnapshot_ReadHeaderOnly(t *testing.T) {
	b, meta := loadedBatch(t)

	var buf bytes.Buffer
	id, err := Save(&buf, b, meta)
	if err != nil {
		t.Fatal(err)
	}

	hdr, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if hdr.ID != id || hdr.Count != 3 || hdr.Capacity != 4 {
		t.Errorf("header = %+v", hdr)
	}
	if hdr.PixelUsed != 8*8*4+3*5*4 {
		t.Errorf("PixelUsed = %d, want %d", hdr.PixelUsed, 8*8*4+3*5*4)
	}
}

func TestSnapshot_BadMagic(t *testing.T) {
	_, err := ReadHeader(bytes.NewReader(make([]byte, 64)))
	if !errors.Is(err, ErrBadMagic) {
		t.Errorf("ReadHeader = %v, want ErrBadMagic", err)
	}
}

func TestSnapshot_ImplausibleHeader(t *testing.T) {
	hostile := func(capacity, count uint32, pixelCap, pixelUsed uint64) []byte {
		var buf bytes.Buffer
		hdr := fileHeader{
			Magic:         magic,
			Version:       formatVersion,
			Capacity:      capacity,
			Count:         count,
			PixelCapacity: pixelCap,
			PixelUsed:     pixelUsed,
		}
		if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}

	cases := []struct {
		name string
		data []byte
	}{
		{"slot capacity", hostile(1<<31, 1<<31, 64, 64)},
		{"pixel capacity", hostile(4, 4, 1<<40, 1<<40)},
	}
	for _, tc := range cases {
		if _, err := ReadHeader(bytes.NewReader(tc.data)); !errors.Is(err, ErrCorrupt) {
			t.Errorf("%s: ReadHeader = %v, want ErrCorrupt", tc.name, err)
		}
		if _, _, _, err := Load(bytes.NewReader(tc.data)); !errors.Is(err, ErrCorrupt) {
			t.Errorf("%s: Load = %v, want ErrCorrupt", tc.name, err)
		}
	}
}

func TestSnapshot_Truncated(t *testing.T) {
	b, meta := loadedBatch(t)

	var buf bytes.Buffer
	if _, err := Save(&buf, b, meta); err != nil {
		t.Fatal(err)
	}

	if _, _, _, err := Load(bytes.NewReader(buf.Bytes()[:buf.Len()/2])); err == nil {
		t.Error("loading a truncated snapshot should fail")
	}
}

func TestSnapshot_EmptyBatch(t *testing.T) {
	b, err := imgbatch.New(2, 64)
	if err != nil {
		t.Fatal(err)
	}
	meta := imgbatch.NewMetadata(2)

	var buf bytes.Buffer
	if _, err := Save(&buf, b, meta); err != nil {
		t.Fatalf("Save empty: %v", err)
	}

	got, _, hdr, err := Load(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if hdr.Count != 0 || got.Count() != 0 {
		t.Errorf("empty batch round trip gained slots: %d", got.Count())
	}
}
