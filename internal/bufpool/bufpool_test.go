package bufpool

import "testing"

func TestPool_GetPut(t *testing.T) {
	p := NewPool(4)

	buf := p.Get(64)
	if len(buf) != 64 {
		t.Fatalf("len = %d, want 64", len(buf))
	}
	buf[0] = 0xFF
	p.Put(buf)

	// Reused buffers come back zeroed.
	again := p.Get(64)
	if again[0] != 0 {
		t.Error("reused buffer was not cleared")
	}
	if &again[0] != &buf[0] {
		t.Error("expected the pooled buffer to be reused")
	}
}

func TestPool_SizeBuckets(t *testing.T) {
	p := NewPool(4)

	small := p.Get(16)
	p.Put(small)

	big := p.Get(32)
	if len(big) != 32 {
		t.Fatalf("len = %d, want 32", len(big))
	}
	if cap(big) == 16 {
		t.Error("pool crossed size buckets")
	}
}

func TestPool_BucketLimit(t *testing.T) {
	p := NewPool(1)

	a := p.Get(8)
	b := p.Get(8)
	p.Put(a)
	p.Put(b) // discarded, bucket is full

	if got := p.Get(8); &got[0] != &a[0] {
		t.Error("expected the first returned buffer")
	}
	if got := p.Get(8); len(got) != 8 {
		t.Error("expected a fresh allocation")
	}
}

func TestPool_Degenerate(t *testing.T) {
	p := NewPool(4)
	if p.Get(0) != nil {
		t.Error("Get(0) should return nil")
	}
	if p.Get(-5) != nil {
		t.Error("Get(-5) should return nil")
	}
	p.Put(nil) // must not panic
}

func TestDefaultPool(t *testing.T) {
	buf := GetDefault(128)
	if len(buf) != 128 {
		t.Fatalf("len = %d, want 128", len(buf))
	}
	PutDefault(buf)
}
