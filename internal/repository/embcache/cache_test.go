package embcache

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestCache_PutThenGet(t *testing.T) {
	kv := newMockKV()
	c := New(kv, time.Minute)
	ctx := context.Background()
	vec := []float32{0.1, -2.5, 3}

	c.Put(ctx, "python data analysis", vec)

	got := c.Get(ctx, "python data analysis")
	if !reflect.DeepEqual(got, vec) {
		t.Fatalf("Get() = %v, want %v", got, vec)
	}
	if kv.lastTTL != time.Minute {
		t.Errorf("write TTL = %v, want %v", kv.lastTTL, time.Minute)
	}
}

func TestCache_KeyNormalization(t *testing.T) {
	kv := newMockKV()
	c := New(kv, 0)
	ctx := context.Background()

	c.Put(ctx, "  Python Data Analysis  ", []float32{1, 2})

	if got := c.Get(ctx, "python data analysis"); got == nil {
		t.Error("case and whitespace variants should share one cache entry")
	}
}

func TestCache_MissReturnsNil(t *testing.T) {
	c := New(newMockKV(), 0)

	if got := c.Get(context.Background(), "never stored"); got != nil {
		t.Errorf("Get() on miss = %v, want nil", got)
	}
}

func TestCache_DefaultTTL(t *testing.T) {
	kv := newMockKV()
	c := New(kv, 0)

	c.Put(context.Background(), "q", []float32{1})

	if kv.lastTTL != DefaultTTL {
		t.Errorf("write TTL = %v, want %v", kv.lastTTL, DefaultTTL)
	}
}

func TestCache_ErrorsAreAbsorbed(t *testing.T) {
	kv := newMockKV()
	kv.getErr = errors.New("connection refused")
	kv.setErr = errors.New("connection refused")
	c := New(kv, 0)
	ctx := context.Background()

	c.Put(ctx, "q", []float32{1, 2})
	if got := c.Get(ctx, "q"); got != nil {
		t.Errorf("Get() with failing store = %v, want nil", got)
	}
}

func TestCache_EmptyVectorNotCached(t *testing.T) {
	kv := newMockKV()
	c := New(kv, 0)

	c.Put(context.Background(), "q", nil)

	if len(kv.data) != 0 {
		t.Errorf("stored %d entries, want 0", len(kv.data))
	}
}

func TestDecodeVector_MalformedReturnsNil(t *testing.T) {
	for _, data := range [][]byte{nil, {}, []byte("abc"), []byte("abcde")} {
		if got := decodeVector(data); got != nil {
			t.Errorf("decodeVector(%q) = %v, want nil", data, got)
		}
	}
}
