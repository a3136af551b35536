package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestTypedCache_GetOrSet(t *testing.T) {
	mc := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer func() { _ = mc.Close() }()
	tc := NewTypedCache[sample](mc, time.Minute)
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) (*sample, error) {
		calls++
		return &sample{Name: "home", Count: 4}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := tc.GetOrSet(ctx, "home", compute)
		if err != nil {
			t.Fatalf("GetOrSet: %v", err)
		}
		if got.Name != "home" || got.Count != 4 {
			t.Errorf("GetOrSet = %+v", got)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}

	_ = tc.Delete(ctx, "home")
	if _, ok := tc.Get(ctx, "home"); ok {
		t.Error("Get after Delete should miss")
	}
}

func TestTypedCache_ComputeError(t *testing.T) {
	mc := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer func() { _ = mc.Close() }()
	tc := NewTypedCache[sample](mc, 0)

	boom := errors.New("boom")
	_, err := tc.GetOrSet(context.Background(), "k", func(context.Context) (*sample, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if ok, _ := mc.Has(context.Background(), "k"); ok {
		t.Error("failed compute must not be cached")
	}
}

func TestTypedCache_CorruptValue(t *testing.T) {
	mc := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer func() { _ = mc.Close() }()
	_ = mc.Set(context.Background(), "k", []byte("{not json"), 0)

	tc := NewTypedCache[sample](mc, 0)
	if _, ok := tc.Get(context.Background(), "k"); ok {
		t.Error("corrupt value should be treated as a miss")
	}
}
