package stratacache

import (
	"context"
	"testing"
)

type typedUser struct {
	ID   int
	Name string
}

func TestTypedSetGetRoundTrip(t *testing.T) {
	engine, err := New(newEngineTestConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer engine.Close()

	users := NewTyped[string, map[string]interface{}](engine)
	ctx := context.Background()

	if err := users.Set(ctx, "user:1", map[string]interface{}{"id": 1, "name": "Alice"}, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, found, err := users.Get(ctx, "user:1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("expected a hit")
	}
	if got["name"] != "Alice" {
		t.Errorf("Get() = %+v, want name=Alice", got)
	}
}

func TestTypedGetMissReturnsZeroValue(t *testing.T) {
	engine, err := New(newEngineTestConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer engine.Close()

	users := NewTyped[string, typedUser](engine)
	got, found, err := users.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("expected a miss")
	}
	if got != (typedUser{}) {
		t.Errorf("Get() on miss = %+v, want zero value", got)
	}
}

func TestTypedIntKey(t *testing.T) {
	engine, err := New(newEngineTestConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer engine.Close()

	counters := NewTyped[int, int](engine)
	ctx := context.Background()
	if err := counters.Set(ctx, 42, 100, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, found, err := counters.Get(ctx, 42)
	if err != nil || !found || got != 100 {
		t.Fatalf("Get(42) = (%v, %v, %v), want (100, true, nil)", got, found, err)
	}
}

func TestTypedDeleteAndClear(t *testing.T) {
	engine, err := New(newEngineTestConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer engine.Close()

	users := NewTyped[string, map[string]interface{}](engine)
	ctx := context.Background()
	users.Set(ctx, "u1", map[string]interface{}{"id": 1}, 0)

	existed, err := users.Delete(ctx, "u1")
	if err != nil || !existed {
		t.Fatalf("Delete() = (%v, %v), want (true, nil)", existed, err)
	}

	users.Set(ctx, "u2", map[string]interface{}{"id": 2}, 0)
	if err := users.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if has, _ := users.Has(ctx, "u2"); has {
		t.Error("expected Clear() to remove everything")
	}
}

func TestKeyToStringFastPaths(t *testing.T) {
	cases := map[interface{}]string{
		"abc":        "abc",
		int(42):      "42",
		int8(-1):     "-1",
		int16(100):   "100",
		int32(1000):  "1000",
		int64(10000): "10000",
		uint(1):      "1",
		uint8(2):     "2",
		uint16(3):    "3",
		uint32(4):    "4",
		uint64(5):    "5",
	}
	for input, want := range cases {
		var got string
		switch v := input.(type) {
		case string:
			got = keyToString(v)
		case int:
			got = keyToString(v)
		case int8:
			got = keyToString(v)
		case int16:
			got = keyToString(v)
		case int32:
			got = keyToString(v)
		case int64:
			got = keyToString(v)
		case uint:
			got = keyToString(v)
		case uint8:
			got = keyToString(v)
		case uint16:
			got = keyToString(v)
		case uint32:
			got = keyToString(v)
		case uint64:
			got = keyToString(v)
		}
		if got != want {
			t.Errorf("keyToString(%v) = %q, want %q", input, got, want)
		}
	}
}
