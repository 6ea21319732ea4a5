package codec

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		val  interface{}
	}{
		{"nil", nil},
		{"bool true", true},
		{"bool false", false},
		{"int", 42},
		{"negative int", -7},
		{"float", 3.14159},
		{"string", "hello, stratacache"},
		{"empty string", ""},
		{"bytes", []byte{0x00, 0x01, 0xff}},
		{"array", []interface{}{1, "two", 3.0, nil, true}},
		{"map", map[string]interface{}{"n": 42, "xs": []interface{}{1, 2}}},
		{"nested", map[string]interface{}{
			"a": []interface{}{map[string]interface{}{"b": 1}, map[string]interface{}{"c": 2}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := Encode(tc.val)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(decoded, tc.val) {
				t.Fatalf("round-trip mismatch: got %#v, want %#v", decoded, tc.val)
			}
		})
	}
}

func TestEncodeRejectsUnsupportedType(t *testing.T) {
	type unsupported struct{ X int }
	if _, err := Encode(unsupported{X: 1}); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	encoded, err := Encode(map[string]interface{}{"k": "v"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Decode(encoded[:len(encoded)-2]); err == nil {
		t.Fatal("expected error decoding truncated input")
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	encoded, err := Encode(1)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Decode(append(encoded, 0xff)); err == nil {
		t.Fatal("expected error for trailing bytes")
	}
}
