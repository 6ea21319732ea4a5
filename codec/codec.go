// Package codec implements the value pipeline (§4.1): a compact typed
// binary encoder, plus the optional compress/encrypt/sign stages that
// wrap it into the framed payload described in §3 and §6.
//
// The encoder round-trips the value matrix named in §4.1 exactly:
// integers, floats, booleans, null, ordered sequences, string-keyed
// mappings, and raw bytes.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Type tags for the typed binary format.
const (
	tagNull byte = iota
	tagBool
	tagInt
	tagFloat
	tagString
	tagBytes
	tagArray
	tagMap
	tagNativeInt
)

// Encode serializes v into the compact typed binary format. Supported
// Go types: nil, bool, int / int64 / int32, float64 / float32, string,
// []byte, []interface{} (ordered sequence), map[string]interface{}
// (string-keyed mapping). Any other type is rejected. Decode returns an
// int as int; int32, int64 and uint64 come back as int64, and float32
// as float64.
func Encode(v interface{}) ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf, err := appendValue(buf, v)
	if err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	return buf, nil
}

func appendValue(buf []byte, v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return append(buf, tagNull), nil
	case bool:
		buf = append(buf, tagBool)
		if val {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case int:
		return appendInt(buf, tagNativeInt, int64(val)), nil
	case int32:
		return appendInt(buf, tagInt, int64(val)), nil
	case int64:
		return appendInt(buf, tagInt, val), nil
	case uint64:
		return appendInt(buf, tagInt, int64(val)), nil
	case float32:
		return appendFloat(buf, float64(val)), nil
	case float64:
		return appendFloat(buf, val), nil
	case string:
		return appendLenPrefixed(buf, tagString, []byte(val)), nil
	case []byte:
		return appendLenPrefixed(buf, tagBytes, val), nil
	case []interface{}:
		buf = append(buf, tagArray)
		buf = appendUint32(buf, uint32(len(val)))
		for _, elem := range val {
			var err error
			buf, err = appendValue(buf, elem)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	case map[string]interface{}:
		buf = append(buf, tagMap)
		buf = appendUint32(buf, uint32(len(val)))
		for k, elem := range val {
			buf = appendLenPrefixed(buf, tagString, []byte(k))
			var err error
			buf, err = appendValue(buf, elem)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("codec: unsupported type %T", v)
	}
}

func appendInt(buf []byte, tag byte, n int64) []byte {
	buf = append(buf, tag)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(n))
	return append(buf, tmp[:]...)
}

func appendFloat(buf []byte, f float64) []byte {
	buf = append(buf, tagFloat)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], math.Float64bits(f))
	return append(buf, tmp[:]...)
}

func appendUint32(buf []byte, n uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], n)
	return append(buf, tmp[:]...)
}

func appendLenPrefixed(buf []byte, tag byte, data []byte) []byte {
	buf = append(buf, tag)
	buf = appendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

// Decode deserializes b, produced by Encode, back into its original
// value. It returns an error rather than a partial value on any
// malformed input.
func Decode(b []byte) (interface{}, error) {
	v, rest, err := readValue(b)
	if err != nil {
		return nil, fmt.Errorf("codec: decode: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("codec: decode: %d trailing bytes", len(rest))
	}
	return v, nil
}

func readValue(b []byte) (interface{}, []byte, error) {
	if len(b) == 0 {
		return nil, nil, fmt.Errorf("unexpected end of input")
	}
	tag, rest := b[0], b[1:]
	switch tag {
	case tagNull:
		return nil, rest, nil
	case tagBool:
		if len(rest) < 1 {
			return nil, nil, fmt.Errorf("truncated bool")
		}
		return rest[0] != 0, rest[1:], nil
	case tagInt, tagNativeInt:
		if len(rest) < 8 {
			return nil, nil, fmt.Errorf("truncated int")
		}
		n := int64(binary.BigEndian.Uint64(rest[:8]))
		if tag == tagNativeInt {
			return int(n), rest[8:], nil
		}
		return n, rest[8:], nil
	case tagFloat:
		if len(rest) < 8 {
			return nil, nil, fmt.Errorf("truncated float")
		}
		f := math.Float64frombits(binary.BigEndian.Uint64(rest[:8]))
		return f, rest[8:], nil
	case tagString:
		data, rest, err := readLenPrefixed(rest)
		if err != nil {
			return nil, nil, err
		}
		return string(data), rest, nil
	case tagBytes:
		data, rest, err := readLenPrefixed(rest)
		if err != nil {
			return nil, nil, err
		}
		out := make([]byte, len(data))
		copy(out, data)
		return out, rest, nil
	case tagArray:
		n, rest, err := readUint32(rest)
		if err != nil {
			return nil, nil, err
		}
		arr := make([]interface{}, 0, n)
		for i := uint32(0); i < n; i++ {
			var elem interface{}
			elem, rest, err = readValue(rest)
			if err != nil {
				return nil, nil, err
			}
			arr = append(arr, elem)
		}
		return arr, rest, nil
	case tagMap:
		n, rest, err := readUint32(rest)
		if err != nil {
			return nil, nil, err
		}
		m := make(map[string]interface{}, n)
		for i := uint32(0); i < n; i++ {
			var keyTag byte
			if len(rest) == 0 {
				return nil, nil, fmt.Errorf("truncated map key")
			}
			keyTag, rest = rest[0], rest[1:]
			if keyTag != tagString {
				return nil, nil, fmt.Errorf("map key must be a string, got tag %d", keyTag)
			}
			var keyBytes []byte
			keyBytes, rest, err = readLenPrefixed(rest)
			if err != nil {
				return nil, nil, err
			}
			var val interface{}
			val, rest, err = readValue(rest)
			if err != nil {
				return nil, nil, err
			}
			m[string(keyBytes)] = val
		}
		return m, rest, nil
	default:
		return nil, nil, fmt.Errorf("unknown type tag %d", tag)
	}
}

func readUint32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, fmt.Errorf("truncated length prefix")
	}
	return binary.BigEndian.Uint32(b[:4]), b[4:], nil
}

func readLenPrefixed(b []byte) ([]byte, []byte, error) {
	n, rest, err := readUint32(b)
	if err != nil {
		return nil, nil, err
	}
	if uint32(len(rest)) < n {
		return nil, nil, fmt.Errorf("truncated payload: want %d bytes, have %d", n, len(rest))
	}
	return rest[:n], rest[n:], nil
}
