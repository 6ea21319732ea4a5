// sign.go: the sign stage (§4.1 step 4) — a keyed MAC over the bytes
// produced by the prior stages, algorithm selectable per the
// signing_algorithm configuration option.
package codec

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
)

// Algorithm names, matching the signing_algorithm configuration option.
const (
	AlgoSHA256 = "sha256"
	AlgoSHA384 = "sha384"
	AlgoSHA512 = "sha512"
)

func newHash(algorithm string) (func() hash.Hash, int, error) {
	switch algorithm {
	case AlgoSHA256:
		return sha256.New, sha256.Size, nil
	case AlgoSHA384:
		return sha512.New384, sha512.Size384, nil
	case AlgoSHA512:
		return sha512.New, sha512.Size, nil
	default:
		return nil, 0, fmt.Errorf("codec: unknown signing algorithm %q", algorithm)
	}
}

// SignatureSize returns the MAC length for algorithm, used by the
// pipeline to know how many leading bytes to strip on verify.
func SignatureSize(algorithm string) (int, error) {
	_, size, err := newHash(algorithm)
	return size, err
}

// Sign computes a keyed MAC over data using the given algorithm and key.
func Sign(data []byte, key []byte, algorithm string) ([]byte, error) {
	newH, _, err := newHash(algorithm)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(newH, key)
	mac.Write(data)
	return mac.Sum(nil), nil
}

// Verify reports whether sig is the correct MAC for data under key and
// algorithm, using a constant-time comparison.
func Verify(data []byte, sig []byte, key []byte, algorithm string) (bool, error) {
	expected, err := Sign(data, key, algorithm)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, sig), nil
}
