// pipeline.go: wires serialize/compress/encrypt/sign into the framed
// payload layout from §3/§6: `SIG? ENC? FLAG BODY`, decoded by
// consuming markers left-to-right in reverse of their application order
// (sign -> encrypt -> compress), per §3's invariant.
package codec

import "fmt"

// Options configures one pipeline run. The zero value disables every
// optional stage, leaving only serialize/deserialize.
type Options struct {
	CompressionEnabled bool
	CompressionMinSize int
	CompressionLevel   int

	EncryptionEnabled bool
	EncryptionKey     string
	EncryptionSalt    string

	SigningEnabled   bool
	SigningKey       string
	SigningAlgorithm string
}

// IntegrityError reports a MAC mismatch or a rejected AEAD ciphertext —
// the two failure modes the orchestrator must treat as IntegrityError
// (§7) rather than a generic SerializationError.
type IntegrityError struct {
	msg string
}

func (e *IntegrityError) Error() string { return "codec: integrity: " + e.msg }

// EncodeValue runs the full write-side pipeline over v: serialize, then
// optionally compress, encrypt, and sign, in that order.
func EncodeValue(v interface{}, opts Options) ([]byte, error) {
	body, err := Encode(v)
	if err != nil {
		return nil, err
	}

	flag := FlagUncompressed
	if opts.CompressionEnabled && len(body) >= opts.CompressionMinSize {
		compressed, err := Compress(body, opts.CompressionLevel)
		if err != nil {
			return nil, err
		}
		body = compressed
		flag = FlagCompressed
	}

	framed := make([]byte, 0, len(body)+1)
	framed = append(framed, flag)
	framed = append(framed, body...)

	if opts.EncryptionEnabled {
		key, err := DeriveKey(opts.EncryptionKey, opts.EncryptionSalt)
		if err != nil {
			return nil, err
		}
		enc, err := Encrypt(framed, key)
		if err != nil {
			return nil, err
		}
		framed = enc
	}

	if opts.SigningEnabled {
		sig, err := Sign(framed, []byte(opts.SigningKey), opts.SigningAlgorithm)
		if err != nil {
			return nil, err
		}
		signed := make([]byte, 0, len(sig)+len(framed))
		signed = append(signed, sig...)
		signed = append(signed, framed...)
		framed = signed
	}

	return framed, nil
}

// DecodeValue reverses EncodeValue: verify MAC, decrypt, inspect the
// flag byte, decompress if 'C', deserialize. Any step failure returns
// an error; a *IntegrityError specifically indicates a mismatched
// signature or a rejected AEAD ciphertext.
func DecodeValue(framed []byte, opts Options) (interface{}, error) {
	data := framed

	if opts.SigningEnabled {
		sigSize, err := SignatureSize(opts.SigningAlgorithm)
		if err != nil {
			return nil, err
		}
		if len(data) < sigSize {
			return nil, &IntegrityError{msg: "payload shorter than signature"}
		}
		sig, rest := data[:sigSize], data[sigSize:]
		ok, err := Verify(rest, sig, []byte(opts.SigningKey), opts.SigningAlgorithm)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &IntegrityError{msg: "signature mismatch"}
		}
		data = rest
	}

	if opts.EncryptionEnabled {
		key, err := DeriveKey(opts.EncryptionKey, opts.EncryptionSalt)
		if err != nil {
			return nil, err
		}
		dec, err := Decrypt(data, key)
		if err != nil {
			return nil, &IntegrityError{msg: err.Error()}
		}
		data = dec
	}

	if len(data) < 1 {
		return nil, fmt.Errorf("codec: empty payload")
	}
	flag, body := data[0], data[1:]
	switch flag {
	case FlagCompressed:
		decompressed, err := Decompress(body)
		if err != nil {
			return nil, err
		}
		body = decompressed
	case FlagUncompressed:
		// body is already plain
	default:
		return nil, fmt.Errorf("codec: unknown flag byte %q", flag)
	}

	return Decode(body)
}
