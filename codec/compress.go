// compress.go: the compress stage (§4.1 step 2). Uses klauspost/compress's
// flate implementation rather than the standard library's — the same
// drop-in choice the MinIO-derived cache engine in the retrieval pack
// makes — because it accepts the same 1-9 level knob the configuration
// surface (compression_level) exposes directly.
package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// FlagCompressed and FlagUncompressed are the two framed-payload flag
// bytes from §3: 'C' when BODY is compressed, 'U' otherwise.
const (
	FlagCompressed   byte = 'C'
	FlagUncompressed byte = 'U'
)

// Compress flate-compresses data at the given level (1-9).
func Compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("codec: compress: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("codec: compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec: decompress: %w", err)
	}
	return out, nil
}
