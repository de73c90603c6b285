// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrCorrupt indicates bytes that are not a valid stream for the
// requested algorithm. Decompression errors wrap it so callers can
// classify them as object corruption.
var ErrCorrupt = errors.New("compression: corrupt data")

// Algorithm identifies the compression codec for repository objects.
// The numeric values appear in manifests; changing them breaks
// existing repositories.
type Algorithm uint8

const (
	// None stores objects uncompressed.
	None Algorithm = 0

	// Zlib is the compatibility default: every legacy repository
	// publisher emits zlib streams.
	Zlib Algorithm = 1

	// Zstd trades slightly slower compression for much faster
	// decompression and better ratios on catalog databases.
	Zstd Algorithm = 2

	// LZ4 (frame format) is for publishers that favor decompression
	// speed over ratio.
	LZ4 Algorithm = 3
)

// String returns the canonical name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Zlib:
		return "zlib"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// Parse parses an algorithm from its canonical name.
func Parse(name string) (Algorithm, error) {
	switch name {
	case "none":
		return None, nil
	case "zlib":
		return Zlib, nil
	case "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return 0, fmt.Errorf("compression: unknown algorithm %q", name)
	}
}

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("compression: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("compression: zstd decoder initialization failed: " + err.Error())
	}
}

// Decompress reverses Compress for the given algorithm. Corrupt input
// returns an error; the bytes must not be used.
func Decompress(data []byte, algorithm Algorithm) ([]byte, error) {
	switch algorithm {
	case None:
		return data, nil

	case Zlib:
		reader, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: zlib: %v", ErrCorrupt, err)
		}
		defer reader.Close()
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("%w: zlib: %v", ErrCorrupt, err)
		}
		return decompressed, nil

	case Zstd:
		decompressed, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		return decompressed, nil

	case LZ4:
		reader := lz4.NewReader(bytes.NewReader(data))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
		}
		return decompressed, nil

	default:
		return nil, fmt.Errorf("compression: unsupported algorithm %d", algorithm)
	}
}

// Compress encodes data with the given algorithm. Used by repository
// fixture builders; the read path only decompresses.
func Compress(data []byte, algorithm Algorithm) ([]byte, error) {
	switch algorithm {
	case None:
		return data, nil

	case Zlib:
		var buffer bytes.Buffer
		writer := zlib.NewWriter(&buffer)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("compression: zlib: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("compression: zlib: %w", err)
		}
		return buffer.Bytes(), nil

	case Zstd:
		return zstdEncoder.EncodeAll(data, nil), nil

	case LZ4:
		var buffer bytes.Buffer
		writer := lz4.NewWriter(&buffer)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("compression: lz4: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("compression: lz4: %w", err)
		}
		return buffer.Bytes(), nil

	default:
		return nil, fmt.Errorf("compression: unsupported algorithm %d", algorithm)
	}
}
