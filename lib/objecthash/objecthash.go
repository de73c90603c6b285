// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package objecthash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Size is the digest length in bytes. Both supported algorithms
// produce 32-byte digests.
const Size = 32

// Algorithm identifies the hash function behind a digest.
type Algorithm uint8

const (
	// SHA256 is the default digest algorithm.
	SHA256 Algorithm = 0

	// BLAKE3 is the alternate digest algorithm for repositories that
	// opt into it. Hex forms carry a "-blake3" suffix.
	BLAKE3 Algorithm = 1
)

// String returns the canonical lowercase name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case SHA256:
		return "sha256"
	case BLAKE3:
		return "blake3"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// ParseAlgorithm parses an algorithm from its canonical name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "sha256":
		return SHA256, nil
	case "blake3":
		return BLAKE3, nil
	default:
		return 0, fmt.Errorf("objecthash: unknown algorithm %q", name)
	}
}

// Digest is a content hash together with the algorithm that produced
// it. The zero Digest is "no digest" (see IsZero) and is used for
// optional hash fields such as a manifest's history pointer.
type Digest struct {
	Algorithm Algorithm
	Sum       [Size]byte
}

// Sum computes the digest of data with the given algorithm.
func Sum(algorithm Algorithm, data []byte) Digest {
	var sum [Size]byte
	switch algorithm {
	case BLAKE3:
		sum = blake3.Sum256(data)
	default:
		sum = sha256.Sum256(data)
	}
	return Digest{Algorithm: algorithm, Sum: sum}
}

// Hex returns the bare lowercase hex encoding of the digest, without
// an algorithm suffix. This is the form used for object shard paths.
func (d Digest) Hex() string {
	return hex.EncodeToString(d.Sum[:])
}

// String returns the canonical text form: bare hex for SHA-256, hex
// plus "-blake3" for BLAKE3.
func (d Digest) String() string {
	if d.Algorithm == BLAKE3 {
		return d.Hex() + "-blake3"
	}
	return d.Hex()
}

// IsZero reports whether the digest is unset. A genuine all-zero
// SHA-256 digest has no preimage, so the zero value is safe to use as
// the "absent" marker for optional fields.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Equal reports whether two digests have the same algorithm and sum.
func (d Digest) Equal(other Digest) bool {
	return d == other
}

// Parse parses the canonical text form produced by String. The input
// must be exactly 64 hex characters, optionally followed by an
// "-<algorithm>" suffix.
func Parse(text string) (Digest, error) {
	hexPart := text
	algorithm := SHA256

	if index := strings.IndexByte(text, '-'); index >= 0 {
		parsed, err := ParseAlgorithm(text[index+1:])
		if err != nil {
			return Digest{}, fmt.Errorf("objecthash: parsing %q: %w", text, err)
		}
		algorithm = parsed
		hexPart = text[:index]
	}

	decoded, err := hex.DecodeString(hexPart)
	if err != nil {
		return Digest{}, fmt.Errorf("objecthash: parsing %q: %w", text, err)
	}
	if len(decoded) != Size {
		return Digest{}, fmt.Errorf("objecthash: digest %q is %d bytes, want %d", text, len(decoded), Size)
	}

	digest := Digest{Algorithm: algorithm}
	copy(digest.Sum[:], decoded)
	return digest, nil
}

// MismatchError reports a content verification failure: the fetched
// bytes hash to Actual instead of the requested Expected digest.
type MismatchError struct {
	Expected Digest
	Actual   Digest
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("objecthash: content mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// Verify recomputes the digest of data using the algorithm of
// expected and compares the result. A mismatch returns a
// *MismatchError; the bytes must not be used.
func Verify(expected Digest, data []byte) error {
	actual := Sum(expected.Algorithm, data)
	if !bytes.Equal(actual.Sum[:], expected.Sum[:]) {
		return &MismatchError{Expected: expected, Actual: actual}
	}
	return nil
}
