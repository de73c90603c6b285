// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/stratumfs/stratum/lib/objecthash"
)

// Certificate is the repository signing certificate: a named ed25519
// public key, stored as a content-addressed object and pinned by hash
// in the manifest.
type Certificate struct {
	// Name is the repository name the certificate was issued for.
	Name string

	// PublicKey verifies manifest signatures.
	PublicKey ed25519.PublicKey

	// raw is the certificate object exactly as stored, for hash
	// pinning.
	raw []byte
}

// ParseCertificate decodes a certificate object. The format mirrors
// the manifest field style: an N line with the repository name and a
// K line with the hex-encoded ed25519 public key.
func ParseCertificate(data []byte) (*Certificate, error) {
	certificate := &Certificate{raw: append([]byte(nil), data...)}

	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if len(line) < 2 {
			return nil, fmt.Errorf("%w: short certificate line %q", ErrMalformed, line)
		}
		key, value := line[0], line[1:]

		switch key {
		case 'N':
			certificate.Name = value
		case 'K':
			decoded, err := parseHex(value)
			if err != nil {
				return nil, fmt.Errorf("%w: certificate key: %v", ErrMalformed, err)
			}
			if len(decoded) != ed25519.PublicKeySize {
				return nil, fmt.Errorf("%w: certificate key is %d bytes, want %d",
					ErrMalformed, len(decoded), ed25519.PublicKeySize)
			}
			certificate.PublicKey = ed25519.PublicKey(decoded)
		}
	}

	if certificate.Name == "" {
		return nil, fmt.Errorf("%w: certificate has no name (N)", ErrMalformed)
	}
	if certificate.PublicKey == nil {
		return nil, fmt.Errorf("%w: certificate has no public key (K)", ErrMalformed)
	}
	return certificate, nil
}

// EncodeCertificate serializes a certificate object for the given
// repository name and public key.
func EncodeCertificate(name string, publicKey ed25519.PublicKey) []byte {
	return []byte("N" + name + "\nK" + hex.EncodeToString(publicKey) + "\n")
}

// Digest returns the content hash of the certificate object under the
// given algorithm. This is the value the manifest pins.
func (c *Certificate) Digest(algorithm objecthash.Algorithm) objecthash.Digest {
	return objecthash.Sum(algorithm, c.raw)
}

func parseHex(value string) ([]byte, error) {
	decoded, err := hex.DecodeString(value)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}
