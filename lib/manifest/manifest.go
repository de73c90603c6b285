// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stratumfs/stratum/lib/compression"
	"github.com/stratumfs/stratum/lib/objecthash"
)

// ErrMalformed indicates structurally invalid manifest bytes:
// missing mandatory fields, unparseable values, or a truncated
// signature block. Malformed input is fatal and never retried.
var ErrMalformed = errors.New("manifest: malformed")

// SignatureError reports a manifest whose signature does not validate
// against its certificate. The manifest is untrusted and unusable.
type SignatureError struct {
	Reason string
}

func (e *SignatureError) Error() string {
	return "manifest: signature verification failed: " + e.Reason
}

// CertificateHashError reports a certificate whose content hash does
// not match the hash pinned in the manifest.
type CertificateHashError struct {
	Expected objecthash.Digest
	Actual   objecthash.Digest
}

func (e *CertificateHashError) Error() string {
	return fmt.Sprintf("manifest: certificate hash mismatch: manifest pins %s, certificate is %s",
		e.Expected, e.Actual)
}

// fieldSeparator terminates the signed field block. Everything before
// it (inclusive of nothing after) is covered by the signature.
const fieldSeparator = "--"

// Manifest is the decoded root descriptor of a repository snapshot.
// Immutable after Parse.
type Manifest struct {
	// RootHash is the content hash of the root catalog.
	RootHash objecthash.Digest

	// RootSize is the stored size of the root catalog in bytes.
	RootSize int64

	// Revision increases monotonically with each published snapshot.
	Revision int64

	// RepositoryName is the fully qualified repository name.
	RepositoryName string

	// LastModified is the publication time of the snapshot.
	LastModified time.Time

	// Compression is the codec applied to the repository's
	// content-addressed objects.
	Compression compression.Algorithm

	// HistoryHash points at the tag history database. Zero when the
	// repository publishes no history.
	HistoryHash objecthash.Digest

	// PreviousRoot is the root catalog hash of the previous revision.
	// Zero for the first revision.
	PreviousRoot objecthash.Digest

	// CertificateHash pins the signing certificate by content hash.
	CertificateHash objecthash.Digest

	// fieldBlock is the raw signed portion exactly as received. The
	// signature covers these bytes, including any keys this version
	// does not understand.
	fieldBlock []byte

	// payloadDigest is the digest of fieldBlock claimed by the
	// signature block.
	payloadDigest objecthash.Digest

	// signature is the detached ed25519 signature over the canonical
	// text form of payloadDigest.
	signature []byte
}

// Parse decodes a manifest from its wire form. Unknown field keys are
// skipped (they remain covered by the signature via the raw field
// block), but all mandatory fields must be present.
func Parse(data []byte) (*Manifest, error) {
	separatorIndex := bytes.Index(data, []byte("\n"+fieldSeparator+"\n"))
	if separatorIndex < 0 {
		return nil, fmt.Errorf("%w: missing %q trailer", ErrMalformed, fieldSeparator)
	}

	fieldBlock := data[:separatorIndex+1]
	signatureBlock := data[separatorIndex+len(fieldSeparator)+2:]

	manifest := &Manifest{
		RootSize: -1,
		Revision: -1,
	}
	manifest.fieldBlock = append([]byte(nil), fieldBlock...)

	if err := manifest.parseFields(fieldBlock); err != nil {
		return nil, err
	}
	if err := manifest.parseSignatureBlock(signatureBlock); err != nil {
		return nil, err
	}

	switch {
	case manifest.RootHash.IsZero():
		return nil, fmt.Errorf("%w: missing root catalog hash (C)", ErrMalformed)
	case manifest.RootSize < 0:
		return nil, fmt.Errorf("%w: missing root catalog size (B)", ErrMalformed)
	case manifest.Revision < 0:
		return nil, fmt.Errorf("%w: missing revision (S)", ErrMalformed)
	case manifest.RepositoryName == "":
		return nil, fmt.Errorf("%w: missing repository name (N)", ErrMalformed)
	case manifest.LastModified.IsZero():
		return nil, fmt.Errorf("%w: missing timestamp (T)", ErrMalformed)
	case manifest.CertificateHash.IsZero():
		return nil, fmt.Errorf("%w: missing certificate hash (X)", ErrMalformed)
	}

	return manifest, nil
}

func (m *Manifest) parseFields(fieldBlock []byte) error {
	for _, line := range strings.Split(strings.TrimRight(string(fieldBlock), "\n"), "\n") {
		if len(line) < 2 {
			return fmt.Errorf("%w: short field line %q", ErrMalformed, line)
		}
		key, value := line[0], line[1:]

		var err error
		switch key {
		case 'C':
			m.RootHash, err = objecthash.Parse(value)
		case 'B':
			m.RootSize, err = parseNonNegative(value)
		case 'S':
			m.Revision, err = parseNonNegative(value)
		case 'N':
			m.RepositoryName = value
		case 'T':
			var seconds int64
			seconds, err = parseNonNegative(value)
			m.LastModified = time.Unix(seconds, 0).UTC()
		case 'Z':
			m.Compression, err = compression.Parse(value)
		case 'H':
			m.HistoryHash, err = objecthash.Parse(value)
		case 'P':
			m.PreviousRoot, err = objecthash.Parse(value)
		case 'X':
			m.CertificateHash, err = objecthash.Parse(value)
		default:
			// Unknown keys are tolerated for forward compatibility.
			// The signature still covers them through the raw block.
		}
		if err != nil {
			return fmt.Errorf("%w: field %c: %v", ErrMalformed, key, err)
		}
	}
	return nil
}

func (m *Manifest) parseSignatureBlock(signatureBlock []byte) error {
	lines := strings.Split(strings.TrimRight(string(signatureBlock), "\n"), "\n")
	if len(lines) != 2 {
		return fmt.Errorf("%w: signature block has %d lines, want digest and signature", ErrMalformed, len(lines))
	}

	digest, err := objecthash.Parse(lines[0])
	if err != nil {
		return fmt.Errorf("%w: payload digest: %v", ErrMalformed, err)
	}
	m.payloadDigest = digest

	signature, err := parseHex(lines[1])
	if err != nil {
		return fmt.Errorf("%w: signature: %v", ErrMalformed, err)
	}
	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature is %d bytes, want %d", ErrMalformed, len(signature), ed25519.SignatureSize)
	}
	m.signature = signature
	return nil
}

// HasHistory reports whether the manifest references a tag history
// database.
func (m *Manifest) HasHistory() bool {
	return !m.HistoryHash.IsZero()
}

// Verify checks the manifest signature against the given certificate.
//
// Three things must hold: the certificate's content hash equals the
// hash pinned in the manifest, the signed field block hashes to the
// digest named in the signature block, and the ed25519 signature over
// that digest line validates with the certificate's public key. Any
// failure leaves the manifest untrusted.
func (m *Manifest) Verify(certificate *Certificate) error {
	certificateDigest := certificate.Digest(m.CertificateHash.Algorithm)
	if !certificateDigest.Equal(m.CertificateHash) {
		return &CertificateHashError{Expected: m.CertificateHash, Actual: certificateDigest}
	}

	actual := objecthash.Sum(m.payloadDigest.Algorithm, m.fieldBlock)
	if !actual.Equal(m.payloadDigest) {
		return &SignatureError{Reason: "signed digest does not cover the manifest fields"}
	}

	if !ed25519.Verify(certificate.PublicKey, []byte(m.payloadDigest.String()), m.signature) {
		return &SignatureError{Reason: "ed25519 signature invalid for certificate " + certificate.Name}
	}
	return nil
}

func parseNonNegative(value string) (int64, error) {
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	if parsed < 0 {
		return 0, fmt.Errorf("negative value %d", parsed)
	}
	return parsed, nil
}
