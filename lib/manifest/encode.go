// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/stratumfs/stratum/lib/objecthash"
)

// Encode serializes and signs the manifest with the given private
// key. Fields are written in canonical order; optional fields are
// omitted when zero. This exists for fixture building and publisher
// tooling tests — the traversal engine itself never writes manifests.
func (m *Manifest) Encode(key ed25519.PrivateKey) ([]byte, error) {
	switch {
	case m.RootHash.IsZero():
		return nil, fmt.Errorf("manifest: encode: root hash is required")
	case m.RepositoryName == "":
		return nil, fmt.Errorf("manifest: encode: repository name is required")
	case m.CertificateHash.IsZero():
		return nil, fmt.Errorf("manifest: encode: certificate hash is required")
	case m.LastModified.IsZero():
		return nil, fmt.Errorf("manifest: encode: timestamp is required")
	}

	var block bytes.Buffer
	writeField := func(key byte, value string) {
		block.WriteByte(key)
		block.WriteString(value)
		block.WriteByte('\n')
	}

	writeField('C', m.RootHash.String())
	writeField('B', strconv.FormatInt(m.RootSize, 10))
	writeField('S', strconv.FormatInt(m.Revision, 10))
	writeField('N', m.RepositoryName)
	writeField('T', strconv.FormatInt(m.LastModified.Unix(), 10))
	writeField('Z', m.Compression.String())
	if !m.HistoryHash.IsZero() {
		writeField('H', m.HistoryHash.String())
	}
	if !m.PreviousRoot.IsZero() {
		writeField('P', m.PreviousRoot.String())
	}
	writeField('X', m.CertificateHash.String())

	digest := objecthash.Sum(m.RootHash.Algorithm, block.Bytes())
	signature := ed25519.Sign(key, []byte(digest.String()))

	var out bytes.Buffer
	out.Write(block.Bytes())
	out.WriteString(fieldSeparator + "\n")
	out.WriteString(digest.String() + "\n")
	out.WriteString(hex.EncodeToString(signature) + "\n")
	return out.Bytes(), nil
}
