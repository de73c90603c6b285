// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stratumfs/stratum/lib/objecthash"
	"github.com/stratumfs/stratum/lib/version"
)

// HTTP fetches from a repository served over plain HTTP(S). No
// transport authentication is attempted: trust comes from content
// digests and the manifest signature, not from the channel.
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP returns an HTTP fetcher for the repository at baseURL.
// If client is nil, http.DefaultClient is used; timeout policy lives
// in the supplied client, not here.
func NewHTTP(baseURL string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Fetch implements Fetcher.
func (h *HTTP) Fetch(ctx context.Context, digest objecthash.Digest, kind ObjectKind) ([]byte, error) {
	return h.get(ctx, ObjectPath(digest, kind))
}

// FetchName implements Fetcher.
func (h *HTTP) FetchName(ctx context.Context, name string) ([]byte, error) {
	return h.get(ctx, name)
}

func (h *HTTP) get(ctx context.Context, relative string) ([]byte, error) {
	url := h.baseURL + "/" + relative

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: building request for %s: %w", url, err)
	}
	request.Header.Set("User-Agent", "stratum/"+version.Version)

	response, err := h.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetch: %s: %w", url, err)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusOK:
		// Fall through to the body read.
	case response.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, relative)
	default:
		return nil, fmt.Errorf("fetch: %s: unexpected status %s", url, response.Status)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: reading %s: %w", url, err)
	}
	return data, nil
}
