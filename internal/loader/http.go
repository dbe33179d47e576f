// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/petar-djukic/go-dnt/pkg/types"
)

const (
	defaultCacheSize   = 512
	defaultHTTPTimeout = 30 * time.Second
	maxModuleSize      = 32 << 20
)

// HTTPConfig configures an HTTPLoader.
type HTTPConfig struct {
	Client    *http.Client // Defaults to a client with a 30s timeout
	CacheSize int          // Number of cached responses (default 512)
	UserAgent string
}

// HTTPLoader fetches http(s) specifiers. Responses are cached by requested
// specifier, so a module imported from many places is fetched once.
type HTTPLoader struct {
	client    *http.Client
	cache     *lru.Cache[types.Specifier, *Response]
	userAgent string
}

var _ Loader = (*HTTPLoader)(nil)

// NewHTTPLoader creates an HTTPLoader.
func NewHTTPLoader(cfg HTTPConfig) (*HTTPLoader, error) {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "go-dnt"
	}
	cache, err := lru.New[types.Specifier, *Response](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating response cache: %w", err)
	}
	return &HTTPLoader{client: cfg.Client, cache: cache, userAgent: cfg.UserAgent}, nil
}

func (l *HTTPLoader) Load(ctx context.Context, spec types.Specifier) (*Response, error) {
	if r, ok := l.cache.Get(spec); ok {
		return r, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", spec, err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "application/typescript, application/javascript, */*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", spec, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, spec)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("fetching %s: unexpected status %s", spec, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxModuleSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", spec, err)
	}

	final := spec
	if resp.Request != nil && resp.Request.URL != nil {
		final = types.Specifier(resp.Request.URL.String())
	}
	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[strings.ToLower(k)] = resp.Header.Get(k)
	}

	r := &Response{Specifier: final, Content: string(body), Headers: headers}
	l.cache.Add(spec, r)
	return r, nil
}
