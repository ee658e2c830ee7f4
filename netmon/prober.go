// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package netmon

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Prober actively checks whether the network is usable
type Prober interface {
	Probe(ctx context.Context) (bool, error)
}

// ProberFunc adapts a function to Prober
type ProberFunc func(ctx context.Context) (bool, error)

// Probe calls f
func (f ProberFunc) Probe(ctx context.Context) (bool, error) {
	return f(ctx)
}

// HTTPProber reports reachable when a HEAD request to URL answers 2xx or 3xx
type HTTPProber struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

// NewHTTPProber creates a prober with a 3 second timeout
func NewHTTPProber(url string) *HTTPProber {
	return &HTTPProber{
		URL:     url,
		Timeout: 3 * time.Second,
		Client:  &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }},
	}
}

// Probe sends the HEAD request. Transport failures are returned as errors.
func (p *HTTPProber) Probe(ctx context.Context) (bool, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create probe request: %w", err)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400, nil
}
