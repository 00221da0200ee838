// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

// defaultJWKSTTL is how long a fetched key set is trusted before it is fetched again.
const defaultJWKSTTL = time.Hour

// minJWKSRefresh is the shortest interval between two fetches of a key set.
const minJWKSRefresh = time.Minute

// maxJWKSBody bounds the size of a fetched key set.
const maxJWKSBody = 1 << 20

// jwksSource fetches and caches the JSON Web Key Set an agent signs its push
// notifications with. Fetches, failed or not, are at least minJWKSRefresh apart
// and at most one is in flight.
type jwksSource struct {
	url        string
	httpClient *http.Client
	ttl        time.Duration

	mu        sync.Mutex
	set       jwk.Set
	fetched   time.Time     // last successful fetch
	attempted time.Time     // last fetch, successful or not
	lastErr   error         // error of the last fetch
	inflight  chan struct{} // closed when the running fetch ends
}

func newJWKSSource(url string, httpClient *http.Client) *jwksSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &jwksSource{url: url, httpClient: httpClient, ttl: defaultJWKSTTL}
}

// keySet returns the cached key set, fetching it when it is missing or stale.
// A stale set keeps being served when a refresh fails.
func (s *jwksSource) keySet(ctx context.Context) (jwk.Set, error) {
	s.mu.Lock()
	for s.inflight != nil {
		done := s.inflight
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		s.mu.Lock()
	}
	if (s.set != nil && time.Since(s.fetched) < s.ttl) || time.Since(s.attempted) < minJWKSRefresh {
		defer s.mu.Unlock()
		return s.cached()
	}
	done := make(chan struct{})
	s.inflight, s.attempted = done, time.Now()
	s.mu.Unlock()

	// The fetch outlives the request that triggered it; other requests wait on it.
	set, err := s.fetch(context.WithoutCancel(ctx))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if err == nil {
		s.set, s.fetched = set, time.Now()
	}
	s.inflight = nil
	close(done)
	return s.cached()
}

// cached returns the current set, or the last fetch error when there is none.
// s.mu must be held.
func (s *jwksSource) cached() (jwk.Set, error) {
	if s.set != nil {
		return s.set, nil
	}
	if s.lastErr != nil {
		return nil, s.lastErr
	}
	return nil, fmt.Errorf("fetch JWKS: no key set")
}

// invalidate marks the cached set stale, so the next keySet call fetches again
// and rotated keys are picked up, and reports whether it did. It has no effect
// within minJWKSRefresh of the last fetch attempt.
func (s *jwksSource) invalidate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight != nil || time.Since(s.attempted) < minJWKSRefresh {
		return false
	}
	s.fetched = time.Time{}
	return true
}

func (s *jwksSource) fetch(ctx context.Context) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch JWKS: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBody))
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS: %w", err)
	}
	set, err := jwk.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse JWKS: %w", err)
	}
	return set, nil
}
