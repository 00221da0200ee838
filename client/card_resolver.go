// Copyright 2025 The Go A2A Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/agentoven/a2a-go"
)

const opDiscover = "discover"

// Discover fetches, validates and returns the agent card published under baseURL,
// without keeping a client around.
func Discover(ctx context.Context, baseURL string, opts ...Option) (*a2a.AgentCard, error) {
	c, err := New(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return c.Discover(ctx)
}

// Discover fetches the agent card from the well-known path under the base URL,
// validates it and caches it on c.
//
// A fetch failure or non-2xx response matches [a2a.ErrDiscoveryFailed] and carries
// the HTTP status. A card that cannot be decoded or fails validation matches
// [a2a.ErrInvalidAgentCard].
func (c *Client) Discover(ctx context.Context) (_ *a2a.AgentCard, err error) {
	ctx, span := c.tracer.Start(ctx, "a2a.client/"+opDiscover)
	defer func() { endSpan(span, err) }()

	targetURL := joinURL(c.baseURL, a2a.AgentCardWellKnownPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, http.NoBody)
	if err != nil {
		return nil, &a2a.Error{Kind: a2a.KindInvalidURL, Op: opDiscover, Err: err}
	}
	for key, values := range c.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	c.metrics.Started(ctx, opDiscover)
	status := 0
	defer func() { c.metrics.Finished(ctx, opDiscover, status, start) }()

	ctx = withCallInfo(ctx, &CallInfo{URL: targetURL})
	resp, err := chainInterceptors(c.interceptors, c.invoke)(ctx, req)
	if err != nil {
		kind := a2a.KindDiscoveryFailed
		if errors.Is(err, context.DeadlineExceeded) {
			kind = a2a.KindTimeout
		}
		return nil, &a2a.Error{Kind: kind, Op: opDiscover, Msg: "fetch " + targetURL, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if !isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil, &a2a.Error{
			Kind:       a2a.KindDiscoveryFailed,
			Op:         opDiscover,
			StatusCode: resp.StatusCode,
			Msg:        "fetch " + targetURL,
		}
	}

	var card a2a.AgentCard
	dec := jsontext.NewDecoder(resp.Body)
	if err := json.UnmarshalDecode(dec, &card, json.DefaultOptionsV2()); err != nil {
		return nil, &a2a.Error{Kind: a2a.KindInvalidAgentCard, Op: opDiscover, Msg: "decode agent card", Err: err}
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}

	c.setAgentCard(&card)
	c.logger.DebugContext(ctx, "discovered agent",
		slog.String("url", targetURL),
		slog.String("agent", card.Name),
		slog.Bool("streaming", card.SupportsStreaming()),
	)
	return &card, nil
}
