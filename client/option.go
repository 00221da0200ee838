// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentoven/a2a-go"
)

// Option configures a [Client] or a [Discover] call.
type Option func(*Client)

// WithHTTPClient sets the [*http.Client] used for every request.
// Timeouts configured on it apply to every call.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithBearerToken sends "Authorization: Bearer <token>" on every request,
// agent card discovery included.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Add(key, value)
	}
}

// WithUserAgent overrides [DefaultUserAgent].
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithInterceptors appends interceptors to the chain. The first interceptor is
// the outermost.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(c *Client) {
		c.interceptors = append(c.interceptors, interceptors...)
	}
}

// WithAgentCard sets the agent card for the [Client], as if it had been discovered.
func WithAgentCard(card *a2a.AgentCard) Option {
	return func(c *Client) {
		c.card = card
	}
}

// WithLogger sets the [*slog.Logger] for the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer sets the [trace.Tracer] for the [Client].
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// WithMeter sets the [metric.Meter] the [Client] records call metrics with.
func WithMeter(meter metric.Meter) Option {
	return func(c *Client) {
		c.meter = meter
	}
}
