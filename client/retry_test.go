// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/agentoven/a2a-go"
	"github.com/agentoven/a2a-go/client"
	"github.com/agentoven/a2a-go/internal/a2atest"
)

var fastRetries = client.RetryPolicy{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
}

// flakyAgent answers 503 to the first failures requests and then serves a
// WORKING task for every JSON-RPC call.
func flakyAgent(t *testing.T, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= failures {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		var req a2a.JSONRPCRequest
		if err := json.UnmarshalRead(r.Body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := a2a.NewSuccessResponse(req.ID, &a2a.Task{ID: "t1", State: a2a.TaskStateWorking})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", a2a.MediaType)
		json.MarshalWrite(w, resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRetryInterceptor(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		failures  int32
		call      func(context.Context, *client.Client) error
		wantCalls int32
		wantErr   bool
	}{
		"read recovers": {
			failures: 2,
			call: func(ctx context.Context, c *client.Client) error {
				_, err := c.GetTask(ctx, "t1")
				return err
			},
			wantCalls: 3,
		},
		"read gives up": {
			failures: 5,
			call: func(ctx context.Context, c *client.Client) error {
				_, err := c.ListTasks(ctx, a2a.TaskQueryParams{})
				return err
			},
			wantCalls: 3,
			wantErr:   true,
		},
		"send is not retried": {
			failures: 1,
			call: func(ctx context.Context, c *client.Client) error {
				_, err := c.SendMessageText(ctx, "hello")
				return err
			},
			wantCalls: 1,
			wantErr:   true,
		},
		"cancel is not retried": {
			failures: 1,
			call: func(ctx context.Context, c *client.Client) error {
				_, err := c.CancelTask(ctx, "t1")
				return err
			},
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv, calls := flakyAgent(t, tt.failures)
			c, err := client.New(srv.URL, client.WithInterceptors(client.RetryInterceptor(fastRetries)))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			err = tt.call(t.Context(), c)
			if (err != nil) != tt.wantErr {
				t.Fatalf("call error = %v, wantErr %t", err, tt.wantErr)
			}
			if err != nil && client.StatusCode(err) != http.StatusServiceUnavailable {
				t.Errorf("StatusCode(err) = %d, want %d", client.StatusCode(err), http.StatusServiceUnavailable)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("server saw %d requests, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestRetryInterceptor_Discover(t *testing.T) {
	t.Parallel()

	srv := a2atest.NewServer(t)
	srv.FailWith(http.StatusBadGateway)

	c, err := client.New(srv.URL, client.WithInterceptors(client.RetryInterceptor(fastRetries)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.Discover(t.Context()); !errors.Is(err, a2a.ErrDiscoveryFailed) {
		t.Fatalf("Discover() error = %v, want %v", err, a2a.ErrDiscoveryFailed)
	}
	if got := len(srv.Requests()); got != fastRetries.MaxAttempts {
		t.Errorf("server saw %d requests, want %d", got, fastRetries.MaxAttempts)
	}
}

func TestRetryInterceptor_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv, calls := flakyAgent(t, 100)
	c, err := client.New(srv.URL, client.WithInterceptors(client.RetryInterceptor(client.RetryPolicy{
		MaxAttempts:  10,
		InitialDelay: time.Hour,
		MaxDelay:     time.Hour,
	})))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.GetTask(ctx, "t1"); !errors.Is(err, a2a.ErrTimeout) {
		t.Fatalf("GetTask() error = %v, want %v", err, a2a.ErrTimeout)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
}

func TestRetryInterceptor_RetryAfter(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	// Retry-After: 0 replaces the hour-long backoff.
	c, err := client.New(srv.URL, client.WithInterceptors(client.RetryInterceptor(client.RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Hour,
		MaxDelay:     time.Hour,
	})))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()
	if _, err := c.GetTask(ctx, "t1"); client.StatusCode(err) != http.StatusTooManyRequests {
		t.Fatalf("GetTask() error = %v, want status %d", err, http.StatusTooManyRequests)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}
