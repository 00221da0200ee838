// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/agentoven/a2a-go"
)

// RetryPolicy configures [RetryInterceptor]. Zero fields take their defaults.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 2 disable retries.
	MaxAttempts int
	// InitialDelay is the wait before the first retry. Default 200ms.
	InitialDelay time.Duration
	// MaxDelay caps the wait between attempts. Default 5s.
	MaxDelay time.Duration
	// Multiplier grows the delay after every retry. Default 2.
	Multiplier float64
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.InitialDelay <= 0 {
		p.InitialDelay = 200 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 5 * time.Second
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	return p
}

// readOnlyMethods are the methods a retry cannot duplicate.
var readOnlyMethods = map[a2a.Method]bool{
	a2a.MethodGetTask:               true,
	a2a.MethodListTasks:             true,
	a2a.MethodGetPushNotification:   true,
	a2a.MethodListPushNotifications: true,
	a2a.MethodGetExtendedAgentCard:  true,
}

// RetryInterceptor retries read-only calls that fail in transit or are answered
// with 429 or a 5xx status, backing off exponentially with jitter. A Retry-After
// header on the response overrides the computed delay, up to MaxDelay.
//
// Agent card discovery and the read-only methods (tasks/get, tasks/list, push
// notification get and list, and the extended card) are retried. Everything
// else, message/send in particular, goes through exactly once: resending it
// would create a second task.
func RetryInterceptor(policy RetryPolicy) Interceptor {
	policy = policy.withDefaults()

	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		if policy.MaxAttempts < 2 || !isReadOnly(ctx, req) {
			return invoker(ctx, req)
		}

		delay := policy.InitialDelay
		for attempt := 1; ; attempt++ {
			resp, err := invoker(ctx, req)
			if attempt == policy.MaxAttempts || ctx.Err() != nil || !shouldRetry(resp, err) {
				return resp, err
			}

			wait := delay + rand.N(delay/10+1)
			if after, ok := retryAfter(resp); ok {
				wait = min(after, policy.MaxDelay)
			}
			if resp != nil {
				_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
				resp.Body.Close()
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			delay = min(time.Duration(float64(delay)*policy.Multiplier), policy.MaxDelay)

			if req, err = rewind(ctx, req); err != nil {
				return nil, err
			}
		}
	}
}

func isReadOnly(ctx context.Context, req *http.Request) bool {
	if req.Method == http.MethodGet {
		return true
	}
	info, ok := CallInfoFromContext(ctx)
	return ok && readOnlyMethods[info.Method]
}

func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(resp *http.Response) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// rewind returns a copy of req whose body can be sent again.
func rewind(ctx context.Context, req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	next := req.Clone(ctx)
	next.Body = body
	return next, nil
}
