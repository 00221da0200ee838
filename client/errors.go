// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/agentoven/a2a-go"
)

// maxErrorBody bounds how much of an error response body is kept.
const maxErrorBody = 512

func transportError(op string, err error) error {
	var aerr *a2a.Error
	if errors.As(err, &aerr) {
		return err
	}
	kind := a2a.KindTransport
	if errors.Is(err, context.DeadlineExceeded) {
		kind = a2a.KindTimeout
	}
	return &a2a.Error{Kind: kind, Op: op, Err: err}
}

func statusError(op string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &a2a.Error{Kind: a2a.KindTransport, Op: op, StatusCode: resp.StatusCode, Msg: msg}
}

// StatusCode returns the HTTP status code carried by err, or 0 if there is none.
func StatusCode(err error) int {
	var aerr *a2a.Error
	if errors.As(err, &aerr) {
		return aerr.StatusCode
	}
	return 0
}

// IsTemporary reports whether err is a failure a caller may reasonably retry:
// timeouts, network errors, and HTTP 408, 429 and 5xx responses.
//
// The client retries only when a [RetryInterceptor] is installed.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, a2a.ErrTimeout) {
		return true
	}
	switch code := StatusCode(err); {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return true
	case code != 0:
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
