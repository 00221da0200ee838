// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package sse decodes Server-Sent Events streams carrying A2A task events.
package sse

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/agentoven/a2a-go"
)

// Decoder reads [a2a.TaskEvent] values from an SSE byte stream.
//
// Lines are buffered until a terminator is seen, so events may be split across
// arbitrary read boundaries. Only data lines are interpreted; event, id and retry
// fields, comments and blank lines are skipped.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	r    *bufio.Reader
	done bool
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next event in the stream.
//
// Next returns io.EOF once the stream ends, either at end of input or at a
// "data: [DONE]" line. A payload that cannot be decoded yields an error matching
// [a2a.ErrStreaming] and the Decoder moves on to the following line. A JSON-RPC
// error envelope yields its [*a2a.JSONRPCError]. A read failure ends the stream
// with an [a2a.ErrStreaming] error wrapping the cause.
func (d *Decoder) Next() (*a2a.TaskEvent, error) {
	for !d.done {
		line, err := d.r.ReadString('\n')
		if err != nil {
			d.done = true
			if !errors.Is(err, io.EOF) {
				return nil, &a2a.Error{Kind: a2a.KindStreaming, Msg: "read event stream", Err: err}
			}
			if line == "" {
				break
			}
		}

		payload, ok := dataPayload(line)
		if !ok {
			continue
		}
		if payload == a2a.StreamDone {
			d.done = true
			break
		}
		return decodePayload(payload)
	}
	return nil, io.EOF
}

// dataPayload returns the value of a data field line.
func dataPayload(line string) (string, bool) {
	line = strings.TrimRight(line, "\r\n")
	v, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return "", false
	}
	v = strings.TrimPrefix(v, " ")
	if strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

type envelope struct {
	JSONRPC string            `json:"jsonrpc"`
	Result  jsontext.Value    `json:"result"`
	Error   *a2a.JSONRPCError `json:"error"`
}

func decodePayload(payload string) (*a2a.TaskEvent, error) {
	data := []byte(payload)

	if bytes.Contains(data, []byte(`"jsonrpc"`)) {
		var env envelope
		if err := json.Unmarshal(data, &env); err == nil && env.JSONRPC != "" {
			if env.Error != nil {
				return nil, env.Error
			}
			data = env.Result
		}
	}

	var ev a2a.TaskEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, &a2a.Error{Kind: a2a.KindStreaming, Msg: "decode event " + truncate(payload, 64), Err: err}
	}
	return &ev, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
