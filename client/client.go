// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package client implements an A2A protocol client over JSON-RPC and HTTP.
//
// A [Client] talks to one remote agent. It is safe for concurrent use and should be
// shared: every call goes through the same pooled [*http.Client].
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentoven/a2a-go"
	"github.com/agentoven/a2a-go/internal/pool"
	"github.com/agentoven/a2a-go/internal/sse"
	"github.com/agentoven/a2a-go/internal/telemetry"
)

// DefaultUserAgent is the User-Agent sent when none is configured.
const DefaultUserAgent = "a2a-go/" + a2a.Version

// Client is an A2A client bound to one remote agent.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	token        string
	header       http.Header
	userAgent    string
	interceptors []Interceptor
	logger       *slog.Logger
	tracer       trace.Tracer
	meter        metric.Meter
	metrics      *telemetry.Metrics

	mu   sync.RWMutex
	card *a2a.AgentCard
}

// New creates a client for the agent at baseURL.
//
// The returned error matches [a2a.ErrInvalidURL] if baseURL is not an absolute
// http or https URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, &a2a.Error{Kind: a2a.KindInvalidURL, Msg: baseURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, &a2a.Error{Kind: a2a.KindInvalidURL, Msg: baseURL + ": want an absolute http or https URL"}
	}

	c := &Client{
		baseURL:    u,
		httpClient: http.DefaultClient,
		header:     make(http.Header),
		userAgent:  DefaultUserAgent,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(telemetry.ScopeName)
	}
	c.metrics = telemetry.New(c.meter)

	return c, nil
}

// BaseURL returns the agent base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// AgentCard returns the card cached by [Client.Discover] or [WithAgentCard], or nil.
func (c *Client) AgentCard() *a2a.AgentCard {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.card
}

func (c *Client) setAgentCard(card *a2a.AgentCard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.card = card
}

// SendMessage sends a message, creating a new task or continuing params.TaskID.
//
// SendMessage is not idempotent: every call delivers a new message.
func (c *Client) SendMessage(ctx context.Context, params *a2a.SendMessageParams) (*a2a.Task, error) {
	var task a2a.Task
	if err := c.call(ctx, a2a.MethodSendMessage, params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SendMessageText sends text as a user message on a new task.
func (c *Client) SendMessageText(ctx context.Context, text string) (*a2a.Task, error) {
	return c.SendMessage(ctx, &a2a.SendMessageParams{Message: a2a.NewUserTextMessage(text)})
}

// ContinueTask sends text as a user message on an existing task, typically one
// waiting in INPUT_REQUIRED.
func (c *Client) ContinueTask(ctx context.Context, taskID, text string) (*a2a.Task, error) {
	return c.SendMessage(ctx, &a2a.SendMessageParams{Message: a2a.NewUserTextMessage(text), TaskID: taskID})
}

// GetTask retrieves the current snapshot of a task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*a2a.Task, error) {
	var task a2a.Task
	if err := c.call(ctx, a2a.MethodGetTask, a2a.TaskIDParams{TaskID: taskID}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks lists the tasks matching query.
func (c *Client) ListTasks(ctx context.Context, query a2a.TaskQueryParams) ([]*a2a.Task, error) {
	var tasks []*a2a.Task
	if err := c.call(ctx, a2a.MethodListTasks, query, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CancelTask requests cancellation of a task and returns its new snapshot.
func (c *Client) CancelTask(ctx context.Context, taskID string) (*a2a.Task, error) {
	var task a2a.Task
	if err := c.call(ctx, a2a.MethodCancelTask, a2a.TaskIDParams{TaskID: taskID}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SendStreamingMessage sends a message and streams the events of the resulting task.
// The caller must consume or close the returned [Stream].
func (c *Client) SendStreamingMessage(ctx context.Context, params *a2a.SendMessageParams) (*Stream, error) {
	return c.stream(ctx, a2a.MethodSendStreamingMessage, params)
}

// SendStreamingText sends text as a user message on a new task and streams its events.
func (c *Client) SendStreamingText(ctx context.Context, text string) (*Stream, error) {
	return c.SendStreamingMessage(ctx, &a2a.SendMessageParams{Message: a2a.NewUserTextMessage(text)})
}

// SubscribeTask streams the events of an existing task.
func (c *Client) SubscribeTask(ctx context.Context, taskID string) (*Stream, error) {
	return c.stream(ctx, a2a.MethodSubscribeTask, a2a.TaskIDParams{TaskID: taskID})
}

// CreatePushNotification registers a webhook for the events of config.TaskID.
func (c *Client) CreatePushNotification(ctx context.Context, config *a2a.PushNotificationConfig) (*a2a.PushNotificationConfig, error) {
	if err := c.checkPush(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	var created a2a.PushNotificationConfig
	if err := c.call(ctx, a2a.MethodCreatePushNotification, config, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetPushNotification retrieves a push notification config of a task.
func (c *Client) GetPushNotification(ctx context.Context, configID, taskID string) (*a2a.PushNotificationConfig, error) {
	if err := c.checkPush(); err != nil {
		return nil, err
	}
	var config a2a.PushNotificationConfig
	params := a2a.PushNotificationParams{ConfigID: configID, TaskID: taskID}
	if err := c.call(ctx, a2a.MethodGetPushNotification, params, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ListPushNotifications lists the push notification configs of a task.
func (c *Client) ListPushNotifications(ctx context.Context, taskID string) ([]*a2a.PushNotificationConfig, error) {
	if err := c.checkPush(); err != nil {
		return nil, err
	}
	var configs []*a2a.PushNotificationConfig
	if err := c.call(ctx, a2a.MethodListPushNotifications, a2a.PushNotificationParams{TaskID: taskID}, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// DeletePushNotification removes a push notification config of a task.
func (c *Client) DeletePushNotification(ctx context.Context, configID, taskID string) error {
	if err := c.checkPush(); err != nil {
		return err
	}
	params := a2a.PushNotificationParams{ConfigID: configID, TaskID: taskID}
	return c.call(ctx, a2a.MethodDeletePushNotification, params, nil)
}

// GetExtendedAgentCard retrieves the card the agent shows to authenticated clients.
// The cached public card is left unchanged.
func (c *Client) GetExtendedAgentCard(ctx context.Context) (*a2a.AgentCard, error) {
	var card a2a.AgentCard
	if err := c.call(ctx, a2a.MethodGetExtendedAgentCard, nil, &card); err != nil {
		return nil, err
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return &card, nil
}

// checkPush fails fast when a cached card says push notifications are unsupported.
func (c *Client) checkPush() error {
	if card := c.AgentCard(); card != nil && !card.SupportsPushNotifications() {
		return &a2a.Error{Kind: a2a.KindPushNotification, Msg: "agent " + card.Name + " does not support push notifications"}
	}
	return nil
}

// call performs one JSON-RPC round trip and decodes the result into result.
// A nil result discards the result.
func (c *Client) call(ctx context.Context, method a2a.Method, params, result any) (err error) {
	op := string(method)
	ctx, span := c.startSpan(ctx, method)
	defer func() { endSpan(span, err) }()

	start := time.Now()
	c.metrics.Started(ctx, op)
	status := 0
	defer func() { c.metrics.Finished(ctx, op, status, start) }()

	resp, id, err := c.post(ctx, method, params, a2a.MediaType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	span.SetAttributes(telemetry.AttrStatusCode.Int(status))

	if !isSuccess(resp.StatusCode) {
		return statusError(op, resp)
	}

	buf := pool.Buffers.Get()
	defer pool.Buffers.Put(buf)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return transportError(op, err)
	}
	data := buf.Bytes()
	c.metrics.Received(ctx, op, len(data))

	var rpcResp a2a.JSONRPCResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return &a2a.Error{Kind: a2a.KindSerialization, Op: op, Msg: "decode response", Err: err}
	}
	if err := rpcResp.Validate(); err != nil {
		return &a2a.Error{Kind: a2a.KindSerialization, Op: op, Msg: "invalid response", Err: err}
	}
	// A null id is allowed on errors raised before the agent could read the request id.
	if !rpcResp.ID.Equal(id) && (rpcResp.Error == nil || !rpcResp.ID.IsZero()) {
		return &a2a.Error{Kind: a2a.KindSerialization, Op: op, Msg: fmt.Sprintf("response id %q does not match request id %q", rpcResp.ID, id)}
	}
	raw, err := rpcResp.IntoResult()
	if err != nil {
		span.SetAttributes(telemetry.AttrJSONRPCError.Int(rpcResp.Error.Code))
		return &a2a.Error{Kind: a2a.KindJSONRPC, Op: op, Err: err}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return &a2a.Error{Kind: a2a.KindSerialization, Op: op, Msg: "decode result", Err: err}
	}

	c.logger.DebugContext(ctx, "A2A call completed", slog.String("method", op), slog.Int("status", status))
	return nil
}

// stream performs a streaming call. On success the returned Stream owns the
// response body and the span.
func (c *Client) stream(ctx context.Context, method a2a.Method, params any) (_ *Stream, err error) {
	op := string(method)
	if card := c.AgentCard(); card != nil && !card.SupportsStreaming() {
		return nil, &a2a.Error{Kind: a2a.KindUnsupported, Op: op, Msg: "agent " + card.Name + " does not support streaming"}
	}

	ctx, span := c.startSpan(ctx, method)
	defer func() {
		if err != nil {
			endSpan(span, err)
		}
	}()

	c.metrics.Started(ctx, op)
	start := time.Now()

	resp, _, err := c.post(ctx, method, params, a2a.EventStreamMediaType)
	if err != nil {
		c.metrics.Finished(ctx, op, 0, start)
		return nil, err
	}
	span.SetAttributes(telemetry.AttrStatusCode.Int(resp.StatusCode))

	if !isSuccess(resp.StatusCode) {
		defer resp.Body.Close()
		c.metrics.Finished(ctx, op, resp.StatusCode, start)
		return nil, statusError(op, resp)
	}

	// Agents reject a streaming call before the stream starts with a plain
	// JSON-RPC error response. Any other body is read as an event stream.
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); isJSONMediaType(mediaType) {
		defer resp.Body.Close()
		c.metrics.Finished(ctx, op, resp.StatusCode, start)
		return nil, rejectedStream(op, mediaType, resp.Body)
	}

	c.logger.DebugContext(ctx, "A2A stream opened", slog.String("method", op))

	s := &Stream{
		method: op,
		body:   resp.Body,
		dec:    sse.NewDecoder(resp.Body),
		onEvent: func(ev *a2a.TaskEvent) {
			c.metrics.Event(ctx, op, string(ev.Type))
		},
		onClose: func(err error) {
			c.metrics.Finished(ctx, op, resp.StatusCode, start)
			endSpan(span, err)
		},
	}
	return s, nil
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == a2a.MediaType || mediaType == a2a.MediaTypeJSON
}

func rejectedStream(op, mediaType string, body io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return transportError(op, err)
	}
	var rpcResp a2a.JSONRPCResponse
	if err := json.Unmarshal(data, &rpcResp); err == nil && rpcResp.Error != nil {
		return &a2a.Error{Kind: a2a.KindJSONRPC, Op: op, Err: rpcResp.Error}
	}
	return &a2a.Error{Kind: a2a.KindStreaming, Op: op, Msg: "expected an event stream, got " + mediaType}
}

// post sends a JSON-RPC request for method through the interceptor chain.
// It returns the id of the request it sent.
func (c *Client) post(ctx context.Context, method a2a.Method, params any, accept string) (*http.Response, a2a.ID, error) {
	op := string(method)

	rpcReq, err := a2a.NewRequest(method, params)
	if err != nil {
		return nil, a2a.ID{}, err
	}
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, a2a.ID{}, &a2a.Error{Kind: a2a.KindSerialization, Op: op, Msg: "encode request", Err: err}
	}
	c.metrics.Sent(ctx, op, len(body))

	endpoint := c.baseURL.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, a2a.ID{}, &a2a.Error{Kind: a2a.KindInvalidURL, Op: op, Err: err}
	}
	for key, values := range c.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", a2a.MediaType)
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	if accept == a2a.EventStreamMediaType {
		req.Header.Set("Cache-Control", "no-cache")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	ctx = withCallInfo(ctx, &CallInfo{
		Method:    method,
		URL:       endpoint,
		RequestID: rpcReq.ID,
		AgentCard: c.AgentCard(),
	})

	c.logger.DebugContext(ctx, "sending A2A request",
		slog.String("method", op),
		slog.String("url", endpoint),
		slog.String("id", rpcReq.ID.String()),
	)

	resp, err := chainInterceptors(c.interceptors, c.invoke)(ctx, req)
	if err != nil {
		return nil, a2a.ID{}, transportError(op, err)
	}
	return resp, rpcReq.ID, nil
}

func (c *Client) invoke(_ context.Context, req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) startSpan(ctx context.Context, method a2a.Method) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "a2a.client/"+string(method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			telemetry.AttrSystem.String("jsonrpc"),
			telemetry.AttrMethod.String(string(method)),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// joinURL appends p to the path of base.
func joinURL(base *url.URL, p string) string {
	u := *base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(p, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
