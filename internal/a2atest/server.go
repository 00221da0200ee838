// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2atest provides an in-memory A2A agent served over HTTP for tests.
package a2atest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-json-experiment/json"

	"github.com/agentoven/a2a-go"
)

// Handler answers a JSON-RPC request. Returning a non-nil error object sends an
// error response; otherwise result is encoded as the response result.
type Handler func(ctx context.Context, req *a2a.JSONRPCRequest) (result any, rpcErr *a2a.JSONRPCError)

// Request is a request recorded by the [Server].
type Request struct {
	Method string
	Path   string
	Header http.Header
	RPC    *a2a.JSONRPCRequest
}

// Server is a fake A2A agent. The zero value is not usable; create one with [NewServer].
type Server struct {
	*httptest.Server

	// Token, when set, is the bearer token every request must carry.
	Token string

	mu          sync.Mutex
	card        *a2a.AgentCard
	tasks       map[string]*a2a.Task
	order       []string
	configs     map[string]*a2a.PushNotificationConfig
	handlers    map[a2a.Method]Handler
	streamLines []string
	failStatus  int
	requests    []Request
}

// NewServer starts a fake agent and registers its shutdown with t.Cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		tasks:    make(map[string]*a2a.Task),
		configs:  make(map[string]*a2a.PushNotificationConfig),
		handlers: make(map[a2a.Method]Handler),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)

	s.card = &a2a.AgentCard{
		Name:        "test-agent",
		Description: "In-memory A2A agent",
		Version:     "0.1.0",
		SupportedInterfaces: []a2a.AgentInterface{
			{URL: s.URL, ProtocolBinding: a2a.ProtocolBindingJSONRPC, ProtocolVersion: a2a.ProtocolVersion},
		},
		Capabilities: a2a.AgentCapabilities{
			Streaming:         true,
			PushNotifications: true,
			ExtendedAgentCard: true,
		},
		DefaultInputModes:  []a2a.ContentType{{MediaType: a2a.MediaTypeText}},
		DefaultOutputModes: []a2a.ContentType{{MediaType: a2a.MediaTypeText}},
		Skills: []a2a.AgentSkill{
			{ID: "echo", Name: "Echo", Description: "Echoes the request text"},
		},
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.fail)

	r.Get(a2a.AgentCardWellKnownPath, s.handleCard)
	r.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Post(a2a.DefaultRPCPath, s.handleRPC)
	})
	return r
}

// SetCard replaces the published agent card.
func (s *Server) SetCard(card *a2a.AgentCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = card
}

// Card returns the published agent card.
func (s *Server) Card() *a2a.AgentCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card
}

// Handle overrides the built-in behavior of method.
func (s *Server) Handle(method a2a.Method, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// PutTask stores task, replacing any task with the same ID.
func (s *Server) PutTask(task *a2a.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putTaskLocked(task)
}

func (s *Server) putTaskLocked(task *a2a.Task) {
	if _, ok := s.tasks[task.ID]; !ok {
		s.order = append(s.order, task.ID)
	}
	s.tasks[task.ID] = task
}

// UpdateTask applies fn to the stored task with the given ID.
func (s *Server) UpdateTask(id string, fn func(*a2a.Task)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if ok {
		fn(task)
	}
	return ok
}

// Task returns the stored task with the given ID.
func (s *Server) Task(id string) (*a2a.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	return task, ok
}

// SetStreamLines makes streaming methods write lines verbatim, each followed by
// a blank line, instead of the built-in event script.
func (s *Server) SetStreamLines(lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamLines = lines
}

// FailWith makes every subsequent request fail with the HTTP status code.
// A zero status restores normal operation.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) fail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := s.failStatus
		s.mu.Unlock()
		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.Token {
			w.Header().Set("WWW-Authenticate", `Bearer realm="a2a"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, "application/json", s.Card())
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req a2a.JSONRPCRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		writeJSON(w, a2a.MediaType, a2a.NewErrorResponse(a2a.ID{}, a2a.NewParseError(err.Error())))
		return
	}

	s.mu.Lock()
	s.requests[len(s.requests)-1].RPC = &req
	h, ok := s.handlers[req.Method]
	s.mu.Unlock()

	if req.Method.IsStreaming() && !ok {
		s.stream(w, r, &req)
		return
	}
	if !ok {
		h = s.builtin(req.Method)
	}

	result, rpcErr := h(r.Context(), &req)
	if rpcErr != nil {
		writeJSON(w, a2a.MediaType, a2a.NewErrorResponse(req.ID, rpcErr))
		return
	}
	resp, err := a2a.NewSuccessResponse(req.ID, result)
	if err != nil {
		writeJSON(w, a2a.MediaType, a2a.NewErrorResponse(req.ID, a2a.NewInternalError(err.Error())))
		return
	}
	writeJSON(w, a2a.MediaType, resp)
}

func (s *Server) builtin(method a2a.Method) Handler {
	switch method {
	case a2a.MethodSendMessage:
		return s.sendMessage
	case a2a.MethodGetTask:
		return s.getTask
	case a2a.MethodListTasks:
		return s.listTasks
	case a2a.MethodCancelTask:
		return s.cancelTask
	case a2a.MethodCreatePushNotification:
		return s.createPush
	case a2a.MethodGetPushNotification:
		return s.getPush
	case a2a.MethodListPushNotifications:
		return s.listPush
	case a2a.MethodDeletePushNotification:
		return s.deletePush
	case a2a.MethodGetExtendedAgentCard:
		return s.extendedCard
	default:
		return func(_ context.Context, req *a2a.JSONRPCRequest) (any, *a2a.JSONRPCError) {
			return nil, a2a.NewMethodNotFoundError(string(req.Method))
		}
	}
}

func decodeParams[T any](req *a2a.JSONRPCRequest) (T, *a2a.JSONRPCError) {
	var v T
	if len(req.Params) == 0 {
		return v, a2a.NewInvalidParamsError("params are required")
	}
	if err := json.Unmarshal(req.Params, &v); err != nil {
		return v, a2a.NewInvalidParamsError(err.Error())
	}
	return v, nil
}

// acceptMessage records the message of params on a new or existing task and
// moves it to WORKING.
func (s *Server) acceptMessage(params *a2a.SendMessageParams) (*a2a.Task, *a2a.JSONRPCError) {
	if params.Message == nil {
		return nil, a2a.NewInvalidParamsError("message is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var task *a2a.Task
	if params.TaskID != "" {
		t, ok := s.tasks[params.TaskID]
		if !ok {
			return nil, a2a.NewTaskNotFoundError(params.TaskID)
		}
		task = t
	} else {
		task = a2a.NewTaskWithContext(params.ContextID)
		task.Metadata = params.Metadata
		s.putTaskLocked(task)
	}
	if err := task.Transition(a2a.TaskStateWorking); err != nil {
		return nil, a2a.NewInvalidParamsError(err.Error())
	}
	task.AddMessage(params.Message)
	return task, nil
}

func (s *Server) sendMessage(_ context.Context, req *a2a.JSONRPCRequest) (any, *a2a.JSONRPCError) {
	params, rpcErr := decodeParams[a2a.SendMessageParams](req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return s.acceptMessage(&params)
}

func (s *Server) getTask(_ context.Context, req *a2a.JSONRPCRequest) (any, *a2a.JSONRPCError) {
	params, rpcErr := decodeParams[a2a.TaskIDParams](req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	task, ok := s.Task(params.TaskID)
	if !ok {
		return nil, a2a.NewTaskNotFoundError(params.TaskID)
	}
	return task, nil
}

func (s *Server) listTasks(_ context.Context, req *a2a.JSONRPCRequest) (any, *a2a.JSONRPCError) {
	var params a2a.TaskQueryParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, a2a.NewInvalidParamsError(err.Error())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := []*a2a.Task{}
	for _, id := range s.order {
		task := s.tasks[id]
		if params.ContextID != "" && task.ContextID != params.ContextID {
			continue
		}
		if params.State != "" && task.State != params.State {
			continue
		}
		tasks = append(tasks, task)
		if params.Limit > 0 && len(tasks) == params.Limit {
			break
		}
	}
	return tasks, nil
}

func (s *Server) cancelTask(_ context.Context, req *a2a.JSONRPCRequest) (any, *a2a.JSONRPCError) {
	params, rpcErr := decodeParams[a2a.TaskIDParams](req)
	if rpcErr != nil {
		return nil, rpcErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[params.TaskID]
	if !ok {
		return nil, a2a.NewTaskNotFoundError(params.TaskID)
	}
	if err := task.Transition(a2a.TaskStateCanceled); err != nil {
		return nil, a2a.NewTaskNotCancelableError(params.TaskID)
	}
	return task, nil
}

func (s *Server) pushEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card.Capabilities.PushNotifications
}

func (s *Server) createPush(_ context.Context, req *a2a.JSONRPCRequest) (any, *a2a.JSONRPCError) {
	if !s.pushEnabled() {
		return nil, a2a.NewPushNotificationNotSupportedError()
	}
	config, rpcErr := decodeParams[a2a.PushNotificationConfig](req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if _, ok := s.Task(config.TaskID); !ok {
		return nil, a2a.NewTaskNotFoundError(config.TaskID)
	}
	if config.ID == "" {
		config.ID = fmt.Sprintf("cfg-%d", time.Now().UnixNano())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[config.ID] = &config
	return &config, nil
}

func (s *Server) getPush(_ context.Context, req *a2a.JSONRPCRequest) (any, *a2a.JSONRPCError) {
	if !s.pushEnabled() {
		return nil, a2a.NewPushNotificationNotSupportedError()
	}
	params, rpcErr := decodeParams[a2a.PushNotificationParams](req)
	if rpcErr != nil {
		return nil, rpcErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	config, ok := s.configs[params.ConfigID]
	if !ok || config.TaskID != params.TaskID {
		return nil, a2a.NewInvalidParamsError("push notification config " + params.ConfigID + " not found")
	}
	return config, nil
}

func (s *Server) listPush(_ context.Context, req *a2a.JSONRPCRequest) (any, *a2a.JSONRPCError) {
	if !s.pushEnabled() {
		return nil, a2a.NewPushNotificationNotSupportedError()
	}
	params, rpcErr := decodeParams[a2a.PushNotificationParams](req)
	if rpcErr != nil {
		return nil, rpcErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	configs := []*a2a.PushNotificationConfig{}
	for _, c := range s.configs {
		if c.TaskID == params.TaskID {
			configs = append(configs, c)
		}
	}
	slices.SortFunc(configs, func(a, b *a2a.PushNotificationConfig) int {
		return strings.Compare(a.ID, b.ID)
	})
	return configs, nil
}

func (s *Server) deletePush(_ context.Context, req *a2a.JSONRPCRequest) (any, *a2a.JSONRPCError) {
	if !s.pushEnabled() {
		return nil, a2a.NewPushNotificationNotSupportedError()
	}
	params, rpcErr := decodeParams[a2a.PushNotificationParams](req)
	if rpcErr != nil {
		return nil, rpcErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	config, ok := s.configs[params.ConfigID]
	if !ok || config.TaskID != params.TaskID {
		return nil, a2a.NewInvalidParamsError("push notification config " + params.ConfigID + " not found")
	}
	delete(s.configs, params.ConfigID)
	return nil, nil
}

func (s *Server) extendedCard(context.Context, *a2a.JSONRPCRequest) (any, *a2a.JSONRPCError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.card.Capabilities.ExtendedAgentCard {
		return nil, a2a.NewUnsupportedOperationError()
	}
	card := *s.card
	card.Skills = append(slices.Clone(card.Skills), a2a.AgentSkill{
		ID:          "admin",
		Name:        "Admin",
		Description: "Skill visible to authenticated clients",
	})
	return &card, nil
}

// stream answers message/stream and tasks/subscribe with an SSE body.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, req *a2a.JSONRPCRequest) {
	s.mu.Lock()
	lines := slices.Clone(s.streamLines)
	s.mu.Unlock()

	if lines == nil {
		events, rpcErr := s.script(req)
		if rpcErr != nil {
			writeJSON(w, a2a.MediaType, a2a.NewErrorResponse(req.ID, rpcErr))
			return
		}
		for _, ev := range events {
			data, err := json.Marshal(ev)
			if err != nil {
				panic(err)
			}
			lines = append(lines, "data: "+string(data))
		}
		lines = append(lines, "data: "+a2a.StreamDone)
	}

	w.Header().Set("Content-Type", a2a.EventStreamMediaType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	for _, line := range lines {
		select {
		case <-r.Context().Done():
			return
		default:
		}
		fmt.Fprintf(w, "%s\n\n", line)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// script returns the built-in events for a streaming request: the agent echoes the
// request text as a chunked artifact and completes the task.
func (s *Server) script(req *a2a.JSONRPCRequest) ([]*a2a.TaskEvent, *a2a.JSONRPCError) {
	if req.Method == a2a.MethodSubscribeTask {
		params, rpcErr := decodeParams[a2a.TaskIDParams](req)
		if rpcErr != nil {
			return nil, rpcErr
		}
		task, ok := s.Task(params.TaskID)
		if !ok {
			return nil, a2a.NewTaskNotFoundError(params.TaskID)
		}
		return []*a2a.TaskEvent{a2a.NewStateChangedEvent(task.ID, task.State)}, nil
	}

	params, rpcErr := decodeParams[a2a.SendMessageParams](req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	task, rpcErr := s.acceptMessage(&params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	text := params.Message.TextContent()
	reply := a2a.NewAgentTextMessage("echo: " + text)
	artifact := a2a.NewTextArtifact("echo", text)

	s.mu.Lock()
	task.AddMessage(reply)
	task.AddArtifact(artifact)
	_ = task.Transition(a2a.TaskStateCompleted)
	s.mu.Unlock()

	events := []*a2a.TaskEvent{
		a2a.NewStateChangedEvent(task.ID, a2a.TaskStateWorking),
		a2a.NewMessageAddedEvent(task.ID, reply),
	}
	for chunk := range slices.Chunk([]rune(text), 4) {
		events = append(events, a2a.NewArtifactChunkEvent(task.ID, artifact.ID, string(chunk)))
	}
	events = append(events,
		a2a.NewArtifactAddedEvent(task.ID, artifact),
		a2a.NewStateChangedEvent(task.ID, a2a.TaskStateCompleted),
	)
	return events, nil
}

func writeJSON(w http.ResponseWriter, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	if err := json.MarshalWrite(w, v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
