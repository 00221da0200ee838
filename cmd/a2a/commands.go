// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lestrrat-go/jwx/v3/jwa"

	"github.com/agentoven/a2a-go"
	"github.com/agentoven/a2a-go/client"
)

// DiscoverCmd fetches the agent card.
type DiscoverCmd struct {
	Extended bool `help:"Fetch the extended card offered to authenticated clients."`
}

func (c *DiscoverCmd) Run(a *app) error {
	cl, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.callContext()
	defer cancel()

	card, err := cl.Discover(ctx)
	if err != nil {
		return err
	}
	if c.Extended {
		if card, err = cl.GetExtendedAgentCard(ctx); err != nil {
			return err
		}
	}
	return a.out.print(card)
}

// MessageFlags are shared by send and stream.
type MessageFlags struct {
	Text      []string `arg:"" help:"Message text. Multiple words are joined with spaces."`
	TaskID    string   `name:"task" short:"t" help:"Continue an existing task."`
	ContextID string   `name:"context" help:"Context the new task belongs to."`
}

func (f *MessageFlags) params() *a2a.SendMessageParams {
	return &a2a.SendMessageParams{
		Message:   a2a.NewUserTextMessage(strings.Join(f.Text, " ")),
		TaskID:    f.TaskID,
		ContextID: f.ContextID,
	}
}

// SendCmd sends a message.
type SendCmd struct {
	MessageFlags `embed:""`

	Wait     bool          `short:"w" help:"Poll until the task is terminal or needs input."`
	Interval time.Duration `default:"1s" help:"Polling interval of --wait."`
	Fail     bool          `help:"Exit with an error if the task failed, was rejected or needs authentication."`
}

func (c *SendCmd) Run(a *app) error {
	cl, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.callContext()
	task, err := cl.SendMessage(ctx, c.params())
	cancel()
	if err != nil {
		return err
	}

	if c.Wait {
		if task, err = c.wait(a, cl, task); err != nil {
			return err
		}
	}
	if err := a.out.print(task); err != nil {
		return err
	}
	if c.Fail {
		return a2a.TaskOutcomeError(task)
	}
	return nil
}

func (c *SendCmd) wait(a *app, cl *client.Client, task *a2a.Task) (*a2a.Task, error) {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for !task.IsTerminal() && !task.IsInterrupted() {
		select {
		case <-a.ctx.Done():
			return nil, a.ctx.Err()
		case <-ticker.C:
		}
		ctx, cancel := a.callContext()
		next, err := cl.GetTask(ctx, task.ID)
		cancel()
		if err != nil {
			return nil, err
		}
		task = next
		a.logger.Debug("Polled task", slog.String("task", task.ID), slog.String("state", task.State.String()))
	}
	return task, nil
}

// StreamCmd sends a message over a stream.
type StreamCmd struct {
	MessageFlags `embed:""`

	Fail bool `help:"Exit with an error unless the task completes."`
}

func (c *StreamCmd) Run(a *app) error {
	cl, err := a.client()
	if err != nil {
		return err
	}
	s, err := cl.SendStreamingMessage(a.ctx, c.params())
	if err != nil {
		return err
	}
	return printStream(a, s, c.Fail)
}

// SubscribeCmd streams the events of an existing task.
type SubscribeCmd struct {
	TaskID string `arg:"" name:"task-id" help:"Task to follow."`
	Fail   bool   `help:"Exit with an error unless the task completes."`
}

func (c *SubscribeCmd) Run(a *app) error {
	cl, err := a.client()
	if err != nil {
		return err
	}
	s, err := cl.SubscribeTask(a.ctx, c.TaskID)
	if err != nil {
		return err
	}
	return printStream(a, s, c.Fail)
}

// printStream prints every event of s. Malformed events are logged and
// skipped; the stream carries on after them.
func printStream(a *app, s *client.Stream, fail bool) error {
	for ev, err := range s.All() {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			a.logger.Warn("Skipping stream item", slog.Any("error", err))
			continue
		}
		if err := a.out.print(ev); err != nil {
			return err
		}
	}
	if fail && s.State() != a2a.TaskStateCompleted {
		return fmt.Errorf("stream ended in state %s", stateOrUnknown(s.State()))
	}
	return nil
}

func stateOrUnknown(s a2a.TaskState) string {
	if s == "" {
		return "unknown"
	}
	return s.String()
}

// GetCmd prints a task.
type GetCmd struct {
	TaskID string `arg:"" name:"task-id" help:"Task to print."`
}

func (c *GetCmd) Run(a *app) error {
	cl, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.callContext()
	defer cancel()

	task, err := cl.GetTask(ctx, c.TaskID)
	if err != nil {
		return err
	}
	return a.out.print(task)
}

// ListCmd lists tasks.
type ListCmd struct {
	ContextID string `name:"context" help:"Only tasks of this context."`
	State     string `help:"Only tasks in this state, e.g. WORKING."`
	Limit     int    `help:"Maximum number of tasks."`
}

func (c *ListCmd) Run(a *app) error {
	query := a2a.TaskQueryParams{ContextID: c.ContextID, Limit: c.Limit}
	if c.State != "" {
		query.State = a2a.TaskState(strings.ToUpper(c.State))
		if !query.State.Valid() {
			return fmt.Errorf("unknown task state %q", c.State)
		}
	}

	cl, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.callContext()
	defer cancel()

	tasks, err := cl.ListTasks(ctx, query)
	if err != nil {
		return err
	}
	return a.out.print(tasks)
}

// CancelCmd cancels a task.
type CancelCmd struct {
	TaskID string `arg:"" name:"task-id" help:"Task to cancel."`
}

func (c *CancelCmd) Run(a *app) error {
	cl, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.callContext()
	defer cancel()

	task, err := cl.CancelTask(ctx, c.TaskID)
	if err != nil {
		return err
	}
	return a.out.print(task)
}

// PushCmd groups the push notification commands.
type PushCmd struct {
	Create PushCreateCmd `cmd:"" help:"Register a webhook for a task."`
	Get    PushGetCmd    `cmd:"" help:"Print a push notification config."`
	List   PushListCmd   `cmd:"" help:"List the push notification configs of a task."`
	Delete PushDeleteCmd `cmd:"" help:"Delete a push notification config."`
}

// PushCreateCmd registers a webhook.
type PushCreateCmd struct {
	TaskID      string   `arg:"" name:"task-id" help:"Task whose events are delivered."`
	URL         string   `arg:"" name:"webhook-url" help:"Webhook URL."`
	ID          string   `help:"Config ID (default generated)."`
	Bearer      string   `help:"Bearer token the agent sends to the webhook."`
	HeaderName  string   `help:"Header the agent sends to the webhook."`
	HeaderValue string   `help:"Value of --header-name."`
	Events      []string `sep:"," help:"Event types to deliver (default all)."`
}

func (c *PushCreateCmd) config() (*a2a.PushNotificationConfig, error) {
	config := a2a.NewPushNotificationConfig(c.TaskID, c.URL)
	if c.ID != "" {
		config.ID = c.ID
	}
	switch {
	case c.Bearer != "" && c.HeaderName != "":
		return nil, errors.New("--bearer and --header-name are mutually exclusive")
	case c.Bearer != "":
		config.Authentication = a2a.BearerAuth(c.Bearer)
	case c.HeaderName != "":
		config.Authentication = a2a.HeaderAuth(c.HeaderName, c.HeaderValue)
	}
	for _, e := range c.Events {
		t := a2a.TaskEventType(e)
		switch t {
		case a2a.EventStateChanged, a2a.EventMessageAdded, a2a.EventArtifactAdded, a2a.EventArtifactChunk:
		default:
			return nil, fmt.Errorf("unknown event type %q", e)
		}
		config.Events = append(config.Events, t)
	}
	return config, nil
}

func (c *PushCreateCmd) Run(a *app) error {
	config, err := c.config()
	if err != nil {
		return err
	}
	cl, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.callContext()
	defer cancel()

	created, err := cl.CreatePushNotification(ctx, config)
	if err != nil {
		return err
	}
	return a.out.print(created)
}

// PushGetCmd prints one config.
type PushGetCmd struct {
	TaskID   string `arg:"" name:"task-id"`
	ConfigID string `arg:"" name:"config-id"`
}

func (c *PushGetCmd) Run(a *app) error {
	cl, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.callContext()
	defer cancel()

	config, err := cl.GetPushNotification(ctx, c.ConfigID, c.TaskID)
	if err != nil {
		return err
	}
	return a.out.print(config)
}

// PushListCmd lists the configs of a task.
type PushListCmd struct {
	TaskID string `arg:"" name:"task-id"`
}

func (c *PushListCmd) Run(a *app) error {
	cl, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.callContext()
	defer cancel()

	configs, err := cl.ListPushNotifications(ctx, c.TaskID)
	if err != nil {
		return err
	}
	return a.out.print(configs)
}

// PushDeleteCmd deletes a config.
type PushDeleteCmd struct {
	TaskID   string `arg:"" name:"task-id"`
	ConfigID string `arg:"" name:"config-id"`
}

func (c *PushDeleteCmd) Run(a *app) error {
	cl, err := a.client()
	if err != nil {
		return err
	}
	ctx, cancel := a.callContext()
	defer cancel()

	if err := cl.DeletePushNotification(ctx, c.ConfigID, c.TaskID); err != nil {
		return err
	}
	return a.out.print("deleted " + c.ConfigID)
}

// ListenCmd runs a webhook that prints the push notifications it receives.
type ListenCmd struct {
	Addr        string `default:":8090" help:"Address to listen on."`
	Path        string `default:"/" help:"Path of the webhook."`
	Bearer      string `env:"A2A_PUSH_TOKEN" help:"Require this bearer token."`
	HeaderName  string `help:"Require a header with this name."`
	HeaderValue string `help:"Value of --header-name."`
	JWTSecret   string `name:"jwt-secret" env:"A2A_PUSH_JWT_SECRET" help:"Require a bearer JWT signed with this HS256 secret."`
	JWKSURL     string `name:"jwks-url" help:"Require a bearer JWT signed by a key of this JSON Web Key Set."`
	JWTIssuer   string `name:"jwt-issuer" help:"Required issuer of the JWT."`
	JWTAudience string `name:"jwt-audience" help:"Required audience of the JWT."`
}

func (c *ListenCmd) handler(a *app) http.Handler {
	opts := []client.ReceiverOption{client.WithReceiverLogger(a.logger)}
	switch {
	case c.Bearer != "":
		opts = append(opts, client.WithReceiverAuth(a2a.BearerAuth(c.Bearer)))
	case c.HeaderName != "":
		opts = append(opts, client.WithReceiverAuth(a2a.HeaderAuth(c.HeaderName, c.HeaderValue)))
	}
	switch {
	case c.JWKSURL != "":
		opts = append(opts, client.WithJWKS(c.JWKSURL, nil))
	case c.JWTSecret != "":
		opts = append(opts, client.WithJWTKey(jwa.HS256(), []byte(c.JWTSecret)))
	}
	if c.JWKSURL != "" || c.JWTSecret != "" {
		if c.JWTIssuer != "" {
			opts = append(opts, client.WithJWTIssuer(c.JWTIssuer))
		}
		if c.JWTAudience != "" {
			opts = append(opts, client.WithJWTAudience(c.JWTAudience))
		}
	}

	receiver := client.NewPushReceiver(func(_ context.Context, ev *a2a.PushNotificationEvent) error {
		return a.out.print(ev)
	}, opts...)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle(c.Path, receiver)
	return r
}

func (c *ListenCmd) Run(a *app) error {
	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           c.handler(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	fmt.Fprintf(a.stderr, "Listening for push notifications on %s%s\n", c.Addr, c.Path)

	select {
	case err := <-errc:
		return err
	case <-a.ctx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (VersionCmd) Run(a *app) error {
	v := "a2a " + a2a.Version
	if info, ok := debug.ReadBuildInfo(); ok {
		v += " (" + info.GoVersion + ")"
	}
	return a.out.print(v)
}
