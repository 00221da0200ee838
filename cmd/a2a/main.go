// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Command a2a talks to A2A agents from the command line.
//
//	a2a --url https://agent.example.com/a2a discover
//	a2a send "Summarize the Q4 report"
//	a2a stream --task 7f3c "Add a chart"
//	a2a push create 7f3c https://hooks.example.com/a2a --bearer s3cret
//	a2a listen --addr :8090 --bearer s3cret
//
// The agent is taken from --url (or A2A_URL), or from a profile in
// ~/.a2a/config.yaml selected with --agent.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/agentoven/a2a-go"
	"github.com/agentoven/a2a-go/client"
)

// CLI is the command line of a2a.
type CLI struct {
	URL     string            `short:"u" env:"A2A_URL" help:"Base URL of the agent."`
	Token   string            `env:"A2A_TOKEN" help:"Bearer token sent to the agent."`
	Agent   string            `short:"a" help:"Agent profile from the config file."`
	Config  string            `short:"c" type:"path" help:"Config file (default ~/.a2a/config.yaml)."`
	Header  map[string]string `short:"H" placeholder:"KEY=VALUE" help:"Extra request header, repeatable."`
	Timeout time.Duration     `help:"Timeout of a single request (default 30s)."`
	Retries int               `help:"Retry read-only requests this many times on transient failures."`
	Output  string            `short:"o" enum:"auto,text,json" default:"auto" help:"Output format: ${enum}."`

	LogLevel  string `env:"A2A_LOG_LEVEL" help:"Log level: debug, info, warn or error."`
	LogFormat string `env:"A2A_LOG_FORMAT" help:"Log format: text or json."`
	Trace     bool   `help:"Print OpenTelemetry spans to stderr."`

	Discover  DiscoverCmd  `cmd:"" help:"Fetch the agent card."`
	Send      SendCmd      `cmd:"" help:"Send a message and print the resulting task."`
	Stream    StreamCmd    `cmd:"" help:"Send a message and print task events as they arrive."`
	Get       GetCmd       `cmd:"" help:"Print a task."`
	List      ListCmd      `cmd:"" help:"List tasks."`
	Cancel    CancelCmd    `cmd:"" help:"Cancel a task."`
	Subscribe SubscribeCmd `cmd:"" help:"Print the events of an existing task."`
	Push      PushCmd      `cmd:"" help:"Manage push notification configs."`
	Listen    ListenCmd    `cmd:"" help:"Receive push notifications and print them."`
	Version   VersionCmd   `cmd:"" help:"Print the version."`
}

// app carries what commands need. It is bound into every Run method.
type app struct {
	ctx      context.Context
	settings *settings
	logger   *slog.Logger
	out      *printer
	stderr   io.Writer
	shutdown func(context.Context) error
}

func newApp(ctx context.Context, cli *CLI, stdout, stderr io.Writer) (*app, error) {
	path, required := cli.Config, cli.Config != ""
	if path == "" {
		path = defaultConfigPath()
	}
	cfg, err := loadConfig(path, required)
	if err != nil {
		return nil, err
	}
	s, err := resolve(cli, cfg)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(stderr, s.LogLevel, s.LogFormat)
	if err != nil {
		return nil, err
	}
	out, err := newPrinter(stdout, cli.Output)
	if err != nil {
		return nil, err
	}

	a := &app{
		ctx:      ctx,
		settings: s,
		logger:   logger,
		out:      out,
		stderr:   stderr,
	}
	if cli.Trace {
		shutdown, err := setupTracing(stderr)
		if err != nil {
			return nil, err
		}
		a.shutdown = shutdown
	}
	return a, nil
}

var errNoURL = errors.New("no agent URL: pass --url, set " + URLEnvVar + ", or set url in the config file")

// client returns a client for the configured agent.
func (a *app) client() (*client.Client, error) {
	if a.settings.URL == "" {
		return nil, errNoURL
	}
	opts := []client.Option{
		client.WithUserAgent("a2a-cli/" + a2a.Version),
		client.WithLogger(a.logger),
		client.WithInterceptors(client.LoggingInterceptor(a.logger)),
	}
	if a.settings.Retries > 0 {
		opts = append(opts, client.WithInterceptors(client.RetryInterceptor(client.RetryPolicy{
			MaxAttempts: a.settings.Retries + 1,
		})))
	}
	if a.settings.Token != "" {
		opts = append(opts, client.WithBearerToken(a.settings.Token))
	}
	for k, v := range a.settings.Headers {
		opts = append(opts, client.WithHeader(k, v))
	}
	return client.New(a.settings.URL, opts...)
}

// callContext bounds a single request by the configured timeout.
func (a *app) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(a.ctx, a.settings.Timeout)
}

func (a *app) close() {
	if a.shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn("Failed to flush traces", slog.Any("error", err))
	}
}

func main() {
	if err := loadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "a2a:", err)
	}

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("a2a"),
		kong.Description("Command-line client for A2A agents."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a, err := newApp(ctx, &cli, os.Stdout, os.Stderr)
	if err != nil {
		stop()
		kctx.FatalIfErrorf(err)
	}

	err = kctx.Run(a)
	a.close()
	stop()
	kctx.FatalIfErrorf(err)
}
