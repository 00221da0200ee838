// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentoven/a2a-go"
	"github.com/agentoven/a2a-go/client"
	"github.com/agentoven/a2a-go/internal/a2atest"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the command line args the way main does, with a private config
// file so the user's ~/.a2a/config.yaml is never read.
func run(t *testing.T, config string, args ...string) result {
	t.Helper()

	if config == "" {
		config = writeConfigFile(t, "")
	}

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("a2a"),
		kong.Exit(func(code int) { t.Fatalf("kong exited with code %d", code) }),
	)
	require.NoError(t, err)

	kctx, err := parser.Parse(append([]string{"--config", config}, args...))
	if err != nil {
		return result{err: err}
	}

	var stdout, stderr bytes.Buffer
	a, err := newApp(t.Context(), &cli, &stdout, &stderr)
	if err != nil {
		return result{err: err}
	}
	err = kctx.Run(a)
	a.close()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}

func TestCLI_SendGetList(t *testing.T) {
	t.Parallel()
	srv := a2atest.NewServer(t)

	res := run(t, "", "--url", srv.URL, "-o", "json", "send", "Summarize", "the", "Q4", "report", "--context", "ctx-1")
	require.NoError(t, res.err)
	task := decode[a2a.Task](t, res.stdout)
	assert.Equal(t, a2a.TaskStateWorking, task.State)
	assert.Equal(t, "ctx-1", task.ContextID)
	require.Len(t, task.Messages, 1)
	assert.Equal(t, "Summarize the Q4 report", task.Messages[0].TextContent())

	res = run(t, "", "--url", srv.URL, "-o", "text", "get", task.ID)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Task "+task.ID+" WORKING")
	assert.Contains(t, res.stdout, "[user] Summarize the Q4 report")

	res = run(t, "", "--url", srv.URL, "-o", "text", "list", "--state", "working")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, task.ID)

	res = run(t, "", "--url", srv.URL, "-o", "text", "list", "--state", "done")
	assert.ErrorContains(t, res.err, `unknown task state "done"`)

	res = run(t, "", "--url", srv.URL, "-o", "json", "cancel", task.ID)
	require.NoError(t, res.err)
	assert.Equal(t, a2a.TaskStateCanceled, decode[a2a.Task](t, res.stdout).State)
}

func TestCLI_SendWait(t *testing.T) {
	t.Parallel()
	srv := a2atest.NewServer(t)

	stored := a2a.NewTask()
	stored.AddMessage(a2a.NewAgentTextMessage("done"))
	require.NoError(t, stored.Transition(a2a.TaskStateCompleted))
	srv.PutTask(stored)
	srv.Handle(a2a.MethodSendMessage, func(context.Context, *a2a.JSONRPCRequest) (any, *a2a.JSONRPCError) {
		return &a2a.Task{ID: stored.ID, State: a2a.TaskStateWorking}, nil
	})

	res := run(t, "", "--url", srv.URL, "-o", "json", "send", "--wait", "--interval", "10ms", "go")
	require.NoError(t, res.err)
	assert.Equal(t, a2a.TaskStateCompleted, decode[a2a.Task](t, res.stdout).State)
}

func TestCLI_SendFail(t *testing.T) {
	t.Parallel()
	srv := a2atest.NewServer(t)

	srv.Handle(a2a.MethodSendMessage, func(context.Context, *a2a.JSONRPCRequest) (any, *a2a.JSONRPCError) {
		task := a2a.NewTask()
		task.AddMessage(a2a.NewAgentTextMessage("quota exceeded"))
		_ = task.Transition(a2a.TaskStateFailed)
		return task, nil
	})

	res := run(t, "", "--url", srv.URL, "-o", "text", "send", "go")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "FAILED")

	res = run(t, "", "--url", srv.URL, "-o", "text", "send", "--fail", "go")
	assert.ErrorIs(t, res.err, a2a.ErrTaskFailed)
	assert.ErrorContains(t, res.err, "quota exceeded")
}

func TestCLI_Stream(t *testing.T) {
	t.Parallel()
	srv := a2atest.NewServer(t)

	res := run(t, "", "--url", srv.URL, "-o", "text", "stream", "--fail", "hello", "world")
	require.NoError(t, res.err)
	for _, want := range []string{
		"stateChanged WORKING",
		"messageAdded [agent] echo: hello world",
		`artifactChunk`,
		`"hell"`,
		"stateChanged COMPLETED",
	} {
		assert.Contains(t, res.stdout, want)
	}
}

func TestCLI_StreamSkipsMalformed(t *testing.T) {
	t.Parallel()
	srv := a2atest.NewServer(t)
	srv.SetStreamLines(
		`data: {"type":"stateChanged","taskId":"t1","state":"WORKING"}`,
		`data: {"type":`,
		`data: {"type":"stateChanged","taskId":"t1","state":"FAILED"}`,
	)

	res := run(t, "", "--url", srv.URL, "-o", "text", "stream", "hi")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "t1 stateChanged WORKING")
	assert.Contains(t, res.stdout, "t1 stateChanged FAILED")
	assert.Contains(t, res.stderr, "Skipping stream item")

	res = run(t, "", "--url", srv.URL, "-o", "text", "stream", "--fail", "hi")
	assert.ErrorContains(t, res.err, "stream ended in state FAILED")
}

func TestCLI_Discover(t *testing.T) {
	t.Parallel()
	srv := a2atest.NewServer(t)

	res := run(t, "", "--url", srv.URL, "-o", "text", "discover")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "test-agent 0.1.0")
	assert.Contains(t, res.stdout, "streaming: yes  push: yes")
	assert.NotContains(t, res.stdout, "admin")

	res = run(t, "", "--url", srv.URL, "-o", "json", "discover", "--extended")
	require.NoError(t, res.err)
	card := decode[a2a.AgentCard](t, res.stdout)
	var ids []string
	for _, s := range card.Skills {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"echo", "admin"}, ids)
}

func TestCLI_Push(t *testing.T) {
	t.Parallel()
	srv := a2atest.NewServer(t)
	task := a2a.NewTask()
	srv.PutTask(task)

	res := run(t, "", "--url", srv.URL, "-o", "json",
		"push", "create", task.ID, "https://hooks.example.com/a2a",
		"--id", "c1", "--bearer", "s3cret", "--events", "stateChanged,artifactAdded")
	require.NoError(t, res.err)
	config := decode[a2a.PushNotificationConfig](t, res.stdout)
	assert.Equal(t, "c1", config.ID)
	assert.Equal(t, a2a.BearerAuth("s3cret"), config.Authentication)
	assert.Equal(t, []a2a.TaskEventType{a2a.EventStateChanged, a2a.EventArtifactAdded}, config.Events)

	res = run(t, "", "--url", srv.URL, "-o", "text", "push", "list", task.ID)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "c1  task "+task.ID+" -> https://hooks.example.com/a2a (bearer) [stateChanged,artifactAdded]")

	res = run(t, "", "--url", srv.URL, "-o", "text", "push", "get", task.ID, "c1")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "c1  task "+task.ID)

	res = run(t, "", "--url", srv.URL, "-o", "text", "push", "delete", task.ID, "c1")
	require.NoError(t, res.err)
	assert.Equal(t, "deleted c1\n", res.stdout)

	res = run(t, "", "--url", srv.URL, "-o", "text", "push", "list", task.ID)
	require.NoError(t, res.err)
	assert.Equal(t, "no push notification configs\n", res.stdout)

	res = run(t, "", "--url", srv.URL, "push", "create", task.ID, "https://hooks.example.com/a2a", "--events", "progress")
	assert.ErrorContains(t, res.err, `unknown event type "progress"`)
}

func TestCLI_Errors(t *testing.T) {
	t.Parallel()
	srv := a2atest.NewServer(t)

	tests := map[string]struct {
		args    []string
		wantErr error
		wantMsg string
	}{
		"missing task": {
			args:    []string{"--url", srv.URL, "get", "nope"},
			wantErr: a2a.ErrTaskNotFound,
		},
		"invalid url": {
			args:    []string{"--url", "ftp://agent.example.com", "get", "t1"},
			wantErr: a2a.ErrInvalidURL,
		},
		"no url": {
			args:    []string{"get", "t1"},
			wantErr: errNoURL,
		},
		"unknown agent": {
			args:    []string{"--agent", "translator", "get", "t1"},
			wantMsg: `unknown agent "translator"`,
		},
		"bad log level": {
			args:    []string{"--log-level", "loud", "get", "t1"},
			wantMsg: `unknown log level "loud"`,
		},
		"bad output": {
			args:    []string{"-o", "xml", "get", "t1"},
			wantMsg: "xml",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res := run(t, "", tt.args...)
			require.Error(t, res.err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, res.err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.ErrorContains(t, res.err, tt.wantMsg)
			}
		})
	}
}

// Not parallel: sets environment variables.
func TestCLI_ConfigProfile(t *testing.T) {
	srv := a2atest.NewServer(t)
	srv.Token = "s3cret"

	t.Setenv("A2A_URL", "")
	t.Setenv("A2A_TOKEN", "")
	t.Setenv("TEST_AGENT_TOKEN", "s3cret")
	config := writeConfigFile(t, `
url: http://127.0.0.1:1
agents:
  echo:
    url: `+srv.URL+`
    token: ${TEST_AGENT_TOKEN}
    headers:
      X-Tenant: acme
`)

	res := run(t, config, "--agent", "echo", "-o", "json", "send", "hi")
	require.NoError(t, res.err)
	assert.Equal(t, "acme", srv.LastRequest().Header.Get("X-Tenant"))
	assert.Equal(t, "Bearer s3cret", srv.LastRequest().Header.Get("Authorization"))

	res = run(t, config, "--agent", "echo", "--token", "wrong", "-o", "json", "send", "hi")
	assert.Equal(t, http.StatusUnauthorized, client.StatusCode(res.err))
}

func TestCLI_Version(t *testing.T) {
	t.Parallel()

	res := run(t, "", "-o", "text", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "a2a "+a2a.Version)
}
