// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"golang.org/x/term"

	"github.com/agentoven/a2a-go"
	"github.com/agentoven/a2a-go/internal/pool"
)

// Output modes.
const (
	outputAuto = "auto"
	outputText = "text"
	outputJSON = "json"
)

// printer renders results either as human readable text or as JSON, one value
// per line.
type printer struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
}

// newPrinter returns a printer writing to w. In auto mode it prints text to a
// terminal and JSON to anything else.
func newPrinter(w io.Writer, mode string) (*printer, error) {
	switch mode {
	case outputJSON:
		return &printer{w: w, json: true}, nil
	case outputText:
		return &printer{w: w}, nil
	case outputAuto, "":
		return &printer{w: w, json: !isTerminal(w)}, nil
	default:
		return nil, fmt.Errorf("unknown output mode %q", mode)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// print writes v.
func (p *printer) print(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.json {
		data, err := json.Marshal(v, jsontext.WithIndent("  "))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(p.w, "%s\n", data)
		return err
	}

	b := pool.Buffers.Get()
	defer pool.Buffers.Put(b)

	switch v := v.(type) {
	case *a2a.AgentCard:
		writeCard(b, v)
	case *a2a.Task:
		writeTask(b, v)
	case []*a2a.Task:
		if len(v) == 0 {
			b.WriteString("no tasks\n")
		}
		for _, t := range v {
			fmt.Fprintf(b, "%s  %-14s %s\n", t.ID, t.State, t.ContextID)
		}
	case *a2a.TaskEvent:
		writeEvent(b, v)
	case *a2a.PushNotificationEvent:
		fmt.Fprintf(b, "[%s] ", v.Timestamp.Format("15:04:05"))
		writeEvent(b, &v.Event)
	case *a2a.PushNotificationConfig:
		writeConfig(b, v)
	case []*a2a.PushNotificationConfig:
		if len(v) == 0 {
			b.WriteString("no push notification configs\n")
		}
		for _, c := range v {
			writeConfig(b, c)
		}
	case string:
		b.WriteString(v)
		b.WriteByte('\n')
	default:
		data, err := json.Marshal(v, jsontext.WithIndent("  "))
		if err != nil {
			return err
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	_, err := p.w.Write(b.Bytes())
	return err
}

func writeCard(b *bytes.Buffer, c *a2a.AgentCard) {
	b.WriteString(c.Name)
	if c.Version != "" {
		b.WriteString(" " + c.Version)
	}
	b.WriteByte('\n')
	fmt.Fprintf(b, "  %s\n", c.Description)
	for _, iface := range c.SupportedInterfaces {
		fmt.Fprintf(b, "  %s (%s)\n", iface.URL, iface.ProtocolBinding)
	}
	fmt.Fprintf(b, "  streaming: %s  push: %s\n", yesNo(c.SupportsStreaming()), yesNo(c.SupportsPushNotifications()))
	if len(c.Skills) > 0 {
		b.WriteString("  skills:\n")
		for _, s := range c.Skills {
			fmt.Fprintf(b, "    %-16s %s\n", s.ID, s.Name)
		}
	}
}

func writeTask(b *bytes.Buffer, t *a2a.Task) {
	fmt.Fprintf(b, "Task %s %s\n", t.ID, t.State)
	if t.ContextID != "" {
		fmt.Fprintf(b, "  context: %s\n", t.ContextID)
	}
	for _, m := range t.Messages {
		fmt.Fprintf(b, "  [%s] %s\n", m.Role, indent(m.TextContent()))
	}
	for _, a := range t.Artifacts {
		name := a.Name
		if name == "" {
			name = a.ID
		}
		fmt.Fprintf(b, "  artifact %s: %s\n", name, indent(a.TextContent()))
	}
}

func writeEvent(b *bytes.Buffer, e *a2a.TaskEvent) {
	fmt.Fprintf(b, "%s %s", e.TaskID, e.Type)
	switch e.Type {
	case a2a.EventStateChanged:
		fmt.Fprintf(b, " %s", e.State)
	case a2a.EventMessageAdded:
		fmt.Fprintf(b, " [%s] %s", e.Message.Role, indent(e.Message.TextContent()))
	case a2a.EventArtifactAdded:
		fmt.Fprintf(b, " %s: %s", e.Artifact.Name, indent(e.Artifact.TextContent()))
	case a2a.EventArtifactChunk:
		fmt.Fprintf(b, " %s %q", e.ArtifactID, e.Chunk)
	}
	b.WriteByte('\n')
}

func writeConfig(b *bytes.Buffer, c *a2a.PushNotificationConfig) {
	fmt.Fprintf(b, "%s  task %s -> %s", c.ID, c.TaskID, c.URL)
	if c.Authentication != nil {
		fmt.Fprintf(b, " (%s)", c.Authentication.Type)
	}
	if len(c.Events) > 0 {
		events := make([]string, len(c.Events))
		for i, e := range c.Events {
			events[i] = string(e)
		}
		fmt.Fprintf(b, " [%s]", strings.Join(events, ","))
	}
	b.WriteByte('\n')
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n    ")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
