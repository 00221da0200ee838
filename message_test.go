// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a_test

import (
	"testing"

	"github.com/go-json-experiment/json"
	gocmp "github.com/google/go-cmp/cmp"
	gocmpopts "github.com/google/go-cmp/cmp/cmpopts"

	"github.com/agentoven/a2a-go"
)

func TestPart_MarshalJSON(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		part a2a.Part
		want string
	}{
		"text": {
			part: a2a.TextPart("hello"),
			want: `{"type":"text","text":"hello"}`,
		},
		"text with media type": {
			part: a2a.TextPartWithType("# hi", "text/markdown"),
			want: `{"type":"text","text":"# hi","mediaType":"text/markdown"}`,
		},
		"file inline": {
			part: a2a.FileInlinePart("a.txt", "text/plain", []byte("abc")),
			want: `{"type":"file","file":{"name":"a.txt","mediaType":"text/plain","data":"YWJj"}}`,
		},
		"file url": {
			part: a2a.FileURLPart("https://example.com/a.pdf", "a.pdf"),
			want: `{"type":"file","file":{"name":"a.pdf","url":"https://example.com/a.pdf"}}`,
		},
		"data": {
			part: a2a.DataPart(map[string]any{"k": "v"}, ""),
			want: `{"type":"data","data":{"value":{"k":"v"}}}`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := json.Marshal(tt.part)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if diff := gocmp.Diff(tt.want, string(got)); diff != "" {
				t.Errorf("Marshal(): (-want +got):\n%s", diff)
			}

			var back a2a.Part
			if err := json.Unmarshal(got, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if diff := gocmp.Diff(tt.part, back); diff != "" {
				t.Errorf("Unmarshal(): (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPart_UnmarshalJSONErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown type":   `{"type":"video","url":"x"}`,
		"missing type":   `{"text":"hello"}`,
		"file no body":   `{"type":"file"}`,
		"data no body":   `{"type":"data"}`,
		"not an object":  `"text"`,
		"bad text field": `{"type":"text","text":1}`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var p a2a.Part
			if err := json.Unmarshal([]byte(data), &p); err == nil {
				t.Errorf("Unmarshal(%s) = %+v, want error", data, p)
			}
		})
	}
}

func TestFileContent_Bytes(t *testing.T) {
	t.Parallel()

	p := a2a.FileInlinePart("blob.bin", "application/octet-stream", []byte{0, 1, 2, 255})
	got, err := p.File.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if diff := gocmp.Diff([]byte{0, 1, 2, 255}, got); diff != "" {
		t.Errorf("Bytes(): (-want +got):\n%s", diff)
	}

	ref := a2a.FileURLPart("https://example.com/x", "x")
	if got, err := ref.File.Bytes(); err != nil || got != nil {
		t.Errorf("Bytes() = %v, %v, want nil, nil", got, err)
	}
}

func TestTextContent(t *testing.T) {
	t.Parallel()

	parts := []a2a.Part{
		a2a.TextPart("a"),
		a2a.FileURLPart("https://example.com/f", "f"),
		a2a.TextPart("b"),
		a2a.DataPart(map[string]any{"x": 1.0}, a2a.MediaTypeJSON),
	}

	tests := map[string]interface{ TextContent() string }{
		"message":  &a2a.Message{ID: "m", Role: a2a.RoleAgent, Parts: parts},
		"artifact": &a2a.Artifact{ID: "a", Parts: parts},
	}

	for name, v := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got, want := v.TextContent(), "a\nb"; got != want {
				t.Errorf("TextContent() = %q, want %q", got, want)
			}
		})
	}

	if got := (&a2a.Message{}).TextContent(); got != "" {
		t.Errorf("TextContent() of empty message = %q, want empty", got)
	}
}

func TestMessage_Constructors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		msg      *a2a.Message
		wantRole a2a.Role
		wantText string
	}{
		"user text": {
			msg:      a2a.NewUserTextMessage("hi"),
			wantRole: a2a.RoleUser,
			wantText: "hi",
		},
		"agent text": {
			msg:      a2a.NewAgentTextMessage("hello"),
			wantRole: a2a.RoleAgent,
			wantText: "hello",
		},
		"user parts": {
			msg:      a2a.NewUserMessage(a2a.TextPart("x"), a2a.TextPart("y")),
			wantRole: a2a.RoleUser,
			wantText: "x\ny",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if tt.msg.ID == "" {
				t.Error("ID is empty")
			}
			if tt.msg.Role != tt.wantRole {
				t.Errorf("Role = %s, want %s", tt.msg.Role, tt.wantRole)
			}
			if got := tt.msg.TextContent(); got != tt.wantText {
				t.Errorf("TextContent() = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestMessageArtifact_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	msg := &a2a.Message{
		ID:       "m1",
		Role:     a2a.RoleUser,
		Parts:    []a2a.Part{a2a.TextPart("hi"), a2a.DataPart([]any{"a", 1.0}, "")},
		Metadata: map[string]any{"trace": "abc"},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal(Message) error = %v", err)
	}
	var gotMsg a2a.Message
	if err := json.Unmarshal(data, &gotMsg); err != nil {
		t.Fatalf("Unmarshal(Message) error = %v", err)
	}
	if diff := gocmp.Diff(msg, &gotMsg, gocmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Message round trip: (-want +got):\n%s", diff)
	}

	art := a2a.NewDataArtifact("report", map[string]any{"revenue": 12.5})
	data, err = json.Marshal(art)
	if err != nil {
		t.Fatalf("Marshal(Artifact) error = %v", err)
	}
	var gotArt a2a.Artifact
	if err := json.Unmarshal(data, &gotArt); err != nil {
		t.Fatalf("Unmarshal(Artifact) error = %v", err)
	}
	if diff := gocmp.Diff(art, &gotArt, gocmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Artifact round trip: (-want +got):\n%s", diff)
	}
}
