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

func TestTaskEvent_MarshalJSON(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		event *a2a.TaskEvent
		want  string
	}{
		"state changed": {
			event: a2a.NewStateChangedEvent("t1", a2a.TaskStateWorking),
			want:  `{"type":"stateChanged","taskId":"t1","state":"WORKING"}`,
		},
		"message added": {
			event: a2a.NewMessageAddedEvent("t1", &a2a.Message{ID: "m1", Role: a2a.RoleAgent, Parts: []a2a.Part{a2a.TextPart("hi")}}),
			want:  `{"type":"messageAdded","taskId":"t1","message":{"id":"m1","role":"agent","parts":[{"type":"text","text":"hi"}]}}`,
		},
		"artifact added": {
			event: a2a.NewArtifactAddedEvent("t1", &a2a.Artifact{ID: "a1", Parts: []a2a.Part{a2a.TextPart("x")}}),
			want:  `{"type":"artifactAdded","taskId":"t1","artifact":{"id":"a1","parts":[{"type":"text","text":"x"}]}}`,
		},
		"artifact chunk": {
			event: a2a.NewArtifactChunkEvent("t1", "a1", "Reve"),
			want:  `{"type":"artifactChunk","taskId":"t1","artifactId":"a1","chunk":"Reve"}`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if diff := gocmp.Diff(tt.want, string(got)); diff != "" {
				t.Errorf("Marshal(): (-want +got):\n%s", diff)
			}

			var back a2a.TaskEvent
			if err := json.Unmarshal(got, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if diff := gocmp.Diff(tt.event, &back, gocmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Unmarshal(): (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTaskEvent_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		data    string
		want    *a2a.TaskEvent
		wantErr bool
	}{
		"snake case state changed": {
			data: `{"type":"state_changed","task_id":"t1","state":"COMPLETED"}`,
			want: a2a.NewStateChangedEvent("t1", a2a.TaskStateCompleted),
		},
		"snake case chunk": {
			data: `{"type":"artifact_chunk","task_id":"t1","artifact_id":"a1","chunk":"x"}`,
			want: a2a.NewArtifactChunkEvent("t1", "a1", "x"),
		},
		"unknown fields ignored": {
			data: `{"type":"stateChanged","taskId":"t1","state":"WORKING","seq":4}`,
			want: a2a.NewStateChangedEvent("t1", a2a.TaskStateWorking),
		},
		"unknown type": {
			data:    `{"type":"taskDeleted","taskId":"t1"}`,
			wantErr: true,
		},
		"missing state": {
			data:    `{"type":"stateChanged","taskId":"t1"}`,
			wantErr: true,
		},
		"invalid state": {
			data:    `{"type":"stateChanged","taskId":"t1","state":"DONE"}`,
			wantErr: true,
		},
		"missing message": {
			data:    `{"type":"messageAdded","taskId":"t1"}`,
			wantErr: true,
		},
		"missing artifact": {
			data:    `{"type":"artifactAdded","taskId":"t1"}`,
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var got a2a.TaskEvent
			err := json.Unmarshal([]byte(tt.data), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.data, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := gocmp.Diff(tt.want, &got); diff != "" {
				t.Errorf("Unmarshal(%s): (-want +got):\n%s", tt.data, diff)
			}
		})
	}
}

func TestChunkAssembler(t *testing.T) {
	t.Parallel()

	events := []*a2a.TaskEvent{
		a2a.NewArtifactChunkEvent("t1", "b", "Revenue "),
		a2a.NewStateChangedEvent("t1", a2a.TaskStateWorking),
		a2a.NewArtifactChunkEvent("t1", "a", "1"),
		a2a.NewArtifactChunkEvent("t1", "b", "grew 12%."),
		a2a.NewArtifactChunkEvent("t1", "a", "2"),
		nil,
	}

	var asm a2a.ChunkAssembler
	var added int
	for _, e := range events {
		if asm.Add(e) {
			added++
		}
	}

	if got, want := added, 4; got != want {
		t.Errorf("Add() accepted %d events, want %d", got, want)
	}
	if diff := gocmp.Diff([]string{"b", "a"}, asm.ArtifactIDs()); diff != "" {
		t.Errorf("ArtifactIDs(): (-want +got):\n%s", diff)
	}
	if got, want := asm.Content("b"), "Revenue grew 12%."; got != want {
		t.Errorf("Content(b) = %q, want %q", got, want)
	}
	if got, want := asm.Content("a"), "12"; got != want {
		t.Errorf("Content(a) = %q, want %q", got, want)
	}
	if got := asm.Content("missing"); got != "" {
		t.Errorf("Content(missing) = %q, want empty", got)
	}
}
