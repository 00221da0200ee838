// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
)

// TaskEventType is the wire discriminator of a [TaskEvent].
type TaskEventType string

// Task event types.
const (
	EventStateChanged  TaskEventType = "stateChanged"
	EventMessageAdded  TaskEventType = "messageAdded"
	EventArtifactAdded TaskEventType = "artifactAdded"
	EventArtifactChunk TaskEventType = "artifactChunk"
)

// TaskEvent is a streaming notification about a task.
//
// TaskEvent is a tagged union selected by Type:
//   - [EventStateChanged] sets State
//   - [EventMessageAdded] sets Message
//   - [EventArtifactAdded] sets Artifact
//   - [EventArtifactChunk] sets ArtifactID and Chunk
type TaskEvent struct {
	Type   TaskEventType
	TaskID string

	State      TaskState
	Message    *Message
	Artifact   *Artifact
	ArtifactID string
	Chunk      string
}

// NewStateChangedEvent returns a stateChanged event.
func NewStateChangedEvent(taskID string, state TaskState) *TaskEvent {
	return &TaskEvent{Type: EventStateChanged, TaskID: taskID, State: state}
}

// NewMessageAddedEvent returns a messageAdded event.
func NewMessageAddedEvent(taskID string, m *Message) *TaskEvent {
	return &TaskEvent{Type: EventMessageAdded, TaskID: taskID, Message: m}
}

// NewArtifactAddedEvent returns an artifactAdded event.
func NewArtifactAddedEvent(taskID string, a *Artifact) *TaskEvent {
	return &TaskEvent{Type: EventArtifactAdded, TaskID: taskID, Artifact: a}
}

// NewArtifactChunkEvent returns an artifactChunk event.
func NewArtifactChunkEvent(taskID, artifactID, chunk string) *TaskEvent {
	return &TaskEvent{Type: EventArtifactChunk, TaskID: taskID, ArtifactID: artifactID, Chunk: chunk}
}

type stateChangedJSON struct {
	Type   TaskEventType `json:"type"`
	TaskID string        `json:"taskId"`
	State  TaskState     `json:"state"`
}

type messageAddedJSON struct {
	Type    TaskEventType `json:"type"`
	TaskID  string        `json:"taskId"`
	Message *Message      `json:"message"`
}

type artifactAddedJSON struct {
	Type     TaskEventType `json:"type"`
	TaskID   string        `json:"taskId"`
	Artifact *Artifact     `json:"artifact"`
}

type artifactChunkJSON struct {
	Type       TaskEventType `json:"type"`
	TaskID     string        `json:"taskId"`
	ArtifactID string        `json:"artifactId"`
	Chunk      string        `json:"chunk"`
}

// taskEventWire accepts both camelCase and snake_case field spellings.
type taskEventWire struct {
	Type            string     `json:"type"`
	TaskID          string     `json:"taskId"`
	TaskIDSnake     string     `json:"task_id"`
	State           *TaskState `json:"state"`
	Message         *Message   `json:"message"`
	Artifact        *Artifact  `json:"artifact"`
	ArtifactID      string     `json:"artifactId"`
	ArtifactIDSnake string     `json:"artifact_id"`
	Chunk           string     `json:"chunk"`
}

// MarshalJSON implements [json.Marshaler].
func (e TaskEvent) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventStateChanged:
		return json.Marshal(stateChangedJSON{Type: e.Type, TaskID: e.TaskID, State: e.State})
	case EventMessageAdded:
		return json.Marshal(messageAddedJSON{Type: e.Type, TaskID: e.TaskID, Message: e.Message})
	case EventArtifactAdded:
		return json.Marshal(artifactAddedJSON{Type: e.Type, TaskID: e.TaskID, Artifact: e.Artifact})
	case EventArtifactChunk:
		return json.Marshal(artifactChunkJSON{Type: e.Type, TaskID: e.TaskID, ArtifactID: e.ArtifactID, Chunk: e.Chunk})
	default:
		return nil, fmt.Errorf("unknown task event type %q", e.Type)
	}
}

// UnmarshalJSON implements [json.Unmarshaler].
func (e *TaskEvent) UnmarshalJSON(data []byte) error {
	var w taskEventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("unmarshal task event: %w", err)
	}

	ev := TaskEvent{
		Type:       normalizeEventType(w.Type),
		TaskID:     firstNonEmpty(w.TaskID, w.TaskIDSnake),
		ArtifactID: firstNonEmpty(w.ArtifactID, w.ArtifactIDSnake),
	}
	switch ev.Type {
	case EventStateChanged:
		if w.State == nil {
			return fmt.Errorf("%s event missing %q", ev.Type, "state")
		}
		ev.State = *w.State
	case EventMessageAdded:
		if w.Message == nil {
			return fmt.Errorf("%s event missing %q", ev.Type, "message")
		}
		ev.Message = w.Message
	case EventArtifactAdded:
		if w.Artifact == nil {
			return fmt.Errorf("%s event missing %q", ev.Type, "artifact")
		}
		ev.Artifact = w.Artifact
	case EventArtifactChunk:
		ev.Chunk = w.Chunk
	default:
		return fmt.Errorf("unknown task event type %q", w.Type)
	}

	*e = ev
	return nil
}

// normalizeEventType maps snake_case event names onto their camelCase form.
func normalizeEventType(s string) TaskEventType {
	if !strings.Contains(s, "_") {
		return TaskEventType(s)
	}
	var b strings.Builder
	upper := false
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteString(strings.ToUpper(string(r)))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return TaskEventType(b.String())
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

// ChunkAssembler concatenates artifactChunk payloads per artifact in arrival order.
type ChunkAssembler struct {
	order  []string
	chunks map[string]*strings.Builder
}

// Add records e if it is an artifactChunk event and reports whether it did.
func (c *ChunkAssembler) Add(e *TaskEvent) bool {
	if e == nil || e.Type != EventArtifactChunk {
		return false
	}
	if c.chunks == nil {
		c.chunks = make(map[string]*strings.Builder)
	}
	b, ok := c.chunks[e.ArtifactID]
	if !ok {
		b = new(strings.Builder)
		c.chunks[e.ArtifactID] = b
		c.order = append(c.order, e.ArtifactID)
	}
	b.WriteString(e.Chunk)
	return true
}

// Content returns the assembled content of artifactID.
func (c *ChunkAssembler) Content(artifactID string) string {
	if b, ok := c.chunks[artifactID]; ok {
		return b.String()
	}
	return ""
}

// ArtifactIDs returns the artifact ids seen, in first-arrival order.
func (c *ChunkAssembler) ArtifactIDs() []string {
	return c.order
}
