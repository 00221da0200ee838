// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"github.com/google/uuid"
)

// Artifact is a deliverable produced by a task.
//
// Artifacts are appended to a task, never mutated in place.
type Artifact struct {
	ID          string         `json:"id"`
	Name        string         `json:"name,omitzero"`
	Description string         `json:"description,omitzero"`
	Parts       []Part         `json:"parts"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewTextArtifact creates an artifact holding a single text part.
func NewTextArtifact(name, text string) *Artifact {
	return &Artifact{
		ID:    uuid.NewString(),
		Name:  name,
		Parts: []Part{TextPart(text)},
	}
}

// NewDataArtifact creates an artifact holding a single JSON data part.
func NewDataArtifact(name string, value any) *Artifact {
	return &Artifact{
		ID:    uuid.NewString(),
		Name:  name,
		Parts: []Part{DataPart(value, MediaTypeJSON)},
	}
}

// TextContent returns the text parts of a joined by newlines.
func (a *Artifact) TextContent() string {
	return textContent(a.Parts)
}
