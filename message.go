// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
)

// Role represents the role of a message sender.
type Role string

// Role constants for message senders.
const (
	// RoleUser is the client agent.
	RoleUser Role = "user"
	// RoleAgent is the remote agent.
	RoleAgent Role = "agent"
)

// PartType is the wire discriminator of a [Part].
type PartType string

// Part types.
const (
	PartTypeText PartType = "text"
	PartTypeFile PartType = "file"
	PartTypeData PartType = "data"
)

// Message is one turn of conversation between the client and a remote agent.
//
// A Message is immutable once constructed; a new one is created per turn.
type Message struct {
	ID       string         `json:"id"`
	Role     Role           `json:"role"`
	Parts    []Part         `json:"parts"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewUserMessage creates a message from the client agent.
func NewUserMessage(parts ...Part) *Message {
	return &Message{
		ID:    uuid.NewString(),
		Role:  RoleUser,
		Parts: parts,
	}
}

// NewAgentMessage creates a message from the remote agent.
func NewAgentMessage(parts ...Part) *Message {
	return &Message{
		ID:    uuid.NewString(),
		Role:  RoleAgent,
		Parts: parts,
	}
}

// NewUserTextMessage creates a user message with a single text part.
func NewUserTextMessage(text string) *Message {
	return NewUserMessage(TextPart(text))
}

// NewAgentTextMessage creates an agent message with a single text part.
func NewAgentTextMessage(text string) *Message {
	return NewAgentMessage(TextPart(text))
}

// TextContent returns the text parts of m joined by newlines.
// File and data parts are skipped.
func (m *Message) TextContent() string {
	return textContent(m.Parts)
}

// Part is the smallest content unit of a [Message] or [Artifact].
//
// Part is a tagged union: exactly one of Text, File, or Data is meaningful, selected by Type.
type Part struct {
	Type PartType

	// Text is set for text parts.
	Text string
	// MediaType is the optional media type of a text part.
	MediaType string

	// File is set for file parts.
	File *FileContent

	// Data is set for data parts.
	Data *DataContent
}

// FileContent is a file carried inline (base64) or by URL reference.
//
// Exactly one of Data and URL is expected to be set.
type FileContent struct {
	Name      string `json:"name,omitzero"`
	MediaType string `json:"mediaType,omitzero"`
	Data      string `json:"data,omitzero"`
	URL       string `json:"url,omitzero"`
}

// Bytes decodes the inline base64 payload.
func (f *FileContent) Bytes() ([]byte, error) {
	if f.Data == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(f.Data)
}

// DataContent is structured JSON content.
type DataContent struct {
	Value     any    `json:"value"`
	MediaType string `json:"mediaType,omitzero"`
}

// TextPart creates a text part.
func TextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// TextPartWithType creates a text part with a media type.
func TextPartWithType(text, mediaType string) Part {
	return Part{Type: PartTypeText, Text: text, MediaType: mediaType}
}

// FileInlinePart creates a file part carrying data inline.
func FileInlinePart(name, mediaType string, data []byte) Part {
	return Part{
		Type: PartTypeFile,
		File: &FileContent{
			Name:      name,
			MediaType: mediaType,
			Data:      base64.StdEncoding.EncodeToString(data),
		},
	}
}

// FileURLPart creates a file part referencing url.
func FileURLPart(url, name string) Part {
	return Part{
		Type: PartTypeFile,
		File: &FileContent{Name: name, URL: url},
	}
}

// DataPart creates a structured data part.
func DataPart(value any, mediaType string) Part {
	return Part{
		Type: PartTypeData,
		Data: &DataContent{Value: value, MediaType: mediaType},
	}
}

type textPartJSON struct {
	Type      PartType `json:"type"`
	Text      string   `json:"text"`
	MediaType string   `json:"mediaType,omitzero"`
}

type filePartJSON struct {
	Type PartType     `json:"type"`
	File *FileContent `json:"file"`
}

type dataPartJSON struct {
	Type PartType     `json:"type"`
	Data *DataContent `json:"data"`
}

// MarshalJSON implements [json.Marshaler].
func (p Part) MarshalJSON() ([]byte, error) {
	switch p.Type {
	case PartTypeText:
		return json.Marshal(textPartJSON{Type: p.Type, Text: p.Text, MediaType: p.MediaType})
	case PartTypeFile:
		if p.File == nil {
			return nil, fmt.Errorf("file part has no file content")
		}
		return json.Marshal(filePartJSON{Type: p.Type, File: p.File})
	case PartTypeData:
		if p.Data == nil {
			return nil, fmt.Errorf("data part has no data content")
		}
		return json.Marshal(dataPartJSON{Type: p.Type, Data: p.Data})
	default:
		return nil, fmt.Errorf("unknown part type %q", p.Type)
	}
}

// UnmarshalJSON implements [json.Unmarshaler].
func (p *Part) UnmarshalJSON(data []byte) error {
	var kind struct {
		Type PartType `json:"type"`
	}
	if err := json.Unmarshal(data, &kind); err != nil {
		return fmt.Errorf("unmarshal part type: %w", err)
	}

	switch kind.Type {
	case PartTypeText:
		var tp textPartJSON
		if err := json.Unmarshal(data, &tp); err != nil {
			return fmt.Errorf("unmarshal text part: %w", err)
		}
		*p = Part{Type: PartTypeText, Text: tp.Text, MediaType: tp.MediaType}
	case PartTypeFile:
		var fp filePartJSON
		if err := json.Unmarshal(data, &fp); err != nil {
			return fmt.Errorf("unmarshal file part: %w", err)
		}
		if fp.File == nil {
			return fmt.Errorf("file part missing %q", "file")
		}
		*p = Part{Type: PartTypeFile, File: fp.File}
	case PartTypeData:
		var dp dataPartJSON
		if err := json.Unmarshal(data, &dp); err != nil {
			return fmt.Errorf("unmarshal data part: %w", err)
		}
		if dp.Data == nil {
			return fmt.Errorf("data part missing %q", "data")
		}
		*p = Part{Type: PartTypeData, Data: dp.Data}
	default:
		return fmt.Errorf("unknown part type %q", kind.Type)
	}

	return nil
}

func textContent(parts []Part) string {
	var texts []string
	for _, p := range parts {
		if p.Type == PartTypeText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}
