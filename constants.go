// Copyright 2025 The Go A2A Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package a2a

// A2A protocol path and media type constants.
const (
	// AgentCardWellKnownPath is the standard path for retrieving an agent's public AgentCard.
	//
	// Example usage: https://agent.example.com/.well-known/agent-card.json
	AgentCardWellKnownPath = "/.well-known/agent-card.json"

	// DefaultRPCPath is the default path of the JSON-RPC endpoint, relative to the base URL.
	DefaultRPCPath = "/"

	// MediaType is the content type of A2A JSON-RPC requests and responses.
	MediaType = "application/a2a+json"

	// EventStreamMediaType is the content type of streaming responses.
	EventStreamMediaType = "text/event-stream"

	// StreamDone is the SSE data payload that ends a stream.
	StreamDone = "[DONE]"

	// Version is the version of this module, reported in the default User-Agent.
	Version = "0.1.0"
)

// Common media types of agent input and output modes.
const (
	MediaTypeText = "text/plain"
	MediaTypeJSON = "application/json"
)
