// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a_test

import (
	"errors"
	"testing"

	"github.com/go-json-experiment/json"
	gocmp "github.com/google/go-cmp/cmp"
	gocmpopts "github.com/google/go-cmp/cmp/cmpopts"

	"github.com/agentoven/a2a-go"
)

func minimalCard() *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:        "summarizer",
		Description: "Summarizes documents with citations",
		SupportedInterfaces: []a2a.AgentInterface{
			{URL: "https://agent.example.com/a2a", ProtocolBinding: a2a.ProtocolBindingJSONRPC},
		},
	}
}

func TestAgentCard_Validate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate  func(c *a2a.AgentCard)
		wantErr bool
	}{
		"minimal": {
			mutate: func(*a2a.AgentCard) {},
		},
		"custom binding": {
			mutate: func(c *a2a.AgentCard) { c.SupportedInterfaces[0].ProtocolBinding = "websocket" },
		},
		"empty name": {
			mutate:  func(c *a2a.AgentCard) { c.Name = "" },
			wantErr: true,
		},
		"empty description": {
			mutate:  func(c *a2a.AgentCard) { c.Description = "" },
			wantErr: true,
		},
		"no interfaces": {
			mutate:  func(c *a2a.AgentCard) { c.SupportedInterfaces = nil },
			wantErr: true,
		},
		"relative interface url": {
			mutate:  func(c *a2a.AgentCard) { c.SupportedInterfaces[0].URL = "/a2a" },
			wantErr: true,
		},
		"missing binding": {
			mutate:  func(c *a2a.AgentCard) { c.SupportedInterfaces[0].ProtocolBinding = "" },
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			card := minimalCard()
			tt.mutate(card)

			err := card.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, a2a.ErrInvalidAgentCard) {
				t.Errorf("Validate() error = %v, want ErrInvalidAgentCard", err)
			}
		})
	}
}

func TestAgentCard_Accessors(t *testing.T) {
	t.Parallel()

	card := minimalCard()
	card.SupportedInterfaces = append(card.SupportedInterfaces, a2a.AgentInterface{
		URL:             "https://agent.example.com/grpc",
		ProtocolBinding: a2a.ProtocolBindingGRPC,
	})
	card.Capabilities = a2a.AgentCapabilities{Streaming: true}
	card.Skills = []a2a.AgentSkill{
		{ID: "summarize", Name: "Document Summarization", Description: "Summarizes long documents"},
		{ID: "translate", Name: "Translation", Description: "Translates text"},
	}

	if !card.SupportsStreaming() {
		t.Error("SupportsStreaming() = false, want true")
	}
	if card.SupportsPushNotifications() {
		t.Error("SupportsPushNotifications() = true, want false")
	}
	if got, want := card.PrimaryURL(), "https://agent.example.com/a2a"; got != want {
		t.Errorf("PrimaryURL() = %q, want %q", got, want)
	}
	if got := card.FindSkill("translate"); got == nil || got.Name != "Translation" {
		t.Errorf("FindSkill(translate) = %v, want Translation", got)
	}
	if got := card.FindSkill("missing"); got != nil {
		t.Errorf("FindSkill(missing) = %v, want nil", got)
	}
	if got := card.InterfaceFor(a2a.ProtocolBindingGRPC); got == nil || got.URL != "https://agent.example.com/grpc" {
		t.Errorf("InterfaceFor(grpc) = %v", got)
	}
	if got := card.InterfaceFor(a2a.ProtocolBindingHTTPJSON); got != nil {
		t.Errorf("InterfaceFor(http-json) = %v, want nil", got)
	}
	if got := (&a2a.AgentCard{}).PrimaryURL(); got != "" {
		t.Errorf("PrimaryURL() of empty card = %q, want empty", got)
	}
}

func TestAgentCard_JSON(t *testing.T) {
	t.Parallel()

	data := `{
		"name": "summarizer",
		"description": "Summarizes documents with citations",
		"version": "1.0.0",
		"provider": {"organization": "AgentOven", "url": "https://agentoven.dev"},
		"supportedInterfaces": [
			{"url": "https://agent.example.com/a2a", "protocolBinding": "jsonrpc-http", "protocolVersion": "1.0"}
		],
		"capabilities": {"streaming": true, "pushNotifications": true},
		"securitySchemes": [
			{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			{"type": "apiKey", "name": "X-API-Key", "in": "header"},
			{"type": "openIdConnect", "open_id_connect_url": "https://id.example.com/.well-known/openid-configuration"},
			{"type": "oauth2", "flows": {"clientCredentials": {"tokenUrl": "https://id.example.com/token"}}}
		],
		"security": [{"scheme": "bearer"}],
		"defaultInputModes": [{"mediaType": "text/plain"}],
		"defaultOutputModes": [{"mediaType": "text/plain"}, {"mediaType": "application/json"}],
		"skills": [{
			"id": "summarize",
			"name": "Document Summarization",
			"description": "Summarizes long documents into concise summaries",
			"tags": ["summarization", "nlp"],
			"examples": ["Summarize this quarterly report"]
		}]
	}`

	want := &a2a.AgentCard{
		Name:        "summarizer",
		Description: "Summarizes documents with citations",
		Version:     "1.0.0",
		Provider:    &a2a.AgentProvider{Organization: "AgentOven", URL: "https://agentoven.dev"},
		SupportedInterfaces: []a2a.AgentInterface{
			{URL: "https://agent.example.com/a2a", ProtocolBinding: a2a.ProtocolBindingJSONRPC, ProtocolVersion: "1.0"},
		},
		Capabilities: a2a.AgentCapabilities{Streaming: true, PushNotifications: true},
		SecuritySchemes: []a2a.SecurityScheme{
			{Type: a2a.SecuritySchemeHTTP, Scheme: "bearer", BearerFormat: "JWT"},
			{Type: a2a.SecuritySchemeAPIKey, Name: "X-API-Key", In: a2a.APIKeyInHeader},
			{Type: a2a.SecuritySchemeOpenIDConnect, OpenIDConnectURL: "https://id.example.com/.well-known/openid-configuration"},
			{Type: a2a.SecuritySchemeOAuth2, Flows: map[string]any{
				"clientCredentials": map[string]any{"tokenUrl": "https://id.example.com/token"},
			}},
		},
		Security:           []a2a.SecurityRequirement{{Scheme: "bearer"}},
		DefaultInputModes:  []a2a.ContentType{{MediaType: a2a.MediaTypeText}},
		DefaultOutputModes: []a2a.ContentType{{MediaType: a2a.MediaTypeText}, {MediaType: a2a.MediaTypeJSON}},
		Skills: []a2a.AgentSkill{{
			ID:          "summarize",
			Name:        "Document Summarization",
			Description: "Summarizes long documents into concise summaries",
			Tags:        []string{"summarization", "nlp"},
			Examples:    []string{"Summarize this quarterly report"},
		}},
	}

	var got a2a.AgentCard
	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := gocmp.Diff(want, &got, gocmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Unmarshal(): (-want +got):\n%s", diff)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	out, err := json.Marshal(&got)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back a2a.AgentCard
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal(Marshal()) error = %v", err)
	}
	if diff := gocmp.Diff(want, &back, gocmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip: (-want +got):\n%s", diff)
	}
}

func TestSecurityScheme_UnmarshalJSONErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown type":        `{"type":"mutualTLS"}`,
		"apiKey without in":   `{"type":"apiKey","name":"X-Key"}`,
		"http without scheme": `{"type":"http"}`,
		"oauth2 no flows":     `{"type":"oauth2"}`,
		"oidc without url":    `{"type":"openIdConnect"}`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var s a2a.SecurityScheme
			if err := json.Unmarshal([]byte(data), &s); err == nil {
				t.Errorf("Unmarshal(%s) = %+v, want error", data, s)
			}
		})
	}
}
