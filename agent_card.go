// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
	"net/url"

	"github.com/go-json-experiment/json"
)

// AgentCard is the self-describing manifest an agent publishes at [AgentCardWellKnownPath].
type AgentCard struct {
	// Name is the human readable name of the agent.
	Name string `json:"name"`
	// Description is a human-readable description of the agent.
	Description string `json:"description"`
	// Version is the version of the agent.
	Version string `json:"version,omitzero"`
	// Provider is the service provider of the agent.
	Provider *AgentProvider `json:"provider,omitzero"`
	// IconURL is the URL to an icon for the agent.
	IconURL string `json:"iconUrl,omitzero"`
	// DocumentationURL is the URL to documentation for the agent.
	DocumentationURL string `json:"documentationUrl,omitzero"`
	// SupportedInterfaces lists the endpoints of the agent. The first one is preferred.
	SupportedInterfaces []AgentInterface `json:"supportedInterfaces"`
	// Capabilities are the optional protocol features the agent supports.
	Capabilities AgentCapabilities `json:"capabilities"`
	// SecuritySchemes are the authentication schemes the agent accepts.
	SecuritySchemes []SecurityScheme `json:"securitySchemes,omitempty"`
	// Security lists the security requirements for contacting the agent.
	Security []SecurityRequirement `json:"security,omitempty"`
	// DefaultInputModes are the media types supported across all skills for input.
	DefaultInputModes []ContentType `json:"defaultInputModes,omitempty"`
	// DefaultOutputModes are the media types supported across all skills for output.
	DefaultOutputModes []ContentType `json:"defaultOutputModes,omitempty"`
	// Skills are the units of capability the agent can perform.
	Skills []AgentSkill `json:"skills,omitempty"`
}

// Validate checks the required fields of c.
//
// The returned error matches [ErrInvalidAgentCard].
func (c *AgentCard) Validate() error {
	invalid := func(format string, args ...any) error {
		return &Error{Kind: KindInvalidAgentCard, Msg: fmt.Sprintf(format, args...)}
	}

	if c.Name == "" {
		return invalid("name is required")
	}
	if c.Description == "" {
		return invalid("description is required")
	}
	if len(c.SupportedInterfaces) == 0 {
		return invalid("at least one supported interface is required")
	}
	for i, iface := range c.SupportedInterfaces {
		u, err := url.Parse(iface.URL)
		if err != nil || !u.IsAbs() {
			return invalid("supportedInterfaces[%d]: invalid url %q", i, iface.URL)
		}
		if iface.ProtocolBinding == "" {
			return invalid("supportedInterfaces[%d]: protocolBinding is required", i)
		}
	}
	return nil
}

// SupportsStreaming reports whether the agent streams task events.
func (c *AgentCard) SupportsStreaming() bool {
	return c.Capabilities.Streaming
}

// SupportsPushNotifications reports whether the agent delivers push notifications.
func (c *AgentCard) SupportsPushNotifications() bool {
	return c.Capabilities.PushNotifications
}

// FindSkill returns the skill with the given id, or nil.
func (c *AgentCard) FindSkill(id string) *AgentSkill {
	for i := range c.Skills {
		if c.Skills[i].ID == id {
			return &c.Skills[i]
		}
	}
	return nil
}

// PrimaryURL returns the URL of the first supported interface, or "".
func (c *AgentCard) PrimaryURL() string {
	if len(c.SupportedInterfaces) == 0 {
		return ""
	}
	return c.SupportedInterfaces[0].URL
}

// InterfaceFor returns the first interface using binding, or nil.
func (c *AgentCard) InterfaceFor(binding ProtocolBinding) *AgentInterface {
	for i := range c.SupportedInterfaces {
		if c.SupportedInterfaces[i].ProtocolBinding == binding {
			return &c.SupportedInterfaces[i]
		}
	}
	return nil
}

// AgentProvider represents the service provider of an agent.
type AgentProvider struct {
	Organization string `json:"organization"`
	URL          string `json:"url,omitzero"`
}

// ProtocolBinding names the transport an [AgentInterface] speaks.
// Values other than the predefined ones are allowed.
type ProtocolBinding string

// Known protocol bindings.
const (
	ProtocolBindingJSONRPC  ProtocolBinding = "jsonrpc-http"
	ProtocolBindingGRPC     ProtocolBinding = "grpc"
	ProtocolBindingHTTPJSON ProtocolBinding = "http-json"
)

// AgentInterface is an endpoint of an agent.
type AgentInterface struct {
	URL             string          `json:"url"`
	ProtocolBinding ProtocolBinding `json:"protocolBinding"`
	ProtocolVersion string          `json:"protocolVersion,omitzero"`
}

// AgentCapabilities defines optional capabilities supported by an agent.
type AgentCapabilities struct {
	// Streaming is true if the agent supports message/stream and tasks/subscribe.
	Streaming bool `json:"streaming"`
	// PushNotifications is true if the agent can notify updates to the client.
	PushNotifications bool `json:"pushNotifications"`
	// ExtendedAgentCard is true if the agent serves an authenticated extended card.
	ExtendedAgentCard bool `json:"extendedAgentCard"`
	// Extensions are the protocol extensions supported by the agent.
	Extensions []AgentExtension `json:"extensions,omitempty"`
}

// AgentExtension declares a protocol extension supported by an agent.
type AgentExtension struct {
	URI         string `json:"uri"`
	Description string `json:"description,omitzero"`
	Required    bool   `json:"required"`
}

// AgentSkill represents a unit of capability that an agent can perform.
type AgentSkill struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Tags        []string      `json:"tags,omitempty"`
	Examples    []string      `json:"examples,omitempty"`
	InputModes  []ContentType `json:"inputModes,omitempty"`
	OutputModes []ContentType `json:"outputModes,omitempty"`
}

// ContentType is a media type accepted or produced by an agent.
type ContentType struct {
	MediaType string `json:"mediaType"`
}

// SecuritySchemeType is the wire discriminator of a [SecurityScheme].
type SecuritySchemeType string

// Security scheme types.
const (
	SecuritySchemeAPIKey        SecuritySchemeType = "apiKey"
	SecuritySchemeHTTP          SecuritySchemeType = "http"
	SecuritySchemeOAuth2        SecuritySchemeType = "oauth2"
	SecuritySchemeOpenIDConnect SecuritySchemeType = "openIdConnect"
)

// APIKeyLocation is where an API key is carried.
type APIKeyLocation string

// API key locations.
const (
	APIKeyInHeader APIKeyLocation = "header"
	APIKeyInQuery  APIKeyLocation = "query"
	APIKeyInCookie APIKeyLocation = "cookie"
)

// SecurityScheme describes an authentication scheme accepted by an agent.
//
// SecurityScheme is a tagged union selected by Type; only the fields of that type are set.
type SecurityScheme struct {
	Type        SecuritySchemeType `json:"type"`
	Description string             `json:"description,omitzero"`

	// apiKey
	Name string         `json:"name,omitzero"`
	In   APIKeyLocation `json:"in,omitzero"`

	// http
	Scheme       string `json:"scheme,omitzero"`
	BearerFormat string `json:"bearerFormat,omitzero"`

	// oauth2
	Flows any `json:"flows,omitzero"`

	// openIdConnect
	OpenIDConnectURL string `json:"openIdConnectUrl,omitzero"`
}

type securitySchemeJSON SecurityScheme

// UnmarshalJSON implements [json.Unmarshaler].
func (s *SecurityScheme) UnmarshalJSON(data []byte) error {
	var raw securitySchemeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal security scheme: %w", err)
	}
	var snake struct {
		BearerFormat     string `json:"bearer_format"`
		OpenIDConnectURL string `json:"open_id_connect_url"`
	}
	if err := json.Unmarshal(data, &snake); err != nil {
		return fmt.Errorf("unmarshal security scheme: %w", err)
	}

	ss := SecurityScheme(raw)
	ss.BearerFormat = firstNonEmpty(ss.BearerFormat, snake.BearerFormat)
	ss.OpenIDConnectURL = firstNonEmpty(ss.OpenIDConnectURL, snake.OpenIDConnectURL)

	switch ss.Type {
	case SecuritySchemeAPIKey:
		if ss.Name == "" || ss.In == "" {
			return fmt.Errorf("apiKey security scheme requires %q and %q", "name", "in")
		}
	case SecuritySchemeHTTP:
		if ss.Scheme == "" {
			return fmt.Errorf("http security scheme requires %q", "scheme")
		}
	case SecuritySchemeOAuth2:
		if ss.Flows == nil {
			return fmt.Errorf("oauth2 security scheme requires %q", "flows")
		}
	case SecuritySchemeOpenIDConnect:
		if ss.OpenIDConnectURL == "" {
			return fmt.Errorf("openIdConnect security scheme requires %q", "openIdConnectUrl")
		}
	default:
		return fmt.Errorf("unknown security scheme type %q", ss.Type)
	}

	*s = ss
	return nil
}

// SecurityRequirement names a security scheme and the scopes it requires.
type SecurityRequirement struct {
	Scheme string   `json:"scheme"`
	Scopes []string `json:"scopes,omitempty"`
}
