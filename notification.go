// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
	"net/url"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
)

// PushNotificationConfig registers a webhook that receives the events of a task.
type PushNotificationConfig struct {
	ID             string                `json:"id"`
	TaskID         string                `json:"taskId"`
	URL            string                `json:"url"`
	Authentication *PushNotificationAuth `json:"authentication,omitzero"`
	// Events filters the delivered event types. Empty means all events.
	Events []TaskEventType `json:"events,omitempty"`
}

// NewPushNotificationConfig creates a config with a generated ID.
func NewPushNotificationConfig(taskID, webhookURL string) *PushNotificationConfig {
	return &PushNotificationConfig{
		ID:     uuid.NewString(),
		TaskID: taskID,
		URL:    webhookURL,
	}
}

// Validate checks that c names a task and an absolute webhook URL.
func (c *PushNotificationConfig) Validate() error {
	if c.TaskID == "" {
		return &Error{Kind: KindPushNotification, Msg: "taskId is required"}
	}
	u, err := url.Parse(c.URL)
	if err != nil || !u.IsAbs() {
		return &Error{Kind: KindPushNotification, Msg: fmt.Sprintf("invalid webhook url %q", c.URL), Err: err}
	}
	return nil
}

// Wants reports whether events of type t are delivered under c.
func (c *PushNotificationConfig) Wants(t TaskEventType) bool {
	if len(c.Events) == 0 {
		return true
	}
	for _, e := range c.Events {
		if e == t {
			return true
		}
	}
	return false
}

// PushNotificationAuthType is the wire discriminator of a [PushNotificationAuth].
type PushNotificationAuthType string

// Push notification authentication types.
const (
	PushAuthBearer PushNotificationAuthType = "bearer"
	PushAuthHeader PushNotificationAuthType = "header"
)

// PushNotificationAuth is the credential the agent presents to the webhook.
//
// For [PushAuthBearer] Token is set; for [PushAuthHeader] Name and Value are set.
type PushNotificationAuth struct {
	Type  PushNotificationAuthType `json:"type"`
	Token string                   `json:"token,omitzero"`
	Name  string                   `json:"name,omitzero"`
	Value string                   `json:"value,omitzero"`
}

// BearerAuth returns bearer token authentication.
func BearerAuth(token string) *PushNotificationAuth {
	return &PushNotificationAuth{Type: PushAuthBearer, Token: token}
}

// HeaderAuth returns static header authentication.
func HeaderAuth(name, value string) *PushNotificationAuth {
	return &PushNotificationAuth{Type: PushAuthHeader, Name: name, Value: value}
}

type pushNotificationAuthJSON PushNotificationAuth

// UnmarshalJSON implements [json.Unmarshaler].
func (a *PushNotificationAuth) UnmarshalJSON(data []byte) error {
	var raw pushNotificationAuthJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal push notification auth: %w", err)
	}
	switch raw.Type {
	case PushAuthBearer:
		if raw.Token == "" {
			return fmt.Errorf("bearer authentication requires %q", "token")
		}
	case PushAuthHeader:
		if raw.Name == "" {
			return fmt.Errorf("header authentication requires %q", "name")
		}
	default:
		return fmt.Errorf("unknown push notification authentication type %q", raw.Type)
	}
	*a = PushNotificationAuth(raw)
	return nil
}

// PushNotificationEvent is the body an agent POSTs to a webhook.
type PushNotificationEvent struct {
	ConfigID  string    `json:"configId"`
	Event     TaskEvent `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}
