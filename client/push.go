// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/agentoven/a2a-go"
)

// maxPushBody bounds the size of an accepted push notification.
const maxPushBody = 1 << 20

// PushHandler is a function that handles incoming push notifications.
type PushHandler func(ctx context.Context, ev *a2a.PushNotificationEvent) error

// PushReceiver is an [http.Handler] receiving push notifications POSTed by an agent.
//
// It answers 405 to anything but POST, 401 when authentication fails, 400 when
// the body is not a push notification event, 500 when the handler fails, and 204
// otherwise.
type PushReceiver struct {
	handler PushHandler
	logger  *slog.Logger

	auth   *a2a.PushNotificationAuth
	config *a2a.PushNotificationConfig

	jwtAlg      jwa.KeyAlgorithm
	jwtKey      any
	jwks        *jwksSource
	jwtValidate []jwt.ValidateOption
}

// ReceiverOption configures a [PushReceiver].
type ReceiverOption func(*PushReceiver)

// WithReceiverAuth requires every notification to carry the credentials of auth.
func WithReceiverAuth(auth *a2a.PushNotificationAuth) ReceiverOption {
	return func(p *PushReceiver) {
		p.auth = auth
	}
}

// WithPushConfig binds the receiver to config: its authentication is required,
// notifications for another config are rejected, and events filtered out by
// config are acknowledged without calling the handler.
func WithPushConfig(config *a2a.PushNotificationConfig) ReceiverOption {
	return func(p *PushReceiver) {
		p.config = config
		if config.Authentication != nil {
			p.auth = config.Authentication
		}
	}
}

// WithJWTKey requires the bearer token of every notification to be a JWT signed
// with key using alg, and valid at the time of receipt.
func WithJWTKey(alg jwa.KeyAlgorithm, key any) ReceiverOption {
	return func(p *PushReceiver) {
		p.jwtAlg = alg
		p.jwtKey = key
	}
}

// WithJWKS requires the bearer token of every notification to be a JWT signed
// by a key of the JSON Web Key Set published at url, usually the agent's
// /.well-known/jwks.json. The set is cached for an hour and fetched again when a
// token fails to verify against it, at most once a minute. A failed fetch is not
// retried for a minute either; a stale set keeps being used meanwhile. A nil
// httpClient uses a client with a 10s timeout.
func WithJWKS(url string, httpClient *http.Client) ReceiverOption {
	return func(p *PushReceiver) {
		p.jwks = newJWKSSource(url, httpClient)
	}
}

// WithJWTIssuer requires the JWT "iss" claim to equal issuer.
func WithJWTIssuer(issuer string) ReceiverOption {
	return func(p *PushReceiver) {
		p.jwtValidate = append(p.jwtValidate, jwt.WithIssuer(issuer))
	}
}

// WithJWTAudience requires the JWT "aud" claim to contain audience.
func WithJWTAudience(audience string) ReceiverOption {
	return func(p *PushReceiver) {
		p.jwtValidate = append(p.jwtValidate, jwt.WithAudience(audience))
	}
}

// WithReceiverLogger sets the [*slog.Logger] of the receiver.
func WithReceiverLogger(logger *slog.Logger) ReceiverOption {
	return func(p *PushReceiver) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPushReceiver returns a receiver dispatching notifications to handler.
func NewPushReceiver(handler PushHandler, opts ...ReceiverOption) *PushReceiver {
	p := &PushReceiver{
		handler: handler,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ http.Handler = (*PushReceiver)(nil)

// ServeHTTP implements [http.Handler].
func (p *PushReceiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if err := p.authenticate(r); err != nil {
		p.logger.WarnContext(ctx, "rejected push notification",
			slog.String("remote", r.RemoteAddr),
			slog.Any("error", err),
		)
		w.Header().Set("WWW-Authenticate", `Bearer realm="a2a-push"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var ev a2a.PushNotificationEvent
	if err := json.UnmarshalRead(http.MaxBytesReader(w, r.Body, maxPushBody), &ev); err != nil {
		http.Error(w, "malformed push notification: "+err.Error(), http.StatusBadRequest)
		return
	}
	if p.config != nil {
		if ev.ConfigID != "" && ev.ConfigID != p.config.ID {
			http.Error(w, "unknown push notification config "+ev.ConfigID, http.StatusBadRequest)
			return
		}
		if !p.config.Wants(ev.Event.Type) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	if err := p.handler(ctx, &ev); err != nil {
		p.logger.ErrorContext(ctx, "push notification handler failed",
			slog.String("task_id", ev.Event.TaskID),
			slog.Any("error", err),
		)
		http.Error(w, "handler failed", http.StatusInternalServerError)
		return
	}

	p.logger.DebugContext(ctx, "received push notification",
		slog.String("task_id", ev.Event.TaskID),
		slog.String("event_type", string(ev.Event.Type)),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (p *PushReceiver) usesJWT() bool {
	return p.jwtKey != nil || p.jwks != nil
}

func (p *PushReceiver) authenticate(r *http.Request) error {
	if p.usesJWT() {
		token, ok := bearerToken(r)
		if !ok {
			return &a2a.Error{Kind: a2a.KindPushNotification, Msg: "missing bearer token"}
		}
		if err := p.verifyJWT(r.Context(), token); err != nil {
			return &a2a.Error{Kind: a2a.KindPushNotification, Msg: "invalid JWT", Err: err}
		}
	}

	if p.auth == nil {
		return nil
	}
	switch p.auth.Type {
	case a2a.PushAuthBearer:
		if p.usesJWT() {
			break
		}
		token, ok := bearerToken(r)
		if !ok || !equalSecret(token, p.auth.Token) {
			return &a2a.Error{Kind: a2a.KindPushNotification, Msg: "bearer token mismatch"}
		}
	case a2a.PushAuthHeader:
		if !equalSecret(r.Header.Get(p.auth.Name), p.auth.Value) {
			return &a2a.Error{Kind: a2a.KindPushNotification, Msg: "header " + p.auth.Name + " mismatch"}
		}
	default:
		return &a2a.Error{Kind: a2a.KindPushNotification, Msg: "unsupported authentication type " + string(p.auth.Type)}
	}
	return nil
}

func (p *PushReceiver) verifyJWT(ctx context.Context, token string) error {
	tok, err := p.parseJWT(ctx, token)
	if err != nil && p.jwks != nil && p.jwks.invalidate() {
		// The agent may have rotated its keys since the set was cached.
		tok, err = p.parseJWT(ctx, token)
	}
	if err != nil {
		return err
	}
	if len(p.jwtValidate) > 0 {
		return jwt.Validate(tok, p.jwtValidate...)
	}
	return nil
}

func (p *PushReceiver) parseJWT(ctx context.Context, token string) (jwt.Token, error) {
	opts := []jwt.ParseOption{
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(30 * time.Second),
	}
	if p.jwks != nil {
		set, err := p.jwks.keySet(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, jwt.WithKeySet(set))
	} else {
		opts = append(opts, jwt.WithKey(p.jwtAlg, p.jwtKey))
	}
	return jwt.ParseString(token, opts...)
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

func equalSecret(got, want string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
