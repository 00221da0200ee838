// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// JSONRPCVersion is the JSON-RPC protocol version.
const JSONRPCVersion = "2.0"

// Method is an A2A JSON-RPC method name.
type Method string

// A2A JSON-RPC method names.
const (
	// MethodSendMessage sends a message, creating or continuing a task.
	MethodSendMessage Method = "message/send"
	// MethodSendStreamingMessage sends a message and streams task events.
	MethodSendStreamingMessage Method = "message/stream"
	// MethodGetTask retrieves a task.
	MethodGetTask Method = "tasks/get"
	// MethodListTasks lists tasks matching filters.
	MethodListTasks Method = "tasks/list"
	// MethodCancelTask cancels a task.
	MethodCancelTask Method = "tasks/cancel"
	// MethodSubscribeTask streams events of an existing task.
	MethodSubscribeTask Method = "tasks/subscribe"
	// MethodCreatePushNotification creates a push notification config.
	MethodCreatePushNotification Method = "tasks/pushNotification/create"
	// MethodGetPushNotification retrieves a push notification config.
	MethodGetPushNotification Method = "tasks/pushNotification/get"
	// MethodListPushNotifications lists the push notification configs of a task.
	MethodListPushNotifications Method = "tasks/pushNotification/list"
	// MethodDeletePushNotification deletes a push notification config.
	MethodDeletePushNotification Method = "tasks/pushNotification/delete"
	// MethodGetExtendedAgentCard retrieves the authenticated extended agent card.
	MethodGetExtendedAgentCard Method = "agent/authenticatedExtendedCard"
)

// IsStreaming reports whether m is answered with an event stream.
func (m Method) IsStreaming() bool {
	return m == MethodSendStreamingMessage || m == MethodSubscribeTask
}

// ID is a JSON-RPC request identifier: a number or a string.
type ID struct {
	value any // int64, float64 or string
}

// NewIntID returns a numeric ID.
func NewIntID(n int64) ID {
	return ID{value: n}
}

// NewStringID returns a string ID.
func NewStringID(s string) ID {
	return ID{value: s}
}

// NewRequestID returns a numeric ID derived from the current time in nanoseconds.
func NewRequestID() ID {
	n := time.Now().UnixNano() % math.MaxInt64
	if n <= 0 {
		n = 1
	}
	return NewIntID(n)
}

// IsZero reports whether id is unset.
func (id ID) IsZero() bool {
	return id.value == nil
}

// Raw returns the underlying int64, float64 or string value.
func (id ID) Raw() any {
	return id.value
}

// Equal reports whether id and other are the same identifier.
func (id ID) Equal(other ID) bool {
	return id.value == other.value
}

// String implements [fmt.Stringer].
func (id ID) String() string {
	switch v := id.value.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON implements [json.Marshaler].
func (id ID) MarshalJSON() ([]byte, error) {
	if id.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (id *ID) UnmarshalJSON(data []byte) error {
	switch jsontext.Value(data).Kind() {
	case 'n':
		*id = ID{}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NewStringID(s)
	case '0':
		if n, err := strconv.ParseInt(string(data), 10, 64); err == nil {
			*id = NewIntID(n)
			return nil
		}
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid JSON-RPC id %s", data)
		}
		*id = ID{value: f}
	default:
		return fmt.Errorf("JSON-RPC id must be a number or string, got %s", data)
	}
	return nil
}

// JSONRPCRequest is a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  Method         `json:"method"`
	Params  jsontext.Value `json:"params,omitzero"`
	ID      ID             `json:"id"`
}

// NewRequest creates a request for method with a fresh [NewRequestID].
// A nil params omits the params member.
func NewRequest(method Method, params any) (*JSONRPCRequest, error) {
	req := &JSONRPCRequest{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		ID:      NewRequestID(),
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, &Error{Kind: KindSerialization, Op: string(method), Msg: "encode params", Err: err}
		}
		req.Params = raw
	}
	return req, nil
}

// SendMessageParams are the params of message/send and message/stream.
//
// An empty TaskID creates a new task; a set TaskID continues that task.
type SendMessageParams struct {
	Message   *Message       `json:"message"`
	TaskID    string         `json:"taskId,omitzero"`
	ContextID string         `json:"contextId,omitzero"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// PushNotificationParams identify a push notification config.
type PushNotificationParams struct {
	ConfigID string `json:"configId,omitzero"`
	TaskID   string `json:"taskId"`
}

// NewSendMessageRequest creates a message/send request.
func NewSendMessageRequest(params *SendMessageParams) (*JSONRPCRequest, error) {
	return NewRequest(MethodSendMessage, params)
}

// NewSendStreamingMessageRequest creates a message/stream request.
func NewSendStreamingMessageRequest(params *SendMessageParams) (*JSONRPCRequest, error) {
	return NewRequest(MethodSendStreamingMessage, params)
}

// NewGetTaskRequest creates a tasks/get request.
func NewGetTaskRequest(taskID string) (*JSONRPCRequest, error) {
	return NewRequest(MethodGetTask, TaskIDParams{TaskID: taskID})
}

// NewListTasksRequest creates a tasks/list request.
func NewListTasksRequest(params TaskQueryParams) (*JSONRPCRequest, error) {
	return NewRequest(MethodListTasks, params)
}

// NewCancelTaskRequest creates a tasks/cancel request.
func NewCancelTaskRequest(taskID string) (*JSONRPCRequest, error) {
	return NewRequest(MethodCancelTask, TaskIDParams{TaskID: taskID})
}

// NewSubscribeTaskRequest creates a tasks/subscribe request.
func NewSubscribeTaskRequest(taskID string) (*JSONRPCRequest, error) {
	return NewRequest(MethodSubscribeTask, TaskIDParams{TaskID: taskID})
}

// NewCreatePushNotificationRequest creates a tasks/pushNotification/create request.
func NewCreatePushNotificationRequest(config *PushNotificationConfig) (*JSONRPCRequest, error) {
	return NewRequest(MethodCreatePushNotification, config)
}

// NewGetPushNotificationRequest creates a tasks/pushNotification/get request.
func NewGetPushNotificationRequest(configID, taskID string) (*JSONRPCRequest, error) {
	return NewRequest(MethodGetPushNotification, PushNotificationParams{ConfigID: configID, TaskID: taskID})
}

// NewListPushNotificationsRequest creates a tasks/pushNotification/list request.
func NewListPushNotificationsRequest(taskID string) (*JSONRPCRequest, error) {
	return NewRequest(MethodListPushNotifications, PushNotificationParams{TaskID: taskID})
}

// NewDeletePushNotificationRequest creates a tasks/pushNotification/delete request.
func NewDeletePushNotificationRequest(configID, taskID string) (*JSONRPCRequest, error) {
	return NewRequest(MethodDeletePushNotification, PushNotificationParams{ConfigID: configID, TaskID: taskID})
}

// NewGetExtendedAgentCardRequest creates an agent/authenticatedExtendedCard request.
func NewGetExtendedAgentCardRequest() (*JSONRPCRequest, error) {
	return NewRequest(MethodGetExtendedAgentCard, nil)
}

// JSONRPCResponse is a JSON-RPC 2.0 response.
//
// Result and Error are mutually exclusive.
type JSONRPCResponse struct {
	JSONRPC string         `json:"jsonrpc"`
	Result  jsontext.Value `json:"result,omitzero"`
	Error   *JSONRPCError  `json:"error,omitzero"`
	ID      ID             `json:"id"`
}

// NewSuccessResponse creates a response carrying result.
func NewSuccessResponse(id ID, result any) (*JSONRPCResponse, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, &Error{Kind: KindSerialization, Msg: "encode result", Err: err}
	}
	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		Result:  raw,
		ID:      id,
	}, nil
}

// NewErrorResponse creates a response carrying rpcErr.
func NewErrorResponse(id ID, rpcErr *JSONRPCError) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		Error:   rpcErr,
		ID:      id,
	}
}

// IsError reports whether r carries an error.
func (r *JSONRPCResponse) IsError() bool {
	return r.Error != nil
}

// Validate checks the envelope invariants of r.
func (r *JSONRPCResponse) Validate() error {
	if r.JSONRPC != JSONRPCVersion {
		return fmt.Errorf("unsupported jsonrpc version %q", r.JSONRPC)
	}
	if r.Error != nil && !isNull(r.Result) {
		return fmt.Errorf("response carries both result and error")
	}
	if r.Error == nil && r.Result == nil {
		return fmt.Errorf("response carries neither result nor error")
	}
	return nil
}

// IntoResult returns the raw result, or the remote error as a [*JSONRPCError].
// The error wins when both are present.
func (r *JSONRPCResponse) IntoResult() (jsontext.Value, error) {
	if r.Error != nil {
		return nil, r.Error
	}
	if r.Result == nil {
		return jsontext.Value("null"), nil
	}
	return r.Result, nil
}

// isNull reports whether v is absent or the JSON literal null.
func isNull(v jsontext.Value) bool {
	return v == nil || string(bytes.TrimSpace(v)) == "null"
}

// DecodeResult decodes the result of r into a T.
//
// A remote error is returned as a [*JSONRPCError]; a decoding failure matches
// [ErrSerialization].
func DecodeResult[T any](r *JSONRPCResponse) (T, error) {
	var v T
	raw, err := r.IntoResult()
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, &Error{Kind: KindSerialization, Msg: "decode result", Err: err}
	}
	return v, nil
}

// Standard JSON-RPC 2.0 error codes.
const (
	// CodeParseError indicates invalid JSON.
	CodeParseError = -32700
	// CodeInvalidRequest indicates the request is not a valid request object.
	CodeInvalidRequest = -32600
	// CodeMethodNotFound indicates the method does not exist.
	CodeMethodNotFound = -32601
	// CodeInvalidParams indicates invalid method parameters.
	CodeInvalidParams = -32602
	// CodeInternalError indicates an internal server error.
	CodeInternalError = -32603
)

// A2A reserved error codes.
const (
	// CodeTaskNotFound indicates the task does not exist.
	CodeTaskNotFound = -32001
	// CodeTaskNotCancelable indicates the task is in a terminal state.
	CodeTaskNotCancelable = -32002
	// CodePushNotificationNotSupported indicates the agent has no push notifications.
	CodePushNotificationNotSupported = -32003
	// CodeUnsupportedOperation indicates the operation is not supported.
	CodeUnsupportedOperation = -32004
	// CodeContentTypeNotSupported indicates a media type mismatch.
	CodeContentTypeNotSupported = -32005
)

// IsReservedCode reports whether code lies in a range reserved by JSON-RPC or A2A.
// Servers extending the protocol must use codes outside these ranges.
func IsReservedCode(code int) bool {
	return (code >= -32768 && code <= -32000)
}

// JSONRPCError is a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitzero"`
}

var _ error = (*JSONRPCError)(nil)

// Error implements the error interface.
func (e *JSONRPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("JSON-RPC error %d: %s: %v", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

// Is reports whether target is the sentinel matching the code of e.
func (e *JSONRPCError) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	switch t.Kind {
	case KindJSONRPC:
		return true
	case KindTaskNotFound:
		return e.Code == CodeTaskNotFound
	case KindPushNotification:
		return e.Code == CodePushNotificationNotSupported
	case KindUnsupported:
		return e.Code == CodeUnsupportedOperation || e.Code == CodeMethodNotFound
	default:
		return false
	}
}

// NewParseError creates a -32700 error.
func NewParseError(detail string) *JSONRPCError {
	return &JSONRPCError{Code: CodeParseError, Message: "Parse error", Data: detail}
}

// NewInvalidRequestError creates a -32600 error.
func NewInvalidRequestError(detail string) *JSONRPCError {
	return &JSONRPCError{Code: CodeInvalidRequest, Message: "Invalid Request", Data: detail}
}

// NewMethodNotFoundError creates a -32601 error.
func NewMethodNotFoundError(method string) *JSONRPCError {
	return &JSONRPCError{Code: CodeMethodNotFound, Message: "Method not found", Data: "Unknown method: " + method}
}

// NewInvalidParamsError creates a -32602 error.
func NewInvalidParamsError(detail string) *JSONRPCError {
	return &JSONRPCError{Code: CodeInvalidParams, Message: "Invalid params", Data: detail}
}

// NewInternalError creates a -32603 error.
func NewInternalError(detail string) *JSONRPCError {
	return &JSONRPCError{Code: CodeInternalError, Message: "Internal error", Data: detail}
}

// NewTaskNotFoundError creates a -32001 error.
func NewTaskNotFoundError(taskID string) *JSONRPCError {
	return &JSONRPCError{Code: CodeTaskNotFound, Message: "Task not found", Data: "Task " + taskID + " not found"}
}

// NewTaskNotCancelableError creates a -32002 error.
func NewTaskNotCancelableError(taskID string) *JSONRPCError {
	return &JSONRPCError{Code: CodeTaskNotCancelable, Message: "Task not cancelable", Data: "Task " + taskID + " is in a terminal state"}
}

// NewPushNotificationNotSupportedError creates a -32003 error.
func NewPushNotificationNotSupportedError() *JSONRPCError {
	return &JSONRPCError{Code: CodePushNotificationNotSupported, Message: "Push Notification is not supported"}
}

// NewUnsupportedOperationError creates a -32004 error.
func NewUnsupportedOperationError() *JSONRPCError {
	return &JSONRPCError{Code: CodeUnsupportedOperation, Message: "This operation is not supported"}
}

// NewContentTypeNotSupportedError creates a -32005 error.
func NewContentTypeNotSupportedError() *JSONRPCError {
	return &JSONRPCError{Code: CodeContentTypeNotSupported, Message: "Content type not supported"}
}
