// Package protocol defines the MOTIS message envelope and the paxmon wire
// records exchanged with the backend.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Content types with special meaning in the envelope.
const (
	ContentTypeNoMessage  = "MotisNoMessage"
	ContentTypeMotisError = "MotisError"
	ContentTypeSuccess    = "MotisSuccess"
)

// DestinationModule is the only destination type used by paxmon requests.
const DestinationModule = "Module"

var (
	// ErrUnexpectedContentType indicates the response envelope declared a
	// different content type than the caller expected.
	ErrUnexpectedContentType = errors.New("unexpected content type")

	// ErrEmptyMessage is returned when an envelope is nil.
	ErrEmptyMessage = errors.New("empty message")
)

// codec is shared by every envelope and cache value encoding in the module.
// ConfigStd keeps encoding/json semantics (sorted map keys, RawMessage support).
var codec = sonic.ConfigStd

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) {
	return codec.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func Unmarshal(data []byte, v any) error {
	return codec.Unmarshal(data, v)
}

// Destination addresses a backend module.
type Destination struct {
	Type   string `json:"type"`
	Target string `json:"target"`
}

// Message is the generic MOTIS envelope. Content stays raw until the caller
// knows which type to decode it into.
type Message struct {
	Destination Destination     `json:"destination"`
	ContentType string          `json:"content_type"`
	Content     json.RawMessage `json:"content"`
	ID          int64           `json:"id"`
}

// NewRequest builds a request envelope for target. An empty contentType
// produces a MotisNoMessage request with an empty object as content.
func NewRequest(id int64, target, contentType string, content any) (*Message, error) {
	msg := &Message{
		Destination: Destination{Type: DestinationModule, Target: target},
		ContentType: contentType,
		ID:          id,
	}

	if contentType == "" {
		msg.ContentType = ContentTypeNoMessage
		msg.Content = json.RawMessage("{}")
		return msg, nil
	}

	if content == nil {
		msg.Content = json.RawMessage("{}")
		return msg, nil
	}

	data, err := Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", contentType, err)
	}
	msg.Content = data
	return msg, nil
}

// Decode unmarshals the envelope content into v.
func (m *Message) Decode(v any) error {
	if m == nil {
		return ErrEmptyMessage
	}
	if len(m.Content) == 0 {
		return Unmarshal([]byte("{}"), v)
	}
	if err := Unmarshal(m.Content, v); err != nil {
		return fmt.Errorf("decode %s: %w", m.ContentType, err)
	}
	return nil
}

// MotisError is the payload of a MotisError envelope.
type MotisError struct {
	ErrorCode int    `json:"error_code"`
	Category  string `json:"category"`
	Reason    string `json:"reason"`
}

// Error implements the error interface.
func (e *MotisError) Error() string {
	return fmt.Sprintf("motis error %d (%s): %s", e.ErrorCode, e.Category, e.Reason)
}

// AsMotisError decodes the envelope as a MotisError if it is one.
func AsMotisError(msg *Message) (*MotisError, bool) {
	if msg == nil || msg.ContentType != ContentTypeMotisError {
		return nil, false
	}
	var merr MotisError
	if err := msg.Decode(&merr); err != nil {
		merr.Reason = string(msg.Content)
	}
	return &merr, true
}

// ContentTypeError reports a content type mismatch. Err carries the backend
// error when the envelope was a MotisError.
type ContentTypeError struct {
	Expected string
	Actual   string
	Err      error
}

// Error implements the error interface.
func (e *ContentTypeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: expected %s, got %s: %v", ErrUnexpectedContentType, e.Expected, e.Actual, e.Err)
	}
	return fmt.Sprintf("%s: expected %s, got %s", ErrUnexpectedContentType, e.Expected, e.Actual)
}

// Is reports whether target is ErrUnexpectedContentType.
func (e *ContentTypeError) Is(target error) bool {
	return target == ErrUnexpectedContentType
}

// Unwrap returns the backend error, if any.
func (e *ContentTypeError) Unwrap() error {
	return e.Err
}

// VerifyContentType fails unless msg declares the expected content type.
func VerifyContentType(msg *Message, expected string) error {
	if msg == nil {
		return &ContentTypeError{Expected: expected, Err: ErrEmptyMessage}
	}
	if msg.ContentType == expected {
		return nil
	}
	cerr := &ContentTypeError{Expected: expected, Actual: msg.ContentType}
	if merr, ok := AsMotisError(msg); ok {
		cerr.Err = merr
	}
	return cerr
}
