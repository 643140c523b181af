package errors

import (
	sterrors "errors"
	"fmt"
)

// Document errors abort an invocation before any transport is opened.
var (
	ErrDocumentNotFound  = sterrors.New("playerflow: document not found")
	ErrMalformedDocument = sterrors.New("playerflow: malformed xml document")
	ErrInvalidRoot       = sterrors.New("playerflow: invalid xml document root")
	ErrEmptyDocument     = sterrors.New("playerflow: xml document contains no player data")
)

// Diagnostics are logged and skipped; they never fail a batch.
var (
	ErrUnknownNode       = sterrors.New("playerflow: unknown node type")
	ErrInvalidNode       = sterrors.New("playerflow: invalid node")
	ErrDuplicateNode     = sterrors.New("playerflow: duplicate node")
	ErrUnknownRecordType = sterrors.New("playerflow: unknown record type")
)

var (
	ErrPublishFailed             = sterrors.New("playerflow: publish failed")
	ErrPublisherRequired         = sterrors.New("playerflow: publisher is required")
	ErrTopicRequired             = sterrors.New("playerflow: topic is required")
	ErrConfigRequired            = sterrors.New("playerflow: configuration is required")
	ErrLoggerRequired            = sterrors.New("playerflow: logger is required")
	ErrEventRequired             = sterrors.New("playerflow: event payload is required")
	ErrNonTransactionalTransport = sterrors.New("playerflow: transport does not support transactional publishing")
)

// PublishError wraps a transport failure that happened while a batch was in
// flight. The transport has rolled the batch back by the time it is returned.
type PublishError struct {
	Transport string
	Events    int
	Err       error
}

func (e *PublishError) Error() string {
	if e.Transport == "" {
		return fmt.Sprintf("playerflow: publish of %d events failed: %v", e.Events, e.Err)
	}
	return fmt.Sprintf("playerflow: publish of %d events via %s failed: %v", e.Events, e.Transport, e.Err)
}

func (e *PublishError) Unwrap() []error {
	return []error{ErrPublishFailed, e.Err}
}

// NewPublishError returns nil when err is nil.
func NewPublishError(transport string, events int, err error) error {
	if err == nil {
		return nil
	}
	return &PublishError{Transport: transport, Events: events, Err: err}
}

// ConfigValidationError reports an invalid configuration.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return "playerflow: invalid configuration: " + e.Err.Error()
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError returns nil when err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}
