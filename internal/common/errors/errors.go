// Package errors provides the structured error taxonomy shared by the
// analysis engine, the HTTP API and the workflow worker.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInputMissing   ErrorCode = "INPUT_MISSING"
	ErrCodeInputMalformed ErrorCode = "INPUT_MALFORMED"

	ErrCodeClassifierUnavailable ErrorCode = "CLASSIFIER_UNAVAILABLE"
	ErrCodeClassifierTimeout     ErrorCode = "CLASSIFIER_TIMEOUT"

	ErrCodeTranscriptSaveFailed ErrorCode = "TRANSCRIPT_SAVE_FAILED"
	ErrCodeTranscriptNotFound   ErrorCode = "TRANSCRIPT_NOT_FOUND"

	ErrCodeAlertSendFailed ErrorCode = "ALERT_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError carrying the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInputMissingError reports an absent or empty ResponseSet.
func NewInputMissingError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputMissing,
		Message:   "No responses to analyze",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInputMalformedError reports a payload that is not a question→answer mapping.
func NewInputMalformedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputMalformed,
		Message:   "Responses are not a valid question to answer mapping",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassifierUnavailableError wraps a failed sentiment classifier call.
func NewClassifierUnavailableError(backend string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifierUnavailable,
		Message:   fmt.Sprintf("Sentiment classifier '%s' unavailable", backend),
		Details:   errString(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewClassifierTimeoutError reports a classifier call that hit its deadline.
func NewClassifierTimeoutError(backend string, timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifierTimeout,
		Message:   fmt.Sprintf("Sentiment classifier '%s' timeout", backend),
		Details:   fmt.Sprintf("call exceeded %s", timeout),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTranscriptSaveFailedError wraps a transcript persistence failure.
func NewTranscriptSaveFailedError(store string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTranscriptSaveFailed,
		Message:   fmt.Sprintf("Failed to save transcript to %s", store),
		Details:   errString(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewTranscriptNotFoundError reports a missing transcript.
func NewTranscriptNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTranscriptNotFound,
		Message:   "Transcript not found",
		Details:   fmt.Sprintf("transcriptId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlertSendFailedError wraps a notification channel failure.
func NewAlertSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlertSendFailed,
		Message:   fmt.Sprintf("Alert delivery via %s failed", channel),
		Details:   errString(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInternalError is the catch-all for unexpected failures.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   errString(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputMissing:          "INPUT_MISSING",
	ErrCodeInputMalformed:        "INPUT_MALFORMED",
	ErrCodeClassifierUnavailable: "CLASSIFIER_UNAVAILABLE",
	ErrCodeClassifierTimeout:     "CLASSIFIER_TIMEOUT",
	ErrCodeTranscriptSaveFailed:  "TRANSCRIPT_SAVE_FAILED",
	ErrCodeTranscriptNotFound:    "TRANSCRIPT_NOT_FOUND",
	ErrCodeAlertSendFailed:       "ALERT_SEND_FAILED",
}

// GetRetryCount returns the recommended job retry budget for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeClassifierUnavailable,
		ErrCodeTranscriptSaveFailed,
		ErrCodeAlertSendFailed:
		return 3

	case ErrCodeClassifierTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError finds a StandardError anywhere in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// IsInputError reports the two codes that mean "no analysis available".
func IsInputError(err error) bool {
	return HasCode(err, ErrCodeInputMissing) || HasCode(err, ErrCodeInputMalformed)
}

// IsClassifierError reports a failed or timed out classifier call.
func IsClassifierError(err error) bool {
	return HasCode(err, ErrCodeClassifierUnavailable) || HasCode(err, ErrCodeClassifierTimeout)
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "INPUT"):
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "CLASSIFIER"):
		return "CLASSIFIER"
	case strings.HasPrefix(codeStr, "TRANSCRIPT"):
		return "STORAGE"
	case strings.HasPrefix(codeStr, "ALERT"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
