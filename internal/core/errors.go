package core

// Error codes for orchestration errors.
const (
	ErrCodeInvalidValue          = "invalid_value"
	ErrCodeUnknownTopic          = "unknown_topic"
	ErrCodeAlreadyActive         = "already_active"
	ErrCodePlacementFailed       = "placement_failed"
	ErrCodeProtocolError         = "protocol_error"
	ErrCodeTransportDisconnected = "transport_disconnected"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
