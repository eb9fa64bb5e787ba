package model

// MessageSeverity indicates how an error should be handled by the caller.
type MessageSeverity string

const (
	SeverityRecoverable   MessageSeverity = "recoverable"   // retry or fix input
	SeverityUnrecoverable MessageSeverity = "unrecoverable" // cannot proceed as-is
)

// Message is a user-facing notification emitted by cart operations.
type Message struct {
	Type     string `json:"type"`           // "error", "warning", "info"
	Code     string `json:"code,omitempty"` // e.g., "cart_updated", "upstream_error"
	Content  string `json:"content"`
	Severity string `json:"severity,omitempty"` // errors only
}

// NewErrorMessage creates an error message with required severity.
func NewErrorMessage(code, content string, severity MessageSeverity) Message {
	return Message{
		Type:     "error",
		Code:     code,
		Content:  content,
		Severity: string(severity),
	}
}

// NewInfoMessage creates an informational message.
func NewInfoMessage(code, content string) Message {
	return Message{
		Type:    "info",
		Code:    code,
		Content: content,
	}
}

// NewWarningMessage creates a warning message.
func NewWarningMessage(code, content string) Message {
	return Message{
		Type:    "warning",
		Code:    code,
		Content: content,
	}
}

// MessageForError converts err into an error message for the shopper.
func MessageForError(err error) Message {
	apiErr := AsAPIError(err)
	return NewErrorMessage(apiErr.Code, apiErr.Message, apiErr.Severity())
}
