package repair

import "fmt"

// Error represents a failed criteria repair. Message is the reason shown
// to users.
type Error struct {
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("repair error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("repair error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// MsgParseFailed is reported when no usable criteria could be read from the reply.
const MsgParseFailed = "Failed to parse repair response"
