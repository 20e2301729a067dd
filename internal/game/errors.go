package game

import "errors"

// ErrorKind classifies rejected engine calls.
type ErrorKind string

const (
	KindInvalidState      ErrorKind = "invalid_state_transition"
	KindInvalidInput      ErrorKind = "invalid_input"
	KindResourceExhausted ErrorKind = "resource_exhausted"
	KindProviderShortfall ErrorKind = "provider_shortfall"
)

// Error is a structured, non-fatal rejection. The engine state is unchanged when one is returned.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrSessionInactive     = &Error{Kind: KindInvalidState, Code: "session_inactive", Message: "session inactive"}
	ErrAlreadyAnswered     = &Error{Kind: KindInvalidState, Code: "already_answered", Message: "question already answered"}
	ErrNotAnswered         = &Error{Kind: KindInvalidState, Code: "not_answered", Message: "current question not answered yet"}
	ErrAnswerOutOfRange    = &Error{Kind: KindInvalidInput, Code: "answer_out_of_range", Message: "answer index out of range"}
	ErrInvalidOptions      = &Error{Kind: KindInvalidInput, Code: "invalid_options", Message: "invalid game options"}
	ErrUnknownLifeline     = &Error{Kind: KindInvalidInput, Code: "unknown_lifeline", Message: "unknown lifeline"}
	ErrLifelineUnavailable = &Error{Kind: KindInvalidInput, Code: "lifeline_unavailable", Message: "lifeline unavailable"}
	ErrLifelineUsed        = &Error{Kind: KindResourceExhausted, Code: "lifeline_used", Message: "lifeline already used"}
	ErrLifelineLimit       = &Error{Kind: KindResourceExhausted, Code: "lifeline_limit", Message: "lifeline limit reached"}
	ErrProviderShortfall   = &Error{Kind: KindProviderShortfall, Code: "provider_shortfall", Message: "not enough questions available"}
)

// KindOf extracts the kind of an engine error, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr.Kind
	}
	return ""
}

// CodeOf extracts the machine-readable code of an engine error.
func CodeOf(err error) string {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr.Code
	}
	return ""
}
