package chat

import "errors"

var (
	// ErrSessionNotFound means the chat metadata could not be loaded.
	ErrSessionNotFound = errors.New("no chat found")
	// ErrMessageFetch means the history could not be loaded; the list stays empty.
	ErrMessageFetch = errors.New("could not load messages")
	// ErrSendFailure means a message was not created; the compose buffer is kept.
	ErrSendFailure = errors.New("could not send message")
	// ErrChannel covers event channel failures. They are logged, never shown.
	ErrChannel = errors.New("event channel error")
	// ErrNotReady is returned by commands issued outside the Ready state or
	// while the history is still loading.
	ErrNotReady = errors.New("chat session not ready")
	// ErrStale is returned when a response arrives for a session that has
	// since been closed or replaced; the response is discarded.
	ErrStale = errors.New("chat session superseded")
)

// SendFailureAlert is the text shown to the user when a send fails.
const SendFailureAlert = "Could not send message. Please try again."
