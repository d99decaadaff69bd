package chat

import "errors"

var (
	// ErrEmptyMessage rejects sends whose content is empty after trimming.
	ErrEmptyMessage = errors.New("chat: message is empty")

	// ErrSendInFlight rejects a send while a previous turn is still awaiting
	// its finished signal.
	ErrSendInFlight = errors.New("chat: a message is already in flight")

	// ErrNoSession rejects sends before a session has been resolved.
	ErrNoSession = errors.New("chat: no active session")

	// ErrClosed is returned by operations on a closed service.
	ErrClosed = errors.New("chat: service is closed")
)

// failureReply is the assistant-authored notice appended to the transcript
// when a submission fails after the user message was already recorded.
const failureReply = "Xin lỗi, đã xảy ra lỗi khi xử lý tin nhắn của bạn."
