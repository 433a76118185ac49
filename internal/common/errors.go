package common

import (
	"errors"
	"fmt"
)

// Kind classifies a business error for boundary handling.
// Callers switch on Kind at the HTTP boundary instead of on error
// subclasses.
type Kind int

// Error kinds
const (
	KindNotFound      Kind = iota + 1 // entity id unresolved or soft-deleted
	KindInvalidState                  // operation forbidden by current state
	KindNotAuthorized                 // actor lacks the required role
	KindInternal                      // unexpected persistence failure
)

// Error is the single tagged error type shared by all components.
// It carries an error kind, a stable machine-readable code and a
// human-readable message, plus an optional wrapped cause.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

// New creates a new tagged error
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches errors by code so detailed copies still match their sentinel
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetailf returns a copy of e with extra context in the message
func (e *Error) WithDetailf(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: fmt.Sprintf("%s: %s", e.Message, fmt.Sprintf(format, args...)),
		cause:   e.cause,
	}
}

// Wrap returns a copy of e wrapping cause
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, cause: cause}
}

// KindOf returns the Kind of err, defaulting to KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Internal wraps an unexpected persistence failure
func Internal(cause error) *Error {
	return ErrInternal.Wrap(cause)
}

// General errors
var (
	ErrInternal = New(KindInternal, "INTERNAL", "unexpected internal error")
)

// User errors
var (
	ErrUserNotFound    = New(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrUserDeactivated = New(KindInvalidState, "USER_DEACTIVATED", "user is deactivated")
	ErrUserExists      = New(KindInvalidState, "USER_EXISTS", "user already exists")
)

// Friend errors
var (
	ErrFriendAlreadyAccepted = New(KindInvalidState, "FRIEND_ALREADY_ACCEPTED", "friend request already accepted")
	ErrFriendStatus          = New(KindInvalidState, "FRIEND_STATUS", "current friend status forbids this transition")
	ErrFriendNotRequested    = New(KindInvalidState, "FRIEND_NOT_REQUESTED", "no pending friend request")
	ErrFriendBlocked         = New(KindInvalidState, "FRIEND_BLOCKED", "blocked by the target user")
	ErrFriendNotFound        = New(KindNotFound, "FRIEND_NOT_FOUND", "friend relation not found")
)

// Room errors
var (
	ErrRoomNotFound       = New(KindNotFound, "ROOM_NOT_FOUND", "room not found")
	ErrRoomOwnerNotFound  = New(KindNotFound, "ROOM_OWNER_NOT_FOUND", "room owner not found")
	ErrRoomMemberNotFound = New(KindNotFound, "ROOM_MEMBER_NOT_FOUND", "user is not a member of the room")
	ErrRoomAlreadyOwner   = New(KindInvalidState, "ROOM_ALREADY_OWNER", "user is already the room owner")
	ErrRoomNotOwner       = New(KindNotAuthorized, "ROOM_NOT_OWNER", "only the room owner may do this")
	ErrRoomNotParticipant = New(KindNotAuthorized, "ROOM_NOT_PARTICIPANT", "user is not a participant of the room")
)

// Memory errors
var (
	ErrMemoryNotFound          = New(KindNotFound, "MEMORY_NOT_FOUND", "memory not found")
	ErrMemoryWriterNotFound    = New(KindNotFound, "MEMORY_WRITER_NOT_FOUND", "memory writer not found")
	ErrMemoryWriterDeactivated = New(KindInvalidState, "MEMORY_WRITER_DEACTIVATED", "memory writer is deactivated")
	ErrMemoryNotWriter         = New(KindNotAuthorized, "MEMORY_NOT_WRITER", "only the memory writer may do this")
	ErrMemoryNotInRoom         = New(KindNotFound, "MEMORY_NOT_IN_ROOM", "memory is not attached to the room")
	ErrShareMemberNotFound     = New(KindNotFound, "SHARE_MEMBER_NOT_FOUND", "share target user not found")
	ErrShareRoomNotFound       = New(KindNotFound, "SHARE_ROOM_NOT_FOUND", "share target room not found")
	ErrShareTypeInvalid        = New(KindInvalidState, "SHARE_TYPE_INVALID", "unknown share type")
	ErrAttendanceStatusInvalid = New(KindInvalidState, "ATTENDANCE_STATUS_INVALID", "unknown attendance status")
)
