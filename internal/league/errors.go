package league

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure conditions the engine can return.
// Every user-facing operation resolves its own precondition failures into
// one of these; InternalInconsistency is the only non-recoverable kind.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUserNotRegistered
	KindUserAlreadyRegistered
	KindUserAlreadySignedIn
	KindUserNotSignedIn
	KindUnauthorized
	KindMatchNotFound
	KindMatchNotReady
	KindNoActiveSeason
	KindStorageUnavailable
	KindInternalInconsistency
)

func (k ErrorKind) String() string {
	switch k {
	case KindUserNotRegistered:
		return "UserNotRegistered"
	case KindUserAlreadyRegistered:
		return "UserAlreadyRegistered"
	case KindUserAlreadySignedIn:
		return "UserAlreadySignedIn"
	case KindUserNotSignedIn:
		return "UserNotSignedIn"
	case KindUnauthorized:
		return "Unauthorized"
	case KindMatchNotFound:
		return "MatchNotFound"
	case KindMatchNotReady:
		return "MatchNotReady"
	case KindNoActiveSeason:
		return "NoActiveSeason"
	case KindStorageUnavailable:
		return "StorageUnavailable"
	case KindInternalInconsistency:
		return "InternalInconsistency"
	}
	return "Unknown"
}

// Error is a failure with a kind the command shell can dispatch on.
// Match is populated for UserAlreadySignedIn so callers can point the
// player at the game they are already part of.
type Error struct {
	Kind  ErrorKind
	Msg   string
	Match *Match
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func E(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err, or KindUnknown if err is not a
// league error.
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnknown
}

// MatchOf returns the match attached to err, if any.
func MatchOf(err error) *Match {
	var le *Error
	if errors.As(err, &le) {
		return le.Match
	}
	return nil
}
