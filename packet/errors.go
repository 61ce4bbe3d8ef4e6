package packet

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = errors.New("packet timed out")
	// ErrCanceled is the rejection reason of a cancelled Future.
	ErrCanceled = errors.New("packet canceled")
	// ErrPending is returned by Future.Result before settlement.
	ErrPending = errors.New("packet pending")
	// ErrProtocol matches every *ProtocolError.
	ErrProtocol = errors.New("packet protocol violation")
)

// TimeoutError reports a request whose response did not arrive within its
// tick budget.
type TimeoutError struct {
	Identifier string
	Channel    string
	Ticks      int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("packet '%s' timed out after %d ticks", e.Identifier, e.Ticks)
}

// Is makes errors.Is(err, ErrTimeout) hold.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// RemoteError is an application-level failure reported by the remote side as
// {error: true, message: "..."}.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// ProtocolError reports an inbound message that could not be handled: a
// malformed envelope or an unknown envelope type.
type ProtocolError struct {
	Channel string
	Reason  string
	Err     error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("packet protocol error on %q: %s: %v", e.Channel, e.Reason, e.Err)
	}
	return fmt.Sprintf("packet protocol error on %q: %s", e.Channel, e.Reason)
}

// Is makes errors.Is(err, ErrProtocol) hold.
func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

func (e *ProtocolError) Unwrap() error { return e.Err }

// AsRemoteError converts a response body following the {error, message}
// convention into a *RemoteError, or returns nil when the body reports
// success.
func AsRemoteError(b Body) error {
	if !b.GetBool("error") {
		return nil
	}
	msg := b.GetString("message")
	if msg == "" {
		msg = "remote error"
	}
	return &RemoteError{Message: msg}
}
