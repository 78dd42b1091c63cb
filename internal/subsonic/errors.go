package subsonic

import (
	"errors"
	"fmt"
)

// TransportError wraps a network-level failure or an unparseable response
// body. The two are deliberately indistinguishable to callers: a server
// answering HTML instead of JSON is as unreachable as one not answering.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("subsonic: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerError is a well-formed response with status "failed", carrying the
// server's error code and message.
type ServerError struct {
	Endpoint string
	Code     int
	Message  string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("subsonic: %s: server error %d: %s", e.Endpoint, e.Code, e.Message)
}

// IsFailure reports whether err belongs to the catalog failure taxonomy
// (transport or server). Every error the client returns does, so callers
// can treat any non-nil error as "the catalog had nothing".
func IsFailure(err error) bool {
	var te *TransportError
	var se *ServerError
	return errors.As(err, &te) || errors.As(err, &se)
}
