package api

import (
	"fmt"
	"strings"
)

// GenericSendFailure is shown when the backend rejects a send without a reason.
const GenericSendFailure = "failed to send message"

// NetworkFault means the request never completed.
type NetworkFault struct {
	Op  string
	Err error
}

func (f *NetworkFault) Error() string {
	return fmt.Sprintf("%s: network error: %v", f.Op, f.Err)
}

func (f *NetworkFault) Unwrap() error { return f.Err }

// ProtocolFault means the request completed but the body was unusable.
type ProtocolFault struct {
	Op     string
	Status int
	Err    error
}

func (f *ProtocolFault) Error() string {
	return fmt.Sprintf("%s: unexpected response (status=%d): %v", f.Op, f.Status, f.Err)
}

func (f *ProtocolFault) Unwrap() error { return f.Err }

// ApplicationFault is a non-2xx answer, optionally carrying the server's reason.
type ApplicationFault struct {
	Op      string
	Status  int
	Message string
}

func (f *ApplicationFault) Error() string {
	return fmt.Sprintf("%s: status %d: %s", f.Op, f.Status, f.Reason())
}

// Reason returns the server-provided message or a generic fallback.
func (f *ApplicationFault) Reason() string {
	if m := strings.TrimSpace(f.Message); m != "" {
		return m
	}
	return GenericSendFailure
}
