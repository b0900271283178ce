// Package errors defines the typed error values returned across the
// codec, transport, and DNS-SD layers: truncation and malformed input
// surface as WireFormatError, caller argument mistakes surface as
// ValidationError, and transport failures surface as NetworkError.
package errors

import "fmt"

// WireFormatError reports a structural problem in an inbound DNS message:
// a read that would exceed the buffer, an out-of-bounds offset, or a
// detected compression loop or over-long pointer chain. Offset is the position in the buffer where
// the problem was found, for diagnostics; it is not authoritative once
// decompression has followed a pointer.
type WireFormatError struct {
	Reason string
	Offset int
}

func (e *WireFormatError) Error() string {
	return fmt.Sprintf("mdns: wire format error at offset %d: %s", e.Offset, e.Reason)
}

// ValidationError reports that a caller-supplied argument — a name, a
// label, a service type, an instance name — does not meet the shape
// rules this library enforces on write (RFC 1035 §2.3.1, §3.1; RFC 6763
// §4.3, §7).
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("mdns: invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("mdns: invalid %s %q: %s", e.Field, e.Value, e.Message)
}

// NetworkError wraps a failure from the transport layer: socket
// creation, multicast group join, send, or receive.
type NetworkError struct {
	Operation string
	Details   string
	Err       error
}

func (e *NetworkError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("mdns: %s: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("mdns: %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
