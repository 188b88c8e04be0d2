package fetch

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// IsTransient classifies an upstream fetch error as a connectivity-class
// failure worth a stale fallback. Application-level failures (authorization,
// not-found responses surfaced as errors, malformed requests) are not
// transient: serving stale data would mask a real problem.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// A caller-initiated cancel is not a connectivity failure.
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.EPIPE,
		syscall.EHOSTUNREACH,
		syscall.ENETUNREACH,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}

	// Connection dropped mid-response.
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) {
		return temp.Temporary()
	}

	return false
}
