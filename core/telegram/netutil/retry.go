// Package netutil holds network helpers shared by the HTTP client and the sender.
package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// ShouldRetry reports whether err is a transient transport failure worth retrying:
// timeouts, dial failures, connection resets and unexpected EOFs. Telegram API
// errors (4xx/5xx replies) are never retried here.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	return false
}
