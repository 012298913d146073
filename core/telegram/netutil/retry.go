// Package netutil classifies transport errors from Bot API calls.
package netutil

import (
	"errors"
	"net"
)

// ShouldRetry reports whether a failed call may succeed when repeated:
// the connection was never made, or the network timed out.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if IsDialError(err) {
		return true
	}
	// *url.Error and *net.OpError both report the timeout of what they wrap.
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsDialError reports whether err happened before a connection was made,
// so the request never reached the server.
func IsDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
