package netutil

import (
	"errors"
	"net"
	"net/url"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return false }

func TestShouldRetry(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("chat not found"), false},
		{"timeout", timeoutErr{}, true},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"url wrapping dial", &url.Error{Op: "Post", URL: "https://api", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}, true},
		{"url wrapping plain", &url.Error{Op: "Post", URL: "https://api", Err: errors.New("eof")}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldRetry(tc.err); got != tc.want {
				t.Fatalf("ShouldRetry(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsDialError(t *testing.T) {
	if !IsDialError(&url.Error{Op: "Post", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}) {
		t.Fatalf("dial error not detected")
	}
	if IsDialError(timeoutErr{}) {
		t.Fatalf("timeout is not a dial error")
	}
}
