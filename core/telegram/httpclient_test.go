package telegram

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

type scriptedTransport struct {
	errs   []error
	calls  int
	bodies []string
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.calls++
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		s.bodies = append(s.bodies, string(b))
	}
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func dialErr() error { return &net.OpError{Op: "dial", Err: errors.New("connection refused")} }

func TestDialRetryRewindsBody(t *testing.T) {
	next := &scriptedTransport{errs: []error{dialErr(), dialErr()}}
	rt := &dialRetryTransport{next: next, retries: 2, backoff: time.Millisecond}

	req, _ := http.NewRequest(http.MethodPost, "https://api.telegram.org/x", strings.NewReader("photo"))
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	resp.Body.Close()
	if next.calls != 3 {
		t.Fatalf("calls = %d, want 3", next.calls)
	}
	for _, b := range next.bodies {
		if b != "photo" {
			t.Fatalf("body = %q, want rewound body", b)
		}
	}
}

func TestNoRetryAfterRequestWasSent(t *testing.T) {
	next := &scriptedTransport{errs: []error{&net.OpError{Op: "read", Err: errors.New("reset")}}}
	rt := &dialRetryTransport{next: next, retries: 3, backoff: time.Millisecond}

	req, _ := http.NewRequest(http.MethodPost, "https://api.telegram.org/x", strings.NewReader("photo"))
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatalf("expected error")
	}
	if next.calls != 1 {
		t.Fatalf("calls = %d, want 1", next.calls)
	}
}

func TestHTTPOptionsDefaults(t *testing.T) {
	o := HTTPOptions{DialRetries: -1}.withDefaults()
	if o.DialRetries != 0 || o.ResponseHeaderTimeout <= maxLongPollSeconds*time.Second {
		t.Fatalf("defaults = %+v", o)
	}
}
