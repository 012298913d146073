package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/postbot/core/telegram/netutil"
)

// HTTPOptions tunes BuildHTTPClient. Zero values select the defaults.
type HTTPOptions struct {
	DialTimeout time.Duration
	// ResponseHeaderTimeout must exceed the long-poll timeout.
	ResponseHeaderTimeout time.Duration
	Timeout               time.Duration
	// DialRetries defaults to 3; a negative value disables retries.
	DialRetries int
	DialBackoff time.Duration
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.ResponseHeaderTimeout <= 0 {
		o.ResponseHeaderTimeout = 20 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Minute
	}
	switch {
	case o.DialRetries == 0:
		o.DialRetries = 3
	case o.DialRetries < 0:
		o.DialRetries = 0
	}
	if o.DialBackoff <= 0 {
		o.DialBackoff = 2 * time.Second
	}
	return o
}

// BuildHTTPClient returns the client used for Bot API calls.
// Only requests that never reached the server are repeated, so a photo the
// API may have accepted is not posted twice.
func BuildHTTPClient(opts HTTPOptions) *http.Client {
	opts = opts.withDefaults()
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: opts.DialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &dialRetryTransport{
			next:    transport,
			retries: opts.DialRetries,
			backoff: opts.DialBackoff,
		},
	}
}

type dialRetryTransport struct {
	next    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *dialRetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	attempt := req
	for n := 1; ; n++ {
		resp, err := t.next.RoundTrip(attempt)
		if err == nil || n > t.retries || !netutil.IsDialError(err) {
			return resp, err
		}
		if req.Body != nil && req.GetBody == nil {
			return nil, err
		}

		timer := time.NewTimer(t.backoff * time.Duration(n))
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}

		attempt = req.Clone(req.Context())
		if req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, bodyErr
			}
			attempt.Body = body
		}
	}
}
