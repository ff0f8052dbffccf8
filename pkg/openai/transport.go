package openai

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultTimeout bounds a single HTTP exchange of the default transport.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps the response body read by HTTPTransport.
	MaxResponseSize = 10 * 1024 * 1024
)

var (
	// ErrInsecureURL is returned by HTTPTransport for non-https URLs,
	// including redirect targets.
	ErrInsecureURL = errors.New("refusing non-https url")

	// ErrResponseTooLarge is returned when a body exceeds MaxResponseSize.
	ErrResponseTooLarge = errors.New("response body too large")
)

// Transport performs the raw HTTP exchanges. It holds no conversation state
// and may be shared by any number of clients and sessions.
type Transport interface {
	Get(ctx context.Context, url string, header http.Header) (status int, body []byte, err error)
	Post(ctx context.Context, url string, header http.Header, body []byte) (status int, respBody []byte, err error)
}

// HTTPTransport is the net/http backed Transport.
type HTTPTransport struct {
	Client *http.Client

	// AllowInsecure lets plain http URLs through. Meant for local servers and tests.
	AllowInsecure bool
}

// NewHTTPTransport returns a transport with a pooled, TLS 1.2+ client.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		Client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			},
			Timeout: DefaultTimeout,
		},
	}
}

// Get implements Transport.
func (t *HTTPTransport) Get(ctx context.Context, rawURL string, header http.Header) (int, []byte, error) {
	return t.do(ctx, http.MethodGet, rawURL, header, nil)
}

// Post implements Transport.
func (t *HTTPTransport) Post(ctx context.Context, rawURL string, header http.Header, body []byte) (int, []byte, error) {
	return t.do(ctx, http.MethodPost, rawURL, header, body)
}

func (t *HTTPTransport) do(ctx context.Context, method, rawURL string, header http.Header, body []byte) (int, []byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, nil, err
	}
	if u.Scheme != "https" && !t.AllowInsecure {
		return 0, nil, fmt.Errorf("%w: %s", ErrInsecureURL, u.Redacted())
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header = header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	client := http.DefaultClient
	if t.Client != nil {
		client = t.Client
	}
	// Shallow copy so redirects are vetted without touching the caller's client.
	c := *client
	c.CheckRedirect = t.checkRedirect(client.CheckRedirect)
	resp, err := c.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return 0, nil, err
	}
	if len(respBody) > MaxResponseSize {
		return 0, nil, fmt.Errorf("%w: exceeds %d bytes", ErrResponseTooLarge, MaxResponseSize)
	}
	return resp.StatusCode, respBody, nil
}

// checkRedirect refuses to follow a redirect off https, so the Authorization
// header never leaves TLS. next is the client's own policy, if any.
func (t *HTTPTransport) checkRedirect(next func(*http.Request, []*http.Request) error) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if req.URL.Scheme != "https" && !t.AllowInsecure {
			return fmt.Errorf("%w: redirect to %s", ErrInsecureURL, req.URL.Redacted())
		}
		if next != nil {
			return next(req, via)
		}
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}
}
