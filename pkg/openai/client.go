// Package openai is a client for the OpenAI HTTP API: model listing,
// single-shot completions and stateful chat sessions.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	DefaultBaseURL    = "https://api.openai.com"
	DefaultAPIVersion = 1
)

var defaultTransport Transport = NewHTTPTransport()

// Recorder receives every message appended to a session transcript.
type Recorder interface {
	Record(ctx context.Context, sessionID string, msg Message) error
}

// Config holds the client configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	APIVersion int
	Transport  Transport
	Logger     *slog.Logger
	Recorder   Recorder // optional
}

// DefaultConfig returns the configuration for the hosted API.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		APIVersion: DefaultAPIVersion,
		Transport:  defaultTransport,
		Logger:     slog.New(slog.DiscardHandler),
	}
}

// Client is the entry point of the package. It is safe for concurrent use.
type Client struct {
	ep       endpoint
	recorder Recorder
}

// New validates cfg and builds a client. Zero-valued optional fields fall back
// to DefaultConfig.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &Error{Op: "new client", Kind: ErrAPIKeyRequired}
	}
	def := DefaultConfig(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.APIVersion == 0 {
		cfg.APIVersion = def.APIVersion
	}
	if cfg.Transport == nil {
		cfg.Transport = def.Transport
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}

	return &Client{
		ep: endpoint{
			transport:  cfg.Transport,
			baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
			version:    cfg.APIVersion,
			authHeader: "Bearer " + cfg.APIKey,
			log:        cfg.Logger,
		},
		recorder: cfg.Recorder,
	}, nil
}

// StartChat opens an empty chat session on model.
func (c *Client) StartChat(model string) *Session {
	return newSession(model, c.ep, c.recorder)
}

// ListModels returns the models available to the account.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var list ModelList
	if err := c.ep.get(ctx, "list models", "models", &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// GetModel returns the metadata of a single model.
func (c *Client) GetModel(ctx context.Context, id string) (*Model, error) {
	var m Model
	if err := c.ep.get(ctx, "get model", "models/"+url.PathEscape(id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateCompletion runs a single-shot completion. The envelope is returned
// as received.
func (c *Client) CreateCompletion(ctx context.Context, params CompletionParams) (*Completion, error) {
	var out Completion
	if err := c.ep.post(ctx, "completion", "completions", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// endpoint binds a transport to one API base, version and credential.
type endpoint struct {
	transport  Transport
	baseURL    string
	version    int
	authHeader string
	log        *slog.Logger
}

func (e endpoint) url(path string) string {
	return fmt.Sprintf("%s/v%d/%s", e.baseURL, e.version, path)
}

func (e endpoint) header(withBody bool) http.Header {
	h := make(http.Header)
	h.Set("Authorization", e.authHeader)
	h.Set("Accept", "application/json")
	if withBody {
		h.Set("Content-Type", "application/json")
	}
	return h
}

func (e endpoint) get(ctx context.Context, op, path string, out any) error {
	u := e.url(path)
	status, body, err := e.transport.Get(ctx, u, e.header(false))
	return e.decode(op, u, status, body, err, out)
}

func (e endpoint) post(ctx context.Context, op, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return &Error{Op: op, Kind: ErrInvalidRequest, Err: err}
	}
	u := e.url(path)
	status, body, err := e.transport.Post(ctx, u, e.header(true), payload)
	return e.decode(op, u, status, body, err, out)
}

func (e endpoint) decode(op, u string, status int, body []byte, err error, out any) error {
	if err != nil {
		e.log.Debug("request failed", "op", op, "url", u, "error", err)
		return &Error{Op: op, Kind: ErrTransport, Err: err}
	}
	e.log.Debug("response received", "op", op, "url", u, "status", status, "bytes", len(body))

	if status < 200 || status > 299 {
		return statusError(op, status, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Op: op, StatusCode: status, Kind: ErrUnexpectedResponse, Err: err}
	}
	return nil
}
