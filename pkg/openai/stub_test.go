package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

type stubResponse struct {
	status int
	body   string
	err    error
}

// stubTransport mirrors Transport. Responses come from handler when set,
// otherwise from the scripted queue.
type stubTransport struct {
	mu        sync.Mutex
	requests  []stubRequest
	responses []stubResponse
	handler   func(ctx context.Context, req stubRequest) (int, []byte, error)
}

func scripted(responses ...stubResponse) *stubTransport {
	return &stubTransport{responses: responses}
}

func (s *stubTransport) Get(ctx context.Context, url string, header http.Header) (int, []byte, error) {
	return s.do(ctx, stubRequest{Method: http.MethodGet, URL: url, Header: header})
}

func (s *stubTransport) Post(ctx context.Context, url string, header http.Header, body []byte) (int, []byte, error) {
	return s.do(ctx, stubRequest{Method: http.MethodPost, URL: url, Header: header, Body: body})
}

func (s *stubTransport) do(ctx context.Context, req stubRequest) (int, []byte, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	handler := s.handler
	if handler != nil {
		s.mu.Unlock()
		return handler(ctx, req)
	}
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	if len(s.responses) == 0 {
		panic("stubTransport: no more responses configured for " + req.URL)
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	if resp.err != nil {
		return 0, nil, resp.err
	}
	return resp.status, []byte(resp.body), nil
}

func (s *stubTransport) Requests() []stubRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stubRequest(nil), s.requests...)
}

func newTestClient(t *testing.T, tr Transport) *Client {
	t.Helper()
	c, err := New(Config{APIKey: "sk-test", BaseURL: "https://api.example.com/", Transport: tr})
	require.NoError(t, err)
	return c
}

func chatBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1677652288,
		"choices": []any{map[string]any{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 9, "completion_tokens": 3, "total_tokens": 12},
	})
	return string(b)
}

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	return m
}
