package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// StringOrList is either a single string or an ordered list of strings.
// The wire format mirrors the variant: a bare JSON string or a JSON array.
type StringOrList struct {
	values []string
	list   bool
}

// Stop is the stop condition of a chat or completion request.
type Stop = StringOrList

// Prompt is the prompt of a completion request.
type Prompt = StringOrList

// NewStringOrList returns the string variant for exactly one value and the
// list variant otherwise.
func NewStringOrList(values ...string) StringOrList {
	return StringOrList{values: slices.Clone(values), list: len(values) != 1}
}

// StringList always returns the list variant, even for a single value.
func StringList(values ...string) StringOrList {
	if values == nil {
		values = []string{}
	}
	return StringOrList{values: slices.Clone(values), list: true}
}

// IsList reports whether s holds the list variant.
func (s StringOrList) IsList() bool { return s.list }

// Values returns the held strings in order.
func (s StringOrList) Values() []string { return slices.Clone(s.values) }

// MarshalJSON implements json.Marshaler. The zero value holds no strings and
// is written as an empty list.
func (s StringOrList) MarshalJSON() ([]byte, error) {
	if len(s.values) == 0 {
		return []byte("[]"), nil
	}
	if s.list {
		return json.Marshal(s.values)
	}
	return json.Marshal(s.values[0])
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringOrList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringOrList{values: []string{single}}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected a string or a list of strings: %w", err)
	}
	*s = StringList(list...)
	return nil
}

// Ptr returns a pointer to v. Handy for the optional request parameters.
func Ptr[T any](v T) *T { return &v }

// ChatParams holds the optional generation parameters of a chat request.
// Nil fields are left out of the request body.
type ChatParams struct {
	Temperature      *float32 `json:"temperature,omitempty"`
	TopP             *float32 `json:"top_p,omitempty"`
	N                *int     `json:"n,omitempty"`
	Stream           *bool    `json:"stream,omitempty"`
	Stop             *Stop    `json:"stop,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	PresencePenalty  *float32 `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float32 `json:"frequency_penalty,omitempty"`
	User             *string  `json:"user,omitempty"`
}

// chatRequest is the body posted to the chat completions endpoint.
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	ChatParams
}

// Usage reports the tokens consumed by a request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the envelope returned by the chat completions endpoint.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Choices []ChatChoice `json:"choices"`
	Usage   Usage        `json:"usage"`
}

// ChatChoice is one candidate reply.
type ChatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// CompletionParams is the body posted to the completions endpoint.
type CompletionParams struct {
	Model            string             `json:"model"`
	Prompt           *Prompt            `json:"prompt,omitempty"`
	Suffix           *string            `json:"suffix,omitempty"`
	MaxTokens        *int               `json:"max_tokens,omitempty"`
	Temperature      *float32           `json:"temperature,omitempty"`
	TopP             *float32           `json:"top_p,omitempty"`
	N                *int               `json:"n,omitempty"`
	Stream           *bool              `json:"stream,omitempty"`
	LogProbs         *int               `json:"logprobs,omitempty"`
	Echo             *bool              `json:"echo,omitempty"`
	Stop             *Stop              `json:"stop,omitempty"`
	PresencePenalty  *float32           `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float32           `json:"frequency_penalty,omitempty"`
	BestOf           *int               `json:"best_of,omitempty"`
	LogitBias        map[string]float32 `json:"logit_bias,omitempty"`
	User             *string            `json:"user,omitempty"`
}

// NewCompletionParams returns params for a single string prompt.
func NewCompletionParams(model, prompt string) CompletionParams {
	p := NewStringOrList(prompt)
	return CompletionParams{Model: model, Prompt: &p}
}

// Completion is the envelope returned by the completions endpoint.
type Completion struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   Usage              `json:"usage"`
}

// CompletionChoice is one candidate completion.
type CompletionChoice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
}

// Model describes a model available to the account.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created,omitempty"`
	OwnedBy string `json:"owned_by"`
}

// ModelList is the envelope returned by the models endpoint.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}
