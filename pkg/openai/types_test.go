package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringOrList_JSON(t *testing.T) {
	tests := []struct {
		name    string
		value   StringOrList
		wire    string
		isList  bool
		decoded *StringOrList // nil: same as value
	}{
		{"single", NewStringOrList("\n"), `"\n"`, false, nil},
		{"several", NewStringOrList("a", "b"), `["a","b"]`, true, nil},
		{"forced list", StringList("only"), `["only"]`, true, nil},
		{"empty list", StringList(), `[]`, true, nil},
		{"zero value", StringOrList{}, `[]`, true, Ptr(StringList())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.value)
			require.NoError(t, err)
			require.JSONEq(t, tt.wire, string(b))

			var back StringOrList
			require.NoError(t, json.Unmarshal(b, &back))
			want := tt.value
			if tt.decoded != nil {
				want = *tt.decoded
			}
			require.Equal(t, want, back)
			require.Equal(t, tt.isList, back.IsList())
		})
	}
}

func TestChatRequest_ZeroStopIsNotEmptyString(t *testing.T) {
	b, err := json.Marshal(chatRequest{Model: "m", ChatParams: ChatParams{Stop: &Stop{}}})
	require.NoError(t, err)
	require.JSONEq(t, `{"model":"m","messages":null,"stop":[]}`, string(b))
}

func TestStringOrList_RejectsOtherShapes(t *testing.T) {
	var s StringOrList
	require.Error(t, json.Unmarshal([]byte(`42`), &s))
	require.Error(t, json.Unmarshal([]byte(`{"a":1}`), &s))
	require.Error(t, json.Unmarshal([]byte(`[1,2]`), &s))
}

func TestChatRequest_OmitsUnsetParams(t *testing.T) {
	b, err := json.Marshal(chatRequest{
		Model:    "gpt-3.5-turbo",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"model":"gpt-3.5-turbo","messages":[{"role":"user","content":"hi"}]}`, string(b))
}

func TestChatRequest_WireNames(t *testing.T) {
	stop := NewStringOrList("END")
	b, err := json.Marshal(chatRequest{
		Model:    "m",
		Messages: []Message{},
		ChatParams: ChatParams{
			Temperature:      Ptr(float32(0.5)),
			TopP:             Ptr(float32(1)),
			N:                Ptr(2),
			Stream:           Ptr(false),
			Stop:             &stop,
			MaxTokens:        Ptr(64),
			PresencePenalty:  Ptr(float32(0)),
			FrequencyPenalty: Ptr(float32(-1)),
			User:             Ptr("user-1"),
		},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"model": "m",
		"messages": [],
		"temperature": 0.5,
		"top_p": 1,
		"n": 2,
		"stream": false,
		"stop": "END",
		"max_tokens": 64,
		"presence_penalty": 0,
		"frequency_penalty": -1,
		"user": "user-1"
	}`, string(b))
}

func TestCompletionParams_JSON(t *testing.T) {
	p := NewCompletionParams("text-davinci-003", "Say this is a test")
	b, err := json.Marshal(p)
	require.NoError(t, err)
	require.JSONEq(t, `{"model":"text-davinci-003","prompt":"Say this is a test"}`, string(b))

	prompt := NewStringOrList("one", "two")
	stop := StringList("\n")
	p = CompletionParams{
		Model:     "m",
		Prompt:    &prompt,
		Stop:      &stop,
		Echo:      Ptr(true),
		BestOf:    Ptr(3),
		LogitBias: map[string]float32{"50256": -100},
	}
	b, err = json.Marshal(p)
	require.NoError(t, err)
	require.JSONEq(t, `{"model":"m","prompt":["one","two"],"stop":["\n"],"echo":true,"best_of":3,"logit_bias":{"50256":-100}}`, string(b))
}
