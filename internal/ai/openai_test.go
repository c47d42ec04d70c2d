package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenAIGenerate(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  Fresh espresso, zero fuss.  "}},
			},
			"usage": map[string]int{"prompt_tokens": 42, "completion_tokens": 17},
		})
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL}, zap.NewNop())
	res, err := gen.Generate(context.Background(), Request{Topic: "coffee", Tone: "casual", Model: "gpt-4o"})
	require.NoError(t, err)

	require.Equal(t, "Bearer sk-test", gotAuth)
	require.Equal(t, "gpt-4o", gotBody.Model)
	require.Len(t, gotBody.Messages, 2)
	require.Contains(t, gotBody.Messages[1].Content, "coffee")
	require.Contains(t, gotBody.Messages[1].Content, "casual")

	require.Equal(t, "Fresh espresso, zero fuss.", res.Content)
	require.Equal(t, 42, res.PromptTokens)
	require.Equal(t, 17, res.CompletionTokens)
}

func TestOpenAIGenerateProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited", "type": "rate_limit_error"},
		})
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL}, zap.NewNop())
	_, err := gen.Generate(context.Background(), Request{Topic: "coffee", Model: "gpt-3.5-turbo"})
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.Contains(t, err.Error(), "rate limited")
}

func TestOpenAIGenerateEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL}, zap.NewNop())
	_, err := gen.Generate(context.Background(), Request{Topic: "coffee", Model: "gpt-3.5-turbo"})
	require.ErrorIs(t, err, ErrGenerationFailed)
}

func TestModelPicker(t *testing.T) {
	p := ModelPicker{Standard: "gpt-3.5-turbo", Premium: "gpt-4o"}
	require.Equal(t, "gpt-4o", p.For(true))
	require.Equal(t, "gpt-3.5-turbo", p.For(false))
}
