package generator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var testSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"meoScore":   {Type: jsonschema.Number},
		"strengths":  {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}},
		"weaknesses": {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}},
	},
	Required:             []string{"meoScore", "strengths", "weaknesses"},
	AdditionalProperties: false,
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		wantName string
		wantErr  error
	}{
		{name: "gemini", cfg: &Config{Provider: ProviderGemini, APIKey: "k"}, wantName: "gemini"},
		{name: "openai", cfg: &Config{Provider: ProviderOpenAI, APIKey: "k"}, wantName: "openai"},
		{name: "mock without key", cfg: &Config{Provider: ProviderMock}, wantName: "mock"},
		{name: "gemini without key", cfg: &Config{Provider: ProviderGemini}, wantErr: ErrMissingAPIKey},
		{name: "openai without key", cfg: &Config{Provider: ProviderOpenAI}, wantErr: ErrMissingAPIKey},
		{name: "unknown", cfg: &Config{Provider: "palm", APIKey: "k"}, wantErr: ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := New(tt.cfg, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, gen.Name())
		})
	}
}

func TestGeminiGenerator_GenerateStructured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		body, _ := io.ReadAll(r.Body)
		req := gjson.ParseBytes(body)
		assert.Equal(t, "分析して", req.Get("contents.0.parts.0.text").String())
		assert.Equal(t, "application/json", req.Get("generationConfig.responseMimeType").String())
		assert.Equal(t, "object", req.Get("generationConfig.responseJsonSchema.type").String())
		assert.Equal(t, "number", req.Get("generationConfig.responseJsonSchema.properties.meoScore.type").String())

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":" {\"meoScore\": 7} "}]}}]}`))
	}))
	defer server.Close()

	gen, err := NewGeminiGenerator(&Config{APIKey: "test-key", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	out, err := gen.GenerateStructured(context.Background(), "分析して", testSchema)
	require.NoError(t, err)
	assert.Equal(t, `{"meoScore": 7}`, out)
}

func TestGeminiGenerator_GenerateTextJoinsParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.False(t, gjson.GetBytes(body, "generationConfig.responseMimeType").Exists())
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"こんにちは"},{"text":"世界"}]}}]}`))
	}))
	defer server.Close()

	gen, err := NewGeminiGenerator(&Config{APIKey: "k", BaseURL: server.URL, Model: "gemini-2.5-flash"})
	require.NoError(t, err)

	out, err := gen.GenerateText(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, "こんにちは世界", out)
}

func TestGeminiGenerator_ModelAndTemperature(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.InDelta(t, 0.4, gjson.GetBytes(body, "generationConfig.temperature").Float(), 1e-6)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer server.Close()

	gen, err := NewGeminiGenerator(&Config{APIKey: "k", BaseURL: server.URL, Model: "gemini-2.0-flash", Temperature: 0.4})
	require.NoError(t, err)

	out, err := gen.GenerateText(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestGeminiGenerator_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantEmpty  bool
	}{
		{name: "api error", status: http.StatusBadRequest, body: `{"error":{"code":400,"message":"API key not valid"}}`, wantStatus: 400},
		{name: "quota", status: http.StatusTooManyRequests, body: `{"error":{"code":429,"message":"quota"}}`, wantStatus: 429},
		{name: "blocked", status: http.StatusOK, body: `{"promptFeedback":{"blockReason":"SAFETY"}}`, wantEmpty: true},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`, wantEmpty: true},
		{name: "garbage", status: http.StatusOK, body: `<html>`},
		{name: "server error", status: http.StatusServiceUnavailable, body: `{"error":{"code":503,"message":"overloaded"}}`, wantStatus: 503},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			gen, err := NewGeminiGenerator(&Config{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = gen.GenerateText(context.Background(), "p")
			var perr *ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "gemini", perr.Provider)
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, perr.StatusCode)
			}
			if tt.wantEmpty {
				assert.ErrorIs(t, err, ErrEmptyResponse)
			}
		})
	}
}

func chatCompletionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
	return string(b)
}

func TestOpenAIGenerator_GenerateStructured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		req := gjson.ParseBytes(body)
		assert.Equal(t, "gpt-4o-mini", req.Get("model").String())
		assert.Equal(t, "json_schema", req.Get("response_format.type").String())
		assert.True(t, req.Get("response_format.json_schema.strict").Bool())
		assert.Equal(t, "array", req.Get("response_format.json_schema.schema.properties.strengths.type").String())

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionBody(`{"meoScore":6,"strengths":["a","b"],"weaknesses":["c","d"]}`)))
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(&Config{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	out, err := gen.GenerateStructured(context.Background(), "prompt", testSchema)
	require.NoError(t, err)
	assert.JSONEq(t, `{"meoScore":6,"strengths":["a","b"],"weaknesses":["c","d"]}`, out)
}

func TestOpenAIGenerator_Errors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid key","type":"invalid_request_error"}}`))
		}))
		defer server.Close()

		gen, err := NewOpenAIGenerator(&Config{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
		require.NoError(t, err)

		_, err = gen.GenerateText(context.Background(), "p")
		var perr *ProviderError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, http.StatusUnauthorized, perr.StatusCode)
		assert.Equal(t, "invalid key", perr.Message)
		assert.False(t, perr.IsRetryable())
	})

	t.Run("empty content", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(chatCompletionBody("   ")))
		}))
		defer server.Close()

		gen, err := NewOpenAIGenerator(&Config{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
		require.NoError(t, err)

		_, err = gen.GenerateText(context.Background(), "p")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestMockGenerator(t *testing.T) {
	gen := NewMockGenerator()
	ctx := context.Background()

	out, err := gen.GenerateStructured(ctx, "some prompt", testSchema)
	require.NoError(t, err)

	parsed := gjson.Parse(out)
	score := parsed.Get("meoScore").Float()
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 10.0)
	assert.Len(t, parsed.Get("strengths").Array(), 2)
	assert.Len(t, parsed.Get("weaknesses").Array(), 2)

	again, err := gen.GenerateStructured(ctx, "some prompt", testSchema)
	require.NoError(t, err)
	assert.Equal(t, out, again)

	text, err := gen.GenerateText(ctx, "translate:\n\n\"Hello\"\n")
	require.NoError(t, err)
	assert.Equal(t, "(mock) Hello", text)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = gen.GenerateText(cancelled, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
