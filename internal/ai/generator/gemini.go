package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiGenerator calls generateContent through the Gen AI SDK (Gemini API backend)
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiGenerator 创建 Gemini 生成后端；BaseURL 为空时使用官方地址
func NewGeminiGenerator(cfg *Config) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)},
		HTTPOptions: genai.HTTPOptions{
			BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		},
	})
	if err != nil {
		return nil, NewProviderError(string(ProviderGemini), "create client failed", err)
	}

	return &GeminiGenerator{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

func (g *GeminiGenerator) Name() string {
	return string(ProviderGemini)
}

func (g *GeminiGenerator) GenerateStructured(ctx context.Context, prompt string, schema jsonschema.Definition) (string, error) {
	return g.generate(ctx, prompt, &genai.GenerateContentConfig{
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: &schema,
	})
}

func (g *GeminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, &genai.GenerateContentConfig{})
}

func (g *GeminiGenerator) generate(ctx context.Context, prompt string, genCfg *genai.GenerateContentConfig) (string, error) {
	if g.temperature > 0 {
		genCfg.Temperature = genai.Ptr(g.temperature)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genCfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &ProviderError{
				Provider:   g.Name(),
				StatusCode: apiErr.Code,
				Message:    fmt.Sprintf("API error: %s", apiErr.Message),
				Err:        err,
			}
		}
		return "", NewProviderError(g.Name(), "request failed", err)
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", NewProviderError(g.Name(), "prompt blocked: "+string(fb.BlockReason), ErrEmptyResponse)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", NewProviderError(g.Name(), "no candidate text", ErrEmptyResponse)
	}
	return text, nil
}
