// Package generator adapts hosted generative-text backends behind a single
// interface. Structured calls constrain the output with a JSON schema.
package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/meo-insight/internal/pkg/logger"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
)

type ProviderID string

const (
	ProviderGemini ProviderID = "gemini"
	ProviderOpenAI ProviderID = "openai"
	ProviderMock   ProviderID = "mock"
)

// TextGenerator produces model output for a prompt
type TextGenerator interface {
	// GenerateStructured returns raw JSON text conforming to schema
	GenerateStructured(ctx context.Context, prompt string, schema jsonschema.Definition) (string, error)

	// GenerateText returns free-form text
	GenerateText(ctx context.Context, prompt string) (string, error)

	Name() string
}

// Config 生成后端配置
type Config struct {
	Provider    ProviderID
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("%w: provider %s", ErrMissingAPIKey, c.Provider)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProvider, c.Provider)
	}
	return nil
}

// New 根据配置创建生成后端，启动时调用一次
func New(cfg *Config, lgr *logger.Logger) (TextGenerator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := lgr
	if log == nil {
		log = logger.L()
	}

	var (
		gen TextGenerator
		err error
	)
	switch cfg.Provider {
	case ProviderGemini:
		gen, err = NewGeminiGenerator(cfg)
	case ProviderOpenAI:
		gen, err = NewOpenAIGenerator(cfg)
	case ProviderMock:
		gen = NewMockGenerator()
	}
	if err != nil {
		return nil, err
	}

	log.Info("text generator created",
		zap.String("provider", gen.Name()),
		zap.String("model", cfg.Model))

	return gen, nil
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 60 * time.Second
	}
	return d
}
