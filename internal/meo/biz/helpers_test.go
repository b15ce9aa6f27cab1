package biz

import (
	"context"
	"sync"
	"testing"

	"github.com/lk2023060901/meo-insight/internal/pkg/logger"
	"github.com/lk2023060901/meo-insight/internal/pkg/workerpool"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validAnalysisJSON = `{"meoScore": 7.5, "strengths": ["口コミ数が多い", "評価が高い"], "weaknesses": ["写真が少ない", "投稿が少ない"]}`

// mockGenerator is a testify mock of generator.TextGenerator
type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateStructured(ctx context.Context, prompt string, schema jsonschema.Definition) (string, error) {
	args := m.Called(ctx, prompt, schema)
	return args.String(0), args.Error(1)
}

func (m *mockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *mockGenerator) Name() string { return "mock" }

// fakeGenerator records calls and answers through optional hooks
type fakeGenerator struct {
	structured func(ctx context.Context, prompt string) (string, error)
	text       func(ctx context.Context, prompt string) (string, error)

	mu              sync.Mutex
	structuredCalls int
	textPrompts     []string
}

func (f *fakeGenerator) GenerateStructured(ctx context.Context, prompt string, _ jsonschema.Definition) (string, error) {
	f.mu.Lock()
	f.structuredCalls++
	f.mu.Unlock()
	if f.structured != nil {
		return f.structured(ctx, prompt)
	}
	return validAnalysisJSON, nil
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.textPrompts = append(f.textPrompts, prompt)
	f.mu.Unlock()
	if f.text != nil {
		return f.text(ctx, prompt)
	}
	return "翻訳済みテキスト", nil
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) translations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.textPrompts))
	copy(out, f.textPrompts)
	return out
}

func newTestPool(t *testing.T) *workerpool.Pool {
	t.Helper()
	pool, err := workerpool.New(&workerpool.Config{Size: 8}, nil)
	require.NoError(t, err)
	t.Cleanup(pool.Shutdown)
	return pool
}

func nopLogger() *logger.Logger {
	return logger.NewNop()
}
