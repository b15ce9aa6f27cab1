package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// MockGenerator answers deterministically without network access. Structured
// output is synthesised from the schema; numbers derive from a prompt hash.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (g *MockGenerator) Name() string {
	return string(ProviderMock)
}

func (g *MockGenerator) GenerateStructured(ctx context.Context, prompt string, schema jsonschema.Definition) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	seed := h.Sum32()

	out, err := json.Marshal(sample(schema, seed, ""))
	if err != nil {
		return "", NewProviderError(g.Name(), "marshal sample failed", err)
	}
	return string(out), nil
}

// GenerateText echoes the last double-quoted segment of the prompt, or the
// whole prompt when none is present.
func (g *MockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text := strings.TrimSpace(prompt)
	if end := strings.LastIndex(text, `"`); end > 0 {
		if start := strings.LastIndex(text[:end], `"`); start >= 0 {
			text = text[start+1 : end]
		}
	}
	return "(mock) " + text, nil
}

func sample(def jsonschema.Definition, seed uint32, name string) any {
	switch def.Type {
	case jsonschema.Object:
		keys := make([]string, 0, len(def.Properties))
		for k := range def.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		obj := make(map[string]any, len(keys))
		for i, k := range keys {
			obj[k] = sample(def.Properties[k], seed+uint32(i)*7919, k)
		}
		return obj
	case jsonschema.Array:
		const n = 2
		item := jsonschema.Definition{Type: jsonschema.String}
		if def.Items != nil {
			item = *def.Items
		}
		arr := make([]any, n)
		for i := range arr {
			arr[i] = sample(item, seed+uint32(i), fmt.Sprintf("%s-%d", name, i+1))
		}
		return arr
	case jsonschema.Number:
		return float64(seed%101) / 10
	case jsonschema.Integer:
		return int(seed % 100)
	case jsonschema.Boolean:
		return seed%2 == 0
	default:
		if len(def.Enum) > 0 {
			return def.Enum[int(seed)%len(def.Enum)]
		}
		return "sample " + name
	}
}
