package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/lk2023060901/meo-insight/internal/ai/generator"
	"github.com/lk2023060901/meo-insight/internal/meo/types"
	"github.com/lk2023060901/meo-insight/internal/pkg/logger"
	"go.uber.org/zap"
)

// DefaultTargetLanguage is used when no target is given
const DefaultTargetLanguage = "ja"

var languageNames = map[string]string{
	"ja": "日本語",
	"en": "英語",
	"zh": "中国語",
	"ko": "韓国語",
	"fr": "フランス語",
	"de": "ドイツ語",
	"es": "スペイン語",
}

// Translator renders review text into a target language
type Translator struct {
	gen    generator.TextGenerator
	logger *logger.Logger
}

// NewTranslator 创建翻译器
func NewTranslator(gen generator.TextGenerator, lgr *logger.Logger) *Translator {
	if lgr == nil {
		lgr = logger.L()
	}
	return &Translator{gen: gen, logger: lgr.Named("translator")}
}

// Translate returns the translated text or types.TranslationFailed; it never errors.
func (t *Translator) Translate(ctx context.Context, text, target string) string {
	if strings.TrimSpace(text) == "" {
		return types.TranslationFailed
	}
	if target == "" {
		target = DefaultTargetLanguage
	}

	out, err := t.gen.GenerateText(ctx, BuildTranslationPrompt(text, target))
	if err != nil {
		t.logger.WithContext(ctx).Warn("translation failed",
			zap.String("target", target),
			zap.Error(err))
		return types.TranslationFailed
	}

	out = unquote(strings.TrimSpace(out))
	if out == "" {
		t.logger.WithContext(ctx).Warn("translation returned empty text", zap.String("target", target))
		return types.TranslationFailed
	}
	return out
}

// BuildTranslationPrompt asks for translation-only output
func BuildTranslationPrompt(text, target string) string {
	return fmt.Sprintf("以下のテキストを%sに翻訳してください。翻訳結果のテキストのみを返してください。:\n\n\"%s\"\n",
		languageName(target), text)
}

func languageName(tag string) string {
	base := strings.ToLower(tag)
	if i := strings.IndexAny(base, "-_"); i > 0 {
		base = base[:i]
	}
	if name, ok := languageNames[base]; ok {
		return name
	}
	return tag
}

func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
