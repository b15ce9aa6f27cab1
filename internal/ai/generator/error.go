package generator

import (
	"errors"
	"fmt"
)

var (
	ErrMissingAPIKey   = errors.New("missing API key")
	ErrUnknownProvider = errors.New("unknown generator provider")
	ErrEmptyResponse   = errors.New("empty response from model")
)

// ProviderError 生成后端错误
type ProviderError struct {
	Provider   string // Provider 名称
	StatusCode int    // HTTP 状态码，传输错误时为 0
	Message    string // 错误消息
	Err        error  // 原始错误
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		if e.Err != nil {
			return fmt.Sprintf("[%s][%d] %s: %v", e.Provider, e.StatusCode, e.Message, e.Err)
		}
		return fmt.Sprintf("[%s][%d] %s", e.Provider, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRetryable 判断错误是否可重试
func (e *ProviderError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// NewProviderError 创建 Provider 错误
func NewProviderError(provider, message string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Message:  message,
		Err:      err,
	}
}
