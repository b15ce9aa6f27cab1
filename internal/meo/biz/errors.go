package biz

import "errors"

var (
	// ErrSearchInProgress 同一会话已有检索在执行
	ErrSearchInProgress = errors.New("a search is already in progress")

	// ErrLookupFailed 店铺检索失败
	ErrLookupFailed = errors.New("place lookup failed")

	// ErrSearchPanicked 检索过程中发生 panic
	ErrSearchPanicked = errors.New("search panicked")

	// ErrMalformedAnalysis 模型输出无法解析为分析报告
	ErrMalformedAnalysis = errors.New("malformed analysis output")
)
