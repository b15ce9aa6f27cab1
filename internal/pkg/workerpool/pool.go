package workerpool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// Config Worker Pool 配置
type Config struct {
	Size           int           // 最大并发 worker 数量
	ExpiryDuration time.Duration // 空闲 worker 回收间隔
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Size:           32,
		ExpiryDuration: 10 * time.Second,
	}
}

// Statistics 统计信息
type Statistics struct {
	Submitted int64
	Completed int64
	Panicked  int64
}

// Pool 基于 ants 的有界 worker pool
type Pool struct {
	pool   *ants.Pool
	logger *zap.Logger

	submitted atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
}

// New 创建 Worker Pool
func New(config *Config, logger *zap.Logger) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Size <= 0 {
		return nil, fmt.Errorf("invalid pool size: %d", config.Size)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{logger: logger}

	opts := []ants.Option{
		ants.WithPanicHandler(func(err interface{}) {
			p.panicked.Add(1)
			logger.Error("worker panic", zap.Any("error", err))
		}),
	}
	if config.ExpiryDuration > 0 {
		opts = append(opts, ants.WithExpiryDuration(config.ExpiryDuration))
	}

	antsPool, err := ants.NewPool(config.Size, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}
	p.pool = antsPool

	return p, nil
}

// Submit 提交任务，池满时阻塞直到有空闲 worker
func (p *Pool) Submit(task func()) error {
	p.submitted.Add(1)
	err := p.pool.Submit(func() {
		defer p.completed.Add(1)
		task()
	})
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

// NewGroup 创建一个任务组，用于等待一批任务全部结束
func (p *Pool) NewGroup() *Group {
	return &Group{pool: p}
}

// Running 获取运行中的 worker 数量
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Cap 获取池容量
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Stats 获取统计信息
func (p *Pool) Stats() Statistics {
	return Statistics{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
	}
}

// Shutdown 关闭
func (p *Pool) Shutdown() {
	p.pool.Release()
}

// Group 一批任务的全部完成等待（all-complete join）
// 单个任务 panic 不会影响其他任务，Wait 总会返回
type Group struct {
	pool *Pool
	wg   sync.WaitGroup
}

// Go 提交任务；池已关闭时退化为独立 goroutine 执行，保证任务一定运行
func (g *Group) Go(task func()) {
	g.wg.Add(1)
	wrapped := func() {
		defer g.wg.Done()
		task()
	}

	if err := g.pool.Submit(wrapped); err != nil {
		g.pool.logger.Warn("pool submit failed, running task on its own goroutine", zap.Error(err))
		go func() {
			defer func() {
				if r := recover(); r != nil {
					g.pool.panicked.Add(1)
					g.pool.logger.Error("task panic", zap.Any("error", r))
				}
			}()
			wrapped()
		}()
	}
}

// Wait 等待组内所有任务结束
func (g *Group) Wait() {
	g.wg.Wait()
}
