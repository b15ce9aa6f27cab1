// Package ratelimit provides a Redis sliding-window limiter for gin routes.
// Any Redis failure lets the request through.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/lk2023060901/meo-insight/internal/pkg/errors"
	"github.com/lk2023060901/meo-insight/internal/pkg/logger"
	"github.com/lk2023060901/meo-insight/internal/pkg/response"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config 限流配置
type Config struct {
	Addr     string
	Password string
	DB       int

	// 时间窗口内允许的最大请求数
	MaxRequests int
	// 时间窗口
	Window time.Duration
	// Redis 操作超时，超时即放行
	OpTimeout time.Duration
}

// Result 单次判定结果
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// slidingWindow 原子性滑动窗口：清理窗口外记录、计数、记录本次请求
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local current = redis.call('ZCARD', key)

if current < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window)
	return {1, limit - current - 1, now + window}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')[2]
return {0, 0, tonumber(oldest) + window}
`)

// Limiter 基于 Redis 的滑动窗口限流器
type Limiter struct {
	client *redis.Client
	cfg    Config
	logger *logger.Logger
}

// New 创建限流器；连接是惰性的，Redis 不可用时不会报错
func New(cfg Config, log *logger.Logger) *Limiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 20
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 200 * time.Millisecond
	}
	if log == nil {
		log = logger.L()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.OpTimeout,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
		MaxRetries:   -1,
	})

	return &Limiter{client: client, cfg: cfg, logger: log.Named("ratelimit")}
}

// Allow records one request under key and reports whether it fits the window
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.OpTimeout)
	defer cancel()

	now := time.Now().UnixMilli()
	member := strconv.FormatInt(now, 10) + "-" + uuid.NewString()

	vals, err := slidingWindow.Run(ctx, l.client, []string{key},
		now, l.cfg.Window.Milliseconds(), l.cfg.MaxRequests, member).Int64Slice()
	if err != nil {
		return Result{}, err
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("invalid rate limit result: %v", vals)
	}

	return Result{
		Allowed:   vals[0] == 1,
		Remaining: int(vals[1]),
		ResetAt:   time.UnixMilli(vals[2]),
	}, nil
}

// Middleware 按客户端 IP + 路径限流
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := BuildKey(c)

		res, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			// 限流器故障时，降级允许请求通过
			l.logger.WithContext(c.Request.Context()).Warn("rate limiter unavailable, allowing request",
				zap.String("key", key),
				zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			retry := time.Until(res.ResetAt).Round(time.Second)
			if retry < time.Second {
				retry = time.Second
			}
			c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())))
			response.ErrorWithCode(c, apperrors.ErrTooManyRequests,
				fmt.Sprintf("try again in %d seconds", int(retry.Seconds())))
			c.Abort()
			return
		}

		c.Next()
	}
}

// Close 关闭 Redis 连接
func (l *Limiter) Close() error {
	return l.client.Close()
}

// BuildKey 构建限流 key
func BuildKey(c *gin.Context) string {
	return fmt.Sprintf("meo:rate_limit:%s:%s", c.FullPath(), c.ClientIP())
}
