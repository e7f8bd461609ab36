/*
 * @module service/rate_limiter/redis_rate_limiter
 * @description 基于Redis的图表接口限流：全局与客户端两层固定窗口计数
 * @architecture 工具层 - 提供分布式限流能力
 * @documentReference dev_docs/deployment.md
 * @stateFlow 检查限流规则 -> Redis计数 -> 判断是否超限
 * @rules 使用Lua脚本原子执行 INCR 和 EXPIRE；任意一层超限即拒绝；未配置Redis时不启用限流
 * @dependencies github.com/go-redis/redis/v8
 * @refs api/middleware/rate_limit.go, service/config/config.go
 */

package rate_limiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"scrap-quality-service/service/config"

	"github.com/go-redis/redis/v8"
)

// ErrRateLimited 请求超过限流
var ErrRateLimited = errors.New("请求过于频繁")

// 限流层级
const (
	RuleGlobal = "global"
	RuleClient = "client"
)

// RateLimitResult 限流检查结果
type RateLimitResult struct {
	Allowed       bool   `json:"allowed"`    // 是否允许请求
	Limit         int    `json:"limit"`      // 限制数量
	Remaining     int    `json:"remaining"`  // 剩余数量
	ResetAt       int64  `json:"reset_at"`   // 重置时间（Unix时间戳）
	RateLimitType string `json:"limit_type"` // 限流类型：global/client
	Message       string `json:"message"`    // 提示信息
}

// RateLimitRule 限流规则
type RateLimitRule struct {
	Type        string // global/client
	TargetID    string // 客户端标识，全局时为空
	TimeWindow  int    // 时间窗口（秒）
	MaxRequests int    // 最大请求数
}

// RedisRateLimiter Redis限流器
type RedisRateLimiter struct {
	client    *redis.Client
	perMinute int
	now       func() time.Time
}

// NewRedisRateLimiter 创建Redis限流器并测试连接
func NewRedisRateLimiter(cfg config.RedisConfig) (*RedisRateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis连接失败: %w", err)
	}

	slog.Info("Redis限流器初始化成功",
		"redis_addr", cfg.Addr(),
		"per_minute", cfg.RateLimitPerMinute)

	perMinute := cfg.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 120
	}
	return &RedisRateLimiter{client: client, perMinute: perMinute, now: time.Now}, nil
}

// Rules 单个客户端每分钟 perMinute 次，全局为其10倍
func (r *RedisRateLimiter) Rules(clientID string) []RateLimitRule {
	return []RateLimitRule{
		{Type: RuleGlobal, TimeWindow: 60, MaxRequests: r.perMinute * 10},
		{Type: RuleClient, TargetID: clientID, TimeWindow: 60, MaxRequests: r.perMinute},
	}
}

// Allow 检查客户端的请求是否允许
func (r *RedisRateLimiter) Allow(ctx context.Context, clientID string) (*RateLimitResult, error) {
	return r.CheckRateLimit(ctx, r.Rules(clientID))
}

// CheckRateLimit 按优先级（客户端 -> 全局）检查
func (r *RedisRateLimiter) CheckRateLimit(ctx context.Context, rules []RateLimitRule) (*RateLimitResult, error) {
	sortedRules := sortRulesByPriority(rules)

	var last *RateLimitResult
	for _, rule := range sortedRules {
		result, err := r.checkSingleRule(ctx, rule)
		if err != nil {
			return nil, err
		}
		if !result.Allowed {
			return result, nil
		}
		if last == nil {
			last = result
		}
	}

	if last != nil {
		return last, nil
	}
	return &RateLimitResult{
		Allowed:       true,
		Limit:         -1,
		Remaining:     -1,
		RateLimitType: "none",
		Message:       "无限流规则",
	}, nil
}

const rateLimitScript = `
	local key = KEYS[1]
	local max_requests = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = redis.call('GET', key)
	if current == false then
		current = 0
	else
		current = tonumber(current)
	end

	if current >= max_requests then
		local ttl = redis.call('TTL', key)
		if ttl == -1 then
			ttl = window
		end
		return {0, current, max_requests, ttl}
	end

	local new_count = redis.call('INCR', key)
	if new_count == 1 then
		redis.call('EXPIRE', key, window)
	end

	local ttl = redis.call('TTL', key)
	if ttl == -1 then
		ttl = window
	end

	return {1, new_count, max_requests, ttl}
`

// checkSingleRule 检查单个限流规则
func (r *RedisRateLimiter) checkSingleRule(ctx context.Context, rule RateLimitRule) (*RateLimitResult, error) {
	key := buildRateLimitKey(rule, r.now())

	result, err := r.client.Eval(ctx, rateLimitScript, []string{key}, rule.MaxRequests, rule.TimeWindow).Result()
	if err != nil {
		return nil, fmt.Errorf("限流检查失败: %w", err)
	}

	results, ok := result.([]interface{})
	if !ok || len(results) != 4 {
		return nil, fmt.Errorf("限流检查返回格式错误: %v", result)
	}
	allowed := results[0].(int64) == 1
	currentCount := int(results[1].(int64))
	maxRequests := int(results[2].(int64))
	ttl := int(results[3].(int64))

	remaining := maxRequests - currentCount
	if remaining < 0 {
		remaining = 0
	}

	message := "允许请求"
	if !allowed {
		message = fmt.Sprintf("超过%s限流限制", rateLimitTypeName(rule.Type))
	}

	return &RateLimitResult{
		Allowed:       allowed,
		Limit:         maxRequests,
		Remaining:     remaining,
		ResetAt:       r.now().Add(time.Duration(ttl) * time.Second).Unix(),
		RateLimitType: rule.Type,
		Message:       message,
	}, nil
}

// buildRateLimitKey 构造限流Key，同一时间窗口内的请求共用一个Key
func buildRateLimitKey(rule RateLimitRule, now time.Time) string {
	window := rule.TimeWindow
	if window <= 0 {
		window = 60
	}
	currentWindow := now.Unix() / int64(window)

	if rule.Type == RuleGlobal {
		return fmt.Sprintf("scrap_rate_limit:%s:%d", rule.Type, currentWindow)
	}
	return fmt.Sprintf("scrap_rate_limit:%s:%s:%d", rule.Type, rule.TargetID, currentWindow)
}

// sortRulesByPriority 客户端规则优先于全局规则
func sortRulesByPriority(rules []RateLimitRule) []RateLimitRule {
	priority := map[string]int{RuleClient: 2, RuleGlobal: 1}

	sorted := make([]RateLimitRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return priority[sorted[i].Type] > priority[sorted[j].Type]
	})
	return sorted
}

func rateLimitTypeName(limitType string) string {
	switch limitType {
	case RuleGlobal:
		return "全局"
	case RuleClient:
		return "客户端"
	default:
		return "未知"
	}
}

// Close 关闭Redis客户端
func (r *RedisRateLimiter) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ResetRateLimit 重置限流计数（仅用于测试或管理）
func (r *RedisRateLimiter) ResetRateLimit(ctx context.Context, rule RateLimitRule) error {
	return r.client.Del(ctx, buildRateLimitKey(rule, r.now())).Err()
}
