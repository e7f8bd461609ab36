/*
 * @module api/middleware/rate_limit
 * @description 图表接口限流中间件：按客户端 IP 调用 Redis 限流器
 * @architecture 中间件模式
 * @documentReference dev_docs/deployment.md
 * @stateFlow 提取客户端IP -> 限流检查 -> 放行或 429
 * @rules 未配置限流器时直接放行；Redis 出错时放行并记录日志
 * @dependencies scrap-quality-service/service/rate_limiter
 * @refs service/rate_limiter/redis_rate_limiter.go
 */

package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"scrap-quality-service/service/rate_limiter"

	"github.com/go-chi/render"
)

// Limiter 限流检查
type Limiter interface {
	Allow(ctx context.Context, clientID string) (*rate_limiter.RateLimitResult, error)
}

// RateLimit 创建限流中间件，limiter 为 nil 时不限流
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := limiter.Allow(r.Context(), ClientIP(r))
			if err != nil {
				slog.Warn("限流检查失败，放行请求", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			if !result.Allowed {
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, map[string]interface{}{
					"status": http.StatusTooManyRequests,
					"msg":    result.Message,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP 客户端地址，优先取 X-Forwarded-For 的第一个地址
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
