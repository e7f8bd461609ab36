/*
 * @module api/middleware/admin_auth
 * @description 管理员口令中间件：校验 X-Admin-Key 请求头，在上下文中标记管理员身份
 * @architecture 中间件模式 - HTTP请求拦截和验证
 * @documentReference dev_docs/deployment.md
 * @stateFlow 口令提取 -> bcrypt 比对 -> 上下文注入 -> 下一个处理器
 * @rules 未配置口令哈希时任何请求都不是管理员；口令错误不拒绝请求，只是不标记管理员；RequireAdmin 拒绝非管理员
 * @dependencies golang.org/x/crypto/bcrypt, github.com/go-chi/render
 * @refs api/routes.go, service/scrap/machining.go
 */

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"
)

// ContextKey 上下文键类型
type ContextKey string

const (
	// AdminKey 管理员标记在上下文中的键
	AdminKey ContextKey = "admin"
	// AdminHeader 管理员口令请求头
	AdminHeader = "X-Admin-Key"
)

// AdminAuthMiddleware 管理员口令中间件
type AdminAuthMiddleware struct {
	hash []byte
	// 已验证口令缓存，避免每个请求都做 bcrypt 比对
	verified   map[string]bool
	cacheMutex sync.RWMutex
}

// NewAdminAuthMiddleware 创建中间件，hash 为 bcrypt 哈希
func NewAdminAuthMiddleware(hash string) *AdminAuthMiddleware {
	if hash == "" {
		slog.Warn("未配置管理员口令，管理员视图不可用")
	}
	return &AdminAuthMiddleware{
		hash:     []byte(hash),
		verified: make(map[string]bool),
	}
}

// Middleware 标记管理员请求
func (m *AdminAuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(AdminHeader)
		if key == "" || len(m.hash) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		if m.verify(key) {
			r = r.WithContext(WithAdmin(r.Context()))
		} else {
			slog.Debug("管理员口令校验失败", "remote", r.RemoteAddr)
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AdminAuthMiddleware) verify(key string) bool {
	m.cacheMutex.RLock()
	ok, cached := m.verified[key]
	m.cacheMutex.RUnlock()
	if cached {
		return ok
	}

	ok = bcrypt.CompareHashAndPassword(m.hash, []byte(key)) == nil
	m.cacheMutex.Lock()
	m.verified[key] = ok
	m.cacheMutex.Unlock()
	return ok
}

// WithAdmin 在上下文中标记管理员
func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, AdminKey, true)
}

// IsAdmin 请求是否来自管理员
func IsAdmin(ctx context.Context) bool {
	admin, ok := ctx.Value(AdminKey).(bool)
	return ok && admin
}

// RequireAdmin 拒绝非管理员请求
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, map[string]interface{}{
				"status": http.StatusForbidden,
				"msg":    "需要管理员权限",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
