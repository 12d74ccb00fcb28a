package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// Role 请求方角色，数值越大权限越高. 角色只由服务端认证结果赋予，不读取客户端请求头.
type Role int

const (
	RoleUser Role = iota + 1
	RoleAdmin
)

// String 返回角色的字符串表示.
func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}

	return "user"
}

type roleKey struct{}

// SetRole 把角色写入 gin.Context 和 request.Context.
func SetRole(c *gin.Context, r Role) {
	c.Set("role", r)
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), roleKey{}, r))
}

// GetRole 从 gin.Context 获取当前请求角色，缺省为 user.
func GetRole(c *gin.Context) Role {
	if v, ok := c.Get("role"); ok {
		if r, ok := v.(Role); ok {
			return r
		}
	}

	return RoleFromContext(c.Request.Context())
}

// RoleFromContext 从 request context 获取角色，service 层使用.
func RoleFromContext(ctx context.Context) Role {
	if r, ok := ctx.Value(roleKey{}).(Role); ok {
		return r
	}

	return RoleUser
}
