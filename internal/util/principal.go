package util

import (
	"jsr_backend/internal/model"

	"github.com/gin-gonic/gin"
)

// Principal 请求主体：匿名或已认证，二者之一
type Principal interface {
	isPrincipal()
}

// Anonymous 未携带有效令牌的访问者
type Anonymous struct{}

// Authenticated 已解析为内部用户（或管理员）的主体
type Authenticated struct {
	ID    string
	Email string
	Role  model.UserRole
}

func (Anonymous) isPrincipal()     {}
func (Authenticated) isPrincipal() {}

func (a Authenticated) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(ContextPrincipalKey, p)
}

// GetPrincipal 未设置时返回 Anonymous
func GetPrincipal(c *gin.Context) Principal {
	if v, ok := c.Get(ContextPrincipalKey); ok {
		if p, ok := v.(Principal); ok {
			return p
		}
	}
	return Anonymous{}
}

// CurrentUser 返回已认证主体，匿名时 ok 为 false
func CurrentUser(c *gin.Context) (Authenticated, bool) {
	a, ok := GetPrincipal(c).(Authenticated)
	return a, ok
}

// IsAdminRequest 当前请求是否由管理员发起
func IsAdminRequest(c *gin.Context) bool {
	a, ok := CurrentUser(c)
	return ok && a.IsAdmin()
}
