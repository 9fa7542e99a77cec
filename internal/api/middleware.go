package api

import (
	"net/http"

	"TaxonomySync/internal/interfaces"
	"TaxonomySync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const principalKey = "principal"

// AuthMiddleware 通过外部 Authorizer 校验 Authorization 头
type AuthMiddleware struct {
	authorizer interfaces.Authorizer
	logger     *logrus.Logger
}

func NewAuthMiddleware(authorizer interfaces.Authorizer, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{authorizer: authorizer, logger: logger}
}

// Authenticate 任何已认证调用方
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := m.authorizer.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireIngest 只允许有入库权限的角色
func (m *AuthMiddleware) RequireIngest() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principalOf(c)
		if !m.authorizer.CanIngest(c.Request.Context(), p) {
			m.logger.WithFields(logrus.Fields{"path": c.FullPath(), "role": roleOf(p)}).Warn("拒绝无入库权限的调用")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": service.ErrUnauthorized.Error()})
			return
		}
		c.Next()
	}
}

func principalOf(c *gin.Context) *interfaces.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*interfaces.Principal)
	return p
}

func actorOf(c *gin.Context) string {
	if p := principalOf(c); p != nil {
		return p.Subject
	}
	return ""
}

func roleOf(p *interfaces.Principal) string {
	if p == nil {
		return ""
	}
	return p.Role
}
