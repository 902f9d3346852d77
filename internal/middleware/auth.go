package middleware

import (
	"context"
	"lan_exam_backend/internal/model"
	"lan_exam_backend/internal/util"
	"lan_exam_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RevocationChecker 查询令牌是否已注销
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Authenticator 每个服务一把密钥和 audience，学生令牌不能访问管理端
type Authenticator struct {
	Secret   string
	Audience string
	Revoked  RevocationChecker
}

func NewAuthenticator(secret, audience string, revoked RevocationChecker) *Authenticator {
	return &Authenticator{Secret: secret, Audience: audience, Revoked: revoked}
}

func (a *Authenticator) parse(c *gin.Context) (*util.Claims, bool) {
	tokenString := util.BearerToken(c)
	if tokenString == "" {
		return nil, false
	}

	claims, err := util.ParseJWT(tokenString, a.Secret, a.Audience)
	if err != nil {
		logger.Log.Debug("JWT parse failed", zap.String("audience", a.Audience), zap.Error(err))
		return nil, false
	}

	if a.Revoked != nil {
		revoked, err := a.Revoked.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			logger.Log.Error("Token revocation lookup failed", zap.Error(err))
			return nil, false
		}
		if revoked {
			return nil, false
		}
	}
	return claims, true
}

func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := a.parse(c)
		if !ok {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// TryAuthMiddleware 有合法令牌时写入上下文，没有也放行
func (a *Authenticator) TryAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := a.parse(c); ok {
			c.Set("user", claims)
		}
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			if user.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
