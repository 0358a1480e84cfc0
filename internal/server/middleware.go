package server

import (
	"net/http"
	"strings"

	"tasktracker/internal/auth"
	"tasktracker/internal/domain/errors"

	"github.com/gin-gonic/gin"
)

const (
	claimsContextKey = "claims"
	jwtCookieName    = "jwt_token"
)

// authRequired проверяет токен и кладёт claims в контекст запроса.
// Токен берётся из заголовка Authorization (Bearer) или из cookie jwt_token.
func (api *TaskAPI) authRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenStr := extractToken(ctx)
		if tokenStr == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthorized.Error()})
			return
		}

		claims, err := api.tokens.Verify(tokenStr)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errors.ErrInvalidToken.Error()})
			return
		}

		ctx.Set(claimsContextKey, claims)
		ctx.Next()
	}
}

// requireRole пускает дальше только вызывающих с нужной ролью. Роли
// читаются из claims токена, то есть отражают момент его выдачи.
func (api *TaskAPI) requireRole(role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims := currentClaims(ctx)
		if claims == nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthorized.Error()})
			return
		}
		if err := auth.RequireRole(claims.Roles, role); err != nil {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errors.ErrForbidden.Error()})
			return
		}
		ctx.Next()
	}
}

func extractToken(ctx *gin.Context) string {
	if header := ctx.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := ctx.Cookie(jwtCookieName); err == nil {
		return cookie
	}
	return ""
}

func currentClaims(ctx *gin.Context) *auth.Claims {
	value, exists := ctx.Get(claimsContextKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}
