package auth

import (
	"fmt"
	"strings"

	"github.com/smsm300/fox-kiro-v5/internal/config"
	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserNameKey = "user_name"
	CtxUserRoleKey = "user_role"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
		}

		token, err := jwt.ParseWithClaims(parts[1], &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "cannot parse token claims")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserNameKey, claims.Name)
		c.Locals(CtxUserRoleKey, claims.Role)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "missing role")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
	}
}

// Actor identifies the authenticated user for services that need to attribute
// writes and apply role rules.
type Actor struct {
	UserID uint
	Name   string
	Role   models.UserRole
}

func ActorFromCtx(c *fiber.Ctx) (Actor, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "missing user identity")
	}
	name, _ := c.Locals(CtxUserNameKey).(string)
	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "missing role")
	}
	return Actor{UserID: userID, Name: name, Role: role}, nil
}
