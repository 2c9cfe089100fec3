package auth

import (
	"strings"

	"github.com/smsm300/fox-kiro-v5/internal/config"
	"github.com/smsm300/fox-kiro-v5/internal/database"
	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterAdminRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	Username string          `json:"username"`
	Name     string          `json:"name"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

// RegisterAdminHandler bootstraps the very first admin account. Refused once
// any admin exists.
func RegisterAdminHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Username = strings.TrimSpace(strings.ToLower(body.Username))
		if body.Username == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "username, name and password are required")
		}

		var count int64
		database.DB.Model(&models.User{}).
			Where("role = ?", models.RoleAdmin).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "an admin account already exists")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot hash password")
		}

		user := models.User{
			Username:     body.Username,
			Name:         body.Name,
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot create user")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		})
	}
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Username = strings.TrimSpace(strings.ToLower(body.Username))

		var user models.User
		if err := database.DB.Where("username = ?", body.Username).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong username or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong username or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot generate token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":       user.ID,
				"username": user.Username,
				"name":     user.Name,
				"role":     user.Role,
				"sections": SectionList(user.Role),
			},
		})
	}
}

// CreateUserHandler lets the admin add cashier/accountant/stock-keeper users.
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Username = strings.TrimSpace(strings.ToLower(body.Username))
		if body.Username == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "username, name and password are required")
		}

		switch body.Role {
		case models.RoleAdmin, models.RoleAccountant, models.RoleCashier, models.RoleStockKeeper:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "invalid role")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot hash password")
		}

		user := models.User{
			Username:     body.Username,
			Name:         body.Name,
			PasswordHash: string(hash),
			Role:         body.Role,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "username already taken")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"name":     user.Name,
			"role":     user.Role,
		})
	}
}

// DeleteUserHandler removes a user account. Self-deletion and removing the
// last admin are refused.
func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "missing user identity")
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
		}
		if uint(id) == actorID {
			return fiber.NewError(fiber.StatusConflict, "cannot delete your own account")
		}

		var user models.User
		if err := database.DB.First(&user, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}

		if user.Role == models.RoleAdmin {
			var admins int64
			database.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins)
			if admins <= 1 {
				return fiber.NewError(fiber.StatusConflict, "cannot delete the last admin")
			}
		}

		if err := database.DB.Delete(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot delete user")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := database.DB.Order("id asc").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot list users")
		}

		resp := make([]fiber.Map, 0, len(users))
		for _, u := range users {
			resp = append(resp, fiber.Map{
				"id":       u.ID,
				"username": u.Username,
				"name":     u.Name,
				"role":     u.Role,
			})
		}
		return c.JSON(resp)
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing user identity")
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "user not found")
		}

		return c.JSON(fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"name":     user.Name,
			"role":     user.Role,
			"sections": SectionList(user.Role),
		})
	}
}
