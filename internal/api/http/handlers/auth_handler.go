package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/soportek/helpdesk/internal/api/dto"
	"github.com/soportek/helpdesk/internal/domain"
	"github.com/soportek/helpdesk/internal/service"
	apperrors "github.com/soportek/helpdesk/pkg/util"
)

// AuthHandler exposes registration and login.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      domain.Role(req.Role),
	}
	if input.Role == "" {
		input.Role = domain.RoleRegular
	}
	if req.Department != nil {
		dept := domain.Department(*req.Department)
		input.Department = &dept
	}

	user, err := h.service.Register(c.Context(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.Login(c.Context(), req.Login, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.NewUserResponse(result.User),
	}})
}
