package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/soportek/helpdesk/internal/api/dto"
	"github.com/soportek/helpdesk/internal/auth"
	"github.com/soportek/helpdesk/internal/domain"
	"github.com/soportek/helpdesk/internal/repository"
	"github.com/soportek/helpdesk/internal/service"
	apperrors "github.com/soportek/helpdesk/pkg/util"
)

// UsersHandler exposes account administration and profile endpoints.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// ListUsers GET /users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	filter := parseUserQuery(c)
	users, err := h.service.ListUsers(c.Context(), user, filter)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetUser GET /users/:id.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	target, err := h.service.GetUser(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(target)})
}

// AdmitUser POST /users/:id/admit.
func (h *UsersHandler) AdmitUser(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	target, err := h.service.AdmitUser(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(target)})
}

// UpdateUser PATCH /users/:id.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.UserUpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Admitted:  req.Admitted,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		input.Role = &role
	}
	if req.Department != nil {
		dept := domain.Department(*req.Department)
		input.Department = &dept
	}

	target, err := h.service.UpdateUser(c.Context(), user, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(target)})
}

// DeleteUser DELETE /users/:id.
func (h *UsersHandler) DeleteUser(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	if err := h.service.DeleteUser(c.Context(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetProfile GET /profile.
func (h *UsersHandler) GetProfile(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	if user == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateProfilePhoto PUT /profile/photo.
func (h *UsersHandler) UpdateProfilePhoto(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	uploads, err := collectUploads(c, "photo")
	if err != nil {
		return err
	}
	if len(uploads) != 1 {
		return apperrors.NewValidationError("exactly one photo file required", nil)
	}
	updated, err := h.service.UpdateProfilePhoto(c.Context(), user, uploads[0])
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(updated)})
}

func parseUserQuery(c *fiber.Ctx) repository.UserFilter {
	filter := repository.UserFilter{Search: c.Query("search")}
	if raw := c.Query("role"); raw != "" {
		role := domain.Role(raw)
		filter.Role = &role
	}
	if raw := c.Query("department"); raw != "" {
		dept := domain.Department(raw)
		filter.Department = &dept
	}
	if raw := c.Query("admitted"); raw != "" {
		if admitted, err := strconv.ParseBool(raw); err == nil {
			filter.Admitted = &admitted
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}
