package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/meal-marketplace/internal/api/dto"
	"github.com/spec-kit/meal-marketplace/internal/auth"
	"github.com/spec-kit/meal-marketplace/internal/domain"
	"github.com/spec-kit/meal-marketplace/internal/service"
	apperrors "github.com/spec-kit/meal-marketplace/pkg/util/errorutil"
)

// HousesHandler manages vendor house endpoints.
type HousesHandler struct {
	service  *service.HouseService
	validate *validator.Validate
}

// NewHousesHandler constructs handler.
func NewHousesHandler(houseService *service.HouseService) *HousesHandler {
	return &HousesHandler{service: houseService, validate: validator.New()}
}

// CreateHouse handles POST /houses.
func (h *HousesHandler) CreateHouse(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.HouseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	house, err := h.service.CreateHouse(c.UserContext(), *identity, service.HouseInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": houseResponse(house)})
}

// ListHouses handles GET /houses.
func (h *HousesHandler) ListHouses(c *fiber.Ctx) error {
	houses, err := h.service.ListHouses(c.UserContext(), parseIntQuery(c, "limit", 50), parseIntQuery(c, "offset", 0))
	if err != nil {
		return err
	}
	resp := make([]dto.HouseResponse, 0, len(houses))
	for i := range houses {
		resp = append(resp, houseResponse(&houses[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetHouse handles GET /houses/:id.
func (h *HousesHandler) GetHouse(c *fiber.Ctx) error {
	house, err := h.service.GetHouse(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": houseResponse(house)})
}

// UpdateHouse handles PATCH /houses/:id.
func (h *HousesHandler) UpdateHouse(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.HouseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	house, err := h.service.UpdateHouse(c.UserContext(), *identity, c.Params("id"), service.HouseInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": houseResponse(house)})
}

// DeleteHouse handles DELETE /houses/:id. Deletion is refused while any
// order on the house is still open.
func (h *HousesHandler) DeleteHouse(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteHouse(c.UserContext(), *identity, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func houseResponse(house *domain.House) dto.HouseResponse {
	return dto.HouseResponse{
		ID:          house.ID,
		OwnerID:     house.OwnerID,
		Title:       house.Title,
		Description: house.Description,
		Location:    house.Location,
		CreatedAt:   house.CreatedAt,
		UpdatedAt:   house.UpdatedAt,
	}
}

func parseIntQuery(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
