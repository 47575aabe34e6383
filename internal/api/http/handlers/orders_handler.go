package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/meal-marketplace/internal/api/dto"
	"github.com/spec-kit/meal-marketplace/internal/auth"
	"github.com/spec-kit/meal-marketplace/internal/domain"
	"github.com/spec-kit/meal-marketplace/internal/service"
	apperrors "github.com/spec-kit/meal-marketplace/pkg/util/errorutil"
)

// OrdersHandler manages order endpoints.
type OrdersHandler struct {
	service  *service.OrderService
	validate *validator.Validate
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orderService *service.OrderService) *OrdersHandler {
	return &OrdersHandler{service: orderService, validate: validator.New()}
}

// PlaceOrder handles POST /orders.
func (h *OrdersHandler) PlaceOrder(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	input := service.PlaceOrderInput{PlanID: req.PlanID, Time: req.Time}
	if req.Day != nil {
		day, err := domain.ParseWeekday(*req.Day)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		input.Day = &day
	}

	placed, err := h.service.PlaceOrder(c.UserContext(), *identity, input)
	if err != nil {
		return err
	}
	resp := orderResponse(placed.Order)
	resp.NextRenewalAt = placed.NextRenewalAt
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": resp})
}

// ListOrders handles GET /orders, scoped by the caller's role.
func (h *OrdersHandler) ListOrders(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	orders, err := h.service.ListOrders(c.UserContext(), *identity, parseIntQuery(c, "limit", 50), parseIntQuery(c, "offset", 0))
	if err != nil {
		return err
	}
	resp := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, orderResponse(&orders[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetOrder handles GET /orders/:id.
func (h *OrdersHandler) GetOrder(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	order, err := h.service.GetOrder(c.UserContext(), *identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order)})
}

// AdvanceOrder handles POST /orders/:id/status.
func (h *OrdersHandler) AdvanceOrder(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AdvanceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	target, err := parseOrderStatus(req.Status)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	order, err := h.service.AdvanceStatus(c.UserContext(), *identity, c.Params("id"), target)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order)})
}

func parseOrderStatus(raw string) (domain.OrderStatus, error) {
	switch domain.OrderStatus(raw) {
	case domain.OrderStatusCreated, domain.OrderStatusConfirmed, domain.OrderStatusFulfilled, domain.OrderStatusCancelled:
		return domain.OrderStatus(raw), nil
	default:
		return "", fmt.Errorf("unknown order status %q", raw)
	}
}

func orderResponse(order *domain.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:        order.ID,
		UserID:    order.UserID,
		HouseID:   order.HouseID,
		PlanID:    order.PlanID,
		Status:    order.Status,
		Amount:    order.AmountCents.String(),
		Version:   order.Version,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}
