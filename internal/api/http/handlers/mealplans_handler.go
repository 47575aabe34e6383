package handlers

import (
	"net/http"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/meal-marketplace/internal/api/dto"
	"github.com/spec-kit/meal-marketplace/internal/auth"
	"github.com/spec-kit/meal-marketplace/internal/domain"
	"github.com/spec-kit/meal-marketplace/internal/service"
	apperrors "github.com/spec-kit/meal-marketplace/pkg/util/errorutil"
)

// MealPlansHandler manages meal plan endpoints.
type MealPlansHandler struct {
	service  *service.MealPlanService
	validate *validator.Validate
}

// NewMealPlansHandler constructs handler.
func NewMealPlansHandler(planService *service.MealPlanService) *MealPlansHandler {
	return &MealPlansHandler{service: planService, validate: validator.New()}
}

// CreatePlan handles POST /houses/:id/plans.
func (h *MealPlansHandler) CreatePlan(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	req, err := h.parsePlanRequest(c)
	if err != nil {
		return err
	}

	plan, err := h.service.CreatePlan(c.UserContext(), *identity, c.Params("id"), planInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": mealPlanResponse(plan)})
}

// ListPlans handles GET /houses/:id/plans.
func (h *MealPlansHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.service.ListPlans(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	resp := make([]dto.MealPlanResponse, 0, len(plans))
	for i := range plans {
		resp = append(resp, mealPlanResponse(&plans[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetPlan handles GET /plans/:id.
func (h *MealPlansHandler) GetPlan(c *fiber.Ctx) error {
	plan, err := h.service.GetPlan(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mealPlanResponse(plan)})
}

// UpdatePlan handles PATCH /plans/:id.
func (h *MealPlansHandler) UpdatePlan(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	req, err := h.parsePlanRequest(c)
	if err != nil {
		return err
	}

	plan, err := h.service.UpdatePlan(c.UserContext(), *identity, c.Params("id"), planInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mealPlanResponse(plan)})
}

// DeletePlan handles DELETE /plans/:id.
func (h *MealPlansHandler) DeletePlan(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeletePlan(c.UserContext(), *identity, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *MealPlansHandler) parsePlanRequest(c *fiber.Ctx) (dto.MealPlanRequest, error) {
	var req dto.MealPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return req, apperrors.NewValidationError(err.Error(), nil)
	}
	return req, nil
}

func planInput(req dto.MealPlanRequest) service.MealPlanInput {
	items := make([]domain.PlanItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.PlanItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Note:     item.Note,
		})
	}
	return service.MealPlanInput{
		Name:          req.Name,
		Price:         req.Price,
		BillingCycle:  req.BillingCycle,
		AvailableDays: req.AvailableDays,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Items:         items,
	}
}

func mealPlanResponse(plan *domain.MealPlan) dto.MealPlanResponse {
	return dto.MealPlanResponse{
		ID:            plan.ID,
		HouseID:       plan.HouseID,
		Name:          plan.Name,
		Price:         plan.PriceCents.String(),
		BillingCycle:  plan.BillingCycle,
		AvailableDays: plan.AvailableDays,
		StartTime:     plan.StartTime,
		EndTime:       plan.EndTime,
		Items:         plan.Items,
		CreatedAt:     plan.CreatedAt,
		UpdatedAt:     plan.UpdatedAt,
	}
}
