package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/meal-marketplace/internal/auth"
	"github.com/spec-kit/meal-marketplace/internal/billing"
	"github.com/spec-kit/meal-marketplace/internal/domain"
	"github.com/spec-kit/meal-marketplace/internal/events"
	"github.com/spec-kit/meal-marketplace/internal/repository"
	apperrors "github.com/spec-kit/meal-marketplace/pkg/util/errorutil"
)

// OrderService drives the order lifecycle: placement with a price
// snapshot, and guarded status transitions.
type OrderService struct {
	orders     repository.OrderRepository
	plans      repository.MealPlanRepository
	houses     repository.HouseRepository
	dispatcher events.Dispatcher
}

// OrderDependencies bundles repositories for the order service.
type OrderDependencies struct {
	OrderRepo  repository.OrderRepository
	PlanRepo   repository.MealPlanRepository
	HouseRepo  repository.HouseRepository
	Dispatcher events.Dispatcher
}

// PlaceOrderInput describes order placement. Day and Time optionally
// carry the intended consumption slot; when absent, the plan's
// availability window is not evaluated.
type PlaceOrderInput struct {
	PlanID string
	Day    *domain.Weekday
	Time   *string
}

// PlacedOrder pairs the created order with its renewal schedule.
type PlacedOrder struct {
	Order         *domain.Order
	NextRenewalAt *time.Time
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	return &OrderService{
		orders:     deps.OrderRepo,
		plans:      deps.PlanRepo,
		houses:     deps.HouseRepo,
		dispatcher: deps.Dispatcher,
	}
}

var allowedTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusCreated:   {domain.OrderStatusConfirmed, domain.OrderStatusCancelled},
	domain.OrderStatusConfirmed: {domain.OrderStatusFulfilled, domain.OrderStatusCancelled},
	domain.OrderStatusFulfilled: {},
	domain.OrderStatusCancelled: {},
}

func isValidTransition(current, next domain.OrderStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// PlaceOrder creates an order for the plan with the price snapshotted
// at this instant. The snapshot happens inside the insert statement, so
// a concurrent price edit is either fully before or fully after it.
func (s *OrderService) PlaceOrder(ctx context.Context, identity auth.Identity, input PlaceOrderInput) (*PlacedOrder, error) {
	plan, err := s.plans.GetByID(ctx, input.PlanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("meal plan", nil)
		}
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, apperrors.NewInvalidPlan(err.Error(), nil)
	}

	available, err := plan.AvailableOn(input.Day, input.Time)
	if err != nil {
		return nil, apperrors.NewInvalidPlan(err.Error(), nil)
	}
	if !available {
		return nil, apperrors.NewInvalidPlan("plan not available at the requested time", map[string]any{
			"available_days": plan.AvailableDays,
			"start_time":     plan.StartTime,
			"end_time":       plan.EndTime,
		})
	}

	order, err := s.orders.CreateFromPlan(ctx, identity.UserID, plan.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("meal plan", nil)
		}
		return nil, err
	}

	placed := &PlacedOrder{Order: order}
	if next, ok := billing.NextRenewal(plan.BillingCycle, order.CreatedAt); ok {
		placed.NextRenewalAt = &next
	}

	s.publishEvent(ctx, events.Event{
		Type:  events.EventOrderPlaced,
		Actor: events.Actor{UserID: identity.UserID, Role: identity.Role},
		Payload: events.OrderPlacedPayload{
			OrderID:       order.ID,
			HouseID:       order.HouseID,
			PlanID:        order.PlanID,
			Amount:        order.AmountCents.String(),
			BillingCycle:  plan.BillingCycle,
			NextRenewalAt: placed.NextRenewalAt,
		},
	})
	return placed, nil
}

// AdvanceStatus transitions an order. The transition must be legal per
// the state machine, and the actor must have standing: the order's user
// may only cancel a freshly created order, while the house owner and
// admins may drive any legal transition. The write is an optimistic
// compare-and-set; losing the race surfaces as a retryable conflict.
func (s *OrderService) AdvanceStatus(ctx context.Context, identity auth.Identity, orderID string, target domain.OrderStatus) (*domain.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(order.Status, target) {
		return nil, apperrors.NewIllegalTransition(string(order.Status), string(target))
	}

	if err := s.checkStanding(ctx, identity, order, target); err != nil {
		return nil, err
	}

	oldStatus := order.Status
	updated, err := s.orders.UpdateStatus(ctx, orderID, target, order.Version)
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("order was modified concurrently", map[string]any{"order_id": orderID})
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:  events.EventOrderStatusChanged,
		Actor: events.Actor{UserID: identity.UserID, Role: identity.Role},
		Payload: events.OrderStatusChangedPayload{
			OrderID:   updated.ID,
			HouseID:   updated.HouseID,
			OldStatus: oldStatus,
			NewStatus: updated.Status,
		},
	})
	return updated, nil
}

// GetOrder fetches an order visible to the caller: its user, the owning
// house's owner, or an admin.
func (s *OrderService) GetOrder(ctx context.Context, identity auth.Identity, orderID string) (*domain.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	visible, err := s.canSeeOrder(ctx, identity, order)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, apperrors.NewForbidden("no access to this order")
	}
	return order, nil
}

// ListOrders returns orders scoped by role: admins see everything,
// owners see orders placed against their houses, users see their own.
func (s *OrderService) ListOrders(ctx context.Context, identity auth.Identity, limit, offset int) ([]domain.Order, error) {
	switch identity.Role {
	case domain.RoleAdmin:
		return s.orders.ListAll(ctx, limit, offset)
	case domain.RoleOwner:
		return s.orders.ListByHouseOwner(ctx, identity.UserID, limit, offset)
	default:
		return s.orders.ListByUser(ctx, identity.UserID, limit, offset)
	}
}

func (s *OrderService) getOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", nil)
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) checkStanding(ctx context.Context, identity auth.Identity, order *domain.Order, target domain.OrderStatus) error {
	if identity.IsAdmin() {
		return nil
	}

	isHouseOwner, err := s.ownsHouse(ctx, identity, order.HouseID)
	if err != nil {
		return err
	}
	if isHouseOwner {
		return nil
	}

	if order.UserID == identity.UserID {
		if target == domain.OrderStatusCancelled && order.Status == domain.OrderStatusCreated {
			return nil
		}
		return apperrors.NewForbidden("customers may only cancel orders that are not yet confirmed")
	}
	return apperrors.NewForbidden("no standing on this order")
}

func (s *OrderService) canSeeOrder(ctx context.Context, identity auth.Identity, order *domain.Order) (bool, error) {
	if identity.IsAdmin() || order.UserID == identity.UserID {
		return true, nil
	}
	return s.ownsHouse(ctx, identity, order.HouseID)
}

func (s *OrderService) ownsHouse(ctx context.Context, identity auth.Identity, houseID string) (bool, error) {
	house, err := s.houses.GetByID(ctx, houseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return house.OwnerID == identity.UserID, nil
}

func (s *OrderService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
