package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/meal-marketplace/internal/auth"
	"github.com/spec-kit/meal-marketplace/internal/domain"
	"github.com/spec-kit/meal-marketplace/internal/repository"
	apperrors "github.com/spec-kit/meal-marketplace/pkg/util/errorutil"
)

func newOrderService(orders *MockOrderRepo, plans *MockPlanRepo, houses *MockHouseRepo) *OrderService {
	return NewOrderService(OrderDependencies{
		OrderRepo: orders,
		PlanRepo:  plans,
		HouseRepo: houses,
	})
}

func buyer() auth.Identity {
	return auth.Identity{UserID: "user-1", Role: domain.RoleUser}
}

func testPlan() *domain.MealPlan {
	return &domain.MealPlan{
		ID:            "plan-1",
		HouseID:       "house-1",
		Name:          "Weekly Lunch",
		PriceCents:    1250,
		BillingCycle:  domain.BillingCycleWeekly,
		AvailableDays: []domain.Weekday{domain.Mon, domain.Tue},
		Items:         []domain.PlanItem{{Name: "Rice bowl", Quantity: 1}},
	}
}

func testOrder(status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:          "order-1",
		UserID:      "user-1",
		HouseID:     "house-1",
		PlanID:      "plan-1",
		Status:      status,
		AmountCents: 1250,
		Version:     1,
		CreatedAt:   time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
}

func domainErrCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	return domainErr.Code
}

func TestPlaceOrder_SnapshotsPrice(t *testing.T) {
	orders := new(MockOrderRepo)
	plans := new(MockPlanRepo)
	svc := newOrderService(orders, plans, new(MockHouseRepo))

	plans.On("GetByID", mock.Anything, "plan-1").Return(testPlan(), nil).Once()
	orders.On("CreateFromPlan", mock.Anything, "user-1", "plan-1").Return(testOrder(domain.OrderStatusCreated), nil).Once()

	placed, err := svc.PlaceOrder(context.Background(), buyer(), PlaceOrderInput{PlanID: "plan-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(1250), placed.Order.AmountCents)
	assert.Equal(t, domain.OrderStatusCreated, placed.Order.Status)
	require.NotNil(t, placed.NextRenewalAt)
	assert.Equal(t, placed.Order.CreatedAt.AddDate(0, 0, 7), *placed.NextRenewalAt)
	orders.AssertExpectations(t)
}

func TestPlaceOrder_OneOffHasNoRenewal(t *testing.T) {
	orders := new(MockOrderRepo)
	plans := new(MockPlanRepo)
	svc := newOrderService(orders, plans, new(MockHouseRepo))

	plan := testPlan()
	plan.BillingCycle = domain.BillingCycleOneOff
	plans.On("GetByID", mock.Anything, "plan-1").Return(plan, nil).Once()
	orders.On("CreateFromPlan", mock.Anything, "user-1", "plan-1").Return(testOrder(domain.OrderStatusCreated), nil).Once()

	placed, err := svc.PlaceOrder(context.Background(), buyer(), PlaceOrderInput{PlanID: "plan-1"})
	require.NoError(t, err)
	assert.Nil(t, placed.NextRenewalAt)
}

func TestPlaceOrder_PlanNotFound(t *testing.T) {
	plans := new(MockPlanRepo)
	svc := newOrderService(new(MockOrderRepo), plans, new(MockHouseRepo))

	plans.On("GetByID", mock.Anything, "missing").Return(nil, pgx.ErrNoRows).Once()

	_, err := svc.PlaceOrder(context.Background(), buyer(), PlaceOrderInput{PlanID: "missing"})
	assert.Equal(t, "NOT_FOUND", domainErrCode(t, err))
}

func TestPlaceOrder_OutsideAvailability(t *testing.T) {
	orders := new(MockOrderRepo)
	plans := new(MockPlanRepo)
	svc := newOrderService(orders, plans, new(MockHouseRepo))

	plans.On("GetByID", mock.Anything, "plan-1").Return(testPlan(), nil).Once()

	day := domain.Sun
	_, err := svc.PlaceOrder(context.Background(), buyer(), PlaceOrderInput{PlanID: "plan-1", Day: &day})
	assert.Equal(t, "INVALID_PLAN", domainErrCode(t, err))
	orders.AssertNotCalled(t, "CreateFromPlan", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrder_EmptyDaySetMeansAlways(t *testing.T) {
	orders := new(MockOrderRepo)
	plans := new(MockPlanRepo)
	svc := newOrderService(orders, plans, new(MockHouseRepo))

	plan := testPlan()
	plan.AvailableDays = nil
	plans.On("GetByID", mock.Anything, "plan-1").Return(plan, nil).Once()
	orders.On("CreateFromPlan", mock.Anything, "user-1", "plan-1").Return(testOrder(domain.OrderStatusCreated), nil).Once()

	day := domain.Sun
	_, err := svc.PlaceOrder(context.Background(), buyer(), PlaceOrderInput{PlanID: "plan-1", Day: &day})
	require.NoError(t, err)
}

func TestAdvanceStatus_TransitionGrid(t *testing.T) {
	admin := auth.Identity{UserID: "admin-1", Role: domain.RoleAdmin}
	statuses := []domain.OrderStatus{
		domain.OrderStatusCreated,
		domain.OrderStatusConfirmed,
		domain.OrderStatusFulfilled,
		domain.OrderStatusCancelled,
	}
	legal := map[domain.OrderStatus]map[domain.OrderStatus]bool{
		domain.OrderStatusCreated:   {domain.OrderStatusConfirmed: true, domain.OrderStatusCancelled: true},
		domain.OrderStatusConfirmed: {domain.OrderStatusFulfilled: true, domain.OrderStatusCancelled: true},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				orders := new(MockOrderRepo)
				svc := newOrderService(orders, new(MockPlanRepo), new(MockHouseRepo))
				order := testOrder(from)
				orders.On("GetByID", mock.Anything, "order-1").Return(order, nil).Once()

				if legal[from][to] {
					updated := testOrder(to)
					updated.Version = 2
					orders.On("UpdateStatus", mock.Anything, "order-1", to, int64(1)).Return(updated, nil).Once()

					result, err := svc.AdvanceStatus(context.Background(), admin, "order-1", to)
					require.NoError(t, err)
					assert.Equal(t, to, result.Status)
				} else {
					_, err := svc.AdvanceStatus(context.Background(), admin, "order-1", to)
					assert.Equal(t, "ILLEGAL_TRANSITION", domainErrCode(t, err))
					orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				}
			})
		}
	}
}

func TestAdvanceStatus_CustomerMayOnlyCancelCreated(t *testing.T) {
	customer := auth.Identity{UserID: "user-1", Role: domain.RoleUser}

	t.Run("cancel from created succeeds", func(t *testing.T) {
		orders := new(MockOrderRepo)
		houses := new(MockHouseRepo)
		svc := newOrderService(orders, new(MockPlanRepo), houses)
		orders.On("GetByID", mock.Anything, "order-1").Return(testOrder(domain.OrderStatusCreated), nil).Once()
		houses.On("GetByID", mock.Anything, "house-1").Return(&domain.House{ID: "house-1", OwnerID: "owner-1"}, nil).Once()
		cancelled := testOrder(domain.OrderStatusCancelled)
		orders.On("UpdateStatus", mock.Anything, "order-1", domain.OrderStatusCancelled, int64(1)).Return(cancelled, nil).Once()

		_, err := svc.AdvanceStatus(context.Background(), customer, "order-1", domain.OrderStatusCancelled)
		require.NoError(t, err)
	})

	t.Run("fulfil from confirmed is forbidden", func(t *testing.T) {
		orders := new(MockOrderRepo)
		houses := new(MockHouseRepo)
		svc := newOrderService(orders, new(MockPlanRepo), houses)
		orders.On("GetByID", mock.Anything, "order-1").Return(testOrder(domain.OrderStatusConfirmed), nil).Once()
		houses.On("GetByID", mock.Anything, "house-1").Return(&domain.House{ID: "house-1", OwnerID: "owner-1"}, nil).Once()

		_, err := svc.AdvanceStatus(context.Background(), customer, "order-1", domain.OrderStatusFulfilled)
		assert.Equal(t, "FORBIDDEN", domainErrCode(t, err))
	})

	t.Run("cancel from confirmed is forbidden", func(t *testing.T) {
		orders := new(MockOrderRepo)
		houses := new(MockHouseRepo)
		svc := newOrderService(orders, new(MockPlanRepo), houses)
		orders.On("GetByID", mock.Anything, "order-1").Return(testOrder(domain.OrderStatusConfirmed), nil).Once()
		houses.On("GetByID", mock.Anything, "house-1").Return(&domain.House{ID: "house-1", OwnerID: "owner-1"}, nil).Once()

		_, err := svc.AdvanceStatus(context.Background(), customer, "order-1", domain.OrderStatusCancelled)
		assert.Equal(t, "FORBIDDEN", domainErrCode(t, err))
	})
}

func TestAdvanceStatus_HouseOwnerDrivesLifecycle(t *testing.T) {
	owner := auth.Identity{UserID: "owner-1", Role: domain.RoleOwner}
	orders := new(MockOrderRepo)
	houses := new(MockHouseRepo)
	svc := newOrderService(orders, new(MockPlanRepo), houses)

	orders.On("GetByID", mock.Anything, "order-1").Return(testOrder(domain.OrderStatusCreated), nil).Once()
	houses.On("GetByID", mock.Anything, "house-1").Return(&domain.House{ID: "house-1", OwnerID: "owner-1"}, nil).Once()
	confirmed := testOrder(domain.OrderStatusConfirmed)
	orders.On("UpdateStatus", mock.Anything, "order-1", domain.OrderStatusConfirmed, int64(1)).Return(confirmed, nil).Once()

	result, err := svc.AdvanceStatus(context.Background(), owner, "order-1", domain.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, result.Status)
}

func TestAdvanceStatus_StrangerForbidden(t *testing.T) {
	stranger := auth.Identity{UserID: "other-owner", Role: domain.RoleOwner}
	orders := new(MockOrderRepo)
	houses := new(MockHouseRepo)
	svc := newOrderService(orders, new(MockPlanRepo), houses)

	orders.On("GetByID", mock.Anything, "order-1").Return(testOrder(domain.OrderStatusCreated), nil).Once()
	houses.On("GetByID", mock.Anything, "house-1").Return(&domain.House{ID: "house-1", OwnerID: "owner-1"}, nil).Once()

	_, err := svc.AdvanceStatus(context.Background(), stranger, "order-1", domain.OrderStatusConfirmed)
	assert.Equal(t, "FORBIDDEN", domainErrCode(t, err))
}

func TestAdvanceStatus_IllegalTransitionReportedBeforeStanding(t *testing.T) {
	stranger := auth.Identity{UserID: "other-user", Role: domain.RoleUser}
	orders := new(MockOrderRepo)
	houses := new(MockHouseRepo)
	svc := newOrderService(orders, new(MockPlanRepo), houses)

	orders.On("GetByID", mock.Anything, "order-1").Return(testOrder(domain.OrderStatusFulfilled), nil).Once()

	_, err := svc.AdvanceStatus(context.Background(), stranger, "order-1", domain.OrderStatusCancelled)
	assert.Equal(t, "ILLEGAL_TRANSITION", domainErrCode(t, err))
	houses.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAdvanceStatus_LostRaceIsRetryableConflict(t *testing.T) {
	admin := auth.Identity{UserID: "admin-1", Role: domain.RoleAdmin}
	orders := new(MockOrderRepo)
	svc := newOrderService(orders, new(MockPlanRepo), new(MockHouseRepo))

	orders.On("GetByID", mock.Anything, "order-1").Return(testOrder(domain.OrderStatusCreated), nil).Once()
	orders.On("UpdateStatus", mock.Anything, "order-1", domain.OrderStatusConfirmed, int64(1)).
		Return(nil, repository.ErrVersionConflict).Once()

	_, err := svc.AdvanceStatus(context.Background(), admin, "order-1", domain.OrderStatusConfirmed)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
	assert.True(t, domainErr.Retryable)
}

func TestGetOrder_Visibility(t *testing.T) {
	tests := []struct {
		name      string
		identity  auth.Identity
		ownerID   string
		wantError bool
	}{
		{name: "order user sees own order", identity: auth.Identity{UserID: "user-1", Role: domain.RoleUser}, ownerID: "owner-1"},
		{name: "house owner sees order", identity: auth.Identity{UserID: "owner-1", Role: domain.RoleOwner}, ownerID: "owner-1"},
		{name: "admin sees order", identity: auth.Identity{UserID: "admin-1", Role: domain.RoleAdmin}, ownerID: "owner-1"},
		{name: "stranger is forbidden", identity: auth.Identity{UserID: "user-2", Role: domain.RoleUser}, ownerID: "owner-1", wantError: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			orders := new(MockOrderRepo)
			houses := new(MockHouseRepo)
			svc := newOrderService(orders, new(MockPlanRepo), houses)
			orders.On("GetByID", mock.Anything, "order-1").Return(testOrder(domain.OrderStatusCreated), nil).Once()
			houses.On("GetByID", mock.Anything, "house-1").Return(&domain.House{ID: "house-1", OwnerID: tc.ownerID}, nil).Maybe()

			order, err := svc.GetOrder(context.Background(), tc.identity, "order-1")
			if tc.wantError {
				assert.Equal(t, "FORBIDDEN", domainErrCode(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "order-1", order.ID)
		})
	}
}

func TestListOrders_ScopedByRole(t *testing.T) {
	t.Run("admin lists everything", func(t *testing.T) {
		orders := new(MockOrderRepo)
		svc := newOrderService(orders, new(MockPlanRepo), new(MockHouseRepo))
		orders.On("ListAll", mock.Anything, 10, 0).Return([]domain.Order{}, nil).Once()

		_, err := svc.ListOrders(context.Background(), auth.Identity{UserID: "a", Role: domain.RoleAdmin}, 10, 0)
		require.NoError(t, err)
		orders.AssertExpectations(t)
	})

	t.Run("owner lists orders on own houses", func(t *testing.T) {
		orders := new(MockOrderRepo)
		svc := newOrderService(orders, new(MockPlanRepo), new(MockHouseRepo))
		orders.On("ListByHouseOwner", mock.Anything, "o", 10, 0).Return([]domain.Order{}, nil).Once()

		_, err := svc.ListOrders(context.Background(), auth.Identity{UserID: "o", Role: domain.RoleOwner}, 10, 0)
		require.NoError(t, err)
		orders.AssertExpectations(t)
	})

	t.Run("user lists own orders", func(t *testing.T) {
		orders := new(MockOrderRepo)
		svc := newOrderService(orders, new(MockPlanRepo), new(MockHouseRepo))
		orders.On("ListByUser", mock.Anything, "u", 10, 0).Return([]domain.Order{}, nil).Once()

		_, err := svc.ListOrders(context.Background(), auth.Identity{UserID: "u", Role: domain.RoleUser}, 10, 0)
		require.NoError(t, err)
		orders.AssertExpectations(t)
	})
}
