package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/meal-marketplace/internal/auth"
	"github.com/spec-kit/meal-marketplace/internal/cache"
	"github.com/spec-kit/meal-marketplace/internal/domain"
	"github.com/spec-kit/meal-marketplace/internal/repository"
	apperrors "github.com/spec-kit/meal-marketplace/pkg/util/errorutil"
)

// MealPlanService coordinates meal plan workflows. Reads go through a
// redis read-through cache; every write invalidates the cached entry.
type MealPlanService struct {
	plans    repository.MealPlanRepository
	houses   repository.HouseRepository
	cache    *cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// MealPlanInput describes plan creation/update payload.
type MealPlanInput struct {
	Name          string
	Price         string
	BillingCycle  string
	AvailableDays []string
	StartTime     *string
	EndTime       *string
	Items         []domain.PlanItem
}

// NewMealPlanService constructs the service.
func NewMealPlanService(plans repository.MealPlanRepository, houses repository.HouseRepository, planCache *cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *MealPlanService {
	return &MealPlanService{plans: plans, houses: houses, cache: planCache, cacheTTL: cacheTTL, logger: logger}
}

// CreatePlan publishes a new plan under the house after an ownership check.
func (s *MealPlanService) CreatePlan(ctx context.Context, identity auth.Identity, houseID string, input MealPlanInput) (*domain.MealPlan, error) {
	house, err := s.houses.GetByID(ctx, houseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("house", nil)
		}
		return nil, err
	}
	if !canManageHouse(identity, house) {
		return nil, apperrors.NewForbidden("not the house owner")
	}

	plan, err := buildPlan(houseID, input)
	if err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}
	s.cachePlan(ctx, plan)
	return plan, nil
}

// GetPlan fetches a plan, preferring the cache.
func (s *MealPlanService) GetPlan(ctx context.Context, id string) (*domain.MealPlan, error) {
	var cached *domain.MealPlan
	found, err := s.cache.Get(ctx, planCacheKey(id), &cached)
	if err != nil {
		s.logger.Warn("plan cache read failed", zap.String("plan_id", id), zap.Error(err))
	} else if found {
		return cached, nil
	}

	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("meal plan", nil)
		}
		return nil, err
	}
	s.cachePlan(ctx, plan)
	return plan, nil
}

// ListPlans returns all plans of a house.
func (s *MealPlanService) ListPlans(ctx context.Context, houseID string) ([]domain.MealPlan, error) {
	if _, err := s.houses.GetByID(ctx, houseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("house", nil)
		}
		return nil, err
	}
	return s.plans.ListByHouse(ctx, houseID)
}

// UpdatePlan mutates a plan after an ownership check on its house.
func (s *MealPlanService) UpdatePlan(ctx context.Context, identity auth.Identity, id string, input MealPlanInput) (*domain.MealPlan, error) {
	existing, err := s.planWithOwnership(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	plan, err := buildPlan(existing.HouseID, input)
	if err != nil {
		return nil, err
	}
	plan.ID = existing.ID
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, err
	}
	plan.CreatedAt = existing.CreatedAt
	s.cachePlan(ctx, plan)
	return plan, nil
}

// DeletePlan removes a plan after an ownership check on its house.
func (s *MealPlanService) DeletePlan(ctx context.Context, identity auth.Identity, id string) error {
	if _, err := s.planWithOwnership(ctx, identity, id); err != nil {
		return err
	}
	if err := s.plans.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("meal plan", nil)
		}
		return err
	}
	if err := s.cache.Invalidate(ctx, planCacheKey(id)); err != nil {
		s.logger.Warn("plan cache invalidation failed", zap.String("plan_id", id), zap.Error(err))
	}
	return nil
}

func (s *MealPlanService) planWithOwnership(ctx context.Context, identity auth.Identity, id string) (*domain.MealPlan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("meal plan", nil)
		}
		return nil, err
	}
	house, err := s.houses.GetByID(ctx, plan.HouseID)
	if err != nil {
		return nil, err
	}
	if !canManageHouse(identity, house) {
		return nil, apperrors.NewForbidden("not the house owner")
	}
	return plan, nil
}

func (s *MealPlanService) cachePlan(ctx context.Context, plan *domain.MealPlan) {
	if err := s.cache.Set(ctx, planCacheKey(plan.ID), plan, s.cacheTTL); err != nil {
		s.logger.Warn("plan cache write failed", zap.String("plan_id", plan.ID), zap.Error(err))
	}
}

func buildPlan(houseID string, input MealPlanInput) (*domain.MealPlan, error) {
	price, err := domain.ParseAmount(input.Price)
	if err != nil {
		return nil, apperrors.NewInvalidPlan(err.Error(), nil)
	}
	cycle, err := domain.ParseBillingCycle(input.BillingCycle)
	if err != nil {
		return nil, apperrors.NewInvalidPlan(err.Error(), nil)
	}

	days := make([]domain.Weekday, 0, len(input.AvailableDays))
	seen := make(map[domain.Weekday]struct{}, len(input.AvailableDays))
	for _, raw := range input.AvailableDays {
		day, err := domain.ParseWeekday(raw)
		if err != nil {
			return nil, apperrors.NewInvalidPlan(err.Error(), nil)
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}

	items := input.Items
	if items == nil {
		items = []domain.PlanItem{}
	}

	plan := &domain.MealPlan{
		HouseID:       houseID,
		Name:          strings.TrimSpace(input.Name),
		PriceCents:    price,
		BillingCycle:  cycle,
		AvailableDays: days,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		Items:         items,
	}
	if err := plan.Validate(); err != nil {
		return nil, apperrors.NewInvalidPlan(err.Error(), nil)
	}
	return plan, nil
}

func planCacheKey(id string) string {
	return fmt.Sprintf("mealplan:%s", id)
}
