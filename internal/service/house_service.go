package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/meal-marketplace/internal/auth"
	"github.com/spec-kit/meal-marketplace/internal/domain"
	"github.com/spec-kit/meal-marketplace/internal/events"
	"github.com/spec-kit/meal-marketplace/internal/repository"
	apperrors "github.com/spec-kit/meal-marketplace/pkg/util/errorutil"
)

// HouseService coordinates vendor house workflows.
type HouseService struct {
	houses     repository.HouseRepository
	dispatcher events.Dispatcher
}

// HouseInput describes house creation/update payload.
type HouseInput struct {
	Title       string
	Description *string
	Location    *string
}

// NewHouseService constructs the service.
func NewHouseService(houses repository.HouseRepository, dispatcher events.Dispatcher) *HouseService {
	return &HouseService{houses: houses, dispatcher: dispatcher}
}

// CreateHouse registers a new house owned by the caller.
func (s *HouseService) CreateHouse(ctx context.Context, identity auth.Identity, input HouseInput) (*domain.House, error) {
	if !identity.Role.CanOwnHouse() {
		return nil, apperrors.NewForbidden("only owners may create houses")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	house := &domain.House{
		OwnerID:     identity.UserID,
		Title:       title,
		Description: input.Description,
		Location:    input.Location,
	}
	if err := s.houses.Create(ctx, house); err != nil {
		return nil, err
	}
	return house, nil
}

// GetHouse fetches a house by id.
func (s *HouseService) GetHouse(ctx context.Context, id string) (*domain.House, error) {
	house, err := s.houses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("house", nil)
		}
		return nil, err
	}
	return house, nil
}

// ListHouses returns paginated houses.
func (s *HouseService) ListHouses(ctx context.Context, limit, offset int) ([]domain.House, error) {
	return s.houses.List(ctx, limit, offset)
}

// UpdateHouse mutates a house after an ownership check. Role membership
// alone never suffices: an owner may only touch their own houses.
func (s *HouseService) UpdateHouse(ctx context.Context, identity auth.Identity, id string, input HouseInput) (*domain.House, error) {
	house, err := s.GetHouse(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageHouse(identity, house) {
		return nil, apperrors.NewForbidden("not the house owner")
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		house.Title = title
	}
	if input.Description != nil {
		house.Description = input.Description
	}
	if input.Location != nil {
		house.Location = input.Location
	}
	if err := s.houses.Update(ctx, house); err != nil {
		return nil, err
	}
	return house, nil
}

// DeleteHouse removes a house. Deletion is refused while non-terminal
// orders reference the house.
func (s *HouseService) DeleteHouse(ctx context.Context, identity auth.Identity, id string) error {
	house, err := s.GetHouse(ctx, id)
	if err != nil {
		return err
	}
	if !canManageHouse(identity, house) {
		return apperrors.NewForbidden("not the house owner")
	}

	if err := s.houses.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrOpenOrders) {
			return apperrors.NewHasOpenOrders(id)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("house", nil)
		}
		return err
	}

	s.publishEvent(ctx, events.Event{
		Type:  events.EventHouseDeleted,
		Actor: events.Actor{UserID: identity.UserID, Role: identity.Role},
		Payload: events.HouseDeletedPayload{
			HouseID: house.ID,
			Title:   house.Title,
		},
	})
	return nil
}

func canManageHouse(identity auth.Identity, house *domain.House) bool {
	if identity.IsAdmin() {
		return true
	}
	return house.OwnerID == identity.UserID
}

func (s *HouseService) publishEvent(ctx context.Context, event events.Event) {
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
