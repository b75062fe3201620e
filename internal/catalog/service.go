package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"biteme-be/internal/logger"
	"biteme-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	ListRestaurants(ctx context.Context, filter ListFilter) ([]*Restaurant, error)
	GetRestaurant(ctx context.Context, id string) (*Restaurant, error)
	CreateRestaurant(ctx context.Context, input RestaurantInput) (*Restaurant, error)
	UpdateRestaurant(ctx context.Context, id string, input RestaurantInput) (*Restaurant, error)
	DeleteRestaurant(ctx context.Context, id string) error

	AddMenuItem(ctx context.Context, restaurantID string, input MenuItemInput) (*MenuItem, error)
	UpdateMenuItem(ctx context.Context, restaurantID, itemID string, input MenuItemInput) (*Restaurant, error)
	DeleteMenuItem(ctx context.Context, restaurantID, itemID string) error

	MenuQRCode(ctx context.Context, restaurantID string) ([]byte, error)
}

type service struct {
	repo    Repository
	cache   Cache
	qr      QRGenerator
	baseURL string
	now     func() time.Time
}

func NewService(repo Repository, cache Cache, qr QRGenerator, publicBaseURL string) Service {
	if cache == nil {
		cache = NewNoopCache()
	}
	return &service{
		repo:    repo,
		cache:   cache,
		qr:      qr,
		baseURL: publicBaseURL,
		now:     time.Now,
	}
}

func (s *service) ListRestaurants(ctx context.Context, filter ListFilter) ([]*Restaurant, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListRestaurants"),
	)

	gen := s.cache.Generation(ctx)
	if list, ok := s.cache.GetList(ctx, gen, filter); ok {
		log.Debug("restaurant list served from cache", zap.Int("count", len(list)))
		return list, nil
	}

	start := time.Now()
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list restaurants", zap.Error(err))
		return nil, err
	}

	s.cache.SetList(ctx, gen, filter, list)

	log.Info("restaurant list loaded",
		zap.Int("count", len(list)),
		zap.Duration("duration", time.Since(start)),
	)
	return list, nil
}

func (s *service) GetRestaurant(ctx context.Context, id string) (*Restaurant, error) {
	gen := s.cache.Generation(ctx)
	if r, ok := s.cache.GetRestaurant(ctx, gen, id); ok {
		return r, nil
	}

	r, err := s.repo.FindRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.SetRestaurant(ctx, gen, r)
	return r, nil
}

func (s *service) CreateRestaurant(ctx context.Context, input RestaurantInput) (*Restaurant, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateRestaurant"),
	)

	input = normalizeRestaurantInput(input)
	if err := validate(input); err != nil {
		log.Warn("invalid restaurant input", zap.Error(err))
		return nil, err
	}

	_, err := s.repo.FindRestaurantByName(ctx, input.Name)
	switch {
	case err == nil:
		return nil, ErrRestaurantExists
	case !errors.Is(err, ErrRestaurantNotFound):
		return nil, err
	}

	actorID, _ := utils.GetUserIDFromContext(ctx)
	now := s.stamp()

	r := &Restaurant{
		ID:          uuid.NewString(),
		Name:        input.Name,
		CuisineType: input.CuisineType,
		Rating:      input.Rating,
		Address:     input.Address,
		Description: input.Description,
		Menu:        []MenuItem{},
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   actorID,
		UpdatedBy:   actorID,
	}

	if err := s.repo.CreateRestaurant(ctx, r); err != nil {
		log.Error("failed to create restaurant", zap.String("name", r.Name), zap.Error(err))
		return nil, err
	}

	s.cache.Invalidate(ctx, r.ID)

	log.Info("restaurant created",
		zap.String("restaurant_id", r.ID),
		zap.String("actor_id", actorID),
	)
	return r, nil
}

func (s *service) UpdateRestaurant(ctx context.Context, id string, input RestaurantInput) (*Restaurant, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateRestaurant"),
		zap.String("restaurant_id", id),
	)

	input = normalizeRestaurantInput(input)
	if err := validate(input); err != nil {
		return nil, err
	}

	actorID, _ := utils.GetUserIDFromContext(ctx)

	r := &Restaurant{
		ID:          id,
		Name:        input.Name,
		CuisineType: input.CuisineType,
		Rating:      input.Rating,
		Address:     input.Address,
		Description: input.Description,
		UpdatedAt:   s.stamp(),
		UpdatedBy:   actorID,
	}

	if err := s.repo.UpdateRestaurant(ctx, r, input.Version); err != nil {
		log.Warn("restaurant update rejected",
			zap.Int64("expected_version", input.Version),
			zap.Error(err),
		)
		return nil, err
	}

	s.cache.Invalidate(ctx, id)

	updated, err := s.repo.FindRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Info("restaurant updated", zap.Int64("version", updated.Version))
	return updated, nil
}

func (s *service) DeleteRestaurant(ctx context.Context, id string) error {
	if err := s.repo.DeleteRestaurant(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)

	logger.FromCtx(ctx).Info("restaurant deleted",
		zap.String("layer", "service"),
		zap.String("restaurant_id", id),
	)
	return nil
}

func (s *service) AddMenuItem(ctx context.Context, restaurantID string, input MenuItemInput) (*MenuItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddMenuItem"),
		zap.String("restaurant_id", restaurantID),
	)

	input = normalizeMenuItemInput(input)
	if err := validate(input); err != nil {
		return nil, err
	}

	item := input.toMenuItem(uuid.NewString())
	actorID, _ := utils.GetUserIDFromContext(ctx)

	if err := s.repo.AddMenuItem(ctx, restaurantID, item, actorID, s.stamp()); err != nil {
		log.Warn("failed to add menu item", zap.String("name", item.Name), zap.Error(err))
		return nil, err
	}

	s.cache.Invalidate(ctx, restaurantID)

	log.Info("menu item added", zap.String("item_id", item.ID))
	return &item, nil
}

func (s *service) UpdateMenuItem(ctx context.Context, restaurantID, itemID string, input MenuItemInput) (*Restaurant, error) {
	input = normalizeMenuItemInput(input)
	if err := validate(input); err != nil {
		return nil, err
	}

	actorID, _ := utils.GetUserIDFromContext(ctx)
	if err := s.repo.UpdateMenuItem(ctx, restaurantID, input.toMenuItem(itemID), actorID, s.stamp()); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, restaurantID)
	return s.repo.FindRestaurant(ctx, restaurantID)
}

func (s *service) DeleteMenuItem(ctx context.Context, restaurantID, itemID string) error {
	actorID, _ := utils.GetUserIDFromContext(ctx)
	if err := s.repo.RemoveMenuItem(ctx, restaurantID, itemID, actorID, s.stamp()); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, restaurantID)
	return nil
}

func (s *service) MenuQRCode(ctx context.Context, restaurantID string) ([]byte, error) {
	r, err := s.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	png, err := s.qr.PNG(RestaurantURL(s.baseURL, r.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	return png, nil
}

func (s *service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func normalizeRestaurantInput(in RestaurantInput) RestaurantInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	if c, ok := ParseCategory(string(in.CuisineType)); ok {
		in.CuisineType = c
	}
	return in
}

func normalizeMenuItemInput(in MenuItemInput) MenuItemInput {
	in.Name = strings.TrimSpace(in.Name)
	if c, ok := ParseCategory(string(in.Category)); ok {
		in.Category = c
	}
	return in
}

func validate(v any) error {
	if err := utils.ValidateStruct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
