package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"biteme-be/internal/catalog"
	"biteme-be/internal/events"
	"biteme-be/internal/logger"
	"biteme-be/internal/metrics"
	"biteme-be/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CatalogReader is the slice of the catalog store order placement reads.
// It is always a live read, never the cache.
type CatalogReader interface {
	FindRestaurant(ctx context.Context, id string) (*catalog.Restaurant, error)
}

type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error)
	ListOrders(ctx context.Context) ([]*Order, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) error
	History(ctx context.Context, orderID string) ([]StatusChange, error)
}

type service struct {
	repo      Repository
	catalog   CatalogReader
	history   HistoryRepository
	publisher events.Publisher
	stats     *metrics.Orders
	now       func() time.Time
}

func NewService(
	repo Repository,
	catalogReader CatalogReader,
	history HistoryRepository,
	publisher events.Publisher,
	stats *metrics.Orders,
) Service {
	if history == nil {
		history = NewNoopHistory()
	}
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	if stats == nil {
		stats = &metrics.Orders{}
	}
	return &service{
		repo:      repo,
		catalog:   catalogReader,
		history:   history,
		publisher: publisher,
		stats:     stats,
		now:       time.Now,
	}
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
	)

	start := time.Now()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	log = log.With(zap.String("user_id", userID))

	/* ---------- INPUT ---------- */

	if err := utils.ValidateStruct(input); err != nil {
		s.stats.Rejected.Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := CheckItems(input.Items); err != nil {
		s.stats.Rejected.Inc()
		log.Warn("order rejected before catalog lookup", zap.Error(err))
		return nil, err
	}

	restaurantID, items, err := singleRestaurant(input.RestaurantID, input.Items)
	if err != nil {
		s.stats.Rejected.Inc()
		log.Warn("order rejected", zap.Error(err))
		return nil, err
	}

	/* ---------- CATALOG SNAPSHOT ---------- */

	restaurant, err := s.catalog.FindRestaurant(ctx, restaurantID)
	if errors.Is(err, catalog.ErrRestaurantNotFound) {
		s.stats.Rejected.Inc()
		return nil, reject(catalog.ErrRestaurantNotFound, restaurantID)
	}
	if err != nil {
		s.stats.Failed.Inc()
		log.Error("failed to load restaurant", zap.String("restaurant_id", restaurantID), zap.Error(err))
		return nil, err
	}

	validated, err := Validate(items, snapshotLookup(restaurant))
	if err != nil {
		s.stats.Rejected.Inc()
		log.Warn("order rejected", zap.String("restaurant_id", restaurantID), zap.Error(err))
		return nil, err
	}

	total := Total(validated)
	if input.TotalPrice != nil && !withinTolerance(*input.TotalPrice, total) {
		s.stats.Rejected.Inc()
		return nil, reject(ErrTotalMismatch, fmt.Sprintf("submitted %.2f, computed %.2f", *input.TotalPrice, total))
	}

	/* ---------- PERSIST ---------- */

	id := input.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := s.stamp()

	o := &Order{
		ID:                  id,
		UserID:              userID,
		RestaurantID:        restaurantID,
		Items:               validated,
		TotalPrice:          total,
		Status:              StatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
		SpecialInstructions: utils.TrimPtr(input.SpecialInstructions),
	}

	if _, err := s.repo.Insert(ctx, o); err != nil {
		if !errors.Is(err, ErrOrderExists) {
			s.stats.Failed.Inc()
		}
		log.Error("failed to persist order", zap.String("order_id", o.ID), zap.Error(err))
		return nil, err
	}

	s.stats.Created.Inc()
	s.afterChange(ctx, o, "", events.OrderCreated)

	log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("restaurant_id", restaurantID),
		zap.Int("items", len(o.Items)),
		zap.Float64("total_price", o.TotalPrice),
		zap.Duration("duration", time.Since(start)),
	)
	return o, nil
}

func (s *service) ListOrders(ctx context.Context) ([]*Order, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	return s.repo.FindByOwner(ctx, userID)
}

func (s *service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !validOrderID(orderID) {
		return nil, ErrInvalidOrderID
	}
	return s.repo.FindOne(ctx, orderID, userID)
}

func (s *service) UpdateStatus(ctx context.Context, orderID, status string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStatus"),
		zap.String("order_id", orderID),
	)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}

	to, ok := ParseStatus(status)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if !validOrderID(orderID) {
		return ErrInvalidOrderID
	}

	current, err := s.repo.FindOne(ctx, orderID, userID)
	if err != nil {
		return err
	}

	if current.Status == to {
		log.Debug("status unchanged", zap.String("status", string(to)))
		return nil
	}
	if !CanTransition(current.Status, to) {
		log.Warn("status transition refused",
			zap.String("from", string(current.Status)),
			zap.String("to", string(to)),
		)
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}

	at := s.stamp()
	modified, err := s.repo.UpdateStatus(ctx, current.ID, userID, current.Status, to, at)
	if err != nil {
		log.Error("failed to update status", zap.Error(err))
		return err
	}
	if modified == 0 {
		return ErrStatusConflict
	}

	previous := current.Status
	current.Status = to
	current.UpdatedAt = at

	s.stats.StatusChanged.Inc()
	s.afterChange(ctx, current, previous, events.OrderStatusChanged)

	log.Info("order status updated",
		zap.String("from", string(previous)),
		zap.String("to", string(to)),
	)
	return nil
}

func (s *service) History(ctx context.Context, orderID string) ([]StatusChange, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.history.ListByOrder(ctx, o.ID)
}

// afterChange records the audit row and publishes the event. Neither may
// fail the request once the order write succeeded.
func (s *service) afterChange(ctx context.Context, o *Order, previous Status, kind events.Type) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("order_id", o.ID),
	)

	change := StatusChange{
		OrderID:    o.ID,
		UserID:     o.UserID,
		FromStatus: previous,
		ToStatus:   o.Status,
		ChangedAt:  o.UpdatedAt,
	}
	if err := s.history.Record(ctx, change); err != nil {
		log.Error("failed to record status history", zap.Error(err))
	}

	err := s.publisher.Publish(ctx, events.OrderEvent{
		Type:           kind,
		OrderID:        o.ID,
		UserID:         o.UserID,
		RestaurantID:   o.RestaurantID,
		Status:         string(o.Status),
		PreviousStatus: string(previous),
		TotalPrice:     o.TotalPrice,
		OccurredAt:     o.UpdatedAt,
	})
	if err != nil {
		log.Error("failed to publish order event", zap.String("type", string(kind)), zap.Error(err))
	}
}

func (s *service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// singleRestaurant resolves the order's restaurant and fills it into items
// that left it blank. Items naming another restaurant are refused.
func singleRestaurant(restaurantID string, items []ProposedItem) (string, []ProposedItem, error) {
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		restaurantID = strings.TrimSpace(items[0].RestaurantID)
	}
	if restaurantID == "" {
		return "", nil, fmt.Errorf("%w: restaurant_id is required", ErrInvalidInput)
	}

	out := make([]ProposedItem, len(items))
	for i, it := range items {
		it.RestaurantID = strings.TrimSpace(it.RestaurantID)
		if it.RestaurantID == "" {
			it.RestaurantID = restaurantID
		}
		if it.RestaurantID != restaurantID {
			return "", nil, reject(ErrMixedRestaurants, it.Name)
		}
		out[i] = it
	}
	return restaurantID, out, nil
}

func snapshotLookup(r *catalog.Restaurant) CatalogLookup {
	return func(restaurantID, name string) (*catalog.MenuItem, error) {
		if restaurantID != r.ID {
			return nil, catalog.ErrRestaurantNotFound
		}
		item, ok := r.MenuItemByName(name)
		if !ok {
			return nil, catalog.ErrMenuItemNotFound
		}
		return item, nil
	}
}

func validOrderID(id string) bool {
	if _, err := uuid.Parse(id); err == nil {
		return true
	}
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
