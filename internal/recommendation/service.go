package recommendation

import (
	"context"
	"fmt"
	"strings"

	"biteme-be/internal/catalog"
	"biteme-be/internal/logger"
	"biteme-be/internal/order"
	"biteme-be/internal/utils"

	"go.uber.org/zap"
)

type RestaurantReader interface {
	GetRestaurant(ctx context.Context, id string) (*catalog.Restaurant, error)
}

type OrderLister interface {
	ListOrders(ctx context.Context) ([]*order.Order, error)
}

type Service interface {
	Recommend(ctx context.Context, restaurantID string, input Input) (*Recommendation, error)
}

type service struct {
	restaurants RestaurantReader
	orders      OrderLister
	client      Client
}

func NewService(restaurants RestaurantReader, orders OrderLister, client Client) Service {
	return &service{restaurants: restaurants, orders: orders, client: client}
}

func (s *service) Recommend(ctx context.Context, restaurantID string, input Input) (*Recommendation, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Recommend"),
		zap.String("restaurant_id", restaurantID),
	)

	if _, ok := utils.GetUserIDFromContext(ctx); !ok {
		return nil, ErrUnauthorized
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	r, err := s.restaurants.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	menu := availableMenu(r)
	if len(menu) == 0 {
		return nil, ErrEmptyMenu
	}

	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		log.Error("failed to load order history", zap.Error(err))
		return nil, err
	}

	rec, err := s.client.Recommend(ctx, Request{
		RestaurantMenu:     menu,
		UserPreviousOrders: previousItems(orders),
		UserPreference:     utils.TrimPtr(input.Preference),
	})
	if err != nil {
		return nil, err
	}

	kept := onMenu(rec.RecommendedItems, menu)
	if dropped := len(rec.RecommendedItems) - len(kept); dropped > 0 {
		log.Warn("dropped recommendations not on the menu", zap.Int("dropped", dropped))
	}

	return &Recommendation{RecommendedItems: kept, Reasoning: rec.Reasoning}, nil
}

func availableMenu(r *catalog.Restaurant) []MenuEntry {
	menu := make([]MenuEntry, 0, len(r.Menu))
	for _, item := range r.Menu {
		if !item.Available {
			continue
		}
		menu = append(menu, MenuEntry{
			Name:        item.Name,
			Price:       item.Price,
			Description: item.Description,
			Category:    string(item.Category),
		})
	}
	return menu
}

// previousItems flattens order history into item names, newest order first,
// each name once.
func previousItems(orders []*order.Order) []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, o := range orders {
		for _, it := range o.Items {
			if _, dup := seen[it.Name]; dup {
				continue
			}
			seen[it.Name] = struct{}{}
			names = append(names, it.Name)
		}
	}
	return names
}

// onMenu keeps recommended names that match a menu item, case-insensitively,
// and returns them with the menu's spelling.
func onMenu(names []string, menu []MenuEntry) []string {
	byKey := make(map[string]string, len(menu))
	for _, m := range menu {
		byKey[strings.ToLower(strings.TrimSpace(m.Name))] = m.Name
	}

	kept := []string{}
	for _, n := range names {
		if name, ok := byKey[strings.ToLower(strings.TrimSpace(n))]; ok {
			kept = append(kept, name)
		}
	}
	return kept
}
