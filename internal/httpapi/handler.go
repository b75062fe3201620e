package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"biteme-be/internal/catalog"
	"biteme-be/internal/metrics"
	"biteme-be/internal/order"
	"biteme-be/internal/recommendation"
	"biteme-be/internal/user"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Orders          order.Service
	Users           user.Service
	Catalog         catalog.Service
	Recommendations recommendation.Service

	Store Pinger
	Stats *metrics.Orders
}

// RegisterRoutes mounts every route on r. Auth-gated routes are wrapped
// here; the caller installs the auth middleware that fills the context.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	// orders
	r.Handle("/orders", authed(h.createOrder)).Methods(http.MethodPost)
	r.Handle("/orders", authed(h.listOrders)).Methods(http.MethodGet)
	r.Handle("/orders/{id}", authed(h.getOrder)).Methods(http.MethodGet)
	r.Handle("/orders/{id}/status", authed(h.updateOrderStatus)).Methods(http.MethodPut)
	r.Handle("/orders/{id}/history", authed(h.orderHistory)).Methods(http.MethodGet)

	// users
	r.HandleFunc("/users/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/users/token", h.login).Methods(http.MethodPost)
	r.Handle("/users/me", authed(h.me)).Methods(http.MethodGet)
	r.Handle("/users/me", authed(h.updateMe)).Methods(http.MethodPut)

	// restaurants
	r.HandleFunc("/restaurants", h.listRestaurants).Methods(http.MethodGet)
	r.Handle("/restaurants", admin(h.createRestaurant)).Methods(http.MethodPost)
	r.HandleFunc("/restaurants/{id}", h.getRestaurant).Methods(http.MethodGet)
	r.Handle("/restaurants/{id}", admin(h.updateRestaurant)).Methods(http.MethodPut)
	r.Handle("/restaurants/{id}", admin(h.deleteRestaurant)).Methods(http.MethodDelete)
	r.HandleFunc("/restaurants/{id}/qrcode", h.restaurantQRCode).Methods(http.MethodGet)
	r.Handle("/restaurants/{id}/menu", admin(h.addMenuItem)).Methods(http.MethodPost)
	r.Handle("/restaurants/{id}/menu/{item}", admin(h.updateMenuItem)).Methods(http.MethodPut)
	r.Handle("/restaurants/{id}/menu/{item}", admin(h.deleteMenuItem)).Methods(http.MethodDelete)
	r.Handle("/restaurants/{id}/recommendations", authed(h.recommend)).Methods(http.MethodPost)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
