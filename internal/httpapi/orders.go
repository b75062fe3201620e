package httpapi

import (
	"net/http"

	"biteme-be/internal/order"
	"biteme-be/internal/utils"

	"github.com/gorilla/mux"
)

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var input order.CreateOrderInput
	if err := decodeJSON(w, r, &input); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	o, err := h.Orders.CreateOrder(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListOrders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

// updateOrderStatus takes the status from the JSON body or, for older
// clients, the status query parameter.
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		var req statusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		status = req.Status
	}

	if err := h.Orders.UpdateStatus(r.Context(), mux.Vars(r)["id"], status); err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteMessage(w, "Order status updated successfully")
}

func (h *Handler) orderHistory(w http.ResponseWriter, r *http.Request) {
	changes, err := h.Orders.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, changes)
}
