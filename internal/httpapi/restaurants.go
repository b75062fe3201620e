package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"biteme-be/internal/catalog"
	"biteme-be/internal/utils"

	"github.com/gorilla/mux"
)

func (h *Handler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r.URL.Query())
	if err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := h.Catalog.ListRestaurants(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func parseListFilter(q url.Values) (catalog.ListFilter, error) {
	var f catalog.ListFilter

	if v := q.Get("cuisine"); v != "" {
		c, ok := catalog.ParseCategory(v)
		if !ok {
			return f, fmt.Errorf("unknown cuisine %q", v)
		}
		f.Cuisine = &c
	}

	if v := q.Get("min_rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil || rating < 0 || rating > 5 {
			return f, fmt.Errorf("min_rating must be a number between 0 and 5")
		}
		f.MinRating = &rating
	}

	if v := q.Get("vegetarian"); v != "" {
		veg, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("vegetarian must be true or false")
		}
		f.Vegetarian = &veg
	}

	return f, nil
}

func (h *Handler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	rest, err := h.Catalog.GetRestaurant(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rest)
}

func (h *Handler) restaurantQRCode(w http.ResponseWriter, r *http.Request) {
	png, err := h.Catalog.MenuQRCode(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

/* ---------- admin ---------- */

func (h *Handler) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var input catalog.RestaurantInput
	if err := decodeJSON(w, r, &input); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rest, err := h.Catalog.CreateRestaurant(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rest)
}

func (h *Handler) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	var input catalog.RestaurantInput
	if err := decodeJSON(w, r, &input); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rest, err := h.Catalog.UpdateRestaurant(r.Context(), mux.Vars(r)["id"], input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rest)
}

func (h *Handler) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteRestaurant(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteMessage(w, "Restaurant deleted successfully")
}

func (h *Handler) addMenuItem(w http.ResponseWriter, r *http.Request) {
	var input catalog.MenuItemInput
	if err := decodeJSON(w, r, &input); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Catalog.AddMenuItem(r.Context(), mux.Vars(r)["id"], input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	var input catalog.MenuItemInput
	if err := decodeJSON(w, r, &input); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	rest, err := h.Catalog.UpdateMenuItem(r.Context(), vars["id"], vars["item"], input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rest)
}

func (h *Handler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Catalog.DeleteMenuItem(r.Context(), vars["id"], vars["item"]); err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteMessage(w, "Menu item deleted successfully")
}
