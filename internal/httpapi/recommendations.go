package httpapi

import (
	"errors"
	"io"
	"net/http"

	"biteme-be/internal/recommendation"
	"biteme-be/internal/utils"

	"github.com/gorilla/mux"
)

func (h *Handler) recommend(w http.ResponseWriter, r *http.Request) {
	var input recommendation.Input
	// the preference is optional, so an empty body is fine
	if err := decodeJSON(w, r, &input); err != nil && !errors.Is(err, io.EOF) {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.Recommendations.Recommend(r.Context(), mux.Vars(r)["id"], input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rec)
}
