package httpapi

import (
	"errors"
	"net/http"

	"biteme-be/internal/auth"
	"biteme-be/internal/catalog"
	"biteme-be/internal/db"
	"biteme-be/internal/logger"
	"biteme-be/internal/order"
	"biteme-be/internal/recommendation"
	"biteme-be/internal/user"
	"biteme-be/internal/utils"

	"go.uber.org/zap"
)

var statusByError = []struct {
	err  error
	code int
}{
	// -- Not found --
	{order.ErrOrderNotFound, http.StatusNotFound},
	{catalog.ErrRestaurantNotFound, http.StatusNotFound},
	{catalog.ErrMenuItemNotFound, http.StatusNotFound},
	{user.ErrUserNotFound, http.StatusNotFound},

	// -- Validation --
	{order.ErrEmptyOrder, http.StatusBadRequest},
	{order.ErrInvalidQuantity, http.StatusBadRequest},
	{order.ErrPriceMismatch, http.StatusBadRequest},
	{order.ErrTotalMismatch, http.StatusBadRequest},
	{order.ErrMixedRestaurants, http.StatusBadRequest},
	{order.ErrInvalidInput, http.StatusBadRequest},
	{order.ErrInvalidOrderID, http.StatusBadRequest},
	{order.ErrInvalidStatus, http.StatusBadRequest},
	{catalog.ErrInvalidInput, http.StatusBadRequest},
	{user.ErrInvalidInput, http.StatusBadRequest},
	{recommendation.ErrInvalidInput, http.StatusBadRequest},
	{user.ErrNoChanges, http.StatusBadRequest},
	{user.ErrEmailExists, http.StatusBadRequest},
	{recommendation.ErrEmptyMenu, http.StatusBadRequest},

	// -- Auth --
	{order.ErrUnauthorized, http.StatusUnauthorized},
	{recommendation.ErrUnauthorized, http.StatusUnauthorized},
	{user.ErrInvalidCredentials, http.StatusUnauthorized},
	{user.ErrInactiveUser, http.StatusUnauthorized},
	{auth.ErrInvalidToken, http.StatusUnauthorized},
	{user.ErrOperatorOnly, http.StatusForbidden},

	// -- Conflicts --
	{order.ErrInvalidTransition, http.StatusConflict},
	{order.ErrStatusConflict, http.StatusConflict},
	{order.ErrOrderExists, http.StatusConflict},
	{catalog.ErrRestaurantExists, http.StatusConflict},
	{catalog.ErrMenuItemExists, http.StatusConflict},
	{catalog.ErrVersionConflict, http.StatusConflict},

	// -- Infrastructure --
	{db.ErrTimeout, http.StatusGatewayTimeout},
	{recommendation.ErrUpstream, http.StatusBadGateway},
}

// statusFor maps a service error onto its HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("layer", "handler"),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		utils.WriteJSONError(w, "internal server error", code)
		return
	}
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	utils.WriteJSONError(w, err.Error(), code)
}
