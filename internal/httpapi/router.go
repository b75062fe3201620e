package httpapi

import (
	"net/http"

	"biteme-be/internal/logger"
	"biteme-be/internal/middleware"
	"biteme-be/internal/utils"

	"github.com/gorilla/mux"
)

const APIPrefix = "/api/v1"

type RouterOptions struct {
	Authenticator middleware.Authenticator
	Limiter       *middleware.RateLimiter
	CORSOrigins   []string
}

// NewRouter serves every route under APIPrefix and, for existing clients,
// at the root.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	h.RegisterRoutes(r.PathPrefix(APIPrefix).Subrouter())
	h.RegisterRoutes(r)

	var handler http.Handler = r
	if opts.Limiter != nil {
		handler = opts.Limiter.Middleware(handler)
	}
	handler = middleware.Logging(handler)
	handler = middleware.Auth(opts.Authenticator)(handler)
	handler = middleware.CORS(opts.CORSOrigins)(handler)
	return logger.RequestIDMiddleware(handler)
}

func authed(fn http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(fn)
}

func admin(fn http.HandlerFunc) http.Handler {
	return middleware.RequireAdmin(fn)
}
