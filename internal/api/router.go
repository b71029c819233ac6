package api

import (
	"net/http"

	"gridvolt/internal/api/handlers"
	"gridvolt/internal/api/middleware"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	AuthHandlers     *handlers.AuthHandlers
	StationsHandlers *handlers.StationsHandlers
	SessionsHandlers *handlers.SessionsHandlers
	StatsHandlers    *handlers.StatsHandlers
	HealthHandler    http.HandlerFunc
	MetricsHandler   http.Handler
	OCPPHandler      http.HandlerFunc
}

// NewRouter wires HTTP routes with middleware.
func NewRouter(deps RouterDeps, authMiddleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", method(http.MethodGet, deps.HealthHandler))
	mux.Handle("/metrics", deps.MetricsHandler)
	mux.HandleFunc("/ocpp/ws/", deps.OCPPHandler)

	mux.Handle("/api/auth/signup", method(http.MethodPost, http.HandlerFunc(deps.AuthHandlers.Signup)))
	mux.Handle("/api/auth/login", method(http.MethodPost, http.HandlerFunc(deps.AuthHandlers.Login)))

	mux.Handle("/api/stations", method(http.MethodGet, http.HandlerFunc(deps.StationsHandlers.List)))
	mux.Handle("/api/sessions/active", method(http.MethodGet, http.HandlerFunc(deps.SessionsHandlers.Active)))
	mux.Handle("/api/stats/global", method(http.MethodGet, http.HandlerFunc(deps.StatsHandlers.Global)))
	mux.Handle("/api/stats/revenue", method(http.MethodGet, http.HandlerFunc(deps.StatsHandlers.Revenue)))

	authenticated := func(handler http.HandlerFunc) http.Handler {
		return middleware.Chain(handler, authMiddleware)
	}

	mux.Handle("/api/sessions/me", method(http.MethodGet, authenticated(deps.SessionsHandlers.Me)))
	mux.Handle("/api/stats/me", method(http.MethodGet, authenticated(deps.StatsHandlers.Me)))

	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
