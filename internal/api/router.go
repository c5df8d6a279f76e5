package api

import (
	"context"
	"net/http"
	"time"

	"cozycakey/internal/auth"
	apperrors "cozycakey/internal/errors"
	"github.com/gorilla/mux"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Routes struct {
	User      *UserHandler
	Admin     *AdminHandler
	AdminAuth *AdminAuthHandler
	Sessions  auth.TokenValidator
	DB        Pinger
	// Throttle wraps the public write endpoints. Nil disables it.
	Throttle mux.MiddlewareFunc
}

func NewRouter(rt Routes) *mux.Router {
	r := mux.NewRouter()
	throttle := rt.Throttle
	if throttle == nil {
		throttle = func(next http.Handler) http.Handler { return next }
	}

	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", readyz(rt.DB)).Methods(http.MethodGet)

	// Public endpoints
	public := r.PathPrefix("/api").Subrouter()
	public.HandleFunc("/availability", rt.User.GetAvailability).Methods(http.MethodGet)
	public.Handle("/availability", throttle(http.HandlerFunc(rt.User.BatchAvailability))).Methods(http.MethodPost)
	public.Handle("/orders/design", throttle(http.HandlerFunc(rt.User.CreateDesignOrder))).Methods(http.MethodPost)
	public.Handle("/orders/catering", throttle(http.HandlerFunc(rt.User.CreateCateringOrder))).Methods(http.MethodPost)

	public.Handle("/admin/login", throttle(http.HandlerFunc(rt.AdminAuth.Login))).Methods(http.MethodPost)
	public.HandleFunc("/admin/logout", rt.AdminAuth.Logout).Methods(http.MethodPost)
	public.HandleFunc("/admin/auth-check", rt.AdminAuth.AuthCheck).Methods(http.MethodGet)

	// Admin endpoints (protected)
	admin := r.PathPrefix("/api/admin/orders").Subrouter()
	admin.Use(auth.AdminAuthMiddleware(rt.Sessions))
	admin.HandleFunc("", rt.Admin.ListOrders).Methods(http.MethodGet)
	admin.HandleFunc("/{id}", rt.Admin.GetOrder).Methods(http.MethodGet)
	admin.HandleFunc("/{id}/status", rt.Admin.UpdateOrderStatus).Methods(http.MethodPut)
	admin.HandleFunc("/{id}", rt.Admin.DeleteOrder).Methods(http.MethodDelete)

	return r
}

func healthz(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func readyz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			apperrors.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			apperrors.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
		apperrors.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
