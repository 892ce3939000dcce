package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/device-portal/internal/api/middleware"
	"github.com/example/device-portal/internal/auth"
	"github.com/example/device-portal/internal/domain/user"
)

// RouterConfig bundles the dependencies of the HTTP router
type RouterConfig struct {
	Handlers        *Handlers
	AuthHandlers    *AuthHandlers
	CatalogHandlers *CatalogHandlers
	AdminHandlers   *AdminHandlers
	JWTService      *auth.JWTService
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	handlers := cfg.Handlers
	authHandlers := cfg.AuthHandlers
	catalogHandlers := cfg.CatalogHandlers
	adminHandlers := cfg.AdminHandlers

	requireAuth := middleware.AuthMiddleware(cfg.JWTService)
	requireAdmin := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireRole(user.RoleAdmin)(h))
	}

	// Auth
	mux.HandleFunc("/auth/register", postOnly(authHandlers.Register))
	mux.HandleFunc("/auth/login", postOnly(authHandlers.Login))
	mux.HandleFunc("/auth/refresh", postOnly(authHandlers.Refresh))
	mux.HandleFunc("/auth/logout", postOnly(authHandlers.Logout))
	mux.Handle("/auth/me", requireAuth(http.HandlerFunc(authHandlers.Me)))
	mux.Handle("/auth/password", requireAuth(postOnlyHandler(authHandlers.ChangePassword)))
	mux.HandleFunc("/auth/reset/request", postOnly(authHandlers.RequestPasswordReset))
	mux.HandleFunc("/auth/reset/confirm", postOnly(authHandlers.ConfirmPasswordReset))

	// Catalog
	mux.Handle("/devices", requireAuth(http.HandlerFunc(catalogHandlers.SearchDevices)))
	mux.Handle("/devices/snapshot", requireAuth(http.HandlerFunc(catalogHandlers.DeviceSnapshot)))
	mux.Handle("/devices/", requireAuth(http.HandlerFunc(catalogHandlers.GetDevice)))
	mux.Handle("/categories", requireAuth(http.HandlerFunc(catalogHandlers.ListCategories)))

	// Cart
	mux.Handle("/cart", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetCart(w, r)
		case http.MethodDelete:
			handlers.ClearCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	mux.Handle("/cart/items", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			handlers.AddToCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	mux.Handle("/cart/items/", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			handlers.SetCartItemQuantity(w, r)
		case http.MethodDelete:
			handlers.RemoveFromCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	// Requests
	mux.Handle("/requests", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetRequests(w, r)
		case http.MethodPost:
			handlers.SubmitRequest(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	mux.Handle("/requests/", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
			handlers.CancelRequest(w, r)
		case r.Method == http.MethodGet:
			handlers.GetRequest(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	// Admin
	mux.Handle("/admin/users", requireAdmin(adminHandlers.ListUsers))
	mux.Handle("/admin/users/", requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/activate") && r.Method == http.MethodPost:
			adminHandlers.ActivateUser(w, r)
		case strings.HasSuffix(path, "/deactivate") && r.Method == http.MethodPost:
			adminHandlers.DeactivateUser(w, r)
		case r.Method == http.MethodGet:
			adminHandlers.GetUser(w, r)
		default:
			methodNotAllowed(w)
		}
	}))

	mux.Handle("/admin/requests", requireAdmin(adminHandlers.ListRequests))
	mux.Handle("/admin/requests/", requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/process") && r.Method == http.MethodPost:
			adminHandlers.StartProcessingRequest(w, r)
		case strings.HasSuffix(path, "/complete") && r.Method == http.MethodPost:
			adminHandlers.CompleteRequest(w, r)
		default:
			methodNotAllowed(w)
		}
	}))

	mux.Handle("/admin/devices", requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut:
			adminHandlers.SyncDevice(w, r)
		default:
			methodNotAllowed(w)
		}
	}))
	mux.Handle("/admin/devices/", requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/stock") && r.Method == http.MethodPost:
			adminHandlers.AdjustDeviceStock(w, r)
		case r.Method == http.MethodDelete:
			adminHandlers.RetireDevice(w, r)
		default:
			methodNotAllowed(w)
		}
	}))

	return withLogging(mux)
}

func postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h(w, r)
	}
}

func postOnlyHandler(h http.HandlerFunc) http.Handler {
	return postOnly(h)
}

func methodNotAllowed(w http.ResponseWriter) {
	respondError(w, http.StatusMethodNotAllowed, "", "Method not allowed")
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
