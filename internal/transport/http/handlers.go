// @title Registra API
// @version 1.0.0
// @description Multi-tenant business records backend

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/registra/registra/internal/audit"
	"github.com/registra/registra/internal/customer"
	"github.com/registra/registra/internal/identity"
	"github.com/registra/registra/internal/session"
	"github.com/registra/registra/internal/tenant"
	"github.com/registra/registra/internal/token"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService *identity.Service
	tokenManager    *token.Manager
	sessionService  *session.Service
	tenantService   *tenant.Service
	customerService *customer.Service
	auditLogger     audit.Logger
	allowedOrigin   string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	tokenManager *token.Manager,
	sessionService *session.Service,
	tenantService *tenant.Service,
	customerService *customer.Service,
	auditLogger audit.Logger,
	allowedOrigin string,
) *Handler {
	return &Handler{
		identityService: identityService,
		tokenManager:    tokenManager,
		sessionService:  sessionService,
		tenantService:   tenantService,
		customerService: customerService,
		auditLogger:     auditLogger,
		allowedOrigin:   allowedOrigin,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(CORSMiddleware(h.allowedOrigin))
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/login", h.Login)
		r.Post("/auth/refresh", h.Refresh)

		// Protected routes (FAIL-CLOSED: scope comes from the token)
		r.Group(func(r chi.Router) {
			r.Use(h.TenantAccessGuard)

			r.Post("/auth/logout", h.Logout)
			r.Post("/auth/validate", h.ValidateToken)
			r.Get("/auth/sessions", h.ListSessions)
			r.Post("/auth/sessions", h.StartSession)
			r.Post("/auth/sessions/end", h.EndSession)

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", h.ListCustomers)
				r.Post("/", h.CreateCustomer)
				r.Get("/{customerID}", h.GetCustomer)
				r.Put("/{customerID}", h.UpdateCustomer)
				r.Delete("/{customerID}", h.DeleteCustomer)
			})
		})
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "registra",
	})
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
