package api

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stine-ri/wings-of-memory/internal/api/recovery"
	"github.com/stine-ri/wings-of-memory/internal/services"
)

// Deps are the services the router exposes.
type Deps struct {
	Auth      *services.AuthService
	Memorials *services.MemorialService
	Tributes  *services.TributeService
	RSVPs     *services.RSVPService
	Health    HealthSource

	CORSAllowedOrigins []string
}

// NewRouter mounts every endpoint under /api and wraps the router with CORS.
func NewRouter(d Deps) http.Handler {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)
	router.Use(metricsMiddleware)

	health := NewHealthHandler(d.Health)
	authH := NewAuthHandler(d.Auth)
	memH := NewMemorialHandler(d.Memorials, d.RSVPs)
	tribH := NewTributeHandler(d.Tributes)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", health.CheckHealth).Methods(http.MethodGet)

	api.HandleFunc("/auth/login", authH.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", authH.Register).Methods(http.MethodPost)

	// Public, anonymous routes
	api.HandleFunc("/memorials/public", memH.SearchPublic).Methods(http.MethodGet)
	api.HandleFunc("/memorials/public/{identifier}", memH.GetPublic).Methods(http.MethodGet)
	api.HandleFunc("/memorials/public/{identifier}/tributes", tribH.List).Methods(http.MethodGet)
	api.HandleFunc("/memorials/public/{identifier}/tributes", tribH.Create).Methods(http.MethodPost)
	api.HandleFunc("/memorials/public/{identifier}/tributes/{tributeId}", tribH.Update).Methods(http.MethodPut)
	api.HandleFunc("/memorials/public/{identifier}/tributes/{tributeId}", tribH.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/memorials/public/{identifier}/rsvps", memH.CreateRSVP).Methods(http.MethodPost)

	// Owner routes
	owner := api.PathPrefix("/memorials").Subrouter()
	owner.Use(requireAuth(d.Auth))
	owner.HandleFunc("", memH.ListMine).Methods(http.MethodGet)
	owner.HandleFunc("", memH.Create).Methods(http.MethodPost)
	owner.HandleFunc("/{id}", memH.Get).Methods(http.MethodGet)
	owner.HandleFunc("/{id}", memH.Update).Methods(http.MethodPut)
	owner.HandleFunc("/{id}", memH.Delete).Methods(http.MethodDelete)
	owner.HandleFunc("/{id}/pdf-data", memH.PDFData).Methods(http.MethodGet)
	owner.HandleFunc("/{id}/preview-pdf", memH.PreviewPDF).Methods(http.MethodGet)
	owner.HandleFunc("/{id}/rsvps", memH.ListRSVPs).Methods(http.MethodGet)

	return cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})(router)
}
