package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/templui/travelmap/internal/app"
	"github.com/templui/travelmap/internal/handler"
	"github.com/templui/travelmap/internal/middleware"
	"github.com/templui/travelmap/internal/ui/assets"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler(app.CoupleImageService, app.Cfg.MaxUploadSize)
	auth := handler.NewAuthHandler(app.AuthService, app.CoupleImageService)
	location := handler.NewLocationHandler(app.LocationService, app.Cfg.MaxUploadSize)
	images := handler.NewImageHandler(app.LocationService, app.CoupleImageService, app.Cfg.MaxUploadSize)
	admin := handler.NewAdminHandler(app.LocationService)
	health := handler.NewHealthHandler(app.DB)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Static files
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(assets.FS))))

	// Operations
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", health.Healthz)

	// Logo on the login page
	mux.HandleFunc("GET /couple-image", images.CoupleImage)

	// Auth (login is rate limited)
	rateLimiter := middleware.RateLimitLogin()

	mux.HandleFunc("GET /login", middleware.RequireGuest(auth.LoginPage))
	mux.HandleFunc("POST /login", rateLimiter(middleware.RequireGuest(auth.Login)))
	mux.HandleFunc("POST /logout", auth.Logout)

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	// Map
	mux.HandleFunc("GET /{$}", middleware.RequireAuth(home.MapPage))

	// Locations API
	mux.HandleFunc("GET /api/locations", middleware.RequireAuth(location.List))
	mux.HandleFunc("POST /api/locations", middleware.RequireAuth(location.Create))
	mux.HandleFunc("GET /api/locations/{id}", middleware.RequireAuth(location.Get))
	mux.HandleFunc("PUT /api/locations/{id}", middleware.RequireAuth(location.Update))
	mux.HandleFunc("DELETE /api/locations/{id}", middleware.RequireAuth(location.Delete))

	// Images
	mux.HandleFunc("GET /locations/{id}/image", middleware.RequireAuth(images.LocationImage))
	mux.HandleFunc("GET /locations/{id}/thumbnail", middleware.RequireAuth(images.LocationThumbnail))

	// Admin
	mux.HandleFunc("POST /admin/couple-image", middleware.RequireAuth(images.UploadCoupleImage))
	mux.HandleFunc("POST /admin/optimize-images", middleware.RequireAuth(admin.OptimizeImages))
	mux.HandleFunc("POST /admin/generate-thumbnails", middleware.RequireAuth(admin.GenerateThumbnails))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	// 404
	mux.HandleFunc("/{path...}", home.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.Config(app.Cfg),                    // Config first, CSRF reads IsProduction from it
		middleware.NonceMiddleware,                    // Nonce before SecurityHeaders
		middleware.SecurityHeaders,                    // CSP and hardening headers on every response
		middleware.RequestLogging,                     // Logs status and duration
		middleware.MaxBodySize(app.Cfg.MaxUploadSize), // Caps bodies before CSRF parses forms
		middleware.CSRFProtection,                     // Double-submit token on state-changing requests
		middleware.SessionAuth(app.AuthService),       // Session from cookie into the context
	)
}
