package server

import (
	"net/http"
	"time"
)

// HealthHandler serves liveness, auth status and the landing page.
//
// None of its responses depend on anything but configuration, so repeated calls agree.
type HealthHandler struct {
	configured bool
	now        func() time.Time
}

// NewHealthHandler creates a [HealthHandler]. configured reports whether OAuth client credentials are present.
func NewHealthHandler(configured bool) *HealthHandler {
	return &HealthHandler{configured: configured, now: time.Now}
}

// Routes returns the health, auth status and landing routes.
func (h *HealthHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/health"},
		{Method: http.MethodGet, Pattern: "/api/auth/status", Handler: http.HandlerFunc(h.AuthStatus)},
		{Method: http.MethodGet, Pattern: "/", Handler: http.HandlerFunc(h.Landing)},
	}
}

// ServeHTTP reports liveness and whether credentials are configured.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                 "healthy",
		"credentials_configured": h.configured,
		"timestamp":              h.now().UTC().Format(time.RFC3339),
	})
}

// AuthStatus reports whether the request carries a bearer token. The server holds no session of its own.
func (h *HealthHandler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated":       bearerToken(r) != "",
		"dashboard_available": true,
		"oauth_configured":    h.configured,
	})
}

// Landing renders the entry page, or the setup page when credentials are missing. It never handles callbacks.
func (h *HealthHandler) Landing(w http.ResponseWriter, r *http.Request) {
	if !h.configured {
		renderPage(w, http.StatusOK, setupPage, landingData{Title: "Setup Required"})
		return
	}

	renderPage(w, http.StatusOK, landingPage, landingData{
		Title:     "Butter",
		StartPath: StartPath,
		Success:   r.URL.Query().Get("oauth_success") == "true",
	})
}
