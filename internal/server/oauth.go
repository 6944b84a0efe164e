package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/shared"
)

const (
	// StartPath begins the authorization-code flow.
	StartPath = "/api/oauth/start"
	// DefaultCallbackPath is the canonical vendor redirect target.
	DefaultCallbackPath = "/api/oauth/callback"

	stateCookie = "butter_oauth_state"
)

// OAuthOptions configures the browser-facing OAuth routes.
type OAuthOptions struct {
	// CallbackPath is the single route that accepts vendor redirects.
	CallbackPath string
	// PublicURL is the externally visible origin. When empty the origin is derived from each request.
	PublicURL string
	// TrustProxyHeaders derives the origin from X-Forwarded-Proto and X-Forwarded-Host. Only set it behind a
	// proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// OAuthHandler starts the authorization-code flow and completes it on the callback route.
//
// It implements [Handler]: ServeHTTP serves the callback.
type OAuthHandler struct {
	exchanger    *Exchanger
	callbackPath string
	publicURL    string
	trustProxy   bool
	logger       *log.Logger
	metrics      *Metrics
}

// NewOAuthHandler creates an [OAuthHandler].
func NewOAuthHandler(exchanger *Exchanger, opts OAuthOptions, logger *log.Logger, metrics *Metrics) *OAuthHandler {
	if opts.CallbackPath == "" {
		opts.CallbackPath = DefaultCallbackPath
	}
	return &OAuthHandler{
		exchanger:    exchanger,
		callbackPath: opts.CallbackPath,
		publicURL:    strings.TrimRight(opts.PublicURL, "/"),
		trustProxy:   opts.TrustProxyHeaders,
		logger:       logger,
		metrics:      metrics,
	}
}

// Routes returns the start and callback routes.
func (h *OAuthHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: StartPath, Handler: http.HandlerFunc(h.Start)},
		{Method: http.MethodGet, Pattern: h.callbackPath},
	}
}

// RedirectURI returns the callback URL sent to the vendor for r. Start and callback derive it identically.
func (h *OAuthHandler) RedirectURI(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL + h.callbackPath
	}
	return requestOrigin(r, h.trustProxy) + h.callbackPath
}

// requestOrigin returns the scheme and host r arrived on. Forwarded headers are client-controlled unless a
// trusted proxy sets them, so they are read only when trustProxy is set.
func requestOrigin(r *http.Request, trustProxy bool) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if !trustProxy {
		return scheme + "://" + host
	}

	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host
}

// Start redirects to the vendor authorization page, or returns the URL as JSON when asked.
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	if !h.exchanger.Configured() {
		h.logger.Warn("oauth start rejected: credentials not configured")
		h.notConfigured(w, r)
		return
	}

	redirectURI := h.RedirectURI(r)
	state := shared.GenerateState()
	authURL := h.exchanger.AuthorizationURL(redirectURI, state)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   strings.HasPrefix(redirectURI, "https://"),
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Debug("oauth start", "redirect_uri", redirectURI)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"auth_url":     authURL,
			"redirect_uri": redirectURI,
			"state":        state,
		})
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// ServeHTTP handles the vendor redirect: vendor errors and missing codes are reported without contacting the
// token endpoint, whether or not credentials are configured; otherwise the code is exchanged exactly once.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if vendorErr := q.Get("error"); vendorErr != "" {
		desc := q.Get("error_description")
		h.metrics.ObserveExchange("vendor_error")
		h.logger.Warn("vendor denied authorization", "error", vendorErr, "description", desc)
		h.fail(w, r, http.StatusBadRequest, shared.ErrVendorAuthorization, errorData{
			Heading:     "Authorization Failed",
			Message:     "Clover did not authorize this application.",
			Code:        vendorErr,
			Description: desc,
			RetryPath:   StartPath,
		}, "vendor_authorization_error")
		return
	}

	code := q.Get("code")
	if code == "" {
		h.metrics.ObserveExchange("missing_code")
		h.fail(w, r, http.StatusBadRequest, shared.ErrMissingCode, errorData{
			Heading:   "Missing Authorization Code",
			Message:   "The callback did not include an authorization code. Start the authorization again.",
			RetryPath: StartPath,
		}, "missing_code")
		return
	}

	if !h.exchanger.Configured() {
		h.metrics.ObserveExchange("not_configured")
		h.notConfigured(w, r)
		return
	}

	if c, err := r.Cookie(stateCookie); err == nil {
		http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
		if c.Value != q.Get("state") {
			h.metrics.ObserveExchange("state_mismatch")
			h.logger.Warn("oauth state mismatch")
			h.fail(w, r, http.StatusBadRequest, shared.ErrStateMismatch, errorData{
				Heading:   "Authorization Failed",
				Message:   "The authorization response does not match this browser session.",
				RetryPath: StartPath,
			}, "state_mismatch")
			return
		}
	}

	cred, err := h.exchanger.Exchange(r.Context(), code, h.RedirectURI(r), q.Get("merchant_id"))
	if err != nil {
		h.exchangeFailed(w, r, err)
		return
	}

	h.metrics.ObserveExchange("success")
	h.logger.Info("token exchange succeeded",
		"token", shared.MaskToken(cred.AccessToken),
		"merchant_id", cred.MerchantID,
		"merchant_resolved", cred.MerchantResolved,
	)

	h.succeed(w, r, cred)
}

func (h *OAuthHandler) succeed(w http.ResponseWriter, r *http.Request, cred *models.Credential) {
	w.Header().Set("Cache-Control", "no-store")
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":           true,
			"access_token":      cred.AccessToken,
			"merchant_id":       cred.MerchantID,
			"merchant_resolved": cred.MerchantResolved,
			"issued_at":         cred.IssuedAt,
		})
		return
	}

	renderPage(w, http.StatusOK, successPage, successData{
		Title:       "Authorization Successful",
		AccessToken: cred.AccessToken,
		MerchantID:  cred.MerchantID,
		IssuedAt:    cred.IssuedAt.Format(time.RFC3339),
	})
}

func (h *OAuthHandler) exchangeFailed(w http.ResponseWriter, r *http.Request, err error) {
	status, code, heading := http.StatusBadGateway, "token_exchange_failed", "Token Exchange Failed"
	if errors.Is(err, shared.ErrTimeout) {
		status, code, heading = http.StatusGatewayTimeout, "timeout", "Token Exchange Timed Out"
	}

	var body []byte
	var xerr *ExchangeError
	if errors.As(err, &xerr) {
		body = xerr.Body
	}

	h.metrics.ObserveExchange(code)
	h.logger.Error("token exchange failed", "err", err, "status", status)

	h.fail(w, r, status, err, errorData{
		Heading:   heading,
		Message:   "Clover rejected the authorization code or could not be reached.",
		Details:   strings.TrimSpace(string(body)),
		RetryPath: StartPath,
	}, code, rawDetails(body))
}

func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, status int, err error, data errorData, code string, details ...any) {
	if wantsJSON(r) {
		var d any
		if len(details) > 0 {
			d = details[0]
		}
		if data.Code != "" {
			d = map[string]string{"error": data.Code, "error_description": data.Description}
		}
		writeError(w, status, code, err.Error(), d)
		return
	}

	data.Title = data.Heading
	renderPage(w, status, errorPage, data)
}

func (h *OAuthHandler) notConfigured(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeError(w, http.StatusServiceUnavailable, "configuration_error",
			shared.ErrMissingCredentials.Error()+": set CLOVER_CLIENT_ID and CLOVER_CLIENT_SECRET", nil)
		return
	}
	renderPage(w, http.StatusServiceUnavailable, setupPage, landingData{Title: "Setup Required"})
}
