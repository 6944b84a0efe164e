package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/shared"
)

// LoopbackResult contains the result of a CLI login.
type LoopbackResult struct {
	Credential *models.Credential
	err        error
}

func (o *LoopbackResult) Error() error {
	return o.err
}

// LoopbackHandler completes a CLI login on a temporary local server.
//
// Unlike [OAuthHandler] it requires the state to match and processes a single callback, then reports the outcome
// on [LoopbackHandler.Result].
type LoopbackHandler struct {
	exchanger   *Exchanger
	redirectURI string
	state       string
	resultChan  chan LoopbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewLoopbackHandler creates a handler expecting state on a callback at redirectURI.
func NewLoopbackHandler(exchanger *Exchanger, redirectURI, state string) *LoopbackHandler {
	return &LoopbackHandler{
		exchanger:   exchanger,
		redirectURI: redirectURI,
		state:       state,
		resultChan:  make(chan LoopbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *LoopbackHandler) Routes() []Route {
	return []Route{{Method: http.MethodGet, Pattern: "/callback"}}
}

// AuthorizationURL returns the vendor URL the user must visit.
func (h *LoopbackHandler) AuthorizationURL() string {
	return h.exchanger.AuthorizationURL(h.redirectURI, h.state)
}

// ServeHTTP handles the callback once.
func (h *LoopbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()

	if q.Get("state") != h.state {
		h.Send(LoopbackResult{err: shared.ErrStateMismatch})
		renderPage(w, http.StatusBadRequest, errorPage, errorData{Title: "Authorization Failed", Heading: "Authorization Failed",
			Message: "Invalid state parameter."})
		return
	}

	if e := q.Get("error"); e != "" {
		h.Send(LoopbackResult{err: fmt.Errorf("%w: %s - %s", shared.ErrVendorAuthorization, e, q.Get("error_description"))})
		renderPage(w, http.StatusBadRequest, errorPage, errorData{Title: "Authorization Failed", Heading: "Authorization Failed",
			Message: "Clover did not authorize this application.", Code: e, Description: q.Get("error_description")})
		return
	}

	code := q.Get("code")
	if code == "" {
		h.Send(LoopbackResult{err: shared.ErrMissingCode})
		renderPage(w, http.StatusBadRequest, errorPage, errorData{Title: "Authorization Failed", Heading: "Missing Authorization Code",
			Message: "Run the login command again."})
		return
	}

	cred, err := h.exchanger.Exchange(r.Context(), code, h.redirectURI, q.Get("merchant_id"))
	if err != nil {
		h.Send(LoopbackResult{err: err})
		renderPage(w, http.StatusBadGateway, errorPage, errorData{Title: "Token Exchange Failed", Heading: "Token Exchange Failed",
			Message: "Return to the terminal for details."})
		return
	}

	h.Send(LoopbackResult{Credential: cred})
	renderPage(w, http.StatusOK, noticePage, errorData{Title: "Authorization Successful", Heading: "✓ Authorization Successful",
		Message: "You can close this window and return to the terminal."})
}

// Send sends the result through the channel (only once).
func (h *LoopbackHandler) Send(result LoopbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving login completion.
//
// Channel will receive exactly one result and then be closed.
func (h *LoopbackHandler) Result() <-chan LoopbackResult {
	return h.resultChan
}
