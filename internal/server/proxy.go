package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/butter/internal/shared"
)

// OutcomeHeader tags every proxy response with its terminal state.
const OutcomeHeader = "X-Butter-Outcome"

const (
	DefaultMountPrefix  = "/api/clover"
	DefaultUpstreamBase = "https://apisandbox.dev.clover.com/v3"
	defaultProxyTimeout = 10 * time.Second
)

// Outcome is the terminal state of a proxied request.
type Outcome string

const (
	OutcomeUnauthorized   Outcome = "unauthorized"
	OutcomeSucceeded      Outcome = "succeeded"
	OutcomeUpstreamError  Outcome = "upstream_error"
	OutcomeExpired        Outcome = "token_expired"
	OutcomeTimeout        Outcome = "timeout"
	OutcomeTransportError Outcome = "transport_error"
)

// proxyState tracks a request through RECEIVED, AUTH_CHECKED and FORWARDED before it reaches an [Outcome].
type proxyState string

const (
	stateReceived    proxyState = "received"
	stateAuthChecked proxyState = "auth_checked"
	stateForwarded   proxyState = "forwarded"
)

// ProxyOptions configures the gateway.
type ProxyOptions struct {
	UpstreamBase string
	MountPrefix  string
	Timeout      time.Duration
	Envelope     bool
	HTTPClient   *http.Client
}

// ProxyHandler forwards authenticated requests under the mount prefix to the vendor REST API.
type ProxyHandler struct {
	upstream string
	prefix   string
	timeout  time.Duration
	envelope bool
	client   *http.Client
	logger   *log.Logger
	metrics  *Metrics
}

// Envelope wraps successful JSON responses when enabled.
type Envelope struct {
	Success    bool            `json:"success"`
	Status     int             `json:"status"`
	Data       json.RawMessage `json:"data"`
	ItemCount  *int            `json:"item_count,omitempty"`
	OrderCount *int            `json:"order_count,omitempty"`
}

// NewProxyHandler creates a [ProxyHandler], filling unset options with defaults.
func NewProxyHandler(opts ProxyOptions, logger *log.Logger, metrics *Metrics) *ProxyHandler {
	if opts.UpstreamBase == "" {
		opts.UpstreamBase = DefaultUpstreamBase
	}
	if opts.MountPrefix == "" {
		opts.MountPrefix = DefaultMountPrefix
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultProxyTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	return &ProxyHandler{
		upstream: strings.TrimRight(opts.UpstreamBase, "/"),
		prefix:   strings.TrimRight(opts.MountPrefix, "/"),
		timeout:  opts.Timeout,
		envelope: opts.Envelope,
		client:   opts.HTTPClient,
		logger:   logger,
		metrics:  metrics,
	}
}

// Routes returns the proxied vendor resources.
func (h *ProxyHandler) Routes() []Route {
	m := h.prefix + "/merchants"
	return []Route{
		{Method: http.MethodGet, Pattern: m + "/current"},
		{Method: http.MethodGet, Pattern: m + "/{merchantID}"},
		{Method: http.MethodGet, Pattern: m + "/{merchantID}/items"},
		{Method: http.MethodPost, Pattern: m + "/{merchantID}/items"},
		{Method: http.MethodGet, Pattern: m + "/{merchantID}/items/{itemID}"},
		{Method: http.MethodPost, Pattern: m + "/{merchantID}/items/{itemID}"},
		{Method: http.MethodDelete, Pattern: m + "/{merchantID}/items/{itemID}"},
		{Method: http.MethodGet, Pattern: m + "/{merchantID}/orders"},
	}
}

// UpstreamURL rewrites an inbound URL onto the upstream base. The escaped path and raw query are kept byte-for-byte.
func (h *ProxyHandler) UpstreamURL(r *http.Request) string {
	target := h.upstream + strings.TrimPrefix(r.URL.EscapedPath(), h.prefix)
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return target
}

// ServeHTTP proxies one request. Nothing is retried.
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	state := stateReceived
	logger := h.logger.With("method", r.Method, "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()))

	finish := func(outcome Outcome) {
		h.metrics.ObserveProxy(r.Method, outcome, time.Since(start))
		logger.Debug("proxy finished", "from", state, "outcome", outcome, "duration", time.Since(start))
	}

	token := bearerToken(r)
	if token == "" {
		w.Header().Set(OutcomeHeader, string(OutcomeUnauthorized))
		writeError(w, http.StatusUnauthorized, string(OutcomeUnauthorized),
			"missing Authorization: Bearer token", nil)
		finish(OutcomeUnauthorized)
		return
	}
	state = stateAuthChecked
	logger = logger.With("token", shared.MaskToken(token))

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var body io.Reader
	if isMutating(r.Method) && r.Body != nil {
		body = r.Body
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, h.UpstreamURL(r), body)
	if err != nil {
		logger.Error("failed to create upstream request", "err", err)
		h.transportError(w, err)
		finish(OutcomeTransportError)
		return
	}
	if body != nil {
		req.ContentLength = r.ContentLength
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	} else {
		req.Header.Set("Content-Type", "application/json")
	}

	state = stateForwarded
	resp, err := h.client.Do(req)
	if err != nil {
		outcome := h.failure(w, err)
		logger.Warn("upstream call failed", "outcome", outcome, "err", err)
		finish(outcome)
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome := h.failure(w, err)
		logger.Warn("failed to read upstream response", "outcome", outcome, "err", err)
		finish(outcome)
		return
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		w.Header().Set(OutcomeHeader, string(OutcomeExpired))
		writeError(w, http.StatusUnauthorized, string(OutcomeExpired),
			"access token expired or invalid; authorize again", rawDetails(data))
		logger.Info("upstream rejected token", "status", resp.StatusCode)
		finish(OutcomeExpired)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		w.Header().Set(OutcomeHeader, string(OutcomeUpstreamError))
		if h.envelope {
			writeError(w, resp.StatusCode, string(OutcomeUpstreamError), "upstream returned "+resp.Status, rawDetails(data))
		} else {
			relay(w, resp, data)
		}
		logger.Warn("upstream error", "status", resp.StatusCode)
		finish(OutcomeUpstreamError)
	default:
		w.Header().Set(OutcomeHeader, string(OutcomeSucceeded))
		h.succeed(w, r, resp, data)
		finish(OutcomeSucceeded)
	}
}

func (h *ProxyHandler) succeed(w http.ResponseWriter, r *http.Request, resp *http.Response, data []byte) {
	if !bodyAllowed(resp.StatusCode) {
		w.WriteHeader(resp.StatusCode)
		return
	}

	trimmed := strings.TrimSpace(string(data))
	if !h.envelope || (trimmed != "" && !json.Valid([]byte(trimmed))) {
		relay(w, resp, data)
		return
	}

	env := Envelope{Success: true, Status: resp.StatusCode, Data: json.RawMessage("null")}
	if trimmed != "" {
		env.Data = json.RawMessage(trimmed)
	}

	if r.Method == http.MethodGet {
		switch listKind(r.URL.Path) {
		case "items":
			env.ItemCount = countElements(env.Data)
		case "orders":
			env.OrderCount = countElements(env.Data)
		}
	}

	writeJSON(w, resp.StatusCode, env)
}

// failure maps a client or read error to the timeout or transport outcome and writes the response.
func (h *ProxyHandler) failure(w http.ResponseWriter, err error) Outcome {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		w.Header().Set(OutcomeHeader, string(OutcomeTimeout))
		writeError(w, http.StatusGatewayTimeout, string(OutcomeTimeout),
			"upstream did not respond within "+h.timeout.String(), nil)
		return OutcomeTimeout
	}

	h.transportError(w, err)
	return OutcomeTransportError
}

func (h *ProxyHandler) transportError(w http.ResponseWriter, err error) {
	w.Header().Set(OutcomeHeader, string(OutcomeTransportError))
	writeError(w, http.StatusBadGateway, string(OutcomeTransportError), shared.ErrTransport.Error()+": "+err.Error(), nil)
}

func relay(w http.ResponseWriter, resp *http.Response, data []byte) {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(data)
}

// bodyAllowed reports whether a response with status may carry a body.
func bodyAllowed(status int) bool {
	return status != http.StatusNoContent && status != http.StatusResetContent && status != http.StatusNotModified
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// listKind returns "items" or "orders" when path names a collection.
func listKind(path string) string {
	path = strings.TrimRight(path, "/")
	switch {
	case strings.HasSuffix(path, "/items"):
		return "items"
	case strings.HasSuffix(path, "/orders"):
		return "orders"
	}
	return ""
}

// countElements counts a vendor list payload, which is either {"elements": [...]} or a bare array.
func countElements(data json.RawMessage) *int {
	var wrapped struct {
		Elements []json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Elements != nil {
		n := len(wrapped.Elements)
		return &n
	}

	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		n := len(list)
		return &n
	}
	return nil
}
