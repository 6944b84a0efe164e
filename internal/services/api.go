// API service for making raw HTTP requests to the gateway
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/shared"
)

// OutcomeHeader mirrors the gateway's outcome tag.
const OutcomeHeader = "X-Butter-Outcome"

// APIService provides methods for making raw HTTP requests to the gateway.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the gateway.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
	Outcome    string
}

// Get performs an unauthenticated GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, "", nil)
}

// Do performs a request authenticated with sess and returns the raw response.
//
// Only transport-level failures are errors; use [Check] to classify the status.
func (a *APIService) Do(ctx context.Context, sess models.Session, method, path string, body []byte) (*APIResponse, error) {
	if !sess.Valid() {
		return nil, fmt.Errorf("%w: session has no access token", shared.ErrNotAuthenticated)
	}
	return a.do(ctx, method, path, sess.Authorization(), body)
}

// Call performs [APIService.Do] and classifies non-2xx responses with [Check].
func (a *APIService) Call(ctx context.Context, sess models.Session, method, path string, body []byte) (*APIResponse, error) {
	resp, err := a.Do(ctx, sess, method, path, body)
	if err != nil {
		return nil, err
	}
	if err := Check(resp); err != nil {
		return resp, err
	}
	return resp, nil
}

func (a *APIService) do(ctx context.Context, method, path, authorization string, data []byte) (*APIResponse, error) {
	fullURL := a.baseURL + path

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
		Outcome:    resp.Header.Get(OutcomeHeader),
	}

	var jsonData any
	if err := json.Unmarshal(respBody, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Check maps a gateway response onto the shared error taxonomy. It returns nil for 2xx responses.
func Check(resp *APIResponse) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized && resp.Outcome == "token_expired":
		return fmt.Errorf("%w: authorize again", shared.ErrTokenExpired)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: gateway rejected the request", shared.ErrNotAuthenticated)
	case resp.StatusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: gateway timed out waiting for Clover", shared.ErrTimeout)
	case resp.StatusCode == http.StatusBadGateway && resp.Outcome == "transport_error":
		return fmt.Errorf("%w: gateway could not reach Clover", shared.ErrTransport)
	}

	return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
}
