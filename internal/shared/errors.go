package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// OAuth exchange errors
	ErrVendorAuthorization = fmt.Errorf("vendor authorization failed")
	ErrMissingCode         = fmt.Errorf("missing authorization code")
	ErrStateMismatch       = fmt.Errorf("state parameter mismatch")
	ErrTokenExchange       = fmt.Errorf("token exchange failed")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrTransport          = fmt.Errorf("transport error")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrMerchantUnresolved = fmt.Errorf("merchant id unresolved")
	ErrItemNotFound       = fmt.Errorf("item not found")

	// Task errors
	ErrMonitorRunning = fmt.Errorf("monitor already running")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
