package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/shared"
)

const defaultExchangeTimeout = 15 * time.Second

// ExchangeOptions configures the authorization-code grant against the vendor.
type ExchangeOptions struct {
	AuthorizeURL string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// Exchanger builds authorization URLs and trades authorization codes for access tokens.
//
// It is stateless: the redirect URI is supplied per call so the start and callback steps always agree.
type Exchanger struct {
	opts ExchangeOptions
}

// NewExchanger creates an [Exchanger]. A zero timeout uses 15 seconds.
func NewExchanger(opts ExchangeOptions) *Exchanger {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultExchangeTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Exchanger{opts: opts}
}

// Configured reports whether client credentials are present.
func (e *Exchanger) Configured() bool {
	return e.opts.ClientID != "" && e.opts.ClientSecret != ""
}

func (e *Exchanger) config(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     e.opts.ClientID,
		ClientSecret: e.opts.ClientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   e.opts.AuthorizeURL,
			TokenURL:  e.opts.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthorizationURL returns the vendor authorize URL carrying client_id, redirect_uri, response_type=code and state.
func (e *Exchanger) AuthorizationURL(redirectURI, state string) string {
	return e.config(redirectURI).AuthCodeURL(state)
}

// ExchangeError describes a failed code exchange.
//
// It matches [shared.ErrTokenExchange] or [shared.ErrTimeout] with [errors.Is]. Body holds the vendor's raw response
// when one was received.
type ExchangeError struct {
	Kind       error
	StatusCode int
	Body       []byte
	cause      error
}

func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: vendor returned %d: %v", e.Kind, e.StatusCode, e.cause)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.cause)
}

func (e *ExchangeError) Unwrap() []error {
	return []error{e.Kind, e.cause}
}

// Exchange performs exactly one token request for code. The merchant id is taken from callbackMerchant when set,
// then from the token response's merchant_id field, and is otherwise left unresolved.
func (e *Exchanger) Exchange(ctx context.Context, code, redirectURI, callbackMerchant string) (*models.Credential, error) {
	if !e.Configured() {
		return nil, fmt.Errorf("%w: client id and secret are required", shared.ErrMissingCredentials)
	}
	if code == "" {
		return nil, shared.ErrMissingCode
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	capture := &captureTransport{base: e.opts.HTTPClient.Transport}
	client := &http.Client{Transport: capture, Timeout: e.opts.HTTPClient.Timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)

	token, err := e.config(redirectURI).Exchange(ctx, code)
	if err != nil {
		return nil, classifyExchangeError(err, capture)
	}

	cred := &models.Credential{AccessToken: token.AccessToken, IssuedAt: time.Now().UTC()}
	switch {
	case callbackMerchant != "":
		cred.MerchantID = callbackMerchant
	default:
		if m, ok := token.Extra("merchant_id").(string); ok {
			cred.MerchantID = m
		}
	}
	cred.MerchantResolved = cred.MerchantID != ""

	return cred, nil
}

func classifyExchangeError(err error, capture *captureTransport) *ExchangeError {
	xerr := &ExchangeError{Kind: shared.ErrTokenExchange, cause: err, Body: capture.body.Bytes(), StatusCode: capture.status}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		if rerr.Response != nil {
			xerr.StatusCode = rerr.Response.StatusCode
		}
		xerr.Body = rerr.Body
		return xerr
	}

	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		xerr.Kind = shared.ErrTimeout
	}
	return xerr
}

// maxCapturedBody bounds how much of a token response is kept for diagnostics.
const maxCapturedBody = 64 << 10

// captureTransport keeps a copy of the token endpoint's response body, so a 2xx response that is still unusable
// (no access_token) can be reported verbatim.
type captureTransport struct {
	base   http.RoundTripper
	status int
	body   bytes.Buffer
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := c.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	c.status = resp.StatusCode
	resp.Body = struct {
		io.Reader
		io.Closer
	}{io.TeeReader(resp.Body, &limitedBuffer{buf: &c.body, max: maxCapturedBody}), resp.Body}
	return resp, nil
}

type limitedBuffer struct {
	buf *bytes.Buffer
	max int
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if room := l.max - l.buf.Len(); room > 0 {
		if len(p) > room {
			l.buf.Write(p[:room])
		} else {
			l.buf.Write(p)
		}
	}
	return len(p), nil
}
