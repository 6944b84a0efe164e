package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/server"
	"github.com/desertthunder/butter/internal/services"
	"github.com/desertthunder/butter/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin performs the authorization code flow on a temporary local server and saves the session.
//
// Opens the browser to the Clover consent page and waits for the callback on http://localhost:{port}/callback.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if !r.config.Clover.Configured() {
		return fmt.Errorf("%w: CLOVER_CLIENT_ID and CLOVER_CLIENT_SECRET must be set", shared.ErrMissingCredentials)
	}

	port := r.config.Server.LoopbackPort
	if cmd.IsSet("port") {
		port = cmd.Int("port")
	}

	cred, err := r.doOAuth(ctx, port, cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	sess := cred.Session()
	if !cred.MerchantResolved {
		if resolved, err := r.service.ResolveMerchant(ctx, sess); err != nil {
			r.logger.Warn("could not resolve merchant; it will be looked up on first use", "error", err)
		} else {
			sess = resolved
		}
	}

	path := r.config.Client.SessionFile()
	if err := shared.SaveSession(path, sess); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("Token: %s\n", shared.MaskToken(sess.AccessToken))
	if sess.MerchantID != "" {
		r.writePlain("Merchant: %s\n", sess.MerchantID)
	}
	r.writePlain("✓ Session saved to %s\n\n", path)
	return r.writePlain("You can now use: butter items list\n")
}

func (r *Runner) doOAuth(ctx context.Context, port int, timeout time.Duration) (*models.Credential, error) {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for callback: %w", err)
	}
	redirectURI := fmt.Sprintf("http://localhost:%d/callback", listener.Addr().(*net.TCPAddr).Port)

	exchanger := server.NewExchanger(server.ExchangeOptions{
		AuthorizeURL: r.config.Clover.AuthorizeURL,
		TokenURL:     r.config.Clover.TokenURL,
		ClientID:     r.config.Clover.ClientID,
		ClientSecret: r.config.Clover.ClientSecret,
		Timeout:      r.config.Clover.ExchangeTimeout.Duration,
		HTTPClient:   r.httpClient,
	})
	handler := server.NewLoopbackHandler(exchanger, redirectURI, shared.GenerateState())
	router := server.NewBasicRouter()
	router.Handler(handler)

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("waiting for OAuth callback at %v", redirectURI)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := handler.AuthorizationURL()
	r.writePlain("→ Opening browser for Clover authorization...\n")
	if err := r.browser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.LoopbackResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Credential == nil {
		return nil, fmt.Errorf("%w: no credential received", shared.ErrTokenExchange)
	}
	return result.Credential, nil
}

// AuthImport saves a session from a token obtained outside the CLI.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	sess := models.Session{
		AccessToken: cmd.String("token"),
		MerchantID:  cmd.String("merchant"),
		IssuedAt:    time.Now().UTC(),
	}

	path := r.config.Client.SessionFile()
	if err := shared.SaveSession(path, sess); err != nil {
		return err
	}

	r.logger.Info("session imported", "token", shared.MaskToken(sess.AccessToken), "merchant_id", sess.MerchantID)
	return r.writePlain("✓ Session saved to %s\n", path)
}

type authStatusResponse struct {
	Authenticated      bool `json:"authenticated"`
	DashboardAvailable bool `json:"dashboard_available"`
	OAuthConfigured    bool `json:"oauth_configured"`
}

// AuthStatus shows the saved session and asks the gateway whether OAuth is configured.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	sess, sessErr := r.rawSession()
	if sessErr != nil && !errors.Is(sessErr, shared.ErrNotAuthenticated) {
		return sessErr
	}

	r.writePlainHeader("Session")
	if sessErr != nil {
		r.writePlain("✗ Not logged in\n")
	} else {
		r.writePlain("✓ Logged in\n")
		r.writePlain("Token: %s\n", shared.MaskToken(sess.AccessToken))
		if sess.MerchantID != "" {
			r.writePlain("Merchant: %s\n", sess.MerchantID)
		} else {
			r.writePlain("Merchant: (unresolved)\n")
		}
		if !sess.IssuedAt.IsZero() {
			r.writePlain("Issued: %s\n", sess.IssuedAt.Format(time.RFC3339))
		}
	}

	var resp *services.APIResponse
	var err error
	if sessErr == nil {
		resp, err = r.api.Do(ctx, sess, http.MethodGet, "/api/auth/status", nil)
	} else {
		resp, err = r.api.Get(ctx, "/api/auth/status")
	}

	r.writePlainHeader("Gateway")
	if err != nil {
		r.logger.Warn("gateway unreachable", "error", err)
		return r.writePlain("✗ Unreachable at %s\n", r.config.Client.GatewayURL)
	}

	var status authStatusResponse
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		return fmt.Errorf("%w: unexpected auth status response: %v", shared.ErrServiceUnavailable, err)
	}

	r.writePlain("URL: %s\n", r.config.Client.GatewayURL)
	if status.OAuthConfigured {
		return r.writePlain("OAuth: ✓ configured\n")
	}
	return r.writePlain("OAuth: ✗ not configured\n")
}

// AuthLogout deletes the saved session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Client.SessionFile()
	if err := shared.RemoveSession(path); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}
