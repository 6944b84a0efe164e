package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/butter/internal/server"
	"github.com/desertthunder/butter/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the gateway until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := *r.config
	if cmd.IsSet("port") {
		config.Server.Port = cmd.Int("port")
	}
	if cmd.IsSet("host") {
		config.Server.Host = cmd.String("host")
	}

	tracing, err := server.NewTracing(ctx, "butter")
	if err != nil {
		r.logger.Warn("tracing disabled", "error", err)
		tracing = nil
	} else if tracing.Enabled() {
		r.logger.Info("tracing enabled", "endpoint", server.TracingEndpoint())
	}

	app := server.NewApp(server.AppOpts{
		Config:  &config,
		Logger:  r.logger,
		Tracing: tracing,
	})
	return app.Run(ctx)
}

type healthResponse struct {
	Status                string `json:"status"`
	CredentialsConfigured bool   `json:"credentials_configured"`
	Timestamp             string `json:"timestamp"`
}

// Health checks the gateway's /health endpoint.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	r.logger.Debug("checking gateway health", "gateway", r.config.Client.GatewayURL)

	resp, err := r.api.Get(ctx, "/health")
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}

	var health healthResponse
	if err := json.Unmarshal(resp.Body, &health); err != nil {
		return fmt.Errorf("%w: unexpected health response: %v", shared.ErrServiceUnavailable, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(health, true)
	}

	r.writePlain("✓ Gateway is %s\n", health.Status)
	r.writePlain("URL: %s\n", r.config.Client.GatewayURL)
	if health.CredentialsConfigured {
		r.writePlain("Credentials: ✓ configured\n")
	} else {
		r.writePlain("Credentials: ✗ CLOVER_CLIENT_ID / CLOVER_CLIENT_SECRET not set\n")
	}
	return r.writePlain("Checked at: %s\n", health.Timestamp)
}
