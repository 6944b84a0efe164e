package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/butter/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes a config file populated with the embedded defaults.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Config written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set CLOVER_CLIENT_ID and CLOVER_CLIENT_SECRET (in the environment, .env or %s)\n", configPath)
	r.writePlain("2. Register %s as a redirect URI for your Clover app\n", r.callbackURL())
	return r.writePlain("3. Run 'butter serve'\n")
}

// ConfigShow prints the effective configuration with the client secret masked.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	config := *r.config
	config.Clover.ClientSecret = shared.MaskToken(config.Clover.ClientSecret)
	return r.writeJSON(config, true)
}

func (r *Runner) callbackURL() string {
	base := r.config.Server.PublicURL
	if base == "" {
		base = fmt.Sprintf("http://localhost:%d", r.config.Server.Port)
	}
	return base + r.config.Server.CallbackPath
}
