package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/butter/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet performs an authenticated GET through the gateway and prints the response body.
//
// Paths without a leading slash are taken relative to the proxy mount, so "merchants/current" works.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if !strings.HasPrefix(path, "/") {
		path = strings.TrimSuffix(r.config.Proxy.MountPrefix, "/") + "/" + path
	}

	sess, err := r.rawSession()
	if err != nil {
		return err
	}

	r.logger.Debug("GET", "path", path)
	resp, err := r.api.Do(ctx, sess, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	r.logger.Info("gateway response", "status", resp.StatusCode, "outcome", resp.Outcome)

	body := resp.Body
	if resp.IsJSON && cmd.Bool("pretty") {
		var buf bytes.Buffer
		if err := json.Indent(&buf, resp.Body, "", "  "); err == nil {
			body = buf.Bytes()
		}
	}
	if err := r.writePlain("%s\n", body); err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d (%s)", shared.ErrAPIRequest, resp.StatusCode, resp.Outcome)
	}
	return nil
}
