package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/butter/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes the merchant's items, and optionally orders, to files.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	from, to, err := timeRange(cmd)
	if err != nil {
		return err
	}

	sess, err := r.session(ctx)
	if err != nil {
		return err
	}

	opts := tasks.ExportOpts{
		Format:    cmd.String("format"),
		OutputDir: cmd.String("output"),
		PageSize:  cmd.Int("page-size"),
		Orders:    cmd.Bool("orders"),
		From:      from,
		To:        to,
	}

	prog := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.writePlain("→ %s\n", update.Message)
		}
	}()

	result, err := tasks.ExportData(ctx, r.service, sess, opts, prog)
	close(prog)
	<-done
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.logger.Info("export complete", "dir", result.OutputDirectory, "items", len(result.Snapshot.Items))

	r.writePlainln("✓ Exported %d items and %d orders to %s", len(result.Snapshot.Items), len(result.Snapshot.Orders), result.OutputDirectory)
	for _, f := range result.Files {
		r.writePlain("  %s\n", f)
	}
	return r.writePlain("  %s\n", result.ManifestFile)
}
