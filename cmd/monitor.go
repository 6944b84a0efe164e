package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/butter/internal/shared"
	"github.com/desertthunder/butter/internal/tasks"
	"github.com/desertthunder/butter/internal/ui"
	"github.com/urfave/cli/v3"
)

// Monitor launches the live inventory dashboard.
func (r *Runner) Monitor(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.session(ctx)
	if err != nil {
		return err
	}

	opts := tasks.MonitorOpts{
		Interval: r.config.Monitor.Interval.Duration,
		Limit:    r.config.Monitor.Limit,
	}
	if cmd.IsSet("interval") {
		opts.Interval = cmd.Duration("interval")
	}
	if cmd.IsSet("limit") {
		opts.Limit = cmd.Int("limit")
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join(filepath.Dir(r.config.Client.SessionFile()), "monitor.log")
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)
	opts.Logger = fileLogger

	monitor := tasks.NewInventoryMonitor(r.service, sess, opts)
	model := ui.NewMonitorModel(ctx, monitor, sess.MerchantID)

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		monitor.Stop()
		return fmt.Errorf("error running TUI: %w", err)
	}

	if err := model.Err(); err != nil {
		return fmt.Errorf("monitor stopped: %w", err)
	}
	return nil
}
