package main

import (
	"context"

	"github.com/desertthunder/butter/internal/formatter"
	"github.com/desertthunder/butter/internal/services"
	"github.com/urfave/cli/v3"
)

// OrdersList lists orders within an optional creation time range.
func (r *Runner) OrdersList(ctx context.Context, cmd *cli.Command) error {
	from, to, err := timeRange(cmd)
	if err != nil {
		return err
	}

	sess, err := r.session(ctx)
	if err != nil {
		return err
	}

	orders, err := r.service.Orders(ctx, sess, services.OrderQuery{From: from, To: to, Limit: cmd.Int("limit")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(orders, true)
	}
	if len(orders) == 0 {
		return r.writePlain("No orders\n")
	}

	var total int64
	rows := make([][]string, len(orders))
	for i, o := range orders {
		created := ""
		if t := o.Created(); !t.IsZero() {
			created = t.UTC().Format("2006-01-02 15:04")
		}
		rows[i] = []string{o.ID, created, o.State, o.Currency, formatter.FormatPrice(o.Total)}
		total += o.Total
	}
	if err := r.writeTable([]string{"ID", "Created", "State", "Currency", "Total"}, rows); err != nil {
		return err
	}
	return r.writePlain("%d orders, %s total\n", len(orders), formatter.FormatPrice(total))
}
