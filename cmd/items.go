package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/butter/internal/formatter"
	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/services"
	"github.com/desertthunder/butter/internal/shared"
	"github.com/urfave/cli/v3"
)

// ItemsList lists the merchant's inventory items.
func (r *Runner) ItemsList(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.session(ctx)
	if err != nil {
		return err
	}

	q := services.ItemQuery{
		Limit:   cmd.Int("limit"),
		Offset:  cmd.Int("offset"),
		Filters: cmd.StringSlice("filter"),
	}
	r.logger.Debug("listing items", "merchant_id", sess.MerchantID, "limit", q.Limit, "offset", q.Offset)

	items, err := r.service.Items(ctx, sess, q)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}
	if len(items) == 0 {
		return r.writePlain("No items\n")
	}

	rows := make([][]string, len(items))
	for i, item := range items {
		rows[i] = []string{
			item.ID,
			item.Name,
			formatter.FormatPrice(item.Price),
			item.SKU,
			strconv.FormatBool(item.Hidden),
		}
	}
	if err := r.writeTable([]string{"ID", "Name", "Price", "SKU", "Hidden"}, rows); err != nil {
		return err
	}
	return r.writePlain("%d items\n", len(items))
}

// ItemsCreate creates an inventory item.
func (r *Runner) ItemsCreate(ctx context.Context, cmd *cli.Command) error {
	in, err := itemInput(cmd)
	if err != nil {
		return err
	}

	sess, err := r.session(ctx)
	if err != nil {
		return err
	}

	item, err := r.service.CreateItem(ctx, sess, in)
	if err != nil {
		return err
	}
	r.logger.Info("item created", "item_id", item.ID)
	return r.writeItem("✓ Created", item, cmd.Bool("json"))
}

// ItemsUpdate changes only the fields given as flags.
func (r *Runner) ItemsUpdate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: item id", shared.ErrMissingArgument)
	}

	in, err := itemInput(cmd)
	if err != nil {
		return err
	}
	if in == (models.ItemInput{}) {
		return fmt.Errorf("%w: nothing to update (use --name, --price, --sku or --hidden)", shared.ErrMissingArgument)
	}

	sess, err := r.session(ctx)
	if err != nil {
		return err
	}

	item, err := r.service.UpdateItem(ctx, sess, id, in)
	if err != nil {
		return err
	}
	r.logger.Info("item updated", "item_id", item.ID)
	return r.writeItem("✓ Updated", item, cmd.Bool("json"))
}

// ItemsDelete removes an item.
func (r *Runner) ItemsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: item id", shared.ErrMissingArgument)
	}

	sess, err := r.session(ctx)
	if err != nil {
		return err
	}

	if err := r.service.DeleteItem(ctx, sess, id); err != nil {
		return err
	}
	r.logger.Info("item deleted", "item_id", id)
	return r.writePlain("✓ Deleted %s\n", id)
}

func itemInput(cmd *cli.Command) (models.ItemInput, error) {
	in := models.ItemInput{
		Name: cmd.String("name"),
		SKU:  cmd.String("sku"),
	}
	if cmd.IsSet("price") {
		price, err := formatter.ParsePrice(cmd.String("price"))
		if err != nil {
			return in, err
		}
		in.Price = &price
	}
	if cmd.IsSet("hidden") {
		hidden := cmd.Bool("hidden")
		in.Hidden = &hidden
	}
	return in, nil
}

func (r *Runner) writeItem(prefix string, item *models.Item, asJSON bool) error {
	if asJSON {
		return r.writeJSON(item, true)
	}
	return r.writePlain("%s %s (%s) %s\n", prefix, item.Name, item.ID, formatter.FormatPrice(item.Price))
}

// parseTime accepts a date (YYYY-MM-DD, UTC midnight) or an RFC 3339 timestamp. Empty input is the zero time.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q must be YYYY-MM-DD or RFC 3339", shared.ErrInvalidArgument, s)
	}
	return t, nil
}

func timeRange(cmd *cli.Command) (from, to time.Time, err error) {
	if from, err = parseTime(cmd.String("from")); err != nil {
		return
	}
	if to, err = parseTime(cmd.String("to")); err != nil {
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		err = fmt.Errorf("%w: --to is before --from", shared.ErrInvalidArgument)
	}
	return
}
