package main

import (
	"context"

	"github.com/desertthunder/butter/internal/models"
	"github.com/urfave/cli/v3"
)

// MerchantCurrent shows the merchant the session's token is scoped to.
func (r *Runner) MerchantCurrent(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.rawSession()
	if err != nil {
		return err
	}

	merchant, err := r.service.CurrentMerchant(ctx, sess)
	if err != nil {
		return err
	}
	return r.writeMerchant(merchant, cmd.Bool("json"))
}

// MerchantShow shows a merchant by ID, defaulting to the session's merchant.
func (r *Runner) MerchantShow(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.session(ctx)
	if err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if id == "" {
		id = sess.MerchantID
	}

	merchant, err := r.service.Merchant(ctx, sess, id)
	if err != nil {
		return err
	}
	return r.writeMerchant(merchant, cmd.Bool("json"))
}

func (r *Runner) writeMerchant(m *models.Merchant, asJSON bool) error {
	if asJSON {
		return r.writeJSON(m, true)
	}

	r.writePlainHeader(m.Name)
	r.writePlain("ID: %s\n", m.ID)
	if m.Owner != nil && m.Owner.Name != "" {
		r.writePlain("Owner: %s\n", m.Owner.Name)
	}
	if addr := m.Address.String(); addr != "" {
		r.writePlain("Address: %s\n", addr)
	}
	if m.Phone != "" {
		r.writePlain("Phone: %s\n", m.Phone)
	}
	if m.Website != "" {
		r.writePlain("Website: %s\n", m.Website)
	}
	return nil
}
