// package services defines interface Service for talking to Clover through the gateway
package services

import (
	"context"
	"time"

	"github.com/desertthunder/butter/internal/models"
)

// Service defines the merchant, inventory and order operations available to clients.
//
// Every call takes the caller's [models.Session] explicitly; implementations hold no credential of their own.
type Service interface {
	// CurrentMerchant returns the merchant the session's token is scoped to.
	CurrentMerchant(ctx context.Context, sess models.Session) (*models.Merchant, error)

	// Merchant retrieves a merchant by ID.
	Merchant(ctx context.Context, sess models.Session, merchantID string) (*models.Merchant, error)

	// ResolveMerchant returns sess with its merchant id filled in, looking it up only when missing.
	ResolveMerchant(ctx context.Context, sess models.Session) (models.Session, error)

	// Items lists inventory items for the session's merchant.
	Items(ctx context.Context, sess models.Session, q ItemQuery) ([]models.Item, error)

	// CreateItem creates an inventory item.
	CreateItem(ctx context.Context, sess models.Session, in models.ItemInput) (*models.Item, error)

	// UpdateItem changes the given fields of an item.
	UpdateItem(ctx context.Context, sess models.Session, itemID string, in models.ItemInput) (*models.Item, error)

	// DeleteItem removes an item.
	DeleteItem(ctx context.Context, sess models.Session, itemID string) error

	// Orders lists orders, optionally bounded by creation time.
	Orders(ctx context.Context, sess models.Session, q OrderQuery) ([]models.Order, error)
}

// ItemQuery narrows an item listing. Filters are passed through as vendor filter expressions.
type ItemQuery struct {
	Limit   int
	Offset  int
	Filters []string
}

// OrderQuery narrows an order listing by creation time.
type OrderQuery struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}
