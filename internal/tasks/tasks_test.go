package tasks

import (
	"context"
	"sync"

	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/services"
	"github.com/desertthunder/butter/internal/shared"
)

// fakeService is an in-memory [services.Service].
type fakeService struct {
	mu           sync.Mutex
	merchant     models.Merchant
	items        []models.Item
	orders       []models.Order
	itemsErr     error
	ordersErr    error
	resolveErr   error
	itemQueries  []services.ItemQuery
	orderQueries []services.OrderQuery
	resolved     int
}

func (f *fakeService) CurrentMerchant(ctx context.Context, sess models.Session) (*models.Merchant, error) {
	m := f.merchant
	return &m, nil
}

func (f *fakeService) Merchant(ctx context.Context, sess models.Session, merchantID string) (*models.Merchant, error) {
	m := f.merchant
	m.ID = merchantID
	return &m, nil
}

func (f *fakeService) ResolveMerchant(ctx context.Context, sess models.Session) (models.Session, error) {
	if f.resolveErr != nil {
		return sess, f.resolveErr
	}
	if sess.MerchantID != "" {
		return sess, nil
	}
	f.resolved++
	return sess.WithMerchant(f.merchant.ID), nil
}

func (f *fakeService) Items(ctx context.Context, sess models.Session, q services.ItemQuery) ([]models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemQueries = append(f.itemQueries, q)
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	if q.Offset >= len(f.items) {
		return nil, nil
	}
	end := min(q.Offset+q.Limit, len(f.items))
	return f.items[q.Offset:end], nil
}

func (f *fakeService) CreateItem(ctx context.Context, sess models.Session, in models.ItemInput) (*models.Item, error) {
	return nil, shared.ErrNotImplemented
}

func (f *fakeService) UpdateItem(ctx context.Context, sess models.Session, itemID string, in models.ItemInput) (*models.Item, error) {
	return nil, shared.ErrNotImplemented
}

func (f *fakeService) DeleteItem(ctx context.Context, sess models.Session, itemID string) error {
	return shared.ErrNotImplemented
}

func (f *fakeService) Orders(ctx context.Context, sess models.Session, q services.OrderQuery) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderQueries = append(f.orderQueries, q)
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	if q.Offset >= len(f.orders) {
		return nil, nil
	}
	end := len(f.orders)
	if q.Limit > 0 {
		end = min(q.Offset+q.Limit, end)
	}
	return f.orders[q.Offset:end], nil
}

var _ services.Service = (*fakeService)(nil)

func testSession() models.Session {
	return models.Session{AccessToken: "tok_abcdefgh", MerchantID: "M1"}
}
