package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/shared"
)

// DefaultMountPrefix is where the gateway serves the Clover API.
const DefaultMountPrefix = "/api/clover"

// CloverService implements [Service] on top of the gateway.
type CloverService struct {
	api    *APIService
	prefix string
}

// NewCloverService creates a [CloverService] that calls the gateway under prefix.
func NewCloverService(api *APIService, prefix string) *CloverService {
	if prefix == "" {
		prefix = DefaultMountPrefix
	}
	return &CloverService{api: api, prefix: prefix}
}

func (c *CloverService) merchantPath(sess models.Session, rest string) (string, error) {
	if sess.MerchantID == "" {
		return "", fmt.Errorf("%w: resolve the merchant first", shared.ErrMerchantUnresolved)
	}
	return c.prefix + "/merchants/" + url.PathEscape(sess.MerchantID) + rest, nil
}

// CurrentMerchant returns the merchant the session's token is scoped to.
func (c *CloverService) CurrentMerchant(ctx context.Context, sess models.Session) (*models.Merchant, error) {
	resp, err := c.api.Call(ctx, sess, http.MethodGet, c.prefix+"/merchants/current", nil)
	if err != nil {
		return nil, err
	}

	var m models.Merchant
	if err := decodeData(resp.Body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Merchant retrieves a merchant by ID.
func (c *CloverService) Merchant(ctx context.Context, sess models.Session, merchantID string) (*models.Merchant, error) {
	if merchantID == "" {
		return nil, fmt.Errorf("%w: merchant id", shared.ErrMissingArgument)
	}

	resp, err := c.api.Call(ctx, sess, http.MethodGet, c.prefix+"/merchants/"+url.PathEscape(merchantID), nil)
	if err != nil {
		return nil, err
	}

	var m models.Merchant
	if err := decodeData(resp.Body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ResolveMerchant returns sess unchanged when it already names a merchant, otherwise it asks for the current one.
func (c *CloverService) ResolveMerchant(ctx context.Context, sess models.Session) (models.Session, error) {
	if sess.MerchantID != "" {
		return sess, nil
	}

	m, err := c.CurrentMerchant(ctx, sess)
	if err != nil {
		return sess, err
	}
	if m.ID == "" {
		return sess, fmt.Errorf("%w: current merchant has no id", shared.ErrMerchantUnresolved)
	}
	return sess.WithMerchant(m.ID), nil
}

// Items lists inventory items.
func (c *CloverService) Items(ctx context.Context, sess models.Session, q ItemQuery) ([]models.Item, error) {
	path, err := c.merchantPath(sess, "/items")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	for _, f := range q.Filters {
		params.Add("filter", f)
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := c.api.Call(ctx, sess, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var list struct {
		Elements []models.Item `json:"elements"`
	}
	if err := decodeData(resp.Body, &list); err != nil {
		return nil, err
	}
	return list.Elements, nil
}

// CreateItem creates an inventory item. Price is in minor currency units.
func (c *CloverService) CreateItem(ctx context.Context, sess models.Session, in models.ItemInput) (*models.Item, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	path, err := c.merchantPath(sess, "/items")
	if err != nil {
		return nil, err
	}
	return c.writeItem(ctx, sess, path, in)
}

// UpdateItem changes the non-empty fields of in on an existing item.
func (c *CloverService) UpdateItem(ctx context.Context, sess models.Session, itemID string, in models.ItemInput) (*models.Item, error) {
	if itemID == "" {
		return nil, fmt.Errorf("%w: item id", shared.ErrMissingArgument)
	}
	if in.Price != nil && *in.Price < 0 {
		return nil, fmt.Errorf("%w: item price must not be negative", shared.ErrInvalidInput)
	}
	path, err := c.merchantPath(sess, "/items/"+url.PathEscape(itemID))
	if err != nil {
		return nil, err
	}
	return c.writeItem(ctx, sess, path, in)
}

func (c *CloverService) writeItem(ctx context.Context, sess models.Session, path string, in models.ItemInput) (*models.Item, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode item: %w", err)
	}

	resp, err := c.api.Call(ctx, sess, http.MethodPost, path, payload)
	if err != nil {
		return nil, notFound(resp, err)
	}

	var item models.Item
	if err := decodeData(resp.Body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes an item.
func (c *CloverService) DeleteItem(ctx context.Context, sess models.Session, itemID string) error {
	if itemID == "" {
		return fmt.Errorf("%w: item id", shared.ErrMissingArgument)
	}
	path, err := c.merchantPath(sess, "/items/"+url.PathEscape(itemID))
	if err != nil {
		return err
	}

	resp, err := c.api.Call(ctx, sess, http.MethodDelete, path, nil)
	return notFound(resp, err)
}

// Orders lists orders. Time bounds become createdTime filters in epoch milliseconds.
func (c *CloverService) Orders(ctx context.Context, sess models.Session, q OrderQuery) ([]models.Order, error) {
	path, err := c.merchantPath(sess, "/orders")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	if !q.From.IsZero() {
		params.Add("filter", "createdTime>="+strconv.FormatInt(q.From.UnixMilli(), 10))
	}
	if !q.To.IsZero() {
		params.Add("filter", "createdTime<="+strconv.FormatInt(q.To.UnixMilli(), 10))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := c.api.Call(ctx, sess, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var list struct {
		Elements []models.Order `json:"elements"`
	}
	if err := decodeData(resp.Body, &list); err != nil {
		return nil, err
	}
	return list.Elements, nil
}

func notFound(resp *APIResponse, err error) error {
	if err != nil && resp != nil && resp.StatusCode == http.StatusNotFound && errors.Is(err, shared.ErrAPIRequest) {
		return fmt.Errorf("%w: %v", shared.ErrItemNotFound, err)
	}
	return err
}

// decodeData unmarshals a gateway body into v, unwrapping the success envelope when present.
func decodeData(body []byte, v any) error {
	var env struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Success != nil && env.Data != nil {
		body = env.Data
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
