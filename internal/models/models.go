package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validator is implemented by inputs checked before they are sent upstream.
type Validator interface {
	Validate() error // Validate checks if the value is complete and returns an error if not
}

var errInvalid = errors.New("invalid value")

// Merchant is the subset of the merchant resource the clients use.
type Merchant struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Owner   *Owner  `json:"owner,omitempty"`
	Address Address `json:"address"`
	Phone   string  `json:"phoneNumber,omitempty"`
	Website string  `json:"website,omitempty"`
}

// Owner is the merchant's owning employee.
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Address is a merchant postal address.
type Address struct {
	Address1 string `json:"address1,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Zip      string `json:"zip,omitempty"`
	Country  string `json:"country,omitempty"`
}

// String joins the non-empty address parts on one line.
func (a Address) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Address1, a.City, a.State, a.Zip, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Item is an inventory item. Price is in minor currency units (cents).
type Item struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AlternateID  string `json:"alternateName,omitempty"`
	Code         string `json:"code,omitempty"`
	SKU          string `json:"sku,omitempty"`
	Price        int64  `json:"price"`
	PriceType    string `json:"priceType,omitempty"`
	Hidden       bool   `json:"hidden"`
	ModifiedTime int64  `json:"modifiedTime,omitempty"`
}

// Modified returns the last modification time reported by the vendor.
func (i Item) Modified() time.Time {
	if i.ModifiedTime == 0 {
		return time.Time{}
	}
	return time.UnixMilli(i.ModifiedTime)
}

// ItemInput is the payload for creating or updating an item.
//
// Nil fields are omitted so updates only touch what was given.
type ItemInput struct {
	Name   string `json:"name,omitempty"`
	Price  *int64 `json:"price,omitempty"`
	SKU    string `json:"sku,omitempty"`
	Hidden *bool  `json:"hidden,omitempty"`
}

// Validate checks an input used to create an item.
func (in ItemInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: item name is required", errInvalid)
	}
	if in.Price != nil && *in.Price < 0 {
		return fmt.Errorf("%w: item price must not be negative", errInvalid)
	}
	return nil
}

// Order is the subset of the order resource the clients use.
type Order struct {
	ID          string `json:"id"`
	Currency    string `json:"currency,omitempty"`
	Total       int64  `json:"total"`
	State       string `json:"state,omitempty"`
	PayType     string `json:"payType,omitempty"`
	Title       string `json:"title,omitempty"`
	CreatedTime int64  `json:"createdTime,omitempty"`
}

// Created returns the order creation time.
func (o Order) Created() time.Time {
	if o.CreatedTime == 0 {
		return time.Time{}
	}
	return time.UnixMilli(o.CreatedTime)
}

// Credential is the outcome of a successful code exchange.
type Credential struct {
	AccessToken      string    `json:"access_token"`
	MerchantID       string    `json:"merchant_id,omitempty"`
	MerchantResolved bool      `json:"merchant_resolved"`
	IssuedAt         time.Time `json:"issued_at"`
}

// Session returns the client-side session for this credential.
func (c Credential) Session() Session {
	return Session{AccessToken: c.AccessToken, MerchantID: c.MerchantID, IssuedAt: c.IssuedAt}
}

// Session is the client's credential, passed explicitly into every API call.
type Session struct {
	AccessToken string    `toml:"access_token" json:"access_token"`
	MerchantID  string    `toml:"merchant_id" json:"merchant_id,omitempty"`
	IssuedAt    time.Time `toml:"issued_at" json:"issued_at"`
}

// Valid reports whether the session carries a token.
func (s Session) Valid() bool {
	return strings.TrimSpace(s.AccessToken) != ""
}

// Authorization returns the Authorization header value for the session.
func (s Session) Authorization() string {
	return "Bearer " + s.AccessToken
}

// WithMerchant returns a copy of the session scoped to merchantID.
func (s Session) WithMerchant(merchantID string) Session {
	s.MerchantID = merchantID
	return s
}

// Snapshot is a point-in-time copy of a merchant's catalogue and orders, produced by exports.
type Snapshot struct {
	Merchant   Merchant  `json:"merchant"`
	Items      []Item    `json:"items"`
	Orders     []Order   `json:"orders,omitempty"`
	ExportedAt time.Time `json:"exported_at"`
}
