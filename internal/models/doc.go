// Package models defines the domain entities exchanged between the gateway, its clients and the Clover API.
//
// The package contains two categories of types:
//
// 1. Vendor projections: typed views of the Clover REST payloads
//   - [Merchant] : the merchant account the token is scoped to
//   - [Item] : an inventory item; prices are in minor currency units
//   - [Order] : an order with its total and lifecycle state
//   - [Snapshot] : a merchant with its items and orders, as written by exports
//
// 2. Credentials: values produced by the OAuth exchange and held by clients
//   - [Credential] : the result of a code exchange, including how the merchant id was resolved
//   - [Session] : the explicit client-side credential passed into every API call
//
// The server never retains either credential type beyond a single request.
package models
