// Package services implements the client side of the gateway.
//
// # API Service
//
// [APIService] performs raw HTTP requests against a running gateway. Authenticated calls take a
// [models.Session] argument and send its token as a bearer header; nothing is cached between calls.
// [Check] turns the gateway's status and X-Butter-Outcome tag into the shared error taxonomy, so callers can
// tell an expired token from a timeout or a transport failure with [errors.Is].
//
// # Clover Service
//
// [CloverService] implements [Service]: typed merchant, item and order operations built on [APIService].
// Responses may or may not be wrapped in the gateway envelope; both shapes decode the same way.
//
// Merchant resolution follows the gateway's callback: a session that already carries a merchant id is used as-is,
// otherwise [CloverService.ResolveMerchant] asks for the current merchant once.
package services
