// Package storefront is the client SDK for the storefront cart API.
//
// It keeps a local copy of the user's cart that survives restarts, applies
// mutations optimistically, and reconciles with the authoritative remote
// cart whenever a session token is present. Anonymous sessions operate
// local-only; an anonymous add-to-cart attempt is parked in session storage
// and replayed once after login.
package storefront
