// Package ops provides small net/http handlers for operating a tweak.Store.
//
// ops is designed to be mounted into your own routing tree. It does not choose
// paths, does not decide authn/authz, and does not start servers. The admin
// package mounts these handlers under a chi router with read and write guards.
//
// # Formats
//
// Every handler renders text by default. The default can be changed by
// options and overridden per request by URL query:
//   - ?format=text
//   - ?format=json
//
// Text output is line-based, tab-separated and greppable. Fields are escaped
// so values cannot break lines. Every response sets Cache-Control: no-store.
//
// # Handlers
//
//   - reads: CollectionsHandler, CollectionHandler, LookupHandler, OverridesHandler
//   - writes: SetHandler, ClearHandler, ResetHandler (POST only)
//   - health: HealthzHandler, ReadyzHandler
//
// Write errors map to status codes: unknown key 404, type mismatch or out of
// bounds 400, persistence failure 500 (the in-memory change is kept and the
// response carries the new item).
package ops
