// Package models defines domain entities and persistence interfaces for the stylus collection manager.
//
// The package contains two categories of state on each entity:
//
// 1. Canonical fields: data whose source of truth is the Discogs API. These are
// overwritten unconditionally on every sync (title, artist, price, condition, ...).
//
// 2. Local-only fields: data entered by the application's own users — DJ metadata on
// tracks (BPM, key, energy, playability), freeform notes, notification flags. A sync
// never writes these, and sub-entities carrying them survive remote deletion.
//
// Persistent entities:
//   - [User] : account with Discogs username and API credentials
//   - [Release] : a collection release with canonical Discogs metadata, inventory
//     mirror fields, and soft removal tracking
//   - [Track] : a release track mixing canonical position/title/duration with
//     user-entered DJ metadata
//   - [Listing] : a sale inventory listing with a status lifecycle
//     (for_sale/draft/sold/removed) and an optional link to a local release
//   - [SyncRun] : one sync attempt per (user, resource kind) with a resumable cursor,
//     counters, and a pending/running/paused/completed/failed state machine
//
// All persistent entities implement the Model interface providing ID generation,
// timestamps, validation, and soft delete support. The Repository[T] interface
// defines standard CRUD operations for database access.
package models
