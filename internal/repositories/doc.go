// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type,
// handling CRUD operations, soft deletes, and sequence generation. On top of the
// generic interface the repositories expose the lookups the sync engine needs:
// upsert identities (GetByDiscogsID, GetByListingID), reconciliation sweeps
// (MarkRemovedExcept, ClearInventoryExcept) and the single-active-run rule for
// sync runs (GetOrCreateActive).
package repositories
