// package tasks implements the Discogs synchronization engine.
//
// The core abstraction is Engine, which walks a paginated remote listing through a
// Source, applies each record to local storage through a Handler, and checkpoints a
// SyncRun cursor after every record so an interrupted sync resumes exactly where it
// stopped. Two handler implementations exist: CollectionHandler mirrors the user's
// collection folder (releases and tracklists), InventoryHandler mirrors the
// marketplace inventory (listings and the for-sale data on releases).
//
// Operations emit progress updates via channels for non-blocking status reporting
// to the CLI layer. Guard serializes execution so at most one sync per
// (user, resource) pair runs at a time.
package tasks
