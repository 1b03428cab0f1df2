// package discogs implements a rate-limited client for the Discogs REST API.
//
// Authenticated requests cover the identity endpoint, the user's collection folder,
// release details and the marketplace inventory. All requests pass through a shared
// token bucket so the client never exceeds the authenticated request budget, and
// API failures are classified into typed errors (RateLimitError, AuthError,
// APIError) that the sync engine branches on.
package discogs
