package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/stylus-audio/stylus/internal/shared"
)

const (
	defaultBaseURL = "https://api.discogs.com"
	userAgent      = "stylus/0.1 +https://github.com/stylus-audio/stylus"

	// Discogs pauses misbehaving clients for a minute when it omits Retry-After.
	defaultRetryAfter = 60 * time.Second
)

// Client is an authenticated, rate-limited Discogs API client.
//
// A token bucket spaces out requests so the authenticated budget (60/minute) is
// never exceeded; every request waits for a token before hitting the network.
type Client struct {
	username   string
	authHeader string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a client from credentials and sync tunables.
//
// Credentials must contain either a personal access token or a consumer key/secret
// pair; ambiguous or missing credentials are rejected here rather than surfacing as
// 401s mid-sync.
func NewClient(creds shared.DiscogsConfig, sync shared.SyncConfig) (*Client, error) {
	if creds.Username == "" {
		return nil, fmt.Errorf("%w: discogs username is required", shared.ErrMissingCredentials)
	}

	var authHeader string
	switch {
	case creds.PersonalToken != "" && (creds.ConsumerKey != "" || creds.ConsumerSecret != ""):
		return nil, fmt.Errorf("%w: configure either a personal token or a consumer key pair, not both", shared.ErrInvalidConfig)
	case creds.PersonalToken != "":
		authHeader = "Discogs token=" + creds.PersonalToken
	case creds.ConsumerKey != "" && creds.ConsumerSecret != "":
		authHeader = fmt.Sprintf("Discogs key=%s, secret=%s", creds.ConsumerKey, creds.ConsumerSecret)
	default:
		return nil, fmt.Errorf("%w: set personal_token or consumer_key and consumer_secret", shared.ErrMissingCredentials)
	}

	interval := time.Duration(sync.MinRequestIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	timeout := time.Duration(sync.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		username:   creds.Username,
		authHeader: authHeader,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
	}, nil
}

// Username returns the account the client is configured for.
func (c *Client) Username() string { return c.username }

// SetBaseURL overrides the API host, for tests.
func (c *Client) SetBaseURL(base string) { c.baseURL = base }

// Identity verifies the credentials against /oauth/identity and returns the
// authenticated account.
func (c *Client) Identity(ctx context.Context) (*Identity, error) {
	var identity Identity
	if err := c.get(ctx, "/oauth/identity", nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// Collection fetches one page of the user's main collection folder (folder 0).
func (c *Client) Collection(ctx context.Context, page, perPage int) (*CollectionPage, error) {
	endpoint := fmt.Sprintf("/users/%s/collection/folders/0/releases", url.PathEscape(c.username))
	query := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}

	var result CollectionPage
	if err := c.get(ctx, endpoint, query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Release fetches the full release resource including the tracklist.
func (c *Client) Release(ctx context.Context, id int64) (*ReleaseDetail, error) {
	var detail ReleaseDetail
	if err := c.get(ctx, fmt.Sprintf("/releases/%d", id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Inventory fetches one page of the user's marketplace inventory.
func (c *Client) Inventory(ctx context.Context, page, perPage int) (*InventoryPage, error) {
	endpoint := fmt.Sprintf("/users/%s/inventory", url.PathEscape(c.username))
	query := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}

	var result InventoryPage
	if err := c.get(ctx, endpoint, query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// get performs a rate-limited authenticated GET and decodes the JSON response.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	apiURL := c.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// classifyStatus maps failure responses onto the typed errors the sync engine
// branches on.
func classifyStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := defaultRetryAfter
		if header := resp.Header.Get("Retry-After"); header != "" {
			if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return &RateLimitError{RetryAfter: retryAfter}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{StatusCode: resp.StatusCode, Message: string(body)}
	default:
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}
