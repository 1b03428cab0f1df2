// Discogs API response types based on https://www.discogs.com/developers
package discogs

// Pagination carries the paging envelope present on every list response.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

// Identity represents the authenticated user returned by /oauth/identity.
type Identity struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	ResourceURL  string `json:"resource_url"`
	ConsumerName string `json:"consumer_name"`
}

// Artist represents an artist credit on a release.
type Artist struct {
	Name string `json:"name"`
	Join string `json:"join"`
}

// Label represents a record label credit on a release.
type Label struct {
	Name     string `json:"name"`
	CatNo    string `json:"catno"`
	EntityID int64  `json:"id"`
}

// Image represents a release image resource.
type Image struct {
	Type string `json:"type"` // primary, secondary
	URI  string `json:"uri"`
}

// BasicInformation is the release summary embedded in collection items.
type BasicInformation struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	ResourceURL string   `json:"resource_url"`
	CoverImage  string   `json:"cover_image"`
	Thumb       string   `json:"thumb"`
	Artists     []Artist `json:"artists"`
	Labels      []Label  `json:"labels"`
}

// CollectionItem is one release instance in the user's collection folder.
type CollectionItem struct {
	ID               int64            `json:"id"`
	InstanceID       int64            `json:"instance_id"`
	FolderID         int64            `json:"folder_id"`
	DateAdded        string           `json:"date_added"`
	BasicInformation BasicInformation `json:"basic_information"`
}

// CollectionPage is one page of the collection folder listing.
type CollectionPage struct {
	Pagination Pagination       `json:"pagination"`
	Releases   []CollectionItem `json:"releases"`
}

// TrackEntry is one row of a release tracklist.
//
// Type distinguishes playable tracks from headings and index rows, which carry no
// position and are skipped during sync.
type TrackEntry struct {
	Position string `json:"position"`
	Type     string `json:"type_"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

// ReleaseDetail is the full release resource including the tracklist.
type ReleaseDetail struct {
	ID        int64        `json:"id"`
	Title     string       `json:"title"`
	Year      int          `json:"year"`
	URI       string       `json:"uri"`
	Artists   []Artist     `json:"artists"`
	Labels    []Label      `json:"labels"`
	Images    []Image      `json:"images"`
	Tracklist []TrackEntry `json:"tracklist"`
}

// Price is a marketplace money amount.
type Price struct {
	Currency string  `json:"currency"`
	Value    float64 `json:"value"`
}

// ListingRelease is the release summary embedded in a marketplace listing.
type ListingRelease struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Description string `json:"description"`
	Year        int    `json:"year"`
	Thumbnail   string `json:"thumbnail"`
}

// ListingItem is one marketplace inventory listing.
type ListingItem struct {
	ID              int64          `json:"id"`
	Status          string         `json:"status"` // For Sale, Draft, Sold, Expired
	Condition       string         `json:"condition"`
	SleeveCondition string         `json:"sleeve_condition"`
	Price           Price          `json:"price"`
	Comments        string         `json:"comments"`
	Location        string         `json:"location"`
	Posted          string         `json:"posted"`
	URI             string         `json:"uri"`
	Release         ListingRelease `json:"release"`
}

// InventoryPage is one page of the user's marketplace inventory.
type InventoryPage struct {
	Pagination Pagination    `json:"pagination"`
	Listings   []ListingItem `json:"listings"`
}
