package model

// UnknownTitle is the documented placeholder used when a page exposes no
// usable title for a listing or detail record.
const UnknownTitle = "Unknown Title"

// GameListing is the summary record produced by list and search operations.
// Listings are constructed per request and never persisted. URL is always
// absolute; card elements without a resolvable URL are skipped upstream, so
// a GameListing with an empty URL should never be observed.
type GameListing struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
	Site        string `json:"site"`
}

// Category is a catalog category link discovered on a listing page.
type Category struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// DownloadLink is one entry in a detail page's download section. Group
// distinguishes coarse buckets such as "Main Game" vs "Update"; Section is a
// finer label like a table name or paragraph heading. PasswordHint carries a
// group-local archive password that was not promoted to the detail-level
// password (see GameDetail.DownloadPassword).
type DownloadLink struct {
	URL          string `json:"url"`
	Text         string `json:"text"`
	Group        string `json:"group"`
	Section      string `json:"section"`
	PasswordHint string `json:"password_hint,omitempty"`
}

// GameDetail is the full per-game record. Meta always carries "title", "url"
// and "site" when a document was obtained; optional keys (genre, developer,
// publisher, release_date, language, image, file_size) vary by site. The zero
// value is the documented fully-empty detail returned when no document could
// be fetched.
type GameDetail struct {
	Meta               map[string]string `json:"meta"`
	Description        string            `json:"description,omitempty"`
	SystemRequirements string            `json:"system_requirements,omitempty"`
	Screenshots        []string          `json:"screenshots"`
	Downloads          []DownloadLink    `json:"download_links"`
	DownloadPassword   string            `json:"download_password,omitempty"`
	RelatedGames       []GameListing     `json:"related_games"`

	// Raw section markup retained for alternate output formats. Not part of
	// the JSON payload.
	DescriptionHTML        string `json:"-"`
	SystemRequirementsHTML string `json:"-"`
}

// Empty reports whether the detail is the fully-empty tuple.
func (d GameDetail) Empty() bool {
	return len(d.Meta) == 0 && d.Description == "" && d.SystemRequirements == "" &&
		len(d.Screenshots) == 0 && len(d.Downloads) == 0 && d.DownloadPassword == "" &&
		len(d.RelatedGames) == 0
}

// SiteDescriptor identifies a site parser for presentation purposes.
type SiteDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
