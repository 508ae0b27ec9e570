// Package sites holds the per-site parsers. Each parser knows one game
// catalog site: how its listing pages, detail pages and search results are
// laid out. Parsers share the fetch client and the extraction helpers and
// return the common model types, so callers never see site-specific HTML.
package sites

import (
	"context"
	"errors"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"gamestore/internal/fetch"
	"gamestore/internal/model"
)

// ErrNotSupported is returned by operations a site parser does not
// implement, for example search on a site with no search form.
var ErrNotSupported = errors.New("sites: operation not supported")

// ListingPage is one page of a site's game catalog.
type ListingPage struct {
	Games      []model.GameListing `json:"games"`
	HasNext    bool                `json:"has_next"`
	Categories []model.Category    `json:"categories,omitempty"`
}

// Parser is the interface every site parser implements.
//
// ListGames returns one page of the catalog, optionally restricted to a
// category slug. GetGameDetails scrapes a single game page; a page that
// yields nothing produces an empty detail and a nil error, the caller
// decides how to report it. SearchGames returns raw per-site results with
// no ranking applied.
type Parser interface {
	Descriptor() model.SiteDescriptor
	ListGames(ctx context.Context, page int, category string) (ListingPage, error)
	GetGameDetails(ctx context.Context, pageURL string) (model.GameDetail, error)
	SearchGames(ctx context.Context, query string) ([]model.GameListing, error)
}

// Fetcher is the document source parsers use. Satisfied by *fetch.Client;
// tests substitute a fake serving canned documents.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*goquery.Document, error)
}

// Options carries construction-time settings shared by all parsers.
type Options struct {
	BaseURL string       // overrides the parser's default base URL when set
	Fetch   fetch.Config // template for the parser's fetch client; SiteID is filled in
	Fetcher Fetcher      // overrides the built fetch client when set
	Logger  *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// newFetcher returns the injected Fetcher or builds a fetch client for
// siteID from the options' fetch template.
func newFetcher(siteID string, opts Options) Fetcher {
	if opts.Fetcher != nil {
		return opts.Fetcher
	}
	cfg := opts.Fetch
	cfg.SiteID = siteID
	if cfg.Logger == nil {
		cfg.Logger = opts.logger()
	}
	return fetch.New(cfg)
}
