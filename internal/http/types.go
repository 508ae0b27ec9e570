package http

import "gamestore/internal/model"

// Error codes returned in the API error envelope.
const (
	CodeSiteNotFound      = "SITE_NOT_FOUND"
	CodeInvalidPage       = "INVALID_PAGE_NUMBER"
	CodeMissingURL        = "MISSING_PARAMETER_URL"
	CodeMissingQuery      = "MISSING_PARAMETER_QUERY"
	CodeNotImplemented    = "NOT_IMPLEMENTED"
	CodeDetailsNotFound   = "DETAILS_NOT_FOUND"
	CodeServerError       = "SERVER_ERROR"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// ErrorResponse is the error envelope for every API failure.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// GamesResponse is the payload for the games listing endpoint.
type GamesResponse struct {
	Status      string              `json:"status"`
	Site        string              `json:"site"`
	Games       []model.GameListing `json:"games"`
	HasNext     bool                `json:"has_next"`
	CurrentPage int                 `json:"current_page"`
	Categories  []model.Category    `json:"categories,omitempty"`
}

// SearchResponse is the payload for the search endpoint.
type SearchResponse struct {
	Status  string              `json:"status"`
	Site    string              `json:"site"`
	Query   string              `json:"query"`
	Results []model.GameListing `json:"results"`
}

// SitesResponse lists the available site parsers.
type SitesResponse struct {
	Status string                 `json:"status"`
	Sites  []model.SiteDescriptor `json:"sites"`
}
