package http

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"gamestore/internal/dedupe"
	"gamestore/internal/model"
	"gamestore/internal/sites"
)

func apiError(c *fiber.Ctx, status int, message, code string) error {
	return c.Status(status).JSON(ErrorResponse{
		Status:  "error",
		Message: message,
		Code:    code,
	})
}

// parserFromQuery resolves the site query parameter (falling back to the
// configured default) to a parser. A false return means the error response
// has already been written.
func (s *Server) parserFromQuery(c *fiber.Ctx) (sites.Parser, string, bool) {
	siteID := c.Query("site")
	if siteID == "" {
		siteID = s.config.Sites.DefaultSite
	}
	parser, ok := s.registry.Get(siteID)
	if !ok {
		_ = apiError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Unknown or uninitialized site: %s", siteID), CodeSiteNotFound)
		return nil, siteID, false
	}
	return parser, siteID, true
}

func (s *Server) apiGames(c *fiber.Ctx) error {
	parser, siteID, ok := s.parserFromQuery(c)
	if !ok {
		return nil
	}

	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		return apiError(c, fiber.StatusBadRequest,
			"Invalid page number provided. Must be a positive integer.", CodeInvalidPage)
	}

	listing, err := parser.ListGames(c.Context(), page, c.Query("category"))
	if err != nil {
		if errors.Is(err, sites.ErrNotSupported) {
			return apiError(c, fiber.StatusNotImplemented,
				"Listing games is not implemented for the selected site.", CodeNotImplemented)
		}
		s.logger.Error("list games failed", "site", siteID, "page", page, "error", err)
		return apiError(c, fiber.StatusInternalServerError,
			"An unexpected server error occurred.", CodeServerError)
	}

	games := listing.Games
	if games == nil {
		games = []model.GameListing{}
	}
	return c.JSON(GamesResponse{
		Status:      "success",
		Site:        siteID,
		Games:       games,
		HasNext:     listing.HasNext,
		CurrentPage: page,
		Categories:  listing.Categories,
	})
}

func (s *Server) apiGame(c *fiber.Ctx) error {
	parser, siteID, ok := s.parserFromQuery(c)
	if !ok {
		return nil
	}

	pageURL := c.Query("url")
	if pageURL == "" {
		return apiError(c, fiber.StatusBadRequest,
			"URL parameter is required.", CodeMissingURL)
	}

	detail, err := parser.GetGameDetails(c.Context(), pageURL)
	if err != nil {
		if errors.Is(err, sites.ErrNotSupported) {
			return apiError(c, fiber.StatusNotImplemented,
				"Game details are not implemented for the selected site.", CodeNotImplemented)
		}
		s.logger.Error("game details failed", "site", siteID, "url", pageURL, "error", err)
		return apiError(c, fiber.StatusInternalServerError,
			"An unexpected server error occurred.", CodeServerError)
	}

	title := detail.Meta["title"]
	if title == "" || title == "Unknown Game" || title == model.UnknownTitle {
		return apiError(c, fiber.StatusNotFound,
			fmt.Sprintf("Could not retrieve details for the provided URL from site '%s'.", siteID),
			CodeDetailsNotFound)
	}

	description := detail.Description
	sysreq := detail.SystemRequirements
	if c.Query("format") == "markdown" {
		if detail.DescriptionHTML != "" {
			if md, err := s.markdown.ConvertString(detail.DescriptionHTML); err == nil {
				description = md
			}
		}
		if detail.SystemRequirementsHTML != "" {
			if md, err := s.markdown.ConvertString(detail.SystemRequirementsHTML); err == nil {
				sysreq = md
			}
		}
	}

	payload := fiber.Map{
		"status":              "success",
		"site":                siteID,
		"description":         description,
		"system_requirements": sysreq,
		"screenshots":         detail.Screenshots,
		"download_links":      detail.Downloads,
		"download_password":   detail.DownloadPassword,
		"related_games":       detail.RelatedGames,
	}
	for k, v := range detail.Meta {
		payload[k] = v
	}
	return c.JSON(payload)
}

func (s *Server) apiSearch(c *fiber.Ctx) error {
	query := c.Query("q")
	siteID := c.Query("site")
	if siteID == "" {
		siteID = s.config.Sites.DefaultSite
	}

	if query == "" {
		return apiError(c, fiber.StatusBadRequest,
			"Query parameter 'q' is required.", CodeMissingQuery)
	}

	if siteID == "all" {
		results := s.searchAll(c, query)
		return c.JSON(SearchResponse{Status: "success", Site: "all", Query: query, Results: results})
	}

	parser, ok := s.registry.Get(siteID)
	if !ok {
		return apiError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Unknown or uninitialized site: %s", siteID), CodeSiteNotFound)
	}

	results, err := parser.SearchGames(c.Context(), query)
	if err != nil {
		if errors.Is(err, sites.ErrNotSupported) {
			return apiError(c, fiber.StatusNotImplemented,
				"Search is not implemented for the selected site.", CodeNotImplemented)
		}
		s.logger.Error("search failed", "site", siteID, "query", query, "error", err)
		return apiError(c, fiber.StatusInternalServerError,
			"An unexpected server error occurred.", CodeServerError)
	}
	if results == nil {
		results = []model.GameListing{}
	}
	return c.JSON(SearchResponse{Status: "success", Site: siteID, Query: query, Results: results})
}

// searchAll queries every site, then deduplicates and ranks the merged
// results. Per-site failures degrade to fewer results.
func (s *Server) searchAll(c *fiber.Ctx, query string) []model.GameListing {
	var raw []model.GameListing
	for _, parser := range s.registry.All() {
		results, err := parser.SearchGames(c.Context(), query)
		if err != nil {
			if !errors.Is(err, sites.ErrNotSupported) {
				s.logger.Warn("site search failed", "site", parser.Descriptor().ID, "query", query, "error", err)
			}
			continue
		}
		raw = append(raw, results...)
	}
	ranked := dedupe.Rank(raw, query, s.config.Search.MaxResults)
	if ranked == nil {
		ranked = []model.GameListing{}
	}
	return ranked
}

func (s *Server) apiSites(c *fiber.Ctx) error {
	return c.JSON(SitesResponse{Status: "success", Sites: s.registry.Descriptors()})
}
