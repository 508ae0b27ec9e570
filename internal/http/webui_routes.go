package http

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"gamestore/internal/model"
)

// registerWebRoutes mounts the server-rendered UI.
func (s *Server) registerWebRoutes(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/games/all/1")
	})
	app.Get("/games", func(c *fiber.Ctx) error {
		return c.Redirect("/games/all/1")
	})
	app.Get("/games/all/:page", s.webGames)
	app.Get("/game", s.webGame)
	app.Get("/search", s.webSearch)
	app.Get("/api-docs", s.webAPIDocs)
}

// baseViewData carries the fields every page template expects.
func (s *Server) baseViewData(c *fiber.Ctx, site string) fiber.Map {
	return fiber.Map{
		"DarkMode":    c.Cookies("dark_mode", "false") == "true",
		"Site":        site,
		"Sites":       s.registry.Descriptors(),
		"DefaultSite": s.config.Sites.DefaultSite,
	}
}

func (s *Server) renderError(c *fiber.Ctx, site, message string) error {
	data := s.baseViewData(c, site)
	data["Message"] = message
	return c.Render("templates/error", data)
}

// webGames renders one merged page of every site's catalog, sorted by title.
func (s *Server) webGames(c *fiber.Ctx) error {
	page, err := c.ParamsInt("page", 1)
	if err != nil || page < 1 {
		return c.Redirect("/games/all/1")
	}

	var games []model.GameListing
	hasNext := false
	var fetchErrors []string
	for _, parser := range s.registry.All() {
		listing, err := parser.ListGames(c.Context(), page, "")
		if err != nil {
			s.logger.Warn("web listing failed", "site", parser.Descriptor().ID, "page", page, "error", err)
			fetchErrors = append(fetchErrors, parser.Descriptor().Name+" could not be loaded.")
			continue
		}
		games = append(games, listing.Games...)
		if listing.HasNext {
			hasNext = true
		}
	}
	sort.SliceStable(games, func(i, j int) bool {
		return strings.ToLower(games[i].Title) < strings.ToLower(games[j].Title)
	})

	data := s.baseViewData(c, "all")
	data["Games"] = games
	data["Page"] = page
	data["HasNext"] = hasNext
	data["FetchErrors"] = fetchErrors
	return c.Render("templates/index", data)
}

func (s *Server) webGame(c *fiber.Ctx) error {
	pageURL := c.Query("url")
	siteID := c.Query("site")
	if pageURL == "" || siteID == "" {
		return c.Redirect("/games/all/1")
	}

	parser, ok := s.registry.Get(siteID)
	if !ok {
		return s.renderError(c, siteID, "Unknown site specified: "+siteID)
	}

	detail, err := parser.GetGameDetails(c.Context(), pageURL)
	if err != nil {
		s.logger.Error("web game details failed", "site", siteID, "url", pageURL, "error", err)
		return s.renderError(c, siteID, "Error loading game details from "+parser.Descriptor().Name+".")
	}
	title := detail.Meta["title"]
	if title == "" || title == "Unknown Game" || title == model.UnknownTitle {
		return s.renderError(c, siteID, "Could not load details for the specified game from "+parser.Descriptor().Name+".")
	}

	data := s.baseViewData(c, siteID)
	data["Meta"] = detail.Meta
	data["Description"] = detail.Description
	data["SystemRequirements"] = detail.SystemRequirements
	data["Screenshots"] = detail.Screenshots
	data["Downloads"] = detail.Downloads
	data["Password"] = detail.DownloadPassword
	data["Related"] = detail.RelatedGames
	return c.Render("templates/game", data)
}

func (s *Server) webSearch(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Redirect("/games/all/1")
	}

	results := s.searchAll(c, query)

	data := s.baseViewData(c, "all")
	data["Games"] = results
	data["Query"] = query
	return c.Render("templates/search", data)
}

func (s *Server) webAPIDocs(c *fiber.Ctx) error {
	return c.Render("templates/api_docs", s.baseViewData(c, "all"))
}
