package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/atharvakonge/quantumpool-web/internal/auth"
	"github.com/atharvakonge/quantumpool-web/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

type page struct {
	path     string
	template string
	title    string
}

var pageList = []page{
	{path: "/", template: "index.html", title: "Home"},
	{path: "/about", template: "about.html", title: "About"},
	{path: "/features", template: "features.html", title: "Features"},
	{path: "/roadmap", template: "roadmap.html", title: "Roadmap"},
	{path: "/whitepaper", template: "whitepaper.html", title: "Whitepaper"},
	{path: "/dashboard", template: "dashboard.html", title: "Dashboard"},
}

// navLinks are shown in the navbar in this order
var navLinks = []navLink{
	{Href: "/", Label: "Home"},
	{Href: "/about", Label: "About"},
	{Href: "/features", Label: "Features"},
	{Href: "/whitepaper", Label: "Whitepaper"},
	{Href: "/roadmap", Label: "Roadmap"},
}

type navLink struct {
	Href  string
	Label string
}

type pageData struct {
	Title          string
	Path           string
	Links          []navLink
	Authenticated  bool
	Checking       bool
	User           *models.User
	GoogleClientID string
}

func parsePages() (*template.Template, error) {
	t, err := template.New("pages").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// Page renders one static page with the navbar reflecting the session
func (h *Handler) Page(p page) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := auth.FromContext(c)
		data := pageData{
			Title:          p.title,
			Path:           p.path,
			Links:          navLinks,
			Authenticated:  store.Authenticated(),
			Checking:       store.State() == auth.Checking,
			User:           store.User(),
			GoogleClientID: h.googleClientID,
		}

		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(http.StatusOK)
		if err := h.pages.ExecuteTemplate(c.Writer, p.template, data); err != nil {
			h.log.Error("render page", zap.String("page", p.template), zap.Error(err))
			_ = c.Error(err)
		}
	}
}
