// Package site serves the crawler-facing endpoints: sitemap.xml, robots.txt
// and llms.txt. Copy is pulled from the settings content store with config
// fallbacks, so the marketing team can edit it without a deploy.
package site

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadfunnel_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// ContentProvider exposes the stored landing-page copy.
type ContentProvider interface {
	Content(ctx context.Context) (map[string]string, error)
}

// Handler renders the site endpoints.
type Handler struct {
	cfg     config.SiteConfig
	content ContentProvider
	now     func() time.Time
}

func NewHandler(cfg config.SiteConfig, content ContentProvider) *Handler {
	return &Handler{cfg: cfg, content: content, now: time.Now}
}

// RegisterRoutes mounts the endpoints at the engine root, where crawlers
// expect them.
func (h *Handler) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/sitemap.xml", h.Sitemap)
	engine.GET("/robots.txt", h.Robots)
	engine.GET("/llms.txt", h.LLMs)
}

// siteValues resolves copy with config fallbacks. Settings-store failures
// degrade to the configured values rather than erroring a crawler request.
func (h *Handler) siteValues(ctx context.Context) (siteURL, siteName string, content map[string]string) {
	content = map[string]string{}
	if h.content != nil {
		if stored, err := h.content.Content(ctx); err == nil {
			content = stored
		}
	}

	siteURL = strings.TrimRight(strings.TrimSpace(content["siteUrl"]), "/")
	if siteURL == "" {
		siteURL = strings.TrimRight(h.cfg.GetSiteBaseURL(), "/")
	}
	siteName = strings.TrimSpace(content["pageTitle"])
	if siteName == "" {
		siteName = h.cfg.GetSiteName()
	}
	return siteURL, siteName, content
}

func (h *Handler) Sitemap(c *gin.Context) {
	siteURL, _, _ := h.siteValues(c.Request.Context())
	today := h.now().UTC().Format("2006-01-02")

	xml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url>
    <loc>%s/</loc>
    <lastmod>%s</lastmod>
    <changefreq>weekly</changefreq>
    <priority>1.0</priority>
  </url>
</urlset>`, siteURL, today)

	c.Data(http.StatusOK, "application/xml", []byte(xml))
}

// Robots allows crawling only on the canonical host, so previews and staging
// deployments stay out of the index.
func (h *Handler) Robots(c *gin.Context) {
	siteURL, _, _ := h.siteValues(c.Request.Context())

	requestHost := strings.Split(c.Request.Host, ":")[0]
	canonicalHost := requestHost
	if parsed, err := url.Parse(siteURL); err == nil && parsed.Host != "" {
		canonicalHost = strings.Split(parsed.Host, ":")[0]
	}

	var body string
	if requestHost == canonicalHost {
		body = fmt.Sprintf("User-agent: *\nAllow: /\nSitemap: %s/sitemap.xml\n", siteURL)
	} else {
		body = "User-agent: *\nDisallow: /\n"
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

func (h *Handler) LLMs(c *gin.Context) {
	siteURL, siteName, content := h.siteValues(c.Request.Context())

	description := content["llmsDescription"]
	if description == "" {
		description = content["metaDescription"]
	}
	if description == "" {
		description = "Lead generation and marketing services for personal injury law firms."
	}
	topics := content["llmsTopics"]
	if topics == "" {
		topics = "personal injury leads, legal marketing, qualified lead generation, law firm marketing"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n> %s\n\n", siteName, description)
	fmt.Fprintf(&b, "## URL\n%s\n\n## Topics\n", siteURL)
	for _, topic := range strings.Split(topics, ",") {
		fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(topic))
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(b.String()))
}
