package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type siteConfig struct {
	baseURL string
	name    string
}

func (c siteConfig) GetSiteBaseURL() string { return c.baseURL }
func (c siteConfig) GetSiteName() string    { return c.name }

type staticContent map[string]string

func (s staticContent) Content(context.Context) (map[string]string, error) {
	return s, nil
}

func newTestEngine(content ContentProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := NewHandler(siteConfig{baseURL: "https://cpql.example.com", name: "CPQL Funnel"}, content)
	h.RegisterRoutes(engine)
	return engine
}

func get(t *testing.T, engine *gin.Engine, path, host string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if host != "" {
		req.Host = host
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSitemapUsesStoredSiteURL(t *testing.T) {
	engine := newTestEngine(staticContent{"siteUrl": "https://funnel.example.org/"})

	w := get(t, engine, "/sitemap.xml", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "<loc>https://funnel.example.org/</loc>") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestSitemapFallsBackToConfig(t *testing.T) {
	engine := newTestEngine(staticContent{})

	w := get(t, engine, "/sitemap.xml", "")
	if !strings.Contains(w.Body.String(), "<loc>https://cpql.example.com/</loc>") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRobotsAllowsCanonicalHostOnly(t *testing.T) {
	engine := newTestEngine(staticContent{})

	w := get(t, engine, "/robots.txt", "cpql.example.com")
	if !strings.Contains(w.Body.String(), "Allow: /") {
		t.Errorf("canonical host should be crawlable: %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Sitemap: https://cpql.example.com/sitemap.xml") {
		t.Errorf("missing sitemap link: %s", w.Body.String())
	}

	w = get(t, engine, "/robots.txt", "staging.example.com")
	if !strings.Contains(w.Body.String(), "Disallow: /") {
		t.Errorf("non-canonical host should be blocked: %s", w.Body.String())
	}
}

func TestLLMsComposesFromContent(t *testing.T) {
	engine := newTestEngine(staticContent{
		"pageTitle":       "Custom Title",
		"llmsDescription": "Custom description.",
		"llmsTopics":      "alpha, beta",
	})

	w := get(t, engine, "/llms.txt", "")
	body := w.Body.String()
	if !strings.Contains(body, "# Custom Title") {
		t.Errorf("missing title: %s", body)
	}
	if !strings.Contains(body, "> Custom description.") {
		t.Errorf("missing description: %s", body)
	}
	if !strings.Contains(body, "- alpha\n- beta\n") {
		t.Errorf("missing topics: %s", body)
	}
}
