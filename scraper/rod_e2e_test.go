//go:build e2e

package scraper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/leninka/config"
	"github.com/use-agent/leninka/scraper"
)

// The container is inserted by script after a delay, the way the live
// listing renders its results client-side.
const lateRenderPage = `<!doctype html><html><body>
<div id="root"></div>
<script>
setTimeout(function () {
  document.getElementById("root").innerHTML =
    '<ul id="search-results"><li><h2 class="title"><a href="/article/n/x">X</a></h2><span>Y</span></li></ul>';
}, 300);
</script>
</body></html>`

func TestRodSession_E2E(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(lateRenderPage))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg := config.Default()
	m := scraper.NewManager(scraper.NewRodLauncher(cfg.Browser, nil), nil)
	s, err := m.Launch(ctx)
	require.NoError(t, err)
	defer m.Release(s)

	crawlCfg := cfg.Crawl
	crawlCfg.BaseURL = srv.URL
	crawlCfg.RenderTimeout = 10 * time.Second
	f := scraper.NewPageFetcher(crawlCfg, nil)

	markup, err := f.FetchPage(ctx, s, 1)
	require.NoError(t, err)
	assert.Contains(t, markup, `href="/article/n/x"`)
}
