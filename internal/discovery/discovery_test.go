package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rd-card-scraper/internal/config"
	"rd-card-scraper/internal/fetcher"
	"rd-card-scraper/internal/observability"
	"rd-card-scraper/internal/scraper"
)

func TestClassifyTitle(t *testing.T) {
	tests := []struct {
		title string
		want  Verdict
	}{
		{"卡表資料 Rush Duel 強襲的雷霆", Accept},
		{"【卡表資料】RD/KP01 超速決鬥", Accept},
		{"卡表資料 ラッシュデュエル", Accept},
		{"卡表資料 RDGRD 構築", Accept},
		{"卡表資料 OCG 新卡", Reject},
		{"卡表資料 Rush Duel 禁限卡表", Reject},
		{"Rush Duel Meta 分析", Reject},
		{"rush duel combo 教學", Reject},
		{"Rush Duel 基礎介紹", Reject},
		{"卡圖故事 Rush Duel", Reject},
		{"Rush Duel 新聞", Inconclusive},
		{"", Inconclusive},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTitle(tt.title))
			// детерминированность
			assert.Equal(t, tt.want, ClassifyTitle(tt.title))
		})
	}
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "accept", Accept.String())
	assert.Equal(t, "reject", Reject.String())
	assert.Equal(t, "inconclusive", Inconclusive.String())
}

func TestIsURLCandidate(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://ntucgm.blogspot.com/2021/05/rush-duel-kp05.html", true},
		{"https://ntucgm.blogspot.com/2022/01/RDGRD-deck.html", true},
		{"https://ntucgm.blogspot.com/2023/04/revolution-booster-1.html", true},
		{"https://ntucgm.blogspot.com/2021/05/rush-duel-202105.html", false},
		{"https://ntucgm.blogspot.com/2021/05/rush-duel-duel-links.html", false},
		{"https://ntucgm.blogspot.com/2021/05/rush-duel-meta-2.html", false},
		{"https://ntucgm.blogspot.com/2021/05/rush-duel-combo.html", false},
		{"https://ntucgm.blogspot.com/2021/12/rush-duel-jump-festa-promo.html", false},
		{"https://ntucgm.blogspot.com/2021/05/ocg-news.html", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsURLCandidate(tt.url), tt.url)
	}
}

func TestLastModYear(t *testing.T) {
	year, ok := lastModYear("2021-05-03T10:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, 2021, year)

	_, ok = lastModYear("")
	assert.False(t, ok)
	_, ok = lastModYear("abcd-01")
	assert.False(t, ok)
}

func TestParseSitemapXML(t *testing.T) {
	index := `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>https://ntucgm.blogspot.com/sitemap.xml?page=1</loc></sitemap>
  <sitemap><loc> </loc></sitemap>
</sitemapindex>`
	nested, entries, err := parseSitemapXML([]byte(index))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://ntucgm.blogspot.com/sitemap.xml?page=1"}, nested)
	assert.Empty(t, entries)

	set := `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://ntucgm.blogspot.com/2021/05/a.html</loc><lastmod>2021-05-03T10:00:00Z</lastmod></url>
</urlset>`
	nested, entries, err = parseSitemapXML([]byte(set))
	require.NoError(t, err)
	assert.Empty(t, nested)
	require.Len(t, entries, 1)
	assert.Equal(t, "2021-05-03T10:00:00Z", entries[0].LastMod)

	_, _, err = parseSitemapXML([]byte("<urlset><url>"))
	assert.Error(t, err)
}

// blogServer фейковый блог; hits считает запросы по путям с запросом
type blogServer struct {
	*httptest.Server
	mu     sync.Mutex
	hits   map[string]int
	routes map[string]string
}

func newBlogServer(t *testing.T) *blogServer {
	b := &blogServer{hits: map[string]int{}, routes: map[string]string{}}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.RequestURI()
		b.mu.Lock()
		b.hits[key]++
		body, ok := b.routes[key]
		b.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		switch {
		case strings.HasPrefix(body, "<?xml") || strings.HasPrefix(body, "<urlset"):
			w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		case strings.HasPrefix(body, "%PDF"):
			w.Header().Set("Content-Type", "application/pdf")
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *blogServer) route(uri, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[uri] = strings.ReplaceAll(body, "{base}", b.URL)
}

func (b *blogServer) hitsFor(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for k, v := range b.hits {
		if strings.HasPrefix(k, prefix) {
			n += v
		}
	}
	return n
}

func listingPage(posts [][2]string, older string) string {
	var sb strings.Builder
	sb.WriteString("<html><body><div class=\"blog-posts\">")
	for _, p := range posts {
		fmt.Fprintf(&sb, `<div class="post"><h3 class="post-title"><a href="{base}%s">%s</a></h3></div>`, p[0], p[1])
	}
	sb.WriteString(`</div><div id="blog-pager">`)
	if older != "" {
		fmt.Fprintf(&sb, `<a class="blog-pager-older-link" href="{base}%s">Older</a>`, older)
	}
	sb.WriteString("</div></body></html>")
	return sb.String()
}

const (
	page1URI = "/search?updated-max=2099-01-01T00:00:00-08:00&max-results=20"
	page2URI = "/search?updated-max=2021-01-10T00:00:00-08:00&max-results=20"
	page3URI = "/search?updated-max=2019-12-30T00:00:00-08:00&max-results=20"
)

func testDiscoverer(baseURL string) *Discoverer {
	cfg := config.Default()
	cfg.Source.BaseURL = baseURL
	cfg.Delays = config.DelaysConfig{}
	cfg.HTTP.MaxRetries = 0
	logger := observability.Nop()
	return NewDiscoverer(cfg, logger, fetcher.NewFetcher(cfg, logger), scraper.NewScraper(nil))
}

func TestDiscoverListingStopsAtSinceYear(t *testing.T) {
	blog := newBlogServer(t)
	blog.route(page1URI, listingPage([][2]string{
		{"/2021/05/rd-kp05.html", "卡表資料 Rush Duel 強襲的雷霆"},
		{"/2021/04/rush-duel-meta-1.html", "Rush Duel Meta 報告"},
	}, page2URI))
	blog.route(page2URI, listingPage([][2]string{
		{"/2021/01/rd-st01.html", "卡表資料 RD/ST01"},
		{"/2020/12/blog-news.html", "部落格公告"},
	}, page3URI))
	blog.route(page3URI, listingPage([][2]string{
		{"/2019/12/old.html", "卡表資料 Rush Duel old"},
	}, ""))

	d := testDiscoverer(blog.URL)
	posts, stats, err := d.Discover(context.Background(), Options{SinceYear: 2020, Mode: config.ModeListing})
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.Equal(t, blog.URL+"/2021/05/rd-kp05.html", posts[0].URL)
	assert.Equal(t, SourceTitle, posts[0].Source)
	assert.Equal(t, blog.URL+"/2021/01/rd-st01.html", posts[1].URL)

	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 4, stats.Seen)
	assert.Equal(t, 2, stats.Rejected)
	assert.Contains(t, stats.StoppedReason, "cursor year 2019")
	assert.Equal(t, 0, blog.hitsFor("/search?updated-max=2019"))
}

func TestDiscoverListingStopsWhenAllKnown(t *testing.T) {
	blog := newBlogServer(t)
	blog.route(page1URI, listingPage([][2]string{
		{"/2021/05/rd-kp05.html", "卡表資料 Rush Duel 強襲的雷霆"},
	}, page2URI))
	blog.route(page2URI, listingPage([][2]string{
		{"/2021/01/rd-st01.html", "卡表資料 RD/ST01"},
	}, ""))

	d := testDiscoverer(blog.URL)
	known := map[string]bool{blog.URL + "/2021/05/rd-kp05.html": true}
	posts, stats, err := d.Discover(context.Background(), Options{SinceYear: 2020, Mode: config.ModeListing, KnownURLs: known})
	require.NoError(t, err)

	require.Len(t, posts, 1)
	assert.Equal(t, 1, stats.Pages)
	assert.Contains(t, stats.StoppedReason, "all posts known")
	assert.Equal(t, 0, blog.hitsFor(page2URI))
}

func TestDiscoverListingFetchErrorReturnsCollected(t *testing.T) {
	blog := newBlogServer(t)
	blog.route(page1URI, listingPage([][2]string{
		{"/2021/05/rd-kp05.html", "卡表資料 Rush Duel 強襲的雷霆"},
	}, page2URI))

	d := testDiscoverer(blog.URL)
	posts, stats, err := d.Discover(context.Background(), Options{SinceYear: 2020, Mode: config.ModeListing})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Contains(t, stats.StoppedReason, "fetch error at page 2")
}

const cardPost = `<html><head><title>blog</title></head><body>
<h3 class="post-title">卡表資料 ラッシュ</h3>
<div class="post-body"><div>RD/KP01-JP001 (UR) 青眼の白龍</div><div>(青眼白龍) 通常怪獸 8 光 龍族 3000/2500</div></div>
</body></html>`

func TestDiscoverVerifiesURLCandidates(t *testing.T) {
	blog := newBlogServer(t)
	blog.route(page1URI, listingPage([][2]string{
		{"/2021/05/rush-duel-kp01.html", "新彈 情報"},
		{"/2021/05/rush-duel-news.html", "新聞"},
		{"/2021/05/rush-duel-missing.html", "失蹤"},
	}, ""))
	blog.route("/2021/05/rush-duel-kp01.html", cardPost)
	blog.route("/2021/05/rush-duel-news.html", `<div class="post-body">只是新聞 RD/KP01</div>`)

	d := testDiscoverer(blog.URL)
	posts, stats, err := d.Discover(context.Background(), Options{SinceYear: 2020, Mode: config.ModeListing, Verify: true})
	require.NoError(t, err)

	require.Len(t, posts, 1)
	assert.Equal(t, blog.URL+"/2021/05/rush-duel-kp01.html", posts[0].URL)
	assert.Equal(t, SourceURL, posts[0].Source)
	assert.Equal(t, "新彈 情報", posts[0].Title)
	assert.Equal(t, 3, stats.Candidates)
	assert.Equal(t, 1, stats.Verified)
	assert.Equal(t, 2, stats.Rejected)
}

func TestDiscoverWithoutVerifyAcceptsCandidates(t *testing.T) {
	blog := newBlogServer(t)
	blog.route(page1URI, listingPage([][2]string{
		{"/2021/05/rush-duel-kp01.html", "新彈 情報"},
	}, ""))

	d := testDiscoverer(blog.URL)
	posts, _, err := d.Discover(context.Background(), Options{SinceYear: 2020, Mode: config.ModeListing})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 0, blog.hitsFor("/2021/05/rush-duel-kp01.html"))
}

func TestVerifyFailsClosed(t *testing.T) {
	blog := newBlogServer(t)
	blog.route("/2021/05/rush-duel-kp01.html", cardPost)
	blog.route("/2021/05/no-body.html", `<html><body>RD/KP01-JP001 通常怪獸</body></html>`)

	d := testDiscoverer(blog.URL)

	ok, title := d.Verify(context.Background(), blog.URL+"/2021/05/rush-duel-kp01.html")
	assert.True(t, ok)
	assert.Equal(t, "卡表資料 ラッシュ", title)

	ok, _ = d.Verify(context.Background(), blog.URL+"/2021/05/no-body.html")
	assert.False(t, ok)

	ok, _ = d.Verify(context.Background(), blog.URL+"/missing.html")
	assert.False(t, ok)

	blog.route("/2021/05/rush-duel-scan.html", `%PDF<div class="post-body">RD/KP01-JP001 通常怪獸</div>`)
	ok, _ = d.Verify(context.Background(), blog.URL+"/2021/05/rush-duel-scan.html")
	assert.False(t, ok)
}

func TestDiscoverSitemap(t *testing.T) {
	blog := newBlogServer(t)
	blog.route("/sitemap.xml", `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{base}/sitemap.xml?page=1</loc></sitemap>
  <sitemap><loc>{base}/sitemap.xml?page=1</loc></sitemap>
</sitemapindex>`)
	blog.route("/sitemap.xml?page=1", `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{base}/2021/05/rush-duel-kp01.html</loc><lastmod>2021-05-03T10:00:00Z</lastmod></url>
  <url><loc>{base}/2021/05/known-post.html</loc><lastmod>2021-05-01T10:00:00Z</lastmod></url>
  <url><loc>{base}/2019/05/rush-duel-old.html</loc><lastmod>2019-05-01T10:00:00Z</lastmod></url>
  <url><loc>{base}/2021/04/ocg-news.html</loc><lastmod>2021-04-01T10:00:00Z</lastmod></url>
  <url><loc>{base}/search/label/RD</loc></url>
</urlset>`)

	d := testDiscoverer(blog.URL)
	known := map[string]bool{blog.URL + "/2021/05/known-post.html": true}
	posts, stats, err := d.Discover(context.Background(), Options{SinceYear: 2020, Mode: config.ModeSitemap, KnownURLs: known})
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.Equal(t, blog.URL+"/2021/05/rush-duel-kp01.html", posts[0].URL)
	assert.Equal(t, SourceURL, posts[0].Source)
	assert.Equal(t, blog.URL+"/2021/05/known-post.html", posts[1].URL)
	assert.Equal(t, SourceKnown, posts[1].Source)

	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 3, stats.Seen)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1, blog.hitsFor("/sitemap.xml?page=1"))
}

func TestDiscoverCancelled(t *testing.T) {
	blog := newBlogServer(t)
	blog.route(page1URI, listingPage(nil, ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := testDiscoverer(blog.URL)
	_, _, err := d.Discover(ctx, Options{Mode: config.ModeListing})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscoverUnknownMode(t *testing.T) {
	d := testDiscoverer("http://127.0.0.1:1")
	_, _, err := d.Discover(context.Background(), Options{Mode: "rss"})
	assert.Error(t, err)
}
