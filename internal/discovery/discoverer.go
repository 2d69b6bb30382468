package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"rd-card-scraper/internal/config"
	"rd-card-scraper/internal/fetcher"
	"rd-card-scraper/internal/observability"
	"rd-card-scraper/internal/parser"
	"rd-card-scraper/internal/scraper"
)

// Источник решения о посте
const (
	SourceTitle = "title"
	SourceURL   = "url"
	SourceKnown = "known"
)

// listingStart курсор первой страницы листинга: заведомо будущая дата
const listingStart = "2099-01-01T00:00:00-08:00"

// Post пост со списком карт, найденный при обходе
type Post struct {
	URL    string
	Title  string
	Source string
}

type Options struct {
	SinceYear int
	KnownURLs map[string]bool
	Verify    bool
	Mode      string
}

// Stats статистика обхода
type Stats struct {
	Pages         int
	Seen          int
	Accepted      int
	Rejected      int
	Candidates    int
	Verified      int
	StoppedReason string
}

type Discoverer struct {
	cfg     *config.Config
	logger  *observability.Logger
	fetcher fetcher.PageFetcher
	scraper *scraper.Scraper
}

func NewDiscoverer(cfg *config.Config, logger *observability.Logger, f fetcher.PageFetcher, s *scraper.Scraper) *Discoverer {
	return &Discoverer{
		cfg:     cfg,
		logger:  logger.ForComponent("discovery"),
		fetcher: f,
		scraper: s,
	}
}

// Discover обходит блог и возвращает посты со списками карт в порядке обхода.
// Ошибки отдельных страниц не прерывают работу: возвращается то, что собрано.
func (d *Discoverer) Discover(ctx context.Context, opts Options) ([]Post, *Stats, error) {
	if opts.SinceYear == 0 {
		opts.SinceYear = d.cfg.Source.SinceYear
	}
	if opts.Mode == "" {
		opts.Mode = d.cfg.Source.Mode
	}

	stats := &Stats{}
	var links []scraper.PostLink
	switch opts.Mode {
	case config.ModeSitemap:
		links = d.collectSitemap(ctx, opts, stats)
	case config.ModeListing:
		links = d.collectListing(ctx, opts, stats)
	default:
		return nil, stats, fmt.Errorf("unknown discovery mode: %s", opts.Mode)
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	stats.Seen = len(links)

	var posts []Post
	for _, link := range links {
		post, ok := d.classify(ctx, link, opts, stats)
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		if ok {
			posts = append(posts, post)
		}
	}
	stats.Accepted = len(posts)

	d.logger.Info("Discovery completed",
		"mode", opts.Mode,
		"pages", stats.Pages,
		"seen", stats.Seen,
		"accepted", stats.Accepted,
		"rejected", stats.Rejected,
		"candidates", stats.Candidates,
		"verified", stats.Verified,
		"reason", stats.StoppedReason,
	)
	return posts, stats, nil
}

// classify каскад: заголовок → известный URL → URL-признаки → проверка содержимого
func (d *Discoverer) classify(ctx context.Context, link scraper.PostLink, opts Options, stats *Stats) (Post, bool) {
	switch ClassifyTitle(link.Title) {
	case Accept:
		return Post{URL: link.URL, Title: link.Title, Source: SourceTitle}, true
	case Reject:
		stats.Rejected++
		return Post{}, false
	}

	if link.Title == "" && opts.KnownURLs[link.URL] {
		return Post{URL: link.URL, Source: SourceKnown}, true
	}

	if !IsURLCandidate(link.URL) {
		stats.Rejected++
		return Post{}, false
	}
	stats.Candidates++

	if !opts.Verify {
		return Post{URL: link.URL, Title: link.Title, Source: SourceURL}, true
	}

	ok, title := d.Verify(ctx, link.URL)
	if !ok {
		stats.Rejected++
		return Post{}, false
	}
	stats.Verified++
	if link.Title != "" {
		title = link.Title
	}
	return Post{URL: link.URL, Title: title, Source: SourceURL}, true
}

// Verify загружает пост и проверяет, что в теле есть идентификатор и тип карты.
// Любая ошибка означает отказ.
func (d *Discoverer) Verify(ctx context.Context, postURL string) (bool, string) {
	resp, err := d.fetcher.Fetch(ctx, fetcher.ClassVerify, postURL)
	if err != nil {
		d.logger.Warn("Verification fetch failed", "url", postURL, "error", err.Error())
		return false, ""
	}
	if !fetcher.IsHTML(resp) {
		d.logger.Debug("Verification: not an HTML page", "url", postURL, "content_type", resp.ContentType())
		return false, ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Text()))
	if err != nil {
		d.logger.Warn("Verification parse failed", "url", postURL, "error", err.Error())
		return false, ""
	}

	body := d.scraper.PostBody(doc)
	if body.Length() == 0 {
		d.logger.Debug("Verification: no post body", "url", postURL)
		return false, ""
	}

	ok := parser.LooksLikeCardList(body.Text())
	d.logger.Debug("Verification result", "url", postURL, "accepted", ok)
	return ok, d.scraper.PostTitle(doc)
}

// collectListing обходит листинг от новых постов к старым
func (d *Discoverer) collectListing(ctx context.Context, opts Options, stats *Stats) []scraper.PostLink {
	base := strings.TrimRight(d.cfg.Source.BaseURL, "/")
	pageURL := fmt.Sprintf("%s/search?updated-max=%s&max-results=%d", base, listingStart, d.cfg.Source.PageSize)

	var links []scraper.PostLink
	seen := make(map[string]bool)

	for pageNum := 1; ; pageNum++ {
		d.logger.Info("Processing listing page", "page", pageNum, "url", pageURL)

		resp, err := d.fetcher.Fetch(ctx, fetcher.ClassListing, pageURL)
		if err != nil {
			d.logger.Error("Listing fetch failed", "page", pageNum, "url", pageURL, "error", err.Error())
			stats.StoppedReason = fmt.Sprintf("fetch error at page %d: %v", pageNum, err)
			return links
		}
		stats.Pages++

		html := resp.Text()
		pageLinks, err := d.scraper.ParseListing(html, pageURL)
		if err != nil {
			d.logger.Error("Parse listing failed", "page", pageNum, "error", err.Error())
			stats.StoppedReason = fmt.Sprintf("parse error at page %d: %v", pageNum, err)
			return links
		}

		newCount, knownCount := 0, 0
		for _, l := range pageLinks {
			if seen[l.URL] {
				continue
			}
			seen[l.URL] = true
			links = append(links, l)
			newCount++
			if opts.KnownURLs[l.URL] {
				knownCount++
			}
		}

		d.logger.Info("Page analysis", "page", pageNum, "posts", len(pageLinks), "new", newCount, "known", knownCount)

		if newCount == 0 {
			stats.StoppedReason = fmt.Sprintf("no new posts on page %d", pageNum)
			return links
		}
		if len(opts.KnownURLs) > 0 && knownCount == newCount {
			stats.StoppedReason = fmt.Sprintf("all posts known on page %d", pageNum)
			return links
		}

		nextLink, err := d.scraper.FindNextPageLink(html, pageURL)
		if err != nil {
			d.logger.Error("Failed to extract next link", "page", pageNum, "error", err.Error())
			stats.StoppedReason = fmt.Sprintf("failed to extract next link at page %d: %v", pageNum, err)
			return links
		}
		if nextLink == "" {
			stats.StoppedReason = fmt.Sprintf("no next link at page %d", pageNum)
			return links
		}
		if year, ok := scraper.CursorYear(nextLink); ok && year < opts.SinceYear {
			d.logger.Info("Stopping: cursor before since year", "page", pageNum, "cursor_year", year, "since_year", opts.SinceYear)
			stats.StoppedReason = fmt.Sprintf("cursor year %d below %d at page %d", year, opts.SinceYear, pageNum)
			return links
		}

		pageURL = nextLink
	}
}
