package discovery

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"rd-card-scraper/internal/fetcher"
	"rd-card-scraper/internal/normalize"
	"rd-card-scraper/internal/scraper"
)

// maxSitemaps предел числа вложенных карт сайта за один обход
const maxSitemaps = 500

type sitemapIndex struct {
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Location string `xml:"loc"`
}

type urlSet struct {
	URLs []urlEntry `xml:"url"`
}

type urlEntry struct {
	Location string `xml:"loc"`
	LastMod  string `xml:"lastmod"`
}

// parseSitemapXML возвращает вложенные карты (sitemapindex) или записи urlset
func parseSitemapXML(data []byte) ([]string, []urlEntry, error) {
	var index sitemapIndex
	if err := xml.Unmarshal(data, &index); err == nil && len(index.Sitemaps) > 0 {
		var links []string
		for _, sm := range index.Sitemaps {
			if loc := strings.TrimSpace(sm.Location); loc != "" {
				links = append(links, loc)
			}
		}
		return links, nil, nil
	}

	var set urlSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, nil, err
	}
	var entries []urlEntry
	for _, e := range set.URLs {
		if loc := strings.TrimSpace(e.Location); loc != "" {
			entries = append(entries, urlEntry{Location: loc, LastMod: strings.TrimSpace(e.LastMod)})
		}
	}
	return nil, entries, nil
}

// collectSitemap обходит карту сайта и вложенные карты.
// Записи с lastmod раньше SinceYear отбрасываются.
func (d *Discoverer) collectSitemap(ctx context.Context, opts Options, stats *Stats) []scraper.PostLink {
	base := strings.TrimRight(d.cfg.Source.BaseURL, "/")
	queue := []string{base + d.cfg.Source.SitemapPath}
	visited := make(map[string]bool)
	seen := make(map[string]bool)

	var links []scraper.PostLink
	for len(queue) > 0 && len(visited) < maxSitemaps {
		sitemapURL := queue[0]
		queue = queue[1:]
		if visited[sitemapURL] {
			continue
		}
		visited[sitemapURL] = true

		resp, err := d.fetcher.Fetch(ctx, fetcher.ClassSitemap, sitemapURL)
		if err != nil {
			if ctx.Err() != nil {
				stats.StoppedReason = "cancelled"
				return links
			}
			d.logger.Warn("Sitemap fetch failed", "url", sitemapURL, "error", err.Error())
			continue
		}
		stats.Pages++

		nested, entries, err := parseSitemapXML(resp.Body)
		if err != nil {
			d.logger.Warn("Sitemap parse failed", "url", sitemapURL, "error", err.Error())
			continue
		}
		for _, n := range nested {
			queue = append(queue, normalize.ResolveURL(sitemapURL, n))
		}

		for _, e := range entries {
			postURL := normalize.NormalizeURL(e.Location)
			if !strings.HasSuffix(postURL, ".html") || seen[postURL] {
				continue
			}
			if year, ok := lastModYear(e.LastMod); ok && year < opts.SinceYear {
				continue
			}
			seen[postURL] = true
			links = append(links, scraper.PostLink{URL: postURL})
		}
		d.logger.Debug("Sitemap processed", "url", sitemapURL, "nested", len(nested), "entries", len(entries))
	}

	stats.StoppedReason = fmt.Sprintf("sitemaps exhausted after %d", len(visited))
	return links
}

func lastModYear(lastMod string) (int, bool) {
	if len(lastMod) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(lastMod[:4])
	if err != nil {
		return 0, false
	}
	return year, true
}
