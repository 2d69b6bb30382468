package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"rd-card-scraper/internal/normalize"
)

type Scraper struct {
	selectors *Selectors
}

func NewScraper(selectors *Selectors) *Scraper {
	if selectors == nil {
		selectors = DefaultSelectors()
	}
	return &Scraper{
		selectors: selectors,
	}
}

func (s *Scraper) Selectors() *Selectors {
	return s.selectors
}

// ParseListing парсит страницу листинга и возвращает пары {url, title}.
// Берутся только ссылки на посты (*.html), дубликаты на странице отбрасываются.
func (s *Scraper) ParseListing(html, pageURL string) ([]PostLink, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var links []PostLink
	seen := make(map[string]bool)

	doc.Find(s.selectors.PostLinks).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if pageURL != "" {
			href = normalize.ResolveURL(pageURL, href)
		}
		href = normalize.NormalizeURL(href)
		if !strings.HasSuffix(href, ".html") || seen[href] {
			return
		}
		seen[href] = true
		links = append(links, PostLink{
			Title: strings.TrimSpace(sel.Text()),
			URL:   href,
		})
	})

	return links, nil
}

// FindNextPageLink ищет ссылку на более старую страницу листинга
func (s *Scraper) FindNextPageLink(html, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	href, exists := doc.Find(s.selectors.OlderLink).First().Attr("href")
	if !exists || strings.TrimSpace(href) == "" {
		href = ""
		// Запасной вариант: любая ссылка пейджера с курсором
		doc.Find(s.selectors.PagerLinks).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			candidate, _ := sel.Attr("href")
			if strings.Contains(candidate, "updated-max=") && strings.Contains(candidate, "max-results=") {
				href = candidate
				return false
			}
			return true
		})
	}

	if href == "" {
		return "", nil // Нет следующей страницы
	}
	if pageURL != "" {
		href = normalize.ResolveURL(pageURL, href)
	}
	return strings.TrimSpace(href), nil
}

// PostTitle заголовок поста: первый непустой из селекторов заголовка
func (s *Scraper) PostTitle(doc *goquery.Document) string {
	return trySelectors(doc.Selection, s.selectors.PostTitle)
}

// PostBody тело поста или пустая выборка
func (s *Scraper) PostBody(doc *goquery.Document) *goquery.Selection {
	return doc.Find(s.selectors.PostBody).First()
}

func trySelectors(s *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		text := strings.TrimSpace(s.Find(selector).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}
