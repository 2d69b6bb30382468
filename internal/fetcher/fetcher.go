package fetcher

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"

	"rd-card-scraper/internal/apperr"
	"rd-card-scraper/internal/config"
	"rd-card-scraper/internal/observability"
)

// Class класс сетевого вызова; у каждого класса свой интервал между запросами
type Class string

const (
	ClassListing Class = "listing"
	ClassSitemap Class = "sitemap"
	ClassVerify  Class = "verify"
	ClassPost    Class = "post"
	ClassImage   Class = "image"
)

// PageFetcher источник страниц для discovery, images и app
type PageFetcher interface {
	Fetch(ctx context.Context, class Class, url string) (*FetchResponse, error)
}

// Renderer загружает страницу через браузер (страницы с JS-разметкой)
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

type Fetcher struct {
	client      *resty.Client
	cfg         *config.Config
	logger      *observability.Logger
	rateLimiter *RateLimiter
	renderer    Renderer
}

type FetchResponse struct {
	StatusCode int
	Body       []byte
	URL        string
	Headers    http.Header
}

// ContentType значение заголовка Content-Type
func (r *FetchResponse) ContentType() string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get("Content-Type")
}

// Text тело ответа, перекодированное в UTF-8
func (r *FetchResponse) Text() string {
	enc, _, _ := charset.DetermineEncoding(r.Body, r.ContentType())
	decoded, err := enc.NewDecoder().Bytes(r.Body)
	if err != nil {
		return string(r.Body)
	}
	return string(decoded)
}

func NewFetcher(cfg *config.Config, logger *observability.Logger) *Fetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.GetConnectTimeout(),
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	client := resty.New().
		SetTransport(transport).
		SetTimeout(cfg.GetTotalTimeout()).
		SetHeader("User-Agent", cfg.HTTP.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/*;q=0.8,*/*;q=0.7")

	return &Fetcher{
		client: client,
		cfg:    cfg,
		logger: logger.ForComponent("fetcher"),
		rateLimiter: NewRateLimiter(map[Class]time.Duration{
			ClassListing: cfg.GetListingDelay(),
			ClassSitemap: cfg.GetSitemapDelay(),
			ClassVerify:  cfg.GetVerifyDelay(),
			ClassPost:    cfg.GetPostDelay(),
			ClassImage:   cfg.GetImageDelay(),
		}),
	}
}

// WithRenderer включает загрузку постов через браузер
func (f *Fetcher) WithRenderer(r Renderer) *Fetcher {
	f.renderer = r
	return f
}

// Close освобождает браузер, если он был запущен
func (f *Fetcher) Close() error {
	if f.renderer != nil {
		return f.renderer.Close()
	}
	return nil
}

// Fetch выполняет GET с интервалом класса и повторами, пока ошибка IsRetryable.
// Ответ не-2xx после всех попыток возвращается как сетевая ошибка.
func (f *Fetcher) Fetch(ctx context.Context, class Class, urlStr string) (*FetchResponse, error) {
	if err := f.rateLimiter.Wait(ctx, class); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	if f.renderer != nil && (class == ClassPost || class == ClassVerify) {
		return f.render(ctx, urlStr)
	}

	var lastErr *apperr.ScrapeError
	for attempt := 0; attempt <= f.cfg.HTTP.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := f.calculateBackoff(attempt)
			f.logger.Debug("Retrying request", "url", urlStr, "attempt", attempt, "backoff", backoff.String())
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := f.fetchOnce(ctx, urlStr)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = apperr.NewNetwork(urlStr, "request failed", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		lastErr = statusError(urlStr, resp.StatusCode)
		if !lastErr.IsRetryable() {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("fetch failed after %d retries: %w", f.cfg.HTTP.MaxRetries, lastErr)
}

func statusError(urlStr string, status int) *apperr.ScrapeError {
	switch {
	case status == http.StatusTooManyRequests:
		return apperr.NewHTTPStatus(urlStr, "rate limited", status)
	case status >= 500:
		return apperr.NewHTTPStatus(urlStr, fmt.Sprintf("server error: %d", status), status)
	default:
		return apperr.NewHTTPStatus(urlStr, fmt.Sprintf("unexpected status: %d", status), status)
	}
}

func (f *Fetcher) fetchOnce(ctx context.Context, urlStr string) (*FetchResponse, error) {
	resp, err := f.client.R().SetContext(ctx).Get(urlStr)
	if err != nil {
		return nil, err
	}

	finalURL := urlStr
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		finalURL = resp.RawResponse.Request.URL.String()
	}

	f.logger.Debug("Response received",
		"url", urlStr,
		"status", resp.StatusCode(),
		"content_type", resp.Header().Get("Content-Type"),
		"size", len(resp.Body()),
	)

	return &FetchResponse{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		URL:        finalURL,
		Headers:    resp.Header(),
	}, nil
}

func (f *Fetcher) render(ctx context.Context, urlStr string) (*FetchResponse, error) {
	html, err := f.renderer.Render(ctx, urlStr)
	if err != nil {
		return nil, apperr.NewNetwork(urlStr, "render failed", err)
	}
	headers := http.Header{}
	headers.Set("Content-Type", "text/html; charset=utf-8")
	return &FetchResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(html),
		URL:        urlStr,
		Headers:    headers,
	}, nil
}

func (f *Fetcher) calculateBackoff(attempt int) time.Duration {
	minMS := f.cfg.Backoff.MinMS
	maxMS := f.cfg.Backoff.MaxMS
	jitterPct := f.cfg.Backoff.JitterPct

	// Exponential backoff: min * 2^(attempt-1)
	exponential := minMS * (1 << uint(attempt-1))
	if exponential > maxMS || exponential <= 0 {
		exponential = maxMS
	}

	// Apply jitter: ±jitterPct%
	jitterRange := float64(exponential) * float64(jitterPct) / 100
	jitter := (rand.Float64() - 0.5) * 2 * jitterRange
	finalMS := float64(exponential) + jitter

	if finalMS < float64(minMS) {
		finalMS = float64(minMS)
	}

	return time.Duration(math.Max(finalMS, 0)) * time.Millisecond
}

// IsHTML грубая проверка типа содержимого
func IsHTML(resp *FetchResponse) bool {
	ct := strings.ToLower(resp.ContentType())
	return ct == "" || strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}
