package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"rd-card-scraper/internal/apperr"
	"rd-card-scraper/internal/checksum"
	"rd-card-scraper/internal/config"
	"rd-card-scraper/internal/discovery"
	"rd-card-scraper/internal/fetcher"
	"rd-card-scraper/internal/images"
	"rd-card-scraper/internal/normalize"
	"rd-card-scraper/internal/observability"
	"rd-card-scraper/internal/parser"
	"rd-card-scraper/internal/scraper"
	"rd-card-scraper/internal/storage"
)

// Outcome результат обработки одного поста
type Outcome string

const (
	OutcomeScraped Outcome = "scraped"
	OutcomeSkipped Outcome = "skipped"
)

// ErrStateStore ошибка записи состояния; прерывает прогон
var ErrStateStore = errors.New("state store failure")

// Options флаги прогона
type Options struct {
	Force          bool
	DownloadImages bool
}

type Orchestrator struct {
	cfg        *config.Config
	logger     *observability.Logger
	fetcher    fetcher.PageFetcher
	scraper    *scraper.Scraper
	parser     *parser.Parser
	discoverer *discovery.Discoverer
	downloader *images.Downloader
	archive    *storage.Archive
	state      storage.StateStore
	checksum   *checksum.Generator
	opts       Options
	runID      string
	now        func() time.Time
}

func NewOrchestrator(
	cfg *config.Config,
	logger *observability.Logger,
	f fetcher.PageFetcher,
	s *scraper.Scraper,
	state storage.StateStore,
	opts Options,
) *Orchestrator {
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	return &Orchestrator{
		cfg:        cfg,
		logger:     logger.ForComponent("orchestrator"),
		fetcher:    f,
		scraper:    s,
		parser:     parser.NewParser(s, cfg.Images.HostMarker),
		discoverer: discovery.NewDiscoverer(cfg, logger, f, s),
		downloader: images.NewDownloader(cfg, logger, f),
		archive:    storage.NewArchive(cfg.Storage.DataDir),
		state:      state,
		checksum:   checksum.NewGenerator(),
		opts:       opts,
		runID:      runID,
		now:        time.Now,
	}
}

// RunID идентификатор прогона в логах
func (o *Orchestrator) RunID() string {
	return o.runID
}

// ScrapeStats итог полного прогона
type ScrapeStats struct {
	Discovered int
	Scraped    int
	Skipped    int
	Errors     int
}

// UpdateStats итог инкрементального прогона
type UpdateStats struct {
	Discovered int
	New        int
	Updated    int
	Unchanged  int
	Errors     int
}

// SetSummary сводка по набору из состояния
type SetSummary struct {
	SetID       string
	Title       string
	Cards       int
	LastScraped string
	URL         string
}

type Summary struct {
	TotalSets  int
	TotalCards int
	Sets       []SetSummary
}

// fetchedPost загруженный пост с телом и его хешем
type fetchedPost struct {
	doc  *goquery.Document
	body string
	hash string
}

// fetchPost загружает пост и считает хеш тела; nil без ошибки, если тела нет
func (o *Orchestrator) fetchPost(ctx context.Context, postURL string) (*fetchedPost, error) {
	resp, err := o.fetcher.Fetch(ctx, fetcher.ClassPost, postURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Text()))
	if err != nil {
		return nil, apperr.NewParsing(postURL, "failed to parse HTML", err)
	}

	body := o.scraper.PostBody(doc)
	if body.Length() == 0 {
		return nil, nil
	}

	outer, err := goquery.OuterHtml(body)
	if err != nil {
		return nil, apperr.NewParsing(postURL, "failed to render post body", err)
	}

	return &fetchedPost{doc: doc, body: outer, hash: o.checksum.GenerateContentHash(outer)}, nil
}

// ScrapePost обрабатывает один пост:
// загрузка → хеш тела → пропуск без изменений → разбор → изображения → JSON → состояние.
func (o *Orchestrator) ScrapePost(ctx context.Context, postURL string) (Outcome, error) {
	o.logger.Info("Fetching post", "url", postURL)

	post, err := o.fetchPost(ctx, postURL)
	if err != nil {
		return "", err
	}
	if post == nil {
		o.logger.Warn("No post body found", "url", postURL)
		return OutcomeSkipped, nil
	}

	existing, err := o.state.Get(ctx, postURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStateStore, apperr.NewStorage(postURL, "failed to read state", err))
	}
	if existing != nil && !o.opts.Force && o.checksum.VerifyContentHash(existing.ContentHash, post.body) {
		if o.cardSetPresent(existing) {
			o.logger.Info("No changes detected, skipping", "url", postURL, "hash", post.hash)
			return OutcomeSkipped, nil
		}
		o.logger.Warn("Card set file missing, re-scraping", "url", postURL, "set_id", existing.SetID)
	}

	set := o.parser.ParseDocument(post.doc, postURL)
	if set == nil || len(set.Cards) == 0 {
		o.logger.Warn("No cards parsed", "url", postURL)
		return OutcomeSkipped, nil
	}

	if o.opts.DownloadImages {
		if _, err := o.downloader.Download(ctx, set, o.opts.Force); err != nil {
			return "", err
		}
	}

	if _, err := o.archive.SaveCardSet(set); err != nil {
		return "", apperr.NewStorage(postURL, "failed to save card set", err)
	}

	state := &storage.PostState{
		URL:         postURL,
		Title:       set.SetNameZH,
		SetID:       set.SetID,
		LastScraped: storage.Timestamp(o.now()),
		ContentHash: post.hash,
		CardCount:   len(set.Cards),
	}
	if err := o.state.Upsert(ctx, state); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStateStore, apperr.NewStorage(postURL, "failed to write state", err))
	}

	o.logger.Info("Scraped card set",
		"url", postURL,
		"set_id", set.SetID,
		"cards", len(set.Cards),
	)
	return OutcomeScraped, nil
}

// cardSetPresent файл набора на месте и читается
func (o *Orchestrator) cardSetPresent(st *storage.PostState) bool {
	if st.SetID == "" {
		return true
	}
	set, err := o.archive.LoadCardSet(st.SetID)
	if err != nil {
		o.logger.Warn("Failed to load card set", "set_id", st.SetID, "error", err.Error())
		return false
	}
	return set != nil
}

// ScrapeURL обрабатывает один пост по ссылке пользователя
func (o *Orchestrator) ScrapeURL(ctx context.Context, postURL string) (Outcome, error) {
	return o.ScrapePost(ctx, normalize.NormalizeURL(postURL))
}

// Discover обход блога без учёта состояния (команда discover)
func (o *Orchestrator) Discover(ctx context.Context, verify bool) ([]discovery.Post, *discovery.Stats, error) {
	return o.discoverer.Discover(ctx, discovery.Options{Verify: verify})
}

// ScrapeAll обходит все посты со списками карт
func (o *Orchestrator) ScrapeAll(ctx context.Context) (*ScrapeStats, error) {
	posts, _, err := o.discoverer.Discover(ctx, discovery.Options{Verify: o.cfg.Discovery.VerifyOnScrape})
	if err != nil {
		return nil, err
	}

	stats := &ScrapeStats{Discovered: len(posts)}
	o.logger.Info("Starting full scrape", "posts", len(posts), "force", o.opts.Force)

	for _, p := range posts {
		outcome, err := o.ScrapePost(ctx, p.URL)
		if err != nil {
			if fatal := o.fatal(ctx, err); fatal != nil {
				return stats, fatal
			}
			o.logger.Error("Error scraping post", "url", p.URL, "error", err.Error())
			stats.Errors++
			continue
		}
		switch outcome {
		case OutcomeScraped:
			stats.Scraped++
		case OutcomeSkipped:
			stats.Skipped++
		}
	}

	o.logger.Info("Full scrape completed",
		"discovered", stats.Discovered,
		"scraped", stats.Scraped,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
	)
	return stats, nil
}

// Update обрабатывает только новые и изменившиеся посты.
// Новый пост: его не было в состоянии на момент старта прогона.
func (o *Orchestrator) Update(ctx context.Context) (*UpdateStats, error) {
	snapshot, err := o.state.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStateStore, apperr.NewStorage("", "failed to load state", err))
	}

	posts, _, err := o.discoverer.Discover(ctx, discovery.Options{
		KnownURLs: knownURLs(snapshot),
		Verify:    o.cfg.Discovery.VerifyOnScrape,
	})
	if err != nil {
		return nil, err
	}

	stats := &UpdateStats{Discovered: len(posts)}
	o.logger.Info("Starting update", "posts", len(posts), "known", len(snapshot))

	for _, p := range posts {
		_, known := snapshot[p.URL]

		outcome, err := o.ScrapePost(ctx, p.URL)
		if err != nil {
			if fatal := o.fatal(ctx, err); fatal != nil {
				return stats, fatal
			}
			o.logger.Error("Error updating post", "url", p.URL, "error", err.Error())
			stats.Errors++
			continue
		}

		switch {
		case outcome == OutcomeScraped && !known:
			stats.New++
		case outcome == OutcomeScraped:
			stats.Updated++
		default:
			stats.Unchanged++
		}
	}

	o.logger.Info("Update completed",
		"discovered", stats.Discovered,
		"new", stats.New,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"errors", stats.Errors,
	)
	return stats, nil
}

// CheckUpdates возвращает URL новых и изменившихся постов без скрапинга
func (o *Orchestrator) CheckUpdates(ctx context.Context) ([]string, error) {
	snapshot, err := o.state.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStateStore, apperr.NewStorage("", "failed to load state", err))
	}

	posts, _, err := o.discoverer.Discover(ctx, discovery.Options{
		KnownURLs: knownURLs(snapshot),
		Verify:    o.cfg.Discovery.VerifyOnScrape,
	})
	if err != nil {
		return nil, err
	}

	var needsUpdate []string
	for _, p := range posts {
		prev, known := snapshot[p.URL]
		if !known {
			needsUpdate = append(needsUpdate, p.URL)
			continue
		}

		post, err := o.fetchPost(ctx, p.URL)
		if err != nil {
			if ctx.Err() != nil {
				return needsUpdate, ctx.Err()
			}
			o.logger.Warn("Could not check post", "url", p.URL, "error", err.Error())
			continue
		}
		if post != nil && post.hash != prev.ContentHash {
			needsUpdate = append(needsUpdate, p.URL)
		}
	}

	o.logger.Info("Update check completed", "discovered", len(posts), "needs_update", len(needsUpdate))
	return needsUpdate, nil
}

// Summary сводка по сохранённым наборам. Если несколько постов дают
// один set_id, берётся последний в порядке URL.
func (o *Orchestrator) Summary(ctx context.Context) (*Summary, error) {
	snapshot, err := o.state.All(ctx)
	if err != nil {
		return nil, apperr.NewStorage("", "failed to load state", err)
	}

	bySet := make(map[string]SetSummary)
	var order []string
	for _, url := range storage.SortedURLs(snapshot) {
		st := snapshot[url]
		if _, seen := bySet[st.SetID]; !seen {
			order = append(order, st.SetID)
		}
		bySet[st.SetID] = SetSummary{
			SetID:       st.SetID,
			Title:       st.Title,
			Cards:       st.CardCount,
			LastScraped: st.LastScraped,
			URL:         st.URL,
		}
	}

	summary := &Summary{}
	for _, id := range order {
		s := bySet[id]
		summary.Sets = append(summary.Sets, s)
		summary.TotalCards += s.Cards
	}
	summary.TotalSets = len(summary.Sets)
	return summary, nil
}

// fatal ошибка, прерывающая прогон: отмена контекста или сбой хранилища состояния
func (o *Orchestrator) fatal(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		o.logger.Warn("Run cancelled", "error", ctxErr.Error())
		return ctxErr
	}
	if errors.Is(err, ErrStateStore) {
		o.logger.Error("State store failure, aborting run", "error", err.Error())
		return err
	}
	return nil
}

func knownURLs(snapshot map[string]*storage.PostState) map[string]bool {
	known := make(map[string]bool, len(snapshot))
	for url := range snapshot {
		known[url] = true
	}
	return known
}
