package images

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"rd-card-scraper/internal/cards"
	"rd-card-scraper/internal/config"
	"rd-card-scraper/internal/fetcher"
	"rd-card-scraper/internal/observability"
	"rd-card-scraper/internal/storage"
)

// ImagesDir подкаталог изображений внутри каталога набора
const ImagesDir = "images"

type Downloader struct {
	fetcher  fetcher.PageFetcher
	logger   *observability.Logger
	dataDir  string
	minBytes int
}

// Stats итог загрузки изображений одного набора
type Stats struct {
	Downloaded int
	Cached     int
	Failed     int
}

func NewDownloader(cfg *config.Config, logger *observability.Logger, f fetcher.PageFetcher) *Downloader {
	return &Downloader{
		fetcher:  f,
		logger:   logger.ForComponent("images"),
		dataDir:  cfg.Storage.DataDir,
		minBytes: cfg.Images.MinBytes,
	}
}

// RelativePath путь изображения относительно каталога данных: <SET>/images/<file>
func RelativePath(setID, cardID string) string {
	return path.Join(setID, ImagesDir, cards.ImageFileName(cardID))
}

// Download скачивает изображения карт набора и проставляет ImageFile.
// Уже скачанные файлы не загружаются повторно без force. Ошибка по одной
// карте оставляет поле пустым и не прерывает загрузку остальных.
func (d *Downloader) Download(ctx context.Context, set *cards.CardSetRecord, force bool) (*Stats, error) {
	stats := &Stats{}
	if set == nil {
		return stats, nil
	}

	for _, card := range set.Cards {
		if card.ImageURL == nil || *card.ImageURL == "" {
			continue
		}

		rel := RelativePath(set.SetID, card.CardID)
		target := filepath.Join(d.dataDir, filepath.FromSlash(rel))

		if !force && fileExists(target) {
			card.ImageFile = cards.StringPtr(rel)
			stats.Cached++
			continue
		}

		if err := d.fetchImage(ctx, *card.ImageURL, target); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			d.logger.Warn("Failed to download image",
				"card_id", card.CardID,
				"url", *card.ImageURL,
				"error", err.Error(),
			)
			stats.Failed++
			continue
		}

		card.ImageFile = cards.StringPtr(rel)
		stats.Downloaded++
		d.logger.Debug("Downloaded image", "card_id", card.CardID, "file", rel)
	}

	d.logger.Info("Images processed",
		"set_id", set.SetID,
		"downloaded", stats.Downloaded,
		"cached", stats.Cached,
		"failed", stats.Failed,
	)
	return stats, nil
}

func (d *Downloader) fetchImage(ctx context.Context, imageURL, target string) error {
	resp, err := d.fetcher.Fetch(ctx, fetcher.ClassImage, imageURL)
	if err != nil {
		return err
	}

	contentType := resp.ContentType()
	if !strings.Contains(strings.ToLower(contentType), "image") && len(resp.Body) < d.minBytes {
		return fmt.Errorf("non-image response: content_type=%q size=%d", contentType, len(resp.Body))
	}

	return storage.WriteFileAtomic(target, resp.Body, 0o644)
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
