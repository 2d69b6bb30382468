package fetcher

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"rd-card-scraper/internal/config"
	"rd-card-scraper/internal/observability"
)

// RodRenderer загружает посты через headless Chrome
type RodRenderer struct {
	browser *rod.Browser
	cfg     *config.Config
	logger  *observability.Logger
}

func NewRodRenderer(cfg *config.Config, logger *observability.Logger) (*RodRenderer, error) {
	l := launcher.New().Headless(true)
	if cfg.Rod.ChromePath != "" {
		l = l.Bin(cfg.Rod.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	logger.Info("Browser renderer started", "control_url", controlURL)

	return &RodRenderer{
		browser: browser,
		cfg:     cfg,
		logger:  logger.ForComponent("renderer"),
	}, nil
}

// Render открывает страницу, ждёт загрузки и возвращает итоговый HTML
func (r *RodRenderer) Render(ctx context.Context, url string) (string, error) {
	pageCtx, cancel := context.WithTimeout(ctx, r.cfg.GetRodPageTimeout())
	defer cancel()

	page, err := r.browser.Context(pageCtx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			r.logger.Debug("Failed to close page", "url", url, "error", err.Error())
		}
	}()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.cfg.HTTP.UserAgent}); err != nil {
		return "", fmt.Errorf("failed to set user agent: %w", err)
	}
	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}
	waitCtx, waitCancel := context.WithTimeout(pageCtx, r.cfg.GetRodWaitLoadTimeout())
	defer waitCancel()
	if err := page.Context(waitCtx).WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

func (r *RodRenderer) Close() error {
	return r.browser.Close()
}
