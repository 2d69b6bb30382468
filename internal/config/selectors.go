package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"rd-card-scraper/internal/scraper"
)

// LoadSelectors загружает селекторы из YAML файла поверх селекторов по умолчанию
func LoadSelectors(filePath string) (*scraper.Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	// Проверяем существование файла
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("selectors file not found: %s: %w", filePath, err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	selectors := scraper.DefaultSelectors()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(selectors); err != nil {
		return nil, err
	}

	return selectors, nil
}

// LoadSelectors селекторы из selectors_file или встроенные, если файл не задан
func (c *Config) LoadSelectors() (*scraper.Selectors, error) {
	if c.SelectorsFile == "" {
		return scraper.DefaultSelectors(), nil
	}
	return LoadSelectors(c.SelectorsFile)
}

// validateSelectors проверяет минимальный набор селекторов
func validateSelectors(s *scraper.Selectors) error {
	if s.PostLinks == "" {
		return fmt.Errorf("post_links is required")
	}
	if s.OlderLink == "" && s.PagerLinks == "" {
		return fmt.Errorf("older_link or pager_links is required")
	}
	if s.PostBody == "" {
		return fmt.Errorf("post_body is required")
	}
	if len(s.PostTitle) == 0 {
		return fmt.Errorf("post_title is required")
	}
	return nil
}
