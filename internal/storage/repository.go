package storage

import (
	"context"
	"sort"
	"time"
)

// PostState состояние поста на момент последнего успешного скрапинга
type PostState struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	SetID       string `json:"set_id"`
	LastScraped string `json:"last_scraped"`
	ContentHash string `json:"content_hash"`
	CardCount   int    `json:"card_count"`
}

// StateStore хранилище инкрементального состояния (URL → PostState).
// Записи появляются только после успешного разбора поста с картами.
type StateStore interface {
	// Get возвращает состояние поста; nil, если поста нет
	Get(ctx context.Context, url string) (*PostState, error)

	// All снимок всех записей
	All(ctx context.Context) (map[string]*PostState, error)

	// Upsert сохраняет запись и сразу фиксирует её на диске/в БД
	Upsert(ctx context.Context, state *PostState) error

	Close() error
}

// Timestamp метка времени last_scraped (RFC3339, UTC)
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// SortedURLs ключи снимка в лексикографическом порядке
func SortedURLs(states map[string]*PostState) []string {
	urls := make([]string, 0, len(states))
	for u := range states {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}
