package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"rd-card-scraper/internal/observability"
	"rd-card-scraper/internal/storage"
)

//go:embed schema.sql
var schema string

// Store состояние в таблице scrape_state файла SQLite
type Store struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func Open(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// один писатель; для :memory: ещё и одна общая база
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger.ForComponent("state"),
	}, nil
}

func (s *Store) Get(ctx context.Context, url string) (*storage.PostState, error) {
	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	query := `SELECT url, title, set_id, last_scraped, content_hash, card_count
		FROM scrape_state WHERE url = ?`

	var st storage.PostState
	err := s.db.QueryRowContext(ctx, query, url).Scan(
		&st.URL, &st.Title, &st.SetID, &st.LastScraped, &st.ContentHash, &st.CardCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	return &st, nil
}

func (s *Store) All(ctx context.Context) (map[string]*storage.PostState, error) {
	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT url, title, set_id, last_scraped, content_hash, card_count FROM scrape_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("Failed to close rows", "error", err.Error())
		}
	}()

	out := make(map[string]*storage.PostState)
	for rows.Next() {
		var st storage.PostState
		if err := rows.Scan(&st.URL, &st.Title, &st.SetID, &st.LastScraped, &st.ContentHash, &st.CardCount); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out[st.URL] = &st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return out, nil
}

// Upsert INSERT ... ON CONFLICT; в режиме autocommit запись фиксируется сразу
func (s *Store) Upsert(ctx context.Context, state *storage.PostState) error {
	if state == nil || state.URL == "" {
		return fmt.Errorf("post state without url")
	}

	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	query := `
		INSERT INTO scrape_state (url, title, set_id, last_scraped, content_hash, card_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			set_id = excluded.set_id,
			last_scraped = excluded.last_scraped,
			content_hash = excluded.content_hash,
			card_count = excluded.card_count
	`
	_, err := s.db.ExecContext(ctx, query,
		state.URL, state.Title, state.SetID, state.LastScraped, state.ContentHash, state.CardCount,
	)
	if err != nil {
		return fmt.Errorf("failed to execute upsert: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
