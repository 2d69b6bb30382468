package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"rd-card-scraper/internal/observability"
	"rd-card-scraper/internal/storage"
)

// Repository состояние в таблице TblScrapeState на MS SQL Server
type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newRepository(db, commandTimeout, logger), nil
}

func newRepository(db *sql.DB, commandTimeout time.Duration, logger *observability.Logger) *Repository {
	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger.ForComponent("state"),
	}
}

// Get возвращает состояние поста по URL
func (r *Repository) Get(ctx context.Context, url string) (*storage.PostState, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `SELECT [URL], [Title], [SetID], [LastScraped], [ContentHash], [CardCount]
		FROM TblScrapeState WHERE [URL] = @URL`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	var st storage.PostState
	err = stmt.QueryRowContext(ctx, sql.Named("URL", url)).Scan(
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

// All снимок таблицы состояния
func (r *Repository) All(ctx context.Context) (map[string]*storage.PostState, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `SELECT [URL], [Title], [SetID], [LastScraped], [ContentHash], [CardCount] FROM TblScrapeState`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Error("Failed to close rows", "error", err.Error())
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

// Upsert сохраняет или обновляет запись состояния
func (r *Repository) Upsert(ctx context.Context, state *storage.PostState) error {
	if state == nil || state.URL == "" {
		return fmt.Errorf("post state without url")
	}

	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	// MERGE statement для MS SQL
	query := `
		MERGE INTO TblScrapeState AS target
		USING (SELECT @URL AS URL) AS source
		ON target.[URL] = source.URL
		WHEN MATCHED THEN
			UPDATE SET
				[Title] = @Title,
				[SetID] = @SetID,
				[LastScraped] = @LastScraped,
				[ContentHash] = @ContentHash,
				[CardCount] = @CardCount
		WHEN NOT MATCHED THEN
			INSERT ([URL], [Title], [SetID], [LastScraped], [ContentHash], [CardCount])
			VALUES (@URL, @Title, @SetID, @LastScraped, @ContentHash, @CardCount);
	`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	_, err = stmt.ExecContext(ctx,
		sql.Named("URL", state.URL),
		sql.Named("Title", state.Title),
		sql.Named("SetID", state.SetID),
		sql.Named("LastScraped", state.LastScraped),
		sql.Named("ContentHash", state.ContentHash),
		sql.Named("CardCount", state.CardCount),
	)
	if err != nil {
		return fmt.Errorf("failed to execute upsert: %w", err)
	}
	return nil
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
