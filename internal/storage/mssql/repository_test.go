package mssql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rd-card-scraper/internal/observability"
	"rd-card-scraper/internal/storage"
)

var stateColumns = []string{"URL", "Title", "SetID", "LastScraped", "ContentHash", "CardCount"}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newRepository(db, 5*time.Second, observability.Nop()), mock
}

func TestGetReturnsState(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectPrepare(`SELECT .+ FROM TblScrapeState WHERE \[URL\] = @URL`).
		ExpectQuery().
		WithArgs(sql.Named("URL", "https://x/a.html")).
		WillReturnRows(sqlmock.NewRows(stateColumns).
			AddRow("https://x/a.html", "卡表資料", "KP01", "2024-01-02T03:04:05Z", "0123456789abcdef", 3))

	got, err := repo.Get(context.Background(), "https://x/a.html")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "KP01", got.SetID)
	assert.Equal(t, 3, got.CardCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingIsNil(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectPrepare(`FROM TblScrapeState WHERE`).
		ExpectQuery().
		WithArgs(sql.Named("URL", "https://x/none.html")).
		WillReturnRows(sqlmock.NewRows(stateColumns))

	got, err := repo.Get(context.Background(), "https://x/none.html")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertMerges(t *testing.T) {
	repo, mock := newMockRepository(t)

	state := &storage.PostState{
		URL:         "https://x/a.html",
		Title:       "卡表資料",
		SetID:       "KP01",
		LastScraped: "2024-01-02T03:04:05Z",
		ContentHash: "0123456789abcdef",
		CardCount:   3,
	}
	mock.ExpectPrepare(`MERGE INTO TblScrapeState`).
		ExpectExec().
		WithArgs(
			sql.Named("URL", state.URL),
			sql.Named("Title", state.Title),
			sql.Named("SetID", state.SetID),
			sql.Named("LastScraped", state.LastScraped),
			sql.Named("ContentHash", state.ContentHash),
			sql.Named("CardCount", state.CardCount),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), state))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectPrepare(`MERGE INTO TblScrapeState`).
		ExpectExec().
		WillReturnError(errors.New("deadlock"))

	err := repo.Upsert(context.Background(), &storage.PostState{URL: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock")

	assert.Error(t, repo.Upsert(context.Background(), &storage.PostState{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllSnapshot(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT .+ FROM TblScrapeState$`).
		WillReturnRows(sqlmock.NewRows(stateColumns).
			AddRow("https://x/a.html", "A", "KP01", "2024-01-01T00:00:00Z", "aaaa", 1).
			AddRow("https://x/b.html", "B", "ST01", "2024-01-02T00:00:00Z", "bbbb", 2))

	all, err := repo.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ST01", all["https://x/b.html"].SetID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
