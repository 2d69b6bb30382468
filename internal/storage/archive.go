package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"rd-card-scraper/internal/cards"
)

// CardsFile имя файла набора в каталоге <data>/<SET>/
const CardsFile = "cards.json"

// Archive каталог с JSON-файлами наборов
type Archive struct {
	dataDir string
}

func NewArchive(dataDir string) *Archive {
	return &Archive{dataDir: dataDir}
}

func (a *Archive) DataDir() string {
	return a.dataDir
}

// SetPath путь к cards.json набора
func (a *Archive) SetPath(setID string) string {
	return filepath.Join(a.dataDir, setID, CardsFile)
}

// SaveCardSet перезаписывает cards.json набора целиком; возвращает путь
func (a *Archive) SaveCardSet(set *cards.CardSetRecord) (string, error) {
	if set == nil || set.SetID == "" {
		return "", fmt.Errorf("card set without set_id")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(set); err != nil {
		return "", fmt.Errorf("failed to encode card set %s: %w", set.SetID, err)
	}

	path := a.SetPath(set.SetID)
	if err := WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// LoadCardSet читает набор; nil без ошибки, если файла нет
func (a *Archive) LoadCardSet(setID string) (*cards.CardSetRecord, error) {
	data, err := os.ReadFile(a.SetPath(setID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read card set %s: %w", setID, err)
	}

	var set cards.CardSetRecord
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to decode card set %s: %w", setID, err)
	}
	return &set, nil
}
