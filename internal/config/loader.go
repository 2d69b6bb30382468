package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"rd-card-scraper/internal/apperr"
)

// Переменные окружения, перекрывающие значения из файла
const (
	EnvBaseURL       = "RDCARDS_BASE_URL"
	EnvDataDir       = "RDCARDS_DATA_DIR"
	EnvLogLevel      = "RDCARDS_LOG_LEVEL"
	EnvLogPath       = "RDCARDS_LOG_PATH"
	EnvStorageDriver = "RDCARDS_STORAGE_DRIVER"
	EnvStorageDSN    = "RDCARDS_STORAGE_DSN"
)

// LoadConfig читает конфиг поверх значений по умолчанию.
// Порядок: Default → filePath → <name>.local.yaml → .env/окружение.
// Пустой filePath означает работу на значениях по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		if err := decodeFile(filePath, cfg); err != nil {
			return nil, apperr.NewConfiguration("failed to load config", err)
		}

		local := localPath(filePath)
		if _, err := os.Stat(local); err == nil {
			var override Config
			if err := decodeFile(local, &override); err != nil {
				return nil, apperr.NewConfiguration("failed to load local config", err)
			}
			if err := mergo.Merge(cfg, &override, mergo.WithOverride); err != nil {
				return nil, apperr.NewConfiguration("failed to merge local config", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, apperr.NewConfiguration("config validation error", err)
	}

	return cfg, nil
}

func decodeFile(filePath string, out *Config) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			// Логируем ошибку, но не возвращаем: иначе перезапишем основную ошибку
			log.Printf("Warning: failed to close config file: %v", closeErr)
		}
	}()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", filePath, err)
	}
	return nil
}

// localPath configs/config.yaml → configs/config.local.yaml
func localPath(filePath string) string {
	ext := filepath.Ext(filePath)
	return strings.TrimSuffix(filePath, ext) + ".local" + ext
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv(EnvLogPath); v != "" {
		cfg.Observability.LogPath = v
	}
	if v := os.Getenv(EnvStorageDriver); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv(EnvStorageDSN); v != "" {
		cfg.Storage.DSN = v
	}
}
