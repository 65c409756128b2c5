package config

import (
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"sh3d-importer/internal/importer/mapper"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int
	BodyLimitMB  int

	DBPath         string
	MigrationsPath string
	DocsPath       string

	StorageRoot    string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// ImportConfig: путь к TOML с настройками импорта по умолчанию
	ImportConfig string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "3003"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 30),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 30),
		BodyLimitMB:  getEnvAsInt("BODY_LIMIT_MB", 200),

		DBPath:         getEnv("IMPORTER_DB_PATH", "data/db/importer.db"),
		MigrationsPath: getEnv("IMPORTER_MIGRATIONS", "migrations/001_init_imports.sql"),
		DocsPath:       getEnv("IMPORTER_DOCS", "docs/importer.openapi.yaml"),

		StorageRoot:    getEnv("STORAGE_ROOT", "data/archives"),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "sh3d-archives"),
		MinioUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),

		ImportConfig: getEnv("IMPORTER_CONFIG", ""),
	}
}

// importFile: корень TOML-файла; настройки лежат в таблице [import]
type importFile struct {
	Import mapper.Options `toml:"import"`
}

// LoadImportOptions читает настройки импорта из TOML поверх значений по умолчанию.
// Пустой путь возвращает значения по умолчанию.
func LoadImportOptions(path string) (mapper.Options, error) {
	file := importFile{Import: mapper.DefaultOptions()}
	if path == "" {
		return file.Import, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return mapper.Options{}, errors.Wrap(err, "read import config")
	}
	if err := toml.Unmarshal(data, &file); err != nil {
		return mapper.Options{}, errors.Wrapf(err, "decode import config %s", path)
	}
	return file.Import.Normalize(), nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}
