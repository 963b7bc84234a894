package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Типы хранилищ.
const (
	StorageInMemory = "in-memory"
	StoragePostgres = "postgres"
	StorageLocal    = "local"
)

// Config - структура файла threaducate.yaml.
type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		WSPingInterval string   `yaml:"ws_ping_interval"`
	} `yaml:"server"`

	Storage struct {
		Type string `yaml:"type"`
		// DataFile - файл локального key-value хранилища.
		DataFile string `yaml:"data_file"`
	} `yaml:"storage"`

	Database struct {
		URL            string `yaml:"url"`
		MaxConnections int    `yaml:"max_connections"`
	} `yaml:"database"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	Seed bool `yaml:"seed"` // заполнять пустое хранилище демо-данными
}

// Default возвращает конфигурацию для запуска без файла.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.WSPingInterval == "" {
		c.Server.WSPingInterval = "10s"
	}
	if c.Storage.Type == "" {
		c.Storage.Type = StorageInMemory
	}
	if c.Storage.DataFile == "" {
		c.Storage.DataFile = "threaducate.db"
	}
	if c.Database.MaxConnections == 0 {
		c.Database.MaxConnections = 25
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Load читает .env, файл конфигурации и переменные окружения.
// При пустом path ищет threaducate.yaml или .threaducate.yaml в рабочем
// каталоге. Отсутствие файла не ошибка.
func Load(path string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	if path == "" {
		for _, loc := range []string{"threaducate.yaml", "threaducate.yml", ".threaducate.yaml", ".threaducate.yml"} {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("THREADUCATE_STORAGE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("THREADUCATE_DATA"); v != "" {
		c.Storage.DataFile = v
	}
	if v := os.Getenv("THREADUCATE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("THREADUCATE_SEED"); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid THREADUCATE_SEED %q: %w", v, err)
		}
		c.Seed = seed
	}
	return nil
}

// Validate проверяет, что выбранное хранилище настроено полностью.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageInMemory, StorageLocal:
	case StoragePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL must be set for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q (want %s, %s or %s)",
			c.Storage.Type, StorageInMemory, StorageLocal, StoragePostgres)
	}
	return nil
}
