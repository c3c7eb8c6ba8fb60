package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Database struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"companydb"`
	Password string `env:"DB_PASSWORD" envDefault:"companydb"`
	Name     string `env:"DB_NAME" envDefault:"companydb"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

type Search struct {
	Enabled   bool   `env:"SEARCH_ENABLED" envDefault:"true"`
	Address   string `env:"OPENSEARCH_ADDR" envDefault:"http://localhost:9200"`
	BatchSize int    `env:"SEARCH_BATCH_SIZE" envDefault:"1000"`
}

type Import struct {
	DataDirectory string `env:"DATA_DIRECTORY" envDefault:"./data"`
	BatchSize     int    `env:"IMPORT_BATCH_SIZE" envDefault:"5000"`
}

type Config struct {
	Port        string `env:"PORT" envDefault:"3000"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	KafkaBroker string `env:"KAFKA_BROKER"`

	Database Database
	Search   Search
	Import   Import
}

// Load reads .env (if present) and the process environment into a Config.
// Components receive the relevant sub-config explicitly; nothing reads
// environment variables after startup.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Import.BatchSize <= 0 {
		cfg.Import.BatchSize = 5000
	}
	if cfg.Search.BatchSize <= 0 {
		cfg.Search.BatchSize = 1000
	}
	return cfg, nil
}
