package shared

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string        `env:"APP_ENV" envDefault:"prod"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr    string        `env:"HTTP_ADDR" envDefault:":8080"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	MetricsAddr string        `env:"METRICS_ADDR"`

	StoreBackend   string        `env:"STORE_BACKEND" envDefault:"mysql"` // mysql|memory
	MySQLDSN       string        `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/testimonials?parseTime=true&charset=utf8mb4,utf8&loc=UTC" json:"-"`
	ReviewsFixture string        `env:"REVIEWS_FIXTURE"`
	StoreTimeout   time.Duration `env:"STORE_TIMEOUT" envDefault:"3s"`

	RedisAddr string `env:"REDIS_ADDR"` // empty: in-process cache
	RedisPass string `env:"REDIS_PASSWORD" json:"-"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	CacheTTL  int    `env:"CACHE_TTL_SECONDS" envDefault:"300"`

	PageSize      int `env:"PAGE_SIZE" envDefault:"9"`
	MaxPageSize   int `env:"MAX_PAGE_SIZE" envDefault:"48"`
	FeaturedLimit int `env:"FEATURED_LIMIT" envDefault:"3"`

	WPBaseURL     string `env:"WP_BASE_URL"`
	WPUser        string `env:"WP_USER"`
	WPAppPassword string `env:"WP_APP_PASSWORD" json:"-"`
	WPPostType    string `env:"WP_POST_TYPE" envDefault:"testimonials"`
	WPRPS         int    `env:"WP_RPS" envDefault:"5"`
	Workers       int    `env:"INGEST_WORKERS" envDefault:"4"`
}

func (c Config) CacheTTLDuration() time.Duration { return time.Duration(c.CacheTTL) * time.Second }

func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}
	switch c.StoreBackend {
	case "mysql", "memory":
	default:
		return Config{}, fmt.Errorf("STORE_BACKEND must be mysql or memory, got %q", c.StoreBackend)
	}
	if c.StoreBackend == "memory" && c.ReviewsFixture == "" {
		log.Warn().Msg("STORE_BACKEND=memory without REVIEWS_FIXTURE; serving an empty collection")
	}
	if c.PageSize <= 0 {
		c.PageSize = 9
	}
	if c.MaxPageSize < c.PageSize {
		c.MaxPageSize = c.PageSize
	}
	return c, nil
}
