package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the console configuration, loaded from the environment
// with a .env fallback.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	ALA      ALAConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite". sqlite is used for local
	// development and tests.
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
}

type AuthConfig struct {
	JWTSecret string
}

// ALAConfig configures the watchlist-screening engine.
type ALAConfig struct {
	RefreshInterval time.Duration
	StaleAfter      time.Duration
	SourceTimeout   time.Duration

	MatchThreshold float64

	PEPUYURL string
	UNURL    string
	OFACURL  string
	EUURL    string

	// Extra ISO alpha-2 codes appended to the built-in GAFI table.
	ExtraHighRiskCountries []string

	// Optional redis mirror for list snapshots.
	RedisAddr     string
	RedisPassword string

	// Complementary search channels
	WebSearchURL      string
	NewsSearchURL     string
	EncyclopediaURL   string
	SupplementTimeout time.Duration
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_DSN", "host=localhost user=console password=console dbname=console port=5432 sslmode=disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 3600)
	v.SetDefault("JWT_SECRET", "")

	v.SetDefault("ALA_REFRESH_INTERVAL", "24h")
	v.SetDefault("ALA_STALE_AFTER", "48h")
	v.SetDefault("ALA_SOURCE_TIMEOUT", "45s")
	v.SetDefault("ALA_MATCH_THRESHOLD", 0.85)
	v.SetDefault("ALA_PEP_UY_URL", "https://catalogodatos.gub.uy/dataset/personas-politicamente-expuestas/pep.csv")
	v.SetDefault("ALA_UN_URL", "https://scsanctions.un.org/resources/xml/en/consolidated.xml")
	v.SetDefault("ALA_OFAC_URL", "https://www.treasury.gov/ofac/downloads/sdn.csv")
	v.SetDefault("ALA_EU_URL", "https://webgate.ec.europa.eu/fsd/fsf/public/files/jsonFullSanctionsList/content")
	v.SetDefault("ALA_REDIS_ADDR", "")
	v.SetDefault("ALA_REDIS_PASSWORD", "")
	v.SetDefault("ALA_WEB_SEARCH_URL", "https://api.duckduckgo.com/")
	v.SetDefault("ALA_NEWS_SEARCH_URL", "https://api.gdeltproject.org/api/v2/doc/doc")
	v.SetDefault("ALA_ENCYCLOPEDIA_URL", "https://es.wikipedia.org/api/rest_v1/page/summary")
	v.SetDefault("ALA_SUPPLEMENT_TIMEOUT", "20s")

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetInt("PORT"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("DB_DRIVER"),
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetInt("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		ALA: ALAConfig{
			RefreshInterval:        v.GetDuration("ALA_REFRESH_INTERVAL"),
			StaleAfter:             v.GetDuration("ALA_STALE_AFTER"),
			SourceTimeout:          v.GetDuration("ALA_SOURCE_TIMEOUT"),
			MatchThreshold:         v.GetFloat64("ALA_MATCH_THRESHOLD"),
			PEPUYURL:               v.GetString("ALA_PEP_UY_URL"),
			UNURL:                  v.GetString("ALA_UN_URL"),
			OFACURL:                v.GetString("ALA_OFAC_URL"),
			EUURL:                  v.GetString("ALA_EU_URL"),
			ExtraHighRiskCountries: v.GetStringSlice("ALA_EXTRA_HIGH_RISK_COUNTRIES"),
			RedisAddr:              v.GetString("ALA_REDIS_ADDR"),
			RedisPassword:          v.GetString("ALA_REDIS_PASSWORD"),
			WebSearchURL:           v.GetString("ALA_WEB_SEARCH_URL"),
			NewsSearchURL:          v.GetString("ALA_NEWS_SEARCH_URL"),
			EncyclopediaURL:        v.GetString("ALA_ENCYCLOPEDIA_URL"),
			SupplementTimeout:      v.GetDuration("ALA_SUPPLEMENT_TIMEOUT"),
		},
	}

	return cfg, nil
}
