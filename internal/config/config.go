package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config agrupa la configuración del proceso, leída desde env (y .env si existe).
type Config struct {
	Port            int           `env:"PORT,default=8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	DBDriver string `env:"DB_DRIVER,default=postgres"`
	DBDSN    string `env:"DB_DSN"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,default=168h"`
	DevAuth   bool          `env:"DEV_AUTH,default=false"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
	AppName   string `env:"APP_NAME,default=pet-adoption"`

	RedisURL       string        `env:"REDIS_URL"`
	ReportCacheTTL time.Duration `env:"REPORT_CACHE_TTL,default=60s"`

	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT,default=5"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST,default=10"`
}

// Load lee .env (opcional) y decodifica el entorno.
func Load(envFiles ...string) (Config, error) {
	cfg, err := decode(envFiles...)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDB es Load para herramientas que solo necesitan la base (adoptctl).
func LoadDB(envFiles ...string) (Config, error) {
	cfg, err := decode(envFiles...)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ValidateDB(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(envFiles ...string) (Config, error) {
	// .env es opcional: en prod las variables vienen del entorno.
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	return cfg, nil
}

func (c Config) ValidateDB() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}
	return nil
}

func (c Config) Validate() error {
	if err := c.ValidateDB(); err != nil {
		return err
	}
	if !c.DevAuth && strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required unless DEV_AUTH=true")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
