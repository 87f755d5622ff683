package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tow-dispatch-api/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config is read from the environment, optionally seeded by a .env file.
type Config struct {
	Port    string `envconfig:"PORT" default:"4000"`
	GinMode string `envconfig:"GIN_MODE" default:"debug"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN    string `envconfig:"DB_DSN" default:"data/tow_dispatch.db"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"tow_dispatch_dev_secret"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"168h"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:"admin@example.com"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"admin123"`

	SMTPHost      string        `envconfig:"SMTP_HOST"`
	SMTPPort      int           `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser      string        `envconfig:"SMTP_USER"`
	SMTPPass      string        `envconfig:"SMTP_PASS"`
	SMTPFrom      string        `envconfig:"SMTP_FROM"`
	ManagerEmail  string        `envconfig:"MANAGER_EMAIL" default:"dispatch@example.com"`
	NotifyTimeout time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`

	RabbitURL      string `envconfig:"RABBIT_URL"`
	RabbitExchange string `envconfig:"RABBIT_EXCHANGE" default:"tow.events"`

	RedisURL       string        `envconfig:"REDIS_URL"`
	GeocoderURL    string        `envconfig:"GEOCODER_URL" default:"https://nominatim.openstreetmap.org"`
	GeocoderSuffix string        `envconfig:"GEOCODER_SUFFIX"`
	RouterURL      string        `envconfig:"ROUTER_URL" default:"https://router.project-osrm.org"`
	GeoTimeout     time.Duration `envconfig:"GEO_TIMEOUT" default:"5s"`
	GeoCacheTTL    time.Duration `envconfig:"GEO_CACHE_TTL" default:"24h"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}
	return c, nil
}

// SMTPEnabled reports whether outbound email is configured.
func (c Config) SMTPEnabled() bool { return c.SMTPHost != "" }

// OpenDB opens the configured database and migrates the schema. The handle
// is created once in main and passed to everything that needs it.
func OpenDB(c Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(c.DBDriver) {
	case "sqlite", "":
		dsn, err := sqliteDSN(c.DBDSN)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(c.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger(log.New(os.Stderr, "\r\n", log.LstdFlags)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// gormLogger reports slow queries and errors. A lookup that finds no row is
// a normal outcome for this API and is not logged.
func gormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.OrderStatusHistory{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// sqliteDSN makes sure the parent directory exists and foreign keys are on.
func sqliteDSN(dsn string) (string, error) {
	path, _, _ := strings.Cut(dsn, "?")
	if path != ":memory:" && !strings.HasPrefix(path, "file::memory:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("create data dir: %w", err)
			}
		}
	}
	if !strings.Contains(dsn, "foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)"
	}
	return dsn, nil
}
