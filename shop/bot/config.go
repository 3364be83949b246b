package bot

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	coredatabase "github.com/m3rciful/shopbot/core/database"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StorageConfig selects the catalog storage implementation.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
}

// RedisConfig enables redis-backed wizard sessions when URL is set.
type RedisConfig struct {
	URL       string `yaml:"url" envconfig:"REDIS_URL"`
	KeyPrefix string `yaml:"key_prefix" envconfig:"REDIS_KEY_PREFIX"`
}

// WizardConfig tunes admin wizard sessions. A zero SessionTTL keeps
// abandoned sessions forever.
type WizardConfig struct {
	SessionTTL    time.Duration `yaml:"session_ttl" envconfig:"WIZARD_SESSION_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"WIZARD_SWEEP_INTERVAL"`
}

// ShopConfig holds storefront presentation settings.
type ShopConfig struct {
	Currency string `yaml:"currency" envconfig:"SHOP_CURRENCY"`
}

// Config is the full bot configuration: the shared core sections plus the
// shop's own.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Storage  StorageConfig       `yaml:"storage"`
	Redis    RedisConfig         `yaml:"redis"`
	Wizard   WizardConfig        `yaml:"wizard"`
	Shop     ShopConfig          `yaml:"shop"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads path and the environment into a validated Config.
// Updates from group chats are dropped unless the file says otherwise.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Telegram.PrivateOnly = true
	if err := coreconfig.LoadInto(path, cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadMigrateConfig reads path like LoadConfig but skips the Telegram checks,
// so migrations can run without a bot token.
func LoadMigrateConfig(path string) (*Config, error) {
	cfg := &Config{}
	if err := coreconfig.LoadInto(path, cfg); err != nil {
		return nil, err
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	if cfg.Storage.Driver != DriverPostgres {
		return nil, fmt.Errorf("migrations need the postgres driver, got %q", cfg.Storage.Driver)
	}
	return cfg, nil
}

// Normalize validates the shop sections and fills defaults.
func Normalize(cfg *Config) error {
	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" {
		driver = DriverPostgres
	}
	switch driver {
	case DriverPostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required for the postgres driver")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: postgres, memory", cfg.Storage.Driver)
	}
	cfg.Storage.Driver = driver

	if cfg.Wizard.SessionTTL < 0 {
		return fmt.Errorf("wizard.session_ttl must be >= 0")
	}
	if cfg.Wizard.SessionTTL > 0 && cfg.Wizard.SweepInterval <= 0 {
		cfg.Wizard.SweepInterval = time.Minute
	}
	if strings.TrimSpace(cfg.Shop.Currency) == "" {
		cfg.Shop.Currency = "$"
	}
	return nil
}
