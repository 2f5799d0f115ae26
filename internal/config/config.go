package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds terminal configuration.
type Config struct {
	ServiceName       string      `yaml:"service_name"`
	Env               string      `yaml:"env"`
	Log               LogConfig   `yaml:"log"`
	Store             StoreConfig `yaml:"store"`
	LowStockThreshold int         `yaml:"low_stock_threshold"`
	MetricsFile       string      `yaml:"metrics_file"`
	Seed              SeedConfig  `yaml:"seed"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Stdout bool   `yaml:"stdout"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// SeedConfig describes the catalog loaded into an empty store on startup.
type SeedConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Products []SeedProduct `yaml:"products"`
}

type SeedProduct struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Price    float64 `yaml:"price"`
	Barcode  string  `yaml:"barcode"`
	Category string  `yaml:"category"`
	Stock    int     `yaml:"stock"`
}

// DefaultSeedProducts is the sample catalog, each item stocked at 100.
func DefaultSeedProducts() []SeedProduct {
	return []SeedProduct{
		{ID: "P001", Name: "Coca Cola", Price: 3.50, Barcode: "6901234567890", Category: "Beverage", Stock: 100},
		{ID: "P002", Name: "Pepsi Cola", Price: 3.50, Barcode: "6901234567891", Category: "Beverage", Stock: 100},
		{ID: "P003", Name: "Instant Noodles", Price: 5.00, Barcode: "6901234567892", Category: "Food", Stock: 100},
		{ID: "P004", Name: "Cup Noodles", Price: 5.00, Barcode: "6901234567893", Category: "Food", Stock: 100},
		{ID: "P005", Name: "Pure Milk", Price: 12.00, Barcode: "6901234567894", Category: "Dairy", Stock: 100},
		{ID: "P006", Name: "Fresh Milk", Price: 12.00, Barcode: "6901234567895", Category: "Dairy", Stock: 100},
		{ID: "P007", Name: "Oreo Cookies", Price: 8.50, Barcode: "6901234567896", Category: "Snacks", Stock: 100},
		{ID: "P008", Name: "Potato Chips", Price: 6.00, Barcode: "6901234567897", Category: "Snacks", Stock: 100},
	}
}

func Default() *Config {
	return &Config{
		ServiceName: "minishop-pos",
		Env:         "dev",
		Log: LogConfig{
			Level: "info",
			File:  "data/pos.log",
		},
		Store: StoreConfig{
			Backend: StoreSQLite,
			Path:    "data/pos_system.db",
		},
		LowStockThreshold: 10,
		Seed: SeedConfig{
			Enabled:  true,
			Products: DefaultSeedProducts(),
		},
	}
}

// Load builds the configuration from defaults, the YAML file named by
// POS_CONFIG, and environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("POS_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.overlayEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() error {
	c.ServiceName = getenvDefault("SERVICE_NAME", c.ServiceName)
	c.Env = getenvDefault("ENV", c.Env)
	c.Log.Level = getenvDefault("LOG_LEVEL", c.Log.Level)
	c.Log.File = getenvDefault("LOG_FILE", c.Log.File)
	c.Store.Backend = strings.ToLower(getenvDefault("POS_STORE", c.Store.Backend))
	c.Store.Path = getenvDefault("POS_DB_PATH", c.Store.Path)
	c.MetricsFile = getenvDefault("POS_METRICS_FILE", c.MetricsFile)

	var err error
	if c.Log.Stdout, err = getenvBool("POS_LOG_STDOUT", c.Log.Stdout); err != nil {
		return err
	}
	if c.Seed.Enabled, err = getenvBool("POS_SEED", c.Seed.Enabled); err != nil {
		return err
	}
	if v := os.Getenv("POS_LOW_STOCK_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: POS_LOW_STOCK_THRESHOLD: %w", err)
		}
		c.LowStockThreshold = n
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case StoreSQLite:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("config: sqlite store needs a path"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("config: unknown store backend %q", c.Store.Backend))
	}
	if c.LowStockThreshold <= 0 {
		errs = append(errs, fmt.Errorf("config: low stock threshold must be positive, got %d", c.LowStockThreshold))
	}
	seen := make(map[string]struct{}, len(c.Seed.Products))
	for _, p := range c.Seed.Products {
		if _, dup := seen[p.ID]; dup {
			errs = append(errs, fmt.Errorf("config: duplicate seed product %q", p.ID))
		}
		seen[p.ID] = struct{}{}
		if p.Stock < 0 {
			errs = append(errs, fmt.Errorf("config: seed product %q has negative stock", p.ID))
		}
	}
	return errors.Join(errs...)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}
