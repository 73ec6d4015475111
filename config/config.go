// Package config loads server configuration from a YAML file with
// environment overrides.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer  `yaml:"http_server"`
	Storage     Storage     `yaml:"storage"`
	Auth        Auth        `yaml:"auth"`
	CORS        CORS        `yaml:"cors"`
	MasterOrder MasterOrder `yaml:"master_order"`
	Production  Production  `yaml:"production"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Storage struct {
	// Driver is "sqlite" or "memory".
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	Path   string `yaml:"path" env:"STORAGE_PATH" env-default:"./data/production.db"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://localhost:5173"`
}

// MasterOrder seeds the singleton order on first start.
type MasterOrder struct {
	Name     string `yaml:"name" env:"MASTER_ORDER_NAME"`
	Quantity int64  `yaml:"quantity" env:"MASTER_ORDER_QUANTITY"`
}

type Production struct {
	MonthlyTarget int64 `yaml:"monthly_target" env:"MONTHLY_TARGET" env-default:"100"`
	// SeedPath points at a JSON seed document applied on start. Empty
	// applies the built-in container types and sizes.
	SeedPath string `yaml:"seed_path" env:"SEED_PATH"`
}

// Load reads the config file at path, then applies environment overrides.
// An empty path reads the environment only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read config from env: %w", err)
		}
		return &cfg, cfg.validate()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, cfg.validate()
}

// MustLoad resolves the path from the -config flag or CONFIG_PATH and
// exits on any error.
func MustLoad() *Config {
	cfg, err := Load(fetchConfigPath())
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func fetchConfigPath() string {
	var path string
	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Production.MonthlyTarget < 0 {
		return fmt.Errorf("monthly_target must not be negative")
	}
	if c.MasterOrder.Quantity < 0 {
		return fmt.Errorf("master_order.quantity must not be negative")
	}
	return nil
}
