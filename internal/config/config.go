package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env        string  `yaml:"env" env:"ENV" env-default:"prod"`
	Storage    Storage `yaml:"storage"`
	HTTPServer `yaml:"http_server"`
	Admin      Admin `yaml:"admin"`

	CORSOrigins  []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:5173"`
	CatalogPath  string   `yaml:"catalog_path" env:"CATALOG_PATH"`
	ErrorLogPath string   `yaml:"error_log_path" env:"ERROR_LOG_PATH" env-default:"errors.log"`
	FrontendDir  string   `yaml:"frontend_dir" env:"FRONTEND_DIR"`

	// FieldRouting is "graphic-step" (new fields go to the graphic
	// inspection step once a plan has one) or "target".
	FieldRouting string `yaml:"field_routing" env:"FIELD_ROUTING" env-default:"graphic-step"`
}

type Storage struct {
	// Driver is "mysql" or "sqlite".
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	// Path is the database file for sqlite.
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"./storage/plans.db"`

	DBUser     string `yaml:"db_user" env:"DB_USER"`
	DBPassword string `yaml:"db_password" env:"DB_PASSWORD"`
	DBHost     string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort     int    `yaml:"db_port" env:"DB_PORT" env-default:"3306"`
	DBName     string `yaml:"db_name" env:"DB_NAME"`
	ParseTime  bool   `yaml:"parse_time" env-default:"true"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Admin struct {
	Login    string `yaml:"login" env:"ADMIN_LOGIN"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}

// Load reads the YAML file at path; environment variables override it.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: config file %s: %w", op, path, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustConfig loads the file named by CONFIG_PATH, or ./config/local.yaml.
func MustConfig() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	case "mysql":
		if c.Storage.DBUser == "" || c.Storage.DBName == "" {
			return fmt.Errorf("storage.db_user and storage.db_name are required for mysql")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.FieldRouting != "graphic-step" && c.FieldRouting != "target" {
		return fmt.Errorf("unknown field routing %q", c.FieldRouting)
	}
	return nil
}
