package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fileshare/internal/pkg/validator"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultConfigPath        = "./fileshare.yaml"
	defaultPort              = 3001
	defaultUploadDir         = "./uploads"
	defaultMaxUploadBytes    = 500 * 1024 * 1024 // 500 MiB
	defaultDevOrigin         = "http://localhost:5173"
	defaultIndexDSN          = "fileshare.db"
	defaultReconcileSchedule = "@every 10m"
)

// Config holds gateway settings. Values come from defaults, then the YAML
// file at CONFIG_PATH, then the environment (a .env file is loaded first).
type Config struct {
	AppEnv            string `yaml:"app_env" validate:"oneof=development production"`
	Port              int    `yaml:"port" validate:"min=1,max=65535"`
	UploadDir         string `yaml:"upload_dir" validate:"required"`
	MaxUploadBytes    int64  `yaml:"max_upload_bytes" validate:"gt=0"`
	DevOrigin         string `yaml:"dev_origin" validate:"omitempty,url"`
	StaticDir         string `yaml:"static_dir"`
	IndexEnabled      bool   `yaml:"index_enabled"`
	IndexDSN          string `yaml:"index_dsn" validate:"required_if=IndexEnabled true"`
	ReconcileSchedule string `yaml:"index_reconcile_schedule"`
	WatchEnabled      bool   `yaml:"watch_enabled"`
	ShowQR            bool   `yaml:"show_qr"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		AppEnv:            EnvDevelopment,
		Port:              defaultPort,
		UploadDir:         defaultUploadDir,
		MaxUploadBytes:    defaultMaxUploadBytes,
		DevOrigin:         defaultDevOrigin,
		IndexEnabled:      false,
		IndexDSN:          defaultIndexDSN,
		ReconcileSchedule: defaultReconcileSchedule,
		WatchEnabled:      true,
		ShowQR:            true,
	}
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	path := getEnv("CONFIG_PATH", defaultConfigPath)
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.AppEnv = normalizeEnv(cfg.AppEnv)

	if err := validator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log.Printf("config loaded: env=%s port=%d upload_dir=%s max_upload_bytes=%d index=%t watch=%t",
		cfg.AppEnv, cfg.Port, cfg.UploadDir, cfg.MaxUploadBytes, cfg.IndexEnabled, cfg.WatchEnabled)

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// Addr is the listen address; the gateway binds all interfaces so other
// machines on the LAN can reach it.
func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	for _, name := range []string{"APP_ENV", "ENV", "NODE_ENV"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			cfg.AppEnv = v
			break
		}
	}

	var err error
	if cfg.Port, err = intEnv("PORT", cfg.Port); err != nil {
		return err
	}
	if cfg.MaxUploadBytes, err = int64Env("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes); err != nil {
		return err
	}

	cfg.UploadDir = strings.TrimSpace(getEnv("UPLOAD_DIR", cfg.UploadDir))
	cfg.DevOrigin = strings.TrimSpace(getEnv("DEV_ORIGIN", cfg.DevOrigin))
	cfg.StaticDir = strings.TrimSpace(getEnv("STATIC_DIR", cfg.StaticDir))
	cfg.IndexDSN = strings.TrimSpace(getEnv("INDEX_DSN", cfg.IndexDSN))
	cfg.ReconcileSchedule = strings.TrimSpace(getEnv("INDEX_RECONCILE_SCHEDULE", cfg.ReconcileSchedule))

	cfg.IndexEnabled = boolEnv("INDEX_ENABLED", cfg.IndexEnabled)
	cfg.WatchEnabled = boolEnv("WATCH_ENABLED", cfg.WatchEnabled)
	cfg.ShowQR = boolEnv("SHOW_QR", cfg.ShowQR)
	return nil
}

func normalizeEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "dev", "development", "local":
		return EnvDevelopment
	case "prod", "production", "release":
		return EnvProduction
	}
	return env
}

func intEnv(name string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, v, err)
	}
	return n, nil
}

func int64Env(name string, fallback int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, v, err)
	}
	return n, nil
}

func boolEnv(name string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	if v == "" {
		return fallback
	}
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
