// Package config loads server settings from defaults, an optional YAML file,
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

type Config struct {
	Server ServerConfig `koanf:"server"`
	DB     DBConfig     `koanf:"db"`
	Upload UploadConfig `koanf:"upload"`
	CORS   CORSConfig   `koanf:"cors"`
}

type ServerConfig struct {
	Port            string        `koanf:"port" validate:"required,numeric"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// DBConfig selects the storage engine. For postgres, DSN overrides the
// individual connection fields; for sqlite, DSN is the database file path.
type DBConfig struct {
	Driver       string `koanf:"driver" validate:"oneof=postgres sqlite"`
	DSN          string `koanf:"dsn" validate:"required_if=Driver sqlite"`
	Host         string `koanf:"host"`
	Port         string `koanf:"port"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	Name         string `koanf:"name"`
	SSLMode      string `koanf:"sslmode"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `koanf:"max_idle_conns" validate:"gte=0"`
}

type UploadConfig struct {
	MaxBytes int64 `koanf:"max_bytes" validate:"gt=0"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		DB: DBConfig{
			Driver:       "postgres",
			Host:         "localhost",
			Port:         "5432",
			User:         "quiz_user",
			Password:     "quiz_password",
			Name:         "quizapp",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Upload: UploadConfig{MaxBytes: 10 << 20},
		CORS:   CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

// envKeys maps the environment variables the server has always read onto
// config keys. Variables not listed here are ignored.
var envKeys = map[string]string{
	"PORT":              "server.port",
	"DB_DRIVER":         "db.driver",
	"DB_DSN":            "db.dsn",
	"DB_HOST":           "db.host",
	"DB_PORT":           "db.port",
	"DB_USER":           "db.user",
	"DB_PASSWORD":       "db.password",
	"DB_NAME":           "db.name",
	"DB_SSLMODE":        "db.sslmode",
	"DB_MAX_OPEN_CONNS": "db.max_open_conns",
	"DB_MAX_IDLE_CONNS": "db.max_idle_conns",
	"UPLOAD_MAX_BYTES":  "upload.max_bytes",
	"CORS_ORIGINS":      "cors.allowed_origins",
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"port":      "server.port",
	"db-driver": "db.driver",
	"db-dsn":    "db.dsn",
}

// Load builds the configuration. path may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		mapped, ok := envKeys[key]
		if !ok {
			return "", nil
		}
		if mapped == "cors.allowed_origins" {
			return mapped, splitList(value)
		}
		return mapped, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		flagProvider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			mapped, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return mapped, posflag.FlagVal(flags, f)
		})
		if err := k.Load(flagProvider, nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
