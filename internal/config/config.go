package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Config struct {
	Listen     string     `yaml:"listen"`
	Admin      Admin      `yaml:"admin"`
	Logger     Logger     `yaml:"logger"`
	Storage    Storage    `yaml:"storage"`
	Redis      Redis      `yaml:"redis"`
	Auth       Auth       `yaml:"auth"`
	CORS       CORS       `yaml:"cors"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
	Submission Submission `yaml:"submission"`
}

type Admin struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type Logger struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Storage struct {
	Database string `yaml:"database"`
}

// Redis is optional. With no addr the rate limiter and scoreboard cache fall
// back to in-process implementations, which is fine for a single instance.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r Redis) Enabled() bool {
	return r.Addr != ""
}

type Auth struct {
	JWT   JWT   `yaml:"jwt"`
	Local Local `yaml:"local"`
}

// Local defines configuration for username/password authentication.
type Local struct {
	Enabled bool `yaml:"enabled"`
}

type JWT struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

type RateLimit struct {
	MaxAttempts   int `yaml:"max_attempts"`
	WindowSeconds int `yaml:"window_seconds"`
}

func (r RateLimit) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

type Submission struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

func (s Submission) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit.MaxAttempts <= 0 {
		cfg.RateLimit.MaxAttempts = 10
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		cfg.RateLimit.WindowSeconds = 60
	}

	return &cfg, nil
}
