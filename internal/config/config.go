package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Gateway struct {
		URL     string `yaml:"url"` // empty means offline play against seeded quizzes
		Token   string `yaml:"token"`
		Timeout string `yaml:"timeout"`
	} `yaml:"gateway"`
	Play struct {
		QuestionSeconds int    `yaml:"question_seconds"`
		Feedback        string `yaml:"feedback"`
		FlushDelay      string `yaml:"flush_delay"`
		QuestionTTL     string `yaml:"question_ttl"`
	} `yaml:"play"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// Load reads YAML config from path. A missing file yields the zero config so
// the client can run offline with defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
