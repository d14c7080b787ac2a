package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env            string
	LogLevel       string
	ListenAddr     string
	AllowedOrigins []string

	StorageBackend string
	DataDir        string
	SQLitePath     string
	PostgresDSN    string
	MongoURI       string
	MongoDatabase  string
	WriteTimeout   time.Duration
	TimeZone       string

	// SessionIdleTimeout evicts stores unused for this long; 0 disables.
	SessionIdleTimeout time.Duration

	AuthMode       string
	AuthToken      string
	AuthUserID     string
	JWTSecret      string
	AuthServiceURL string

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	EconomyFile string
	Economy     Economy
}

// Economy holds the reward and catalog numbers. It can be overridden by a YAML file.
type Economy struct {
	MonsterCount      int      `yaml:"monster_count"`
	MonsterCost       int      `yaml:"monster_cost"`
	StarterMonster    string   `yaml:"starter_monster"`
	StreakBonus       int      `yaml:"streak_bonus"`
	DefaultCategories []string `yaml:"default_categories"`
}

func DefaultEconomy() Economy {
	return Economy{
		MonsterCount:   32,
		MonsterCost:    100,
		StarterMonster: "monster-001",
		StreakBonus:    10,
		DefaultCategories: []string{
			"Homework",
			"Project",
			"Exam Prep",
			"Extracurricular Learning",
		},
	}
}

var (
	cfg  *Config
	once sync.Once
)

func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		c, err := FromEnv()
		if err != nil {
			panic("Invalid config: " + err.Error())
		}
		cfg = c
	})
	return cfg
}

// FromEnv reads the environment without caching.
func FromEnv() (*Config, error) {
	c := &Config{
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ListenAddr:     getEnv("LISTEN_ADDR", ":8088"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,app://.")),
		StorageBackend: getEnv("STORAGE_BACKEND", "file"),
		DataDir:        getEnv("DATA_DIR", "data"),
		SQLitePath:     getEnv("SQLITE_PATH", "data/eduflow.db"),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		MongoURI:       getEnv("MONGO_URI", ""),
		MongoDatabase:  getEnv("MONGO_DATABASE", "eduflow"),
		TimeZone:       getEnv("TIME_ZONE", "Local"),
		AuthMode:       getEnv("AUTH_MODE", "local"),
		AuthToken:      getEnv("AUTH_TOKEN", "MOCK-TOKEN"),
		AuthUserID:     getEnv("AUTH_USER_ID", "u1"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AuthServiceURL: getEnv("AUTH_SERVICE_URL", ""),
		OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-5-nano"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		EconomyFile:    getEnv("ECONOMY_FILE", ""),
		Economy:        DefaultEconomy(),
	}

	timeout, err := time.ParseDuration(getEnv("WRITE_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("WRITE_TIMEOUT: %w", err)
	}
	c.WriteTimeout = timeout
	idle, err := time.ParseDuration(getEnv("SESSION_IDLE_TIMEOUT", "30m"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_IDLE_TIMEOUT: %w", err)
	}
	c.SessionIdleTimeout = idle

	if c.EconomyFile != "" {
		eco, err := LoadEconomy(c.EconomyFile)
		if err != nil {
			return nil, err
		}
		c.Economy = eco
	}
	c.Economy.MonsterCost = getEnvInt("MONSTER_COST", c.Economy.MonsterCost)
	c.Economy.StreakBonus = getEnvInt("STREAK_BONUS", c.Economy.StreakBonus)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "memory":
	case "file":
		if c.DataDir == "" {
			return errors.New("File storage requires DATA_DIR to be set")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case "mongo":
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORAGE_BACKEND=mongo")
		}
	default:
		return errors.New("STORAGE_BACKEND must be one of: memory, file, sqlite, postgres, mongo")
	}
	switch c.AuthMode {
	case "local":
		if c.AuthToken == "" || c.AuthUserID == "" {
			return errors.New("AUTH_TOKEN and AUTH_USER_ID are required when AUTH_MODE=local")
		}
	case "jwt":
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	case "remote":
		if c.AuthServiceURL == "" {
			return errors.New("AUTH_SERVICE_URL is required when AUTH_MODE=remote")
		}
	default:
		return errors.New("AUTH_MODE must be one of: local, jwt, remote")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("WRITE_TIMEOUT must be positive")
	}
	if c.SessionIdleTimeout < 0 {
		return errors.New("SESSION_IDLE_TIMEOUT must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIME_ZONE: %w", err)
	}
	return c.Economy.Validate()
}

// Location is the zone used to decide calendar-day boundaries for streaks.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}

func (e Economy) Validate() error {
	if e.MonsterCount < 1 {
		return errors.New("economy: monster_count must be at least 1")
	}
	if e.MonsterCost < 0 {
		return errors.New("economy: monster_cost must not be negative")
	}
	if e.StreakBonus < 0 {
		return errors.New("economy: streak_bonus must not be negative")
	}
	if e.StarterMonster == "" {
		return errors.New("economy: starter_monster is required")
	}
	seen := make(map[string]bool, len(e.DefaultCategories))
	for _, name := range e.DefaultCategories {
		if name == "" || seen[name] {
			return fmt.Errorf("economy: default category %q is empty or duplicated", name)
		}
		seen[name] = true
	}
	return nil
}

// LoadEconomy reads a YAML file on top of DefaultEconomy; absent keys keep their defaults.
func LoadEconomy(path string) (Economy, error) {
	eco := DefaultEconomy()
	data, err := os.ReadFile(path)
	if err != nil {
		return eco, fmt.Errorf("economy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &eco); err != nil {
		return eco, fmt.Errorf("economy file: %w", err)
	}
	return eco, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
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
