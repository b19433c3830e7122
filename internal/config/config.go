// Package config assembles process configuration from defaults, an
// optional YAML file, a .env file and EXAMGEN_* environment variables, in
// that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/abhisek/examgen/internal/guard"
	"github.com/abhisek/examgen/internal/history"
	"github.com/abhisek/examgen/internal/llm"
	"github.com/abhisek/examgen/internal/logging"
	"github.com/abhisek/examgen/internal/problemgen"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DotEnvFile is the .env file read by Load, relative to the working
// directory. A missing file is not an error.
const DotEnvFile = ".env"

// Config is the full process configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Guard      GuardConfig      `yaml:"guard"`
	History    history.Config   `yaml:"history"`
	Generation GenerationConfig `yaml:"generation"`
	Logging    logging.Config   `yaml:"logging"`
	LLM        llm.Config       `yaml:"llm"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type RateLimitConfig struct {
	// Cooldown is the minimum spacing between two requests of the same
	// actor and action. Zero disables rate limiting.
	Cooldown time.Duration `yaml:"cooldown"`
}

type GuardConfig struct {
	// TTL bounds how long an abandoned in-flight marker blocks its key.
	// It must outlast a full walk of the provider chain. Zero derives it
	// from the chain, see Config.GuardTTL.
	TTL time.Duration `yaml:"ttl"`
}

// guardMargin covers validation, history bookkeeping and scheduling on top
// of the provider chain's longest run.
const guardMargin = 30 * time.Second

// GenerationConfig tunes prompting and response validation.
type GenerationConfig struct {
	MinSolutionLen     int           `yaml:"min_solution_len"`
	MaxTokens          int           `yaml:"max_tokens"`
	Temperature        float64       `yaml:"temperature"`
	MaxRecentSubtopics int           `yaml:"max_recent_subtopics"`
	DefaultBudget      time.Duration `yaml:"default_budget"`
}

// Default returns the built-in configuration.
func Default() Config {
	pg := problemgen.DefaultConfig()
	return Config{
		Server:    ServerConfig{Addr: ":8080"},
		RateLimit: RateLimitConfig{Cooldown: 30 * time.Second},
		History:   history.DefaultConfig(),
		Generation: GenerationConfig{
			MinSolutionLen:     pg.MinSolutionLen,
			MaxTokens:          pg.MaxTokens,
			Temperature:        pg.Temperature,
			MaxRecentSubtopics: pg.MaxRecentSubtopics,
		},
		Logging: logging.DefaultConfig(),
		LLM:     llm.DefaultConfig(),
	}
}

// Load builds the configuration. path names an optional YAML file; an
// empty path skips it. The result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// Variables already in the environment win over the .env file.
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GuardTTL is the configured guard TTL, or when unset the chain's longest
// run plus a margin, never below guard.DefaultTTL.
func (c Config) GuardTTL() time.Duration {
	if c.Guard.TTL > 0 {
		return c.Guard.TTL
	}
	return max(guard.DefaultTTL, c.LLM.MaxDuration()+guardMargin)
}

// ProblemGen converts the generation section into a problemgen.Config
// with the standard validator chain.
func (c Config) ProblemGen() problemgen.Config {
	return problemgen.WithMinSolutionLen(problemgen.Config{
		MaxTokens:          c.Generation.MaxTokens,
		Temperature:        c.Generation.Temperature,
		MaxRecentSubtopics: c.Generation.MaxRecentSubtopics,
	}, c.Generation.MinSolutionLen)
}

// Validate reports every problem found.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.RateLimit.Cooldown < 0 {
		errs = append(errs, errors.New("rate_limit.cooldown must not be negative"))
	}
	if c.Guard.TTL < 0 {
		errs = append(errs, errors.New("guard.ttl must not be negative"))
	}
	if worst := c.LLM.MaxDuration(); c.Guard.TTL > 0 && c.Guard.TTL < worst {
		errs = append(errs, fmt.Errorf("guard.ttl %s is shorter than the longest provider chain run %s", c.Guard.TTL, worst))
	}
	if c.History.FingerprintCap <= 0 || c.History.SubtopicCap <= 0 {
		errs = append(errs, errors.New("history caps must be positive"))
	}
	if c.History.MinFresh < 0 {
		errs = append(errs, errors.New("history.min_fresh must not be negative"))
	}
	if c.Generation.MinSolutionLen <= 0 {
		errs = append(errs, errors.New("generation.min_solution_len must be positive"))
	}
	if c.Generation.MaxTokens <= 0 {
		errs = append(errs, errors.New("generation.max_tokens must be positive"))
	}
	if c.Generation.DefaultBudget < 0 {
		errs = append(errs, errors.New("generation.default_budget must not be negative"))
	}
	if c.LLM.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("llm.retry.max_attempts must be positive"))
	}
	if c.LLM.Retry.BaseTimeout <= 0 {
		errs = append(errs, errors.New("llm.retry.base_timeout must be positive"))
	}
	if c.LLM.Retry.MaxWait <= 0 {
		errs = append(errs, errors.New("llm.retry.max_wait must be positive"))
	}
	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("llm: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnv() error {
	c.LLM.ApplyEnv()

	if v := os.Getenv("EXAMGEN_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("EXAMGEN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("EXAMGEN_LOG_DEVELOPMENT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("EXAMGEN_LOG_DEVELOPMENT: %w", err)
		}
		c.Logging.Development = b
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"EXAMGEN_RATE_COOLDOWN", &c.RateLimit.Cooldown},
		{"EXAMGEN_GUARD_TTL", &c.Guard.TTL},
		{"EXAMGEN_DEFAULT_BUDGET", &c.Generation.DefaultBudget},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("EXAMGEN_MIN_SOLUTION_LEN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EXAMGEN_MIN_SOLUTION_LEN: %w", err)
		}
		c.Generation.MinSolutionLen = n
	}
	return nil
}
