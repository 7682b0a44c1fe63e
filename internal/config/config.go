package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"normalizer/internal/corrector"
	"normalizer/internal/customdict"
	"normalizer/internal/sequence"
	"normalizer/pkg/options"
)

type Config struct {
	// Profile presets the matcher knobs ("strict" or "lenient"); knobs set
	// explicitly in the same file win over the preset.
	Profile           string  `yaml:"profile"`
	HTTPAddr          string  `yaml:"http_addr"`
	VocabPath         string  `yaml:"vocab_path"`
	CorrectionEnabled bool    `yaml:"correction_enabled"`
	MaxCandidates     int     `yaml:"max_candidates"`
	MinRatio          float64 `yaml:"min_ratio"`
	MaxDistance       int     `yaml:"max_distance"`
	LengthSlack       int     `yaml:"length_slack"`
	CacheCapacity     int     `yaml:"cache_capacity"`
	MinTokenLength    int     `yaml:"min_token_length"`
	MaxSequenceLen    int     `yaml:"max_sequence_len"`
	Redis             Redis   `yaml:"redis"`
	Log               Log     `yaml:"log"`
}

// Redis configures the custom word store. An empty Addr disables it.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // empty logs to stderr
}

// Default mirrors options.DefaultOptions.
func Default() Config {
	o := options.DefaultOptions
	return Config{
		HTTPAddr:          ":8080",
		VocabPath:         "tokenizer.json",
		CorrectionEnabled: o.CorrectionEnabled,
		MaxCandidates:     o.MaxCandidates,
		MinRatio:          o.MinRatio,
		MaxDistance:       o.MaxDistance,
		LengthSlack:       o.LengthSlack,
		CacheCapacity:     o.CacheCapacity,
		MinTokenLength:    o.MinTokenLength,
		MaxSequenceLen:    sequence.DefaultMaxLen,
		Redis:             Redis{Key: customdict.DefaultKey},
		Log:               Log{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides and validates the result. A missing file is not an
// error; an empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			var head struct {
				Profile string `yaml:"profile"`
			}
			if err := yaml.Unmarshal(data, &head); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
			if err := cfg.applyProfile(head.Profile); err != nil {
				return cfg, err
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyProfile(name string) error {
	var preset options.Options
	switch name {
	case "":
		return nil
	case "strict":
		preset = options.WithStrictMatching()
	case "lenient":
		preset = options.WithLenientMatching()
	default:
		return fmt.Errorf("unknown profile %q", name)
	}
	o := options.Build(preset)
	c.Profile = name
	c.MaxCandidates = o.MaxCandidates
	c.MinRatio = o.MinRatio
	c.MaxDistance = o.MaxDistance
	c.LengthSlack = o.LengthSlack
	return nil
}

func (c *Config) applyEnv() error {
	c.HTTPAddr = getenv("HTTP_ADDR", c.HTTPAddr)
	c.VocabPath = getenv("VOCAB_PATH", c.VocabPath)
	c.Redis.Addr = getenv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getenv("REDIS_PASSWORD", c.Redis.Password)
	c.Log.Level = getenv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getenv("LOG_FILE", c.Log.File)

	var err error
	if c.Redis.DB, err = getEnvInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if v := os.Getenv("CORRECTION_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CORRECTION_ENABLED: %w", err)
		}
		c.CorrectionEnabled = b
	}
	return nil
}

// Validate checks the matcher settings and the fields the server needs.
func (c Config) Validate() error {
	if err := corrector.Validate(c.CorrectorOptions()); err != nil {
		return err
	}
	if c.MaxSequenceLen <= 0 {
		return fmt.Errorf("max_sequence_len must be positive, got %d", c.MaxSequenceLen)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must not be negative, got %d", c.Redis.DB)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// Options expresses the matcher settings as functional options.
func (c Config) Options() []options.Options {
	opts := []options.Options{
		options.WithMaxCandidates(c.MaxCandidates),
		options.WithMinRatio(c.MinRatio),
		options.WithMaxDistance(c.MaxDistance),
		options.WithLengthSlack(c.LengthSlack),
		options.WithCacheCapacity(c.CacheCapacity),
		options.WithMinTokenLength(c.MinTokenLength),
	}
	if !c.CorrectionEnabled {
		opts = append(opts, options.WithoutCorrection())
	}
	return opts
}

func (c Config) CorrectorOptions() options.CorrectorOptions {
	return options.Build(c.Options()...)
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}
