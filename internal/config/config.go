package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type HistoryConfig struct {
	Path string `toml:"path"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

// DedupeConfig holds the knobs of duplicate detection.
type DedupeConfig struct {
	// SimilarityThreshold is the minimum 0-100 score for a fuzzy match.
	SimilarityThreshold int `toml:"similarity_threshold"`
	// SampleCap bounds the rows fuzzy matching looks at while profiling.
	SampleCap int `toml:"sample_cap"`
	// NeighborCap bounds the candidates compared per anchor while
	// profiling. Cleaning compares against every remaining row.
	NeighborCap int `toml:"neighbor_cap"`
	// SummaryCutoff is the duplicate record count at which exact
	// duplicates are only counted, not listed.
	SummaryCutoff int `toml:"summary_cutoff"`
	ChunkSize     int `toml:"chunk_size"`
	// Seed drives every random sample.
	Seed            int64   `toml:"seed"`
	ReviewThreshold float64 `toml:"review_threshold"`
}

// PromptsConfig overrides built-in prompts. Each must contain one %s.
type PromptsConfig struct {
	Insight string `toml:"insight"`
}

type LoggingConfig struct {
	Debug bool `toml:"debug"`
}

type Config struct {
	LLM      LLMConfig      `toml:"llm"`
	Memgraph MemgraphConfig `toml:"memgraph"`
	History  HistoryConfig  `toml:"history"`
	Server   ServerConfig   `toml:"server"`
	Dedupe   DedupeConfig   `toml:"dedupe"`
	Prompts  PromptsConfig  `toml:"prompts"`
	Logging  LoggingConfig  `toml:"logging"`
}

// Default returns a complete configuration; a config file only needs
// to name what it changes.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Dedupe: DedupeConfig{
			SimilarityThreshold: 90,
			SampleCap:           5000,
			NeighborCap:         100,
			SummaryCutoff:       10000,
			ChunkSize:           10000,
			Seed:                42,
			ReviewThreshold:     85,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to Default.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv() error {
	setString("LLM_PROVIDER", &c.LLM.Provider)
	setString("LLM_MODEL", &c.LLM.Model)
	setString("LLM_API_KEY", &c.LLM.APIKey)
	setString("LLM_BASE_URL", &c.LLM.BaseURL)
	setString("MEMGRAPH_URI", &c.Memgraph.URI)
	setString("MEMGRAPH_USER", &c.Memgraph.User)
	setString("MEMGRAPH_PASSWORD", &c.Memgraph.Password)
	setString("STEWARD_HISTORY_PATH", &c.History.Path)
	setString("PORT", &c.Server.Port)

	if err := parseEnvInt64("STEWARD_SEED", &c.Dedupe.Seed); err != nil {
		return err
	}
	if err := parseEnvInt("STEWARD_SAMPLE_CAP", &c.Dedupe.SampleCap); err != nil {
		return err
	}
	if err := parseEnvInt("STEWARD_NEIGHBOR_CAP", &c.Dedupe.NeighborCap); err != nil {
		return err
	}
	if err := parseEnvBool("STEWARD_DEBUG", &c.Logging.Debug); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	d := c.Dedupe
	if d.SimilarityThreshold < 0 || d.SimilarityThreshold > 100 {
		return fmt.Errorf("similarity_threshold must be between 0 and 100 (got %d)", d.SimilarityThreshold)
	}
	if d.ReviewThreshold < 0 || d.ReviewThreshold > 100 {
		return fmt.Errorf("review_threshold must be between 0 and 100 (got %.2f)", d.ReviewThreshold)
	}
	if d.SampleCap <= 0 {
		return fmt.Errorf("sample_cap must be positive (got %d)", d.SampleCap)
	}
	if d.NeighborCap <= 0 {
		return fmt.Errorf("neighbor_cap must be positive (got %d)", d.NeighborCap)
	}
	if d.SummaryCutoff <= 0 {
		return fmt.Errorf("summary_cutoff must be positive (got %d)", d.SummaryCutoff)
	}
	if d.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive (got %d)", d.ChunkSize)
	}
	if p := c.Prompts.Insight; p != "" && strings.Count(p, "%s") != 1 {
		return fmt.Errorf("prompts.insight must contain exactly one %%s")
	}
	return nil
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func parseEnvInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func parseEnvInt64(key string, dst *int64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func parseEnvBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}
