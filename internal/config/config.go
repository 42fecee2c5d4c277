// Package config loads runtime configuration for the memory substrate from
// an optional YAML file plus environment overrides, the way the teacher
// repo's internal/config package does it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines substrate configuration.
type Config struct {
	DataRoot   DataRootConfig   `yaml:"data_root"`
	Log        LogConfig        `yaml:"log"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Synthesis  SynthesisConfig  `yaml:"synthesis"`
	Consolidation ConsolidationConfig `yaml:"consolidation"`
}

// DataRootConfig locates the per-owner persisted layout (spec §6).
type DataRootConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// EmbeddingConfig configures the pluggable embedding capability (spec §4.3).
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // "heuristic" or "http"
	Endpoint   string `yaml:"endpoint"`
	APIKeyEnv  string `yaml:"api_key_env"`
	Dimension  int    `yaml:"dimension"`
	TimeoutSec int    `yaml:"timeout_seconds"`
}

// SynthesisConfig configures default per-turn context parameters (spec §4.5).
type SynthesisConfig struct {
	MaxResults          int     `yaml:"max_results"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	TokenBudget         int     `yaml:"token_budget"`
}

// ConsolidationConfig configures default archival policy (spec §4.6).
type ConsolidationConfig struct {
	MaxAgeDays          int     `yaml:"max_age_days"`
	MinPatternSize      int     `yaml:"min_pattern_size"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	LowImportanceCutoff float64 `yaml:"low_importance_cutoff"`
	AccessCountCutoff   int64   `yaml:"access_count_cutoff"`
	Summarizer          string  `yaml:"summarizer"` // "heuristic" or "anthropic"
	SummarizerModel     string  `yaml:"summarizer_model"`
}

// Load reads configuration from an optional YAML file and environment
// variables, file-then-env precedence exactly as the teacher's
// config.Load does it.
func Load() (Config, error) {
	cfg := Config{
		DataRoot: DataRootConfig{Path: "memdata"},
		Log:      LogConfig{Level: "info"},
		Embedding: EmbeddingConfig{
			Provider:   "heuristic",
			APIKeyEnv:  "SYNAPSE_EMBEDDING_API_KEY",
			Dimension:  64,
			TimeoutSec: 30,
		},
		Synthesis: SynthesisConfig{
			MaxResults:          6,
			SimilarityThreshold: 0.3,
			TokenBudget:         1500,
		},
		Consolidation: ConsolidationConfig{
			MaxAgeDays:          30,
			MinPatternSize:      3,
			SimilarityThreshold: 0.4,
			LowImportanceCutoff: 0.3,
			AccessCountCutoff:   2,
			Summarizer:          "heuristic",
		},
	}

	if path := os.Getenv("SYNAPSE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if root := os.Getenv("SYNAPSE_DATA_ROOT"); root != "" {
		cfg.DataRoot.Path = root
	}
	if level := os.Getenv("SYNAPSE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("SYNAPSE_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if provider := os.Getenv("SYNAPSE_EMBEDDING_PROVIDER"); provider != "" {
		cfg.Embedding.Provider = provider
	}
	if endpoint := os.Getenv("SYNAPSE_EMBEDDING_ENDPOINT"); endpoint != "" {
		cfg.Embedding.Endpoint = endpoint
	}
	if dim := os.Getenv("SYNAPSE_EMBEDDING_DIMENSION"); dim != "" {
		v, err := strconv.Atoi(dim)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SYNAPSE_EMBEDDING_DIMENSION: %w", err)
		}
		cfg.Embedding.Dimension = v
	}
	if summarizer := os.Getenv("SYNAPSE_SUMMARIZER"); summarizer != "" {
		cfg.Consolidation.Summarizer = summarizer
	}
	if model := os.Getenv("SYNAPSE_SUMMARIZER_MODEL"); model != "" {
		cfg.Consolidation.SummarizerModel = model
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// OwnerRoot returns the per-owner persisted layout root (spec §6).
func (c Config) OwnerRoot(ownerID string) string {
	return filepath.Join(c.DataRoot.Path, ownerID)
}
