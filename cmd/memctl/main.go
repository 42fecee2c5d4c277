// Command memctl is the operator maintenance CLI for the memory
// substrate: rebuilding degraded overlays, running a consolidation pass,
// and reporting per-owner stats. It never fronts turn-by-turn
// conversation, the excluded "interactive CLI" spec.md's non-goals name.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpggio/synapse/internal/config"
	"github.com/rpggio/synapse/internal/domain/team"
	"github.com/rpggio/synapse/internal/embedding"
	"github.com/rpggio/synapse/internal/memory"
	"github.com/rpggio/synapse/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "memctl",
	Short: "Operator maintenance commands for the synapse memory substrate",
}

func main() {
	rootCmd.AddCommand(rebuildOverlaysCmd)
	rootCmd.AddCommand(archiveOldCmd)
	rootCmd.AddCommand(statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and wires a memory.Service, the same
// dependency graph cmd/server/main.go assembles for the teacher's MCP
// entrypoint, minus the transport layer.
func bootstrap() (*memory.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logWriter := io.Writer(os.Stderr)
	if cfg.Log.Path != "" {
		fileWriter, _, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	sharedDB, err := store.OpenShared(cfg.DataRoot.Path)
	if err != nil {
		return nil, fmt.Errorf("open shared database: %w", err)
	}
	teamRepo := store.NewTeamRepository(sharedDB)
	teamSvc := team.NewService(teamRepo, logger)

	embedProvider, err := buildEmbeddingProvider(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("build embedding provider: %w", err)
	}

	return memory.New(cfg, embedProvider, teamSvc, logger), nil
}

func buildEmbeddingProvider(cfg config.EmbeddingConfig) (embedding.Provider, error) {
	switch cfg.Provider {
	case "http":
		apiKey := os.Getenv(cfg.APIKeyEnv)
		timeout := time.Duration(cfg.TimeoutSec) * time.Second
		return embedding.NewHTTP(cfg.Endpoint, apiKey, cfg.Dimension, timeout), nil
	default:
		return embedding.NewHeuristic(cfg.Dimension), nil
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogFileWriter(path string) (io.Writer, *os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return file, file, nil
}
