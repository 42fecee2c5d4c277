// Package memory wires the Primary Store, Vector Index, Association
// Graph, Synthesis Layer, and Consolidation Engine behind the Universal
// Write Path and Access Control layers (spec §4.1, §4.7), exposing the
// full operation surface from spec §6. One Service instance serves every
// owner; per-owner state is opened lazily and guarded by a per-owner
// mutex, matching the teacher's per-tenant isolation model generalized
// to this spec's single-file-locked-per-owner concurrency design (§5).
package memory

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rpggio/synapse/internal/audit"
	"github.com/rpggio/synapse/internal/config"
	"github.com/rpggio/synapse/internal/consolidation"
	"github.com/rpggio/synapse/internal/domain/team"
	"github.com/rpggio/synapse/internal/embedding"
	"github.com/rpggio/synapse/internal/graph"
	"github.com/rpggio/synapse/internal/store"
	"github.com/rpggio/synapse/internal/vector"
)

// ownerState bundles every in-process structure scoped to a single
// owner. All access goes through mu, the single mutex spec §5 mandates
// per owner.
type ownerState struct {
	mu       sync.Mutex
	ownerID  string
	db       *store.DB
	index    *store.Index
	segments *store.Segments
	graph    *graph.Graph
	vectors  *vector.HNSW
	auditLog *audit.Log
}

// Service is the single entry point for every memory operation in spec
// §6's surface.
type Service struct {
	cfg        config.Config
	logger     *slog.Logger
	embed      embedding.Provider
	teams      *team.Service
	summarizer consolidation.Summarizer

	mu     sync.RWMutex
	owners map[string]*ownerState
}

// New wires a Service from configuration, an embedding provider, and a
// team service (itself backed by the shared cross-owner database). The
// consolidation summarizer is resolved from cfg.Consolidation.Summarizer,
// falling back to the deterministic HeuristicSummarizer on any
// misconfiguration (spec §4.6's summary is never allowed to block
// archival).
func New(cfg config.Config, embed embedding.Provider, teams *team.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	summarizer := consolidation.Summarizer(consolidation.HeuristicSummarizer{})
	if cfg.Consolidation.Summarizer == "anthropic" {
		anthropicSummarizer, err := consolidation.NewAnthropicSummarizer("", cfg.Consolidation.SummarizerModel)
		if err != nil {
			logger.Warn("anthropic summarizer unavailable, falling back to heuristic", "error", err)
		} else {
			summarizer = anthropicSummarizer
		}
	}
	return &Service{
		cfg:        cfg,
		logger:     logger,
		embed:      embed,
		teams:      teams,
		summarizer: summarizer,
		owners:     map[string]*ownerState{},
	}
}

// Teams exposes the team service so callers can run team_* operations
// through the same Service without reaching into internals.
func (s *Service) Teams() *team.Service { return s.teams }

func (s *Service) ownerState(ownerID string) (*ownerState, error) {
	s.mu.RLock()
	st, ok := s.owners[ownerID]
	s.mu.RUnlock()
	if ok {
		return st, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.owners[ownerID]; ok {
		return st, nil
	}

	root := s.cfg.OwnerRoot(ownerID)
	db, err := store.Open(root)
	if err != nil {
		return nil, fmt.Errorf("open owner store: %w", err)
	}
	segments, err := store.OpenSegments(root)
	if err != nil {
		return nil, fmt.Errorf("open owner segments: %w", err)
	}
	auditLog, err := audit.Open(root + "/audit.jsonl")
	if err != nil {
		return nil, fmt.Errorf("open owner audit log: %w", err)
	}

	idx := store.NewIndex(db)
	g := graph.New()
	if err := rebuildGraph(g, idx, ownerID); err != nil {
		return nil, err
	}
	vecIndex := vector.New(vector.DefaultConfig())
	if err := rebuildVectorIndex(vecIndex, s.embed, idx, ownerID); err != nil {
		s.logger.Warn("vector index rebuild incomplete", "owner_id", ownerID, "error", err)
	}

	st = &ownerState{
		ownerID:  ownerID,
		db:       db,
		index:    idx,
		segments: segments,
		graph:    g,
		vectors:  vecIndex,
		auditLog: auditLog,
	}
	s.owners[ownerID] = st
	return st, nil
}
