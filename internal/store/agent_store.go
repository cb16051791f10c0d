package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
)

const agentsFilename = "agents.json"

// AgentStore is a thread-safe in-memory map from agent id to record,
// persisted to agents.json under the OS user configuration directory.
// Grounded on internal/marketplace/store.go's load/save/mutex pattern,
// adapted from a single plugin index to an agent-keyed map, and on
// internal/storage/memory.go's CRUD method shapes and sentinel errors.
type AgentStore struct {
	mu     sync.RWMutex
	path   string
	agents map[string]*models.Agent
	logger *slog.Logger
}

// AgentStoreOption configures an AgentStore.
type AgentStoreOption func(*AgentStore)

// WithAgentStoreBasePath overrides the directory the store persists under.
func WithAgentStoreBasePath(dir string) AgentStoreOption {
	return func(s *AgentStore) { s.path = filepath.Join(dir, agentsFilename) }
}

// WithAgentStoreLogger sets the store's logger.
func WithAgentStoreLogger(logger *slog.Logger) AgentStoreOption {
	return func(s *AgentStore) { s.logger = logger }
}

// NewAgentStore opens (or seeds) the agent store.
func NewAgentStore(opts ...AgentStoreOption) (*AgentStore, error) {
	s := &AgentStore{
		agents: make(map[string]*models.Agent),
		logger: slog.Default().With("component", "store.agents"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.path == "" {
		dir, err := defaultBaseDir()
		if err != nil {
			return nil, err
		}
		s.path = filepath.Join(dir, agentsFilename)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func defaultBaseDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(dir, "cf-ai-local-tools"), nil
}

func (s *AgentStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s.seedLocked()
	}
	if err != nil {
		return fmt.Errorf("read agents file: %w", err)
	}

	var agents map[string]*models.Agent
	if err := json.Unmarshal(data, &agents); err != nil {
		s.logger.Warn("corrupted agents file, reseeding defaults", "error", err)
		return s.seedLocked()
	}
	if agents == nil {
		agents = make(map[string]*models.Agent)
	}
	s.agents = agents
	return nil
}

// seedLocked populates the in-memory map with the locked defaults and
// persists it. Caller must already hold s.mu.
func (s *AgentStore) seedLocked() error {
	now := time.Now()
	s.agents = make(map[string]*models.Agent)
	for _, a := range defaultAgents(now) {
		s.agents[a.ID] = a
	}
	return s.saveLocked()
}

func (s *AgentStore) saveLocked() error {
	data, err := json.MarshalIndent(s.agents, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal agents: %w", err)
	}
	if err := writeAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write agents file: %w", err)
	}
	return nil
}

// List returns every stored agent.
func (s *AgentStore) List() []*models.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a)
	}
	return out
}

// Get returns the agent with the given id.
func (s *AgentStore) Get(id string) (*models.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

// Create inserts a new agent, generating an id when the caller didn't
// supply one and rejecting a duplicate id otherwise.
func (s *AgentStore) Create(agent *models.Agent) error {
	if agent == nil {
		return fmt.Errorf("agent is required")
	}
	if agent.ID == "" {
		agent.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.agents[agent.ID]; exists {
		return ErrAlreadyExists
	}
	now := time.Now()
	agent.CreatedAt, agent.UpdatedAt = now, now
	s.agents[agent.ID] = agent
	return s.saveLocked()
}

// Update replaces an existing, unlocked agent.
func (s *AgentStore) Update(agent *models.Agent) error {
	if agent == nil || agent.ID == "" {
		return fmt.Errorf("agent is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.agents[agent.ID]
	if !ok {
		return ErrNotFound
	}
	if existing.IsLocked {
		return ErrLocked
	}
	agent.CreatedAt = existing.CreatedAt
	agent.UpdatedAt = time.Now()
	agent.IsLocked = false
	s.agents[agent.ID] = agent
	return s.saveLocked()
}

// Delete removes an unlocked agent.
func (s *AgentStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.agents[id]
	if !ok {
		return ErrNotFound
	}
	if existing.IsLocked {
		return ErrLocked
	}
	delete(s.agents, id)
	return s.saveLocked()
}

// ValidateTools reports every tool identifier on the agent that does not
// appear in the supplied available set.
func ValidateTools(tools []string, available map[string]struct{}) []string {
	var unknown []string
	for _, t := range tools {
		if _, ok := available[t]; !ok {
			unknown = append(unknown, t)
		}
	}
	return unknown
}

// Reset clears the store and reinstates the locked defaults, returning the
// resulting agent set.
func (s *AgentStore) Reset() ([]*models.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.seedLocked(); err != nil {
		return nil, err
	}
	out := make([]*models.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a)
	}
	return out, nil
}
