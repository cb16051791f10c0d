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

const promptsFilename = "prompts.json"

// PromptStore mirrors AgentStore's persistence idiom for prompt templates.
// Its reset semantics differ from AgentStore's: reset_prompts retains
// built-in templates and only clears user-created ones, per spec.md §4.4.
type PromptStore struct {
	mu      sync.RWMutex
	path    string
	prompts map[string]*models.PromptTemplate
	logger  *slog.Logger
}

// PromptStoreOption configures a PromptStore.
type PromptStoreOption func(*PromptStore)

// WithPromptStoreBasePath overrides the directory the store persists under.
func WithPromptStoreBasePath(dir string) PromptStoreOption {
	return func(s *PromptStore) { s.path = filepath.Join(dir, promptsFilename) }
}

// WithPromptStoreLogger sets the store's logger.
func WithPromptStoreLogger(logger *slog.Logger) PromptStoreOption {
	return func(s *PromptStore) { s.logger = logger }
}

// NewPromptStore opens (or seeds) the prompt store.
func NewPromptStore(opts ...PromptStoreOption) (*PromptStore, error) {
	s := &PromptStore{
		prompts: make(map[string]*models.PromptTemplate),
		logger:  slog.Default().With("component", "store.prompts"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.path == "" {
		dir, err := defaultBaseDir()
		if err != nil {
			return nil, err
		}
		s.path = filepath.Join(dir, promptsFilename)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PromptStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s.seedLocked()
	}
	if err != nil {
		return fmt.Errorf("read prompts file: %w", err)
	}

	var prompts map[string]*models.PromptTemplate
	if err := json.Unmarshal(data, &prompts); err != nil {
		s.logger.Warn("corrupted prompts file, reseeding defaults", "error", err)
		return s.seedLocked()
	}
	if prompts == nil {
		prompts = make(map[string]*models.PromptTemplate)
	}
	s.prompts = prompts
	return nil
}

func (s *PromptStore) seedLocked() error {
	now := time.Now()
	s.prompts = make(map[string]*models.PromptTemplate)
	for _, p := range defaultPrompts(now) {
		s.prompts[p.ID] = p
	}
	return s.saveLocked()
}

func (s *PromptStore) saveLocked() error {
	data, err := json.MarshalIndent(s.prompts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal prompts: %w", err)
	}
	if err := writeAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write prompts file: %w", err)
	}
	return nil
}

// List returns every stored prompt template.
func (s *PromptStore) List() []*models.PromptTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.PromptTemplate, 0, len(s.prompts))
	for _, p := range s.prompts {
		out = append(out, p)
	}
	return out
}

// Get returns the prompt template with the given id.
func (s *PromptStore) Get(id string) (*models.PromptTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prompts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Create inserts a new prompt template, generating an id when the caller
// didn't supply one and rejecting a duplicate id otherwise.
func (s *PromptStore) Create(p *models.PromptTemplate) error {
	if p == nil {
		return fmt.Errorf("prompt is required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.prompts[p.ID]; exists {
		return ErrAlreadyExists
	}
	now := time.Now()
	p.Metadata.CreatedAt, p.Metadata.UpdatedAt = now, now
	p.Metadata.Version = 1
	s.prompts[p.ID] = p
	return s.saveLocked()
}

// Update replaces an existing, unlocked prompt template.
func (s *PromptStore) Update(p *models.PromptTemplate) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("prompt is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.prompts[p.ID]
	if !ok {
		return ErrNotFound
	}
	if existing.IsLocked {
		return ErrLocked
	}
	p.Metadata.CreatedAt = existing.Metadata.CreatedAt
	p.Metadata.UpdatedAt = time.Now()
	p.Metadata.Version = existing.Metadata.Version + 1
	p.IsLocked = false
	s.prompts[p.ID] = p
	return s.saveLocked()
}

// Delete removes an unlocked prompt template.
func (s *PromptStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.prompts[id]
	if !ok {
		return ErrNotFound
	}
	if existing.IsLocked {
		return ErrLocked
	}
	delete(s.prompts, id)
	return s.saveLocked()
}

// Reset clears every user-created (unlocked) prompt template, retaining the
// built-ins, and returns the resulting set.
func (s *PromptStore) Reset() ([]*models.PromptTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.prompts {
		if !p.IsLocked {
			delete(s.prompts, id)
		}
	}
	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	out := make([]*models.PromptTemplate, 0, len(s.prompts))
	for _, p := range s.prompts {
		out = append(out, p)
	}
	return out, nil
}
