package store

import (
	"testing"

	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
)

func TestAgentStoreSeedsLockedDefaults(t *testing.T) {
	s, err := NewAgentStore(WithAgentStoreBasePath(t.TempDir()))
	if err != nil {
		t.Fatalf("NewAgentStore: %v", err)
	}
	agents := s.List()
	if len(agents) == 0 {
		t.Fatal("expected seeded default agents, got none")
	}
	for _, a := range agents {
		if !a.IsLocked {
			t.Fatalf("default agent %q should be locked", a.ID)
		}
	}
}

func TestAgentStoreCreateGet(t *testing.T) {
	s, err := NewAgentStore(WithAgentStoreBasePath(t.TempDir()))
	if err != nil {
		t.Fatalf("NewAgentStore: %v", err)
	}
	agent := &models.Agent{ID: "custom-1", Name: "Custom", MaxIterations: 5}
	if err := s.Create(agent); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := s.Get("custom-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Custom" {
		t.Fatalf("got name %q, want Custom", got.Name)
	}
}

func TestAgentStoreCreateGeneratesIDWhenEmpty(t *testing.T) {
	s, _ := NewAgentStore(WithAgentStoreBasePath(t.TempDir()))
	agent := &models.Agent{Name: "No ID Supplied", MaxIterations: 1}
	if err := s.Create(agent); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if agent.ID == "" {
		t.Fatal("expected Create to populate a generated id")
	}
	got, err := s.Get(agent.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "No ID Supplied" {
		t.Fatalf("got name %q", got.Name)
	}
}

func TestAgentStoreCreateDuplicateRejected(t *testing.T) {
	s, _ := NewAgentStore(WithAgentStoreBasePath(t.TempDir()))
	agent := &models.Agent{ID: "dup", Name: "Dup"}
	if err := s.Create(agent); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(agent); err != ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestAgentStoreLockedRejectsUpdateAndDelete(t *testing.T) {
	s, _ := NewAgentStore(WithAgentStoreBasePath(t.TempDir()))
	locked := s.List()[0]
	if err := s.Update(&models.Agent{ID: locked.ID, Name: "changed"}); err != ErrLocked {
		t.Fatalf("expected ErrLocked on update, got %v", err)
	}
	if err := s.Delete(locked.ID); err != ErrLocked {
		t.Fatalf("expected ErrLocked on delete, got %v", err)
	}
}

func TestAgentStoreUpdateIsIdempotent(t *testing.T) {
	s, _ := NewAgentStore(WithAgentStoreBasePath(t.TempDir()))
	agent := &models.Agent{ID: "idem", Name: "v1"}
	if err := s.Create(agent); err != nil {
		t.Fatalf("Create: %v", err)
	}
	update := &models.Agent{ID: "idem", Name: "v2"}
	if err := s.Update(update); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := s.Update(&models.Agent{ID: "idem", Name: "v2"}); err != nil {
		t.Fatalf("Update (repeat): %v", err)
	}
	got, err := s.Get("idem")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "v2" {
		t.Fatalf("got name %q, want v2", got.Name)
	}
}

func TestAgentStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewAgentStore(WithAgentStoreBasePath(dir))
	if err != nil {
		t.Fatalf("NewAgentStore: %v", err)
	}
	if err := s.Create(&models.Agent{ID: "persisted", Name: "P"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	reopened, err := NewAgentStore(WithAgentStoreBasePath(dir))
	if err != nil {
		t.Fatalf("NewAgentStore (reopen): %v", err)
	}
	got, err := reopened.Get("persisted")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Name != "P" {
		t.Fatalf("got name %q, want P", got.Name)
	}
}

func TestAgentStoreReset(t *testing.T) {
	s, _ := NewAgentStore(WithAgentStoreBasePath(t.TempDir()))
	if err := s.Create(&models.Agent{ID: "temp", Name: "Temp"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	reset, err := s.Reset()
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	for _, a := range reset {
		if a.ID == "temp" {
			t.Fatal("reset should not retain user-created agents")
		}
	}
	if _, err := s.Get("temp"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after reset, got %v", err)
	}
}

func TestValidateToolsReportsUnknown(t *testing.T) {
	available := map[string]struct{}{"web_search": {}, "url_fetch": {}}
	unknown := ValidateTools([]string{"web_search", "no_such_tool"}, available)
	if len(unknown) != 1 || unknown[0] != "no_such_tool" {
		t.Fatalf("got %v, want [no_such_tool]", unknown)
	}
}
