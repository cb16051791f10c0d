package store

import (
	"testing"

	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
)

func TestPromptStoreSeedsLockedDefaults(t *testing.T) {
	s, err := NewPromptStore(WithPromptStoreBasePath(t.TempDir()))
	if err != nil {
		t.Fatalf("NewPromptStore: %v", err)
	}
	prompts := s.List()
	if len(prompts) == 0 {
		t.Fatal("expected seeded default prompts, got none")
	}
	for _, p := range prompts {
		if !p.IsLocked {
			t.Fatalf("default prompt %q should be locked", p.ID)
		}
	}
}

func TestPromptStoreCreateGeneratesIDWhenEmpty(t *testing.T) {
	s, _ := NewPromptStore(WithPromptStoreBasePath(t.TempDir()))
	prompt := &models.PromptTemplate{Name: "No ID Supplied", Body: "do the thing"}
	if err := s.Create(prompt); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if prompt.ID == "" {
		t.Fatal("expected Create to populate a generated id")
	}
	got, err := s.Get(prompt.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "No ID Supplied" {
		t.Fatalf("got name %q", got.Name)
	}
}

func TestPromptStoreResetRetainsBuiltins(t *testing.T) {
	s, _ := NewPromptStore(WithPromptStoreBasePath(t.TempDir()))
	before := len(s.List())
	if err := s.Create(&models.PromptTemplate{ID: "temp", Name: "Temp", Body: "x"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	reset, err := s.Reset()
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if len(reset) != before {
		t.Fatalf("expected reset to retain exactly the %d built-ins, got %d", before, len(reset))
	}
	if _, err := s.Get("temp"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after reset, got %v", err)
	}
}

func TestPromptStoreLockedRejectsUpdateAndDelete(t *testing.T) {
	s, _ := NewPromptStore(WithPromptStoreBasePath(t.TempDir()))
	locked := s.List()[0]
	if err := s.Update(&models.PromptTemplate{ID: locked.ID, Name: "changed"}); err != ErrLocked {
		t.Fatalf("expected ErrLocked on update, got %v", err)
	}
	if err := s.Delete(locked.ID); err != ErrLocked {
		t.Fatalf("expected ErrLocked on delete, got %v", err)
	}
}
