package store

import "errors"

// Sentinel errors returned by both AgentStore and PromptStore, matching the
// idiom internal/storage uses for its in-memory stores.
var (
	ErrNotFound      = errors.New("store: record not found")
	ErrAlreadyExists = errors.New("store: record already exists")
	ErrLocked        = errors.New("store: record is locked")
)
