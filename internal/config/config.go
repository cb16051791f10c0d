// Package config centralizes the process's environment-variable
// configuration into a single constructed struct, the way the teacher's
// internal/config package centralizes theirs, rather than scattering
// os.Getenv calls across components.
package config

import "os"

const (
	defaultWSURL   = "ws://localhost:8787/connect?device=desktop"
	defaultHTTPURL = "https://api.anthropic.com"
)

// Config holds every externally supplied setting named in the external
// interfaces contract.
type Config struct {
	// WorkerWSURL overrides the relay WebSocket URL.
	WorkerWSURL string
	// WorkerHTTPURL overrides the HTTP base used by the LLM adapter.
	WorkerHTTPURL string
	// CFAPIToken, when set, is forwarded as a bearer credential on LLM calls.
	CFAPIToken string
	// RustLog configures log verbosity (see internal/logging).
	RustLog string
	// ConfigDir overrides the OS user-config directory the stores persist
	// under. Empty means "use os.UserConfigDir()".
	ConfigDir string
}

// Load reads the configuration from the process environment.
func Load() Config {
	return Config{
		WorkerWSURL:   orDefault(os.Getenv("WORKER_WS_URL"), defaultWSURL),
		WorkerHTTPURL: orDefault(os.Getenv("WORKER_HTTP_URL"), defaultHTTPURL),
		CFAPIToken:    os.Getenv("CF_API_TOKEN"),
		RustLog:       os.Getenv("RUST_LOG"),
		ConfigDir:     os.Getenv("CONFIG_DIR"),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
