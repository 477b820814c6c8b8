// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Backend selects the embedding implementation.
type Backend string

const (
	// BackendLocal runs a sentence-transformers model in process on the CPU.
	BackendLocal Backend = "local"
	// BackendOpenAI talks to an OpenAI-compatible /v1/embeddings endpoint.
	BackendOpenAI Backend = "openai"
	// BackendOllama talks to the native Ollama API.
	BackendOllama Backend = "ollama"
)

// ParseBackend converts a configuration string to a Backend.
func ParseBackend(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case BackendLocal, BackendOpenAI, BackendOllama:
		return b, nil
	default:
		return "", fmt.Errorf("ai config: unknown backend %q", s)
	}
}

// Config holds configuration for embedding providers.
type Config struct {
	// Backend selects the provider implementation.
	// Default: BackendLocal
	Backend Backend

	// Host is the base URL of a remote embedding service.
	// Ignored by the local backend.
	// Example: "http://localhost:11434" for Ollama
	Host string

	// Model is the embedding model identifier.
	// Example: "sentence-transformers/all-MiniLM-L6-v2", "nomic-embed-text"
	Model string

	// ModelsDir is where the local backend downloads and caches model files.
	ModelsDir string

	// Token is the API key sent to OpenAI-compatible services.
	// Local services accept any value.
	Token string

	// BatchSize is the maximum number of texts sent in one provider request.
	BatchSize int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the provider backend.
func WithBackend(backend Backend) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithHost sets the remote service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithModelsDir sets the model cache directory for the local backend.
func WithModelsDir(dir string) ConfigOption {
	return func(c *Config) {
		c.ModelsDir = dir
	}
}

// WithToken sets the API token for OpenAI-compatible services.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithBatchSize sets the provider request batch size.
func WithBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = size
	}
}

// DefaultConfig returns a Config that runs all-MiniLM-L6-v2 locally.
func DefaultConfig() *Config {
	return &Config{
		Backend:   BackendLocal,
		Host:      "http://localhost:11434",
		Model:     "sentence-transformers/all-MiniLM-L6-v2",
		ModelsDir: "models",
		Token:     "none",
		BatchSize: 64,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithBackend(BackendOllama),
//	    WithModel("nomic-embed-text"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize puts the configuration in canonical form.
// OpenAI-compatible hosts get a /v1 suffix; Ollama hosts lose it, since the native
// API lives at the server root.
func (c *Config) Normalize() {
	c.Backend = Backend(strings.ToLower(strings.TrimSpace(string(c.Backend))))
	c.Host = strings.TrimSuffix(strings.TrimSpace(c.Host), "/")

	switch c.Backend {
	case BackendOpenAI:
		if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
			c.Host = c.Host + "/v1"
		}
	case BackendOllama:
		c.Host = strings.TrimSuffix(c.Host, "/v1")
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.BatchSize < 1 {
		return errors.New("ai config: BatchSize must be at least 1")
	}
	switch c.Backend {
	case BackendLocal:
		if c.ModelsDir == "" {
			return errors.New("ai config: ModelsDir is required for the local backend")
		}
	default:
		if c.Host == "" {
			return errors.New("ai config: Host is required")
		}
	}
	return nil
}
