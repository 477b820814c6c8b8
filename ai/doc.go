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


// Package ai provides the embedding abstractions used by the similarity ranker.
//
// The ranker depends only on the Embedder interface. Concrete providers live in
// sub-packages:
//
//   - ai/local: runs a sentence-transformers model in process via cybertron
//   - ai/openai: OpenAI-compatible HTTP APIs (OpenAI, LocalAI, vLLM, Ollama's /v1)
//   - ai/ollama: the native Ollama embedding API
//   - ai/cache: an Embedder decorator that persists vectors in a VectorCache
//   - ai/mock: deterministic test doubles
//
// # Constructor Return Type Pattern
//
// Public provider constructors return the ai.Provider / ai.Embedder interfaces.
// Test doubles return concrete types so tests can inject behavior and read call counts.
//
//	provider, err := local.NewProvider(ai.DefaultConfig())  // returns ai.Provider
//	mockEmbed := mock.NewMockEmbedder()                     // returns *mock.MockEmbedder
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithBackend(ai.BackendOllama), ai.WithModel("nomic-embed-text"))
//	provider, err := ollama.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "coffee at the airport")
package ai
