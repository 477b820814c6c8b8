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


// Package storage provides the storage abstraction layer for ledgermatch.
//
// This package defines repository interfaces that decouple the matching and
// ranking services from the backing store. The default backend is BadgerDB,
// either on disk or fully in memory.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - UserRepository: named entities scored by the fuzzy matcher
//   - TransactionRepository: described items ranked by embedding similarity
//   - VectorCache: embedding vectors keyed by content, with optional TTL
//   - CheckpointRepository: progress markers for the cache warmer
//
// Records are encoded with mus-go serializers (see serialization.go).
//
// # Usage
//
// Open a store:
//
//	store, err := badger.Open("/path/to/db", badger.WithVectorTTL(time.Hour))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryStore()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
