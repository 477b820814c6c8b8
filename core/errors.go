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


package core

import "errors"

// Domain errors
var (
	// ErrProviderFailure indicates the embedding provider could not produce a vector.
	ErrProviderFailure = errors.New("embedding provider failure")

	// ErrDimensionMismatch indicates two vectors of different length were compared.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidEntity indicates a NamedEntity failed validation.
	ErrInvalidEntity = errors.New("invalid named entity")

	// ErrInvalidItem indicates a DescribedItem failed validation.
	ErrInvalidItem = errors.New("invalid described item")

	// ErrEmptyID indicates the ID field is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrEmptyQuery indicates a caller supplied blank query text where text is required.
	ErrEmptyQuery = errors.New("query cannot be empty")
)
