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

package storage

import "errors"

// Errors returned by repositories. Callers match them with errors.Is.
var (
	// ErrNotFound is returned when a user or transaction id has no record.
	ErrNotFound = errors.New("record not found")

	// ErrStorageClosed is returned by every operation after the store is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed wraps encode and decode failures of stored records.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData means a stored vector is shorter than its length prefix.
	ErrTruncatedData = errors.New("truncated data")
)
