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

import (
	"fmt"
	"strings"
)

// ValidateNamedEntity validates a NamedEntity before it is stored.
//
// Validation rules:
//   - ID must not be blank
//
// An empty Name is allowed; it can only ever match an empty description.
func ValidateNamedEntity(entity *NamedEntity) error {
	if entity == nil {
		return fmt.Errorf("%w: entity is nil", ErrInvalidEntity)
	}
	if strings.TrimSpace(entity.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrEmptyID)
	}
	return nil
}

// ValidateDescribedItem validates a DescribedItem before it is stored.
//
// Validation rules:
//   - ID must not be blank
func ValidateDescribedItem(item *DescribedItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidItem)
	}
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyID)
	}
	return nil
}

// ValidateQuery rejects queries that contain no text.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	return nil
}
