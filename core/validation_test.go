package core

import (
	"errors"
	"testing"
)

func TestValidateNamedEntity(t *testing.T) {
	tests := []struct {
		name    string
		entity  *NamedEntity
		wantErr error
	}{
		{
			name:    "valid entity",
			entity:  &NamedEntity{ID: "u1", Name: "alice"},
			wantErr: nil,
		},
		{
			name:    "empty name is allowed",
			entity:  &NamedEntity{ID: "u1"},
			wantErr: nil,
		},
		{
			name:    "nil entity",
			entity:  nil,
			wantErr: ErrInvalidEntity,
		},
		{
			name:    "blank id",
			entity:  &NamedEntity{ID: "  ", Name: "alice"},
			wantErr: ErrEmptyID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNamedEntity(tt.entity)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateNamedEntity() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateNamedEntity() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDescribedItem(t *testing.T) {
	tests := []struct {
		name    string
		item    *DescribedItem
		wantErr error
	}{
		{
			name:    "valid item",
			item:    &DescribedItem{ID: "t1", Description: "coffee"},
			wantErr: nil,
		},
		{
			name:    "nil item",
			item:    nil,
			wantErr: ErrInvalidItem,
		},
		{
			name:    "empty id",
			item:    &DescribedItem{Description: "coffee"},
			wantErr: ErrEmptyID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDescribedItem(tt.item)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDescribedItem() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDescribedItem() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidItem) {
				t.Errorf("ValidateDescribedItem() error = %v, want wrapped %v", err, ErrInvalidItem)
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	if err := ValidateQuery("coffee shop"); err != nil {
		t.Errorf("ValidateQuery() unexpected error = %v", err)
	}
	if err := ValidateQuery(" \t "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("ValidateQuery() error = %v, want %v", err, ErrEmptyQuery)
	}
}
