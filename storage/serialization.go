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

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/ledgermatch/core"
)

// MarshalNamedEntity serializes a NamedEntity to bytes.
func MarshalNamedEntity(entity *core.NamedEntity) []byte {
	buf := make([]byte, ord.String.Size(entity.ID)+ord.String.Size(entity.Name))
	n := ord.String.Marshal(entity.ID, buf)
	ord.String.Marshal(entity.Name, buf[n:])
	return buf
}

// UnmarshalNamedEntity deserializes a NamedEntity from bytes.
func UnmarshalNamedEntity(data []byte) (*core.NamedEntity, error) {
	id, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: entity id: %w", ErrSerializationFailed, err)
	}
	name, _, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: entity name: %w", ErrSerializationFailed, err)
	}
	return &core.NamedEntity{ID: id, Name: name}, nil
}

// MarshalDescribedItem serializes a DescribedItem to bytes.
// Fields are written in key order so equal items encode identically.
func MarshalDescribedItem(item *core.DescribedItem) []byte {
	keys := sortedKeys(item.Fields)

	size := ord.String.Size(item.ID) + ord.String.Size(item.Description) + varint.Int.Size(len(keys))
	for _, k := range keys {
		size += ord.String.Size(k) + ord.String.Size(item.Fields[k])
	}

	buf := make([]byte, size)
	n := ord.String.Marshal(item.ID, buf)
	n += ord.String.Marshal(item.Description, buf[n:])
	n += varint.Int.Marshal(len(keys), buf[n:])
	for _, k := range keys {
		n += ord.String.Marshal(k, buf[n:])
		n += ord.String.Marshal(item.Fields[k], buf[n:])
	}
	return buf
}

// UnmarshalDescribedItem deserializes a DescribedItem from bytes.
func UnmarshalDescribedItem(data []byte) (*core.DescribedItem, error) {
	var (
		item core.DescribedItem
		off  int
	)
	id, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: item id: %w", ErrSerializationFailed, err)
	}
	off += n
	item.ID = id

	desc, n, err := ord.String.Unmarshal(data[off:])
	if err != nil {
		return nil, fmt.Errorf("%w: item description: %w", ErrSerializationFailed, err)
	}
	off += n
	item.Description = desc

	count, n, err := varint.Int.Unmarshal(data[off:])
	if err != nil {
		return nil, fmt.Errorf("%w: item field count: %w", ErrSerializationFailed, err)
	}
	off += n
	if count > 0 {
		item.Fields = make(map[string]string, count)
	}
	for i := 0; i < count; i++ {
		k, n, err := ord.String.Unmarshal(data[off:])
		if err != nil {
			return nil, fmt.Errorf("%w: item field key: %w", ErrSerializationFailed, err)
		}
		off += n
		v, n, err := ord.String.Unmarshal(data[off:])
		if err != nil {
			return nil, fmt.Errorf("%w: item field value: %w", ErrSerializationFailed, err)
		}
		off += n
		item.Fields[k] = v
	}
	return &item, nil
}

// MarshalVector serializes an embedding vector as a length prefix followed by
// fixed-width float32 values.
func MarshalVector(vector []float32) []byte {
	size := varint.Int.Size(len(vector))
	for _, v := range vector {
		size += raw.Float32.Size(v)
	}
	buf := make([]byte, size)
	n := varint.Int.Marshal(len(vector), buf)
	for _, v := range vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	return buf
}

// UnmarshalVector deserializes an embedding vector from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	length, off, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: vector length: %w", ErrSerializationFailed, err)
	}
	if length < 0 || length*4 > len(data)-off {
		return nil, ErrTruncatedData
	}
	vector := make([]float32, length)
	for i := range vector {
		v, n, err := raw.Float32.Unmarshal(data[off:])
		if err != nil {
			return nil, fmt.Errorf("%w: vector value: %w", ErrSerializationFailed, err)
		}
		off += n
		vector[i] = v
	}
	return vector, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	micros := checkpoint.UpdatedAt.UnixMicro()
	buf := make([]byte, ord.String.Size(checkpoint.ProcessorType)+
		ord.String.Size(checkpoint.LastID)+
		varint.Int64.Size(micros))
	n := ord.String.Marshal(checkpoint.ProcessorType, buf)
	n += ord.String.Marshal(checkpoint.LastID, buf[n:])
	varint.Int64.Marshal(micros, buf[n:])
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	processor, off, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: checkpoint processor: %w", ErrSerializationFailed, err)
	}
	lastID, n, err := ord.String.Unmarshal(data[off:])
	if err != nil {
		return nil, fmt.Errorf("%w: checkpoint id: %w", ErrSerializationFailed, err)
	}
	off += n
	micros, _, err := varint.Int64.Unmarshal(data[off:])
	if err != nil {
		return nil, fmt.Errorf("%w: checkpoint time: %w", ErrSerializationFailed, err)
	}
	return &core.Checkpoint{
		ProcessorType: processor,
		LastID:        lastID,
		UpdatedAt:     time.UnixMicro(micros).UTC(),
	}, nil
}
