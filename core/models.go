package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived key used for storage entries that have no natural identifier,
// such as cached embedding vectors.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NamedEntity is a candidate identified by a single name, e.g. a user.
type NamedEntity struct {
	ID   string
	Name string
}

// DescribedItem is a candidate carrying free text, e.g. a transaction.
type DescribedItem struct {
	ID          string
	Description string
	Fields      map[string]string // Extra source columns, kept verbatim
}

// MatchScore is the best score a candidate achieved in one scoring call.
type MatchScore struct {
	CandidateID string
	Score       float64
}

// RankedResult is an ordered list of scores, descending by score then ascending by id.
// Count is the number of matches after filtering and before any truncation.
type RankedResult struct {
	Matches []MatchScore
	Count   int
}

// EmptyResult returns a result with no matches and a count of zero.
func EmptyResult() RankedResult {
	return RankedResult{Matches: []MatchScore{}, Count: 0}
}

// IDs returns the candidate ids in ranked order.
func (r RankedResult) IDs() []string {
	ids := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		ids[i] = m.CandidateID
	}
	return ids
}

// Checkpoint records how far a background processor has progressed.
type Checkpoint struct {
	ProcessorType string
	LastID        string
	UpdatedAt     time.Time
}
