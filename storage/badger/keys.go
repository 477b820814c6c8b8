package badger

import (
	"encoding/binary"

	"github.com/poiesic/ledgermatch/core"
)

// Key prefixes for different data types
const (
	userPrefix        = "usr:"
	transactionPrefix = "txn:"
	vectorPrefix      = "vec:"
	checkpointPrefix  = "chk:"
)

// makeUserKey generates a key for a user by ID.
// Keys sort by the raw bytes of the ID.
func makeUserKey(id string) []byte {
	return append([]byte(userPrefix), id...)
}

// makeTransactionKey generates a key for a transaction by ID.
func makeTransactionKey(id string) []byte {
	return append([]byte(transactionPrefix), id...)
}

// transactionIDFromKey strips the prefix from a transaction key.
func transactionIDFromKey(key []byte) string {
	return string(key[len(transactionPrefix):])
}

// makeVectorKey generates a key for a cached vector.
// Format: prefix + 8 byte BigEndian content ID
func makeVectorKey(id core.ID) []byte {
	buf := make([]byte, len(vectorPrefix)+8)
	offset := copy(buf, vectorPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return append([]byte(checkpointPrefix), processorType...)
}
