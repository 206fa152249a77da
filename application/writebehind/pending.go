package writebehind

import (
	"time"
)

// SyncStatus tracks whether a buffered write has reached the system of
// record.
type SyncStatus string

const (
	// StatusPending marks an entry accepted into the buffer but not yet
	// persisted to the system of record.
	StatusPending SyncStatus = "PENDING"

	// StatusSynced marks an entry the system of record has accepted.
	StatusSynced SyncStatus = "SYNCED"
)

// PendingWrite wraps a buffered value with its delivery state. Synced
// entries stay in the store as an audit trail; they are marked, never
// deleted, by the flush path.
type PendingWrite[V any] struct {
	Value      V          `json:"value" dynamodbav:"Value"`
	Status     SyncStatus `json:"status" dynamodbav:"Status"`
	RecordedAt time.Time  `json:"recorded_at" dynamodbav:"RecordedAt"`
	SyncedAt   time.Time  `json:"synced_at,omitempty" dynamodbav:"SyncedAt,omitempty"`
}

// Stats is a point-in-time snapshot of the buffer counters.
type Stats struct {
	Pending int64 `json:"pending"`
	Synced  int64 `json:"synced"`
	Errors  int64 `json:"errors"`
}
