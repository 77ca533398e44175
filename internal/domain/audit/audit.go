// Package audit defines the side-channel audit trail written for every
// order mutation. Recording is best effort: a failed audit write is logged
// by the caller and never rolls back the business mutation.
package audit

import (
	"context"
	"time"
)

// Actions recorded by the order core.
const (
	ActionCreate       = "CREATE"
	ActionStatusUpdate = "STATUS_UPDATE"
	ActionHide         = "HIDE"
	ActionDiscount     = "DISCOUNT"
)

// Entry is one audit record: who did what to which entity, with before and
// after snapshots.
type Entry struct {
	Entity    string
	EntityID  string
	Action    string
	ActorID   string
	OldValue  string
	NewValue  string
	CreatedAt time.Time
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}
