package model

import "time"

// Activity is an audit record of a state-changing action. It is created
// not-live before the action's handler runs, promoted to live when the action
// succeeds, and deleted when it fails. Its lifecycle is strictly scoped to a
// single request.
type Activity struct {
	ID          int64
	Type        string
	Kind        string
	OwnerID     int64
	DocumentRef string // Public ID of the affected document, if any.
	Metadata    map[string]any
	IsLive      bool
	CreatedAt   time.Time
}
