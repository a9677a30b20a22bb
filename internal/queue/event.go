// Package queue defines message payloads exchanged over the message broker.
package queue

// SessionQueueName is the durable queue session events are published to.
const SessionQueueName = "auth.session"

// Session event kinds published to the auth.session queue.
const (
	SessionLogin   = "login"
	SessionRefresh = "refresh"
	SessionLogout  = "logout"
)

// SessionEvent is published whenever a refresh-token family changes hands:
// a login issues one, a refresh rotates one, a logout revokes one. It
// carries enough information for downstream consumers to audit or alert
// without querying the primary database. Raw tokens never appear in events.
type SessionEvent struct {
	Kind     string `json:"kind"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	At       string `json:"at"` // RFC3339 UTC
}
