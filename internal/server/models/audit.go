package models

import "time"

// AuditEvent records a security-relevant operation and its outcome.
type AuditEvent struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id,omitempty"`
	Identifier string    `json:"identifier,omitempty"`
	Operation  string    `json:"operation"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	Source     string    `json:"source,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
