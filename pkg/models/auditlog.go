package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionStatusChanged = "status_changed"
	ActionDeleted       = "deleted"
)

// Actor identifies who performed a mutation and where it came from. The ID is
// a free-form identifier so actors outside the local user table can be
// recorded as well.
type Actor struct {
	ID        string
	Name      string
	IPAddress string
	UserAgent string
}

// SystemActor is used for mutations performed by background jobs.
var SystemActor = Actor{ID: "system", Name: "system"}

// AuditEntry is one append-only row in a record's audit trail. OldValue and
// NewValue hold only the fields that actually changed.
type AuditEntry struct {
	ID              int                    `json:"id" db:"id"`
	WarrantyID      int                    `json:"warranty_id" db:"warranty_id"`
	Action          string                 `json:"action" db:"action"`
	PerformedBy     string                 `json:"performed_by" db:"performed_by"`
	PerformedByName string                 `json:"performed_by_name,omitempty" db:"performed_by_name"`
	OldValue        map[string]interface{} `json:"old_value,omitempty" db:"-"`
	NewValue        map[string]interface{} `json:"new_value,omitempty" db:"-"`
	IPAddress       string                 `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent       string                 `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt       time.Time              `json:"timestamp" db:"created_at"`
}

// FlatAuditEntry mirrors the warranty_audit_log row for scanning.
type FlatAuditEntry struct {
	ID              int            `db:"id"`
	WarrantyID      int            `db:"warranty_id"`
	Action          string         `db:"action"`
	PerformedBy     sql.NullString `db:"performed_by"`
	PerformedByName sql.NullString `db:"performed_by_name"`
	OldValueRaw     []byte         `db:"old_value"`
	NewValueRaw     []byte         `db:"new_value"`
	IPAddress       sql.NullString `db:"ip_address"`
	UserAgent       sql.NullString `db:"user_agent"`
	CreatedAt       time.Time      `db:"created_at"`
}

func (f *FlatAuditEntry) TransformToEntry() AuditEntry {
	entry := AuditEntry{
		ID:              f.ID,
		WarrantyID:      f.WarrantyID,
		Action:          f.Action,
		PerformedBy:     f.PerformedBy.String,
		PerformedByName: f.PerformedByName.String,
		IPAddress:       f.IPAddress.String,
		UserAgent:       f.UserAgent.String,
		CreatedAt:       f.CreatedAt,
	}

	if len(f.OldValueRaw) > 0 {
		_ = json.Unmarshal(f.OldValueRaw, &entry.OldValue)
	}
	if len(f.NewValueRaw) > 0 {
		_ = json.Unmarshal(f.NewValueRaw, &entry.NewValue)
	}

	return entry
}
