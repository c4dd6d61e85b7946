package auditlog

import (
	"encoding/json"
	"fmt"

	"github.com/Ngonie-x/warrant-register/internal/repository"
	"github.com/Ngonie-x/warrant-register/pkg/models"
	"github.com/doug-martin/goqu/v9"
)

type AuditLogRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *AuditLogRepository {
	return &AuditLogRepository{repository: r}
}

// PersistEntry appends one immutable row to the warranty audit trail.
func (r *AuditLogRepository) PersistEntry(entry models.AuditEntry) error {
	row := goqu.Record{
		"warranty_id": entry.WarrantyID,
		"action":      entry.Action,
		"created_at":  entry.CreatedAt,
	}

	if entry.PerformedBy != "" {
		row["performed_by"] = entry.PerformedBy
	}
	if entry.PerformedByName != "" {
		row["performed_by_name"] = entry.PerformedByName
	}
	if entry.IPAddress != "" {
		row["ip_address"] = entry.IPAddress
	}
	if entry.UserAgent != "" {
		row["user_agent"] = entry.UserAgent
	}

	if len(entry.OldValue) > 0 {
		oldJSON, err := json.Marshal(entry.OldValue)
		if err != nil {
			return fmt.Errorf("failed to marshal audit old value: %w", err)
		}
		row["old_value"] = oldJSON
	}
	if len(entry.NewValue) > 0 {
		newJSON, err := json.Marshal(entry.NewValue)
		if err != nil {
			return fmt.Errorf("failed to marshal audit new value: %w", err)
		}
		row["new_value"] = newJSON
	}

	query := r.repository.GoquDBWrapper.Insert("warranty_audit_log").Rows(row)

	if _, err := query.Executor().Exec(); err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

// GetWarrantyLog returns the trail for one record, newest first, optionally
// restricted to a single action.
func (r *AuditLogRepository) GetWarrantyLog(warrantyID int, action string) ([]models.AuditEntry, error) {
	query := r.repository.GoquDBWrapper.
		From(goqu.T("warranty_audit_log").As("a")).
		Select(
			goqu.I("a.id").As("id"),
			goqu.I("a.warranty_id").As("warranty_id"),
			goqu.I("a.action").As("action"),
			goqu.I("a.performed_by").As("performed_by"),
			goqu.I("a.performed_by_name").As("performed_by_name"),
			goqu.I("a.old_value").As("old_value"),
			goqu.I("a.new_value").As("new_value"),
			goqu.I("a.ip_address").As("ip_address"),
			goqu.I("a.user_agent").As("user_agent"),
			goqu.I("a.created_at").As("created_at"),
		).
		Where(goqu.Ex{"a.warranty_id": warrantyID}).
		Order(goqu.I("a.created_at").Desc())

	if action != "" {
		query = query.Where(goqu.Ex{"a.action": action})
	}

	var flatEntries []models.FlatAuditEntry
	if err := query.Executor().ScanStructs(&flatEntries); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	entries := make([]models.AuditEntry, len(flatEntries))
	for i, flat := range flatEntries {
		entries[i] = flat.TransformToEntry()
	}

	return entries, nil
}
