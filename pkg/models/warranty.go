package models

import (
	"database/sql"
	"time"

	"github.com/Ngonie-x/warrant-register/pkg/metadata"
	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// WarrantyRecord is the registration stored for a single external asset.
// There is at most one record per AssetExternalID.
type WarrantyRecord struct {
	ID                     int              `json:"id" db:"id"`
	AssetExternalID        int64            `json:"asset_external_id" db:"asset_external_id"`
	AssetName              string           `json:"asset_name" db:"asset_name"`
	Category               *string          `json:"category,omitempty" db:"category"`
	Department             *string          `json:"department,omitempty" db:"department"`
	Cost                   *decimal.Decimal `json:"cost,omitempty" db:"cost"`
	DatePurchased          *time.Time       `json:"date_purchased,omitempty" db:"date_purchased"`
	AssetCreatedBy         *string          `json:"asset_created_by,omitempty" db:"asset_created_by"`
	AssetCreatedAt         *time.Time       `json:"asset_created_at,omitempty" db:"asset_created_at"`
	Status                 metadata.Status  `json:"status" db:"status"`
	StatusLabel            string           `json:"status_label" db:"-"`
	RegisteredByExternalID *string          `json:"registered_by_external_id,omitempty" db:"registered_by_external_id"`
	RegisteredByName       *string          `json:"registered_by_name,omitempty" db:"registered_by_name"`
	RegisteredAt           time.Time        `json:"registered_at" db:"registered_at"`
	UpdatedAt              time.Time        `json:"updated_at" db:"updated_at"`
	WarrantyStartDate      *time.Time       `json:"warranty_start_date,omitempty" db:"warranty_start_date"`
	WarrantyEndDate        *time.Time       `json:"warranty_end_date,omitempty" db:"warranty_end_date"`
	WarrantyDurationMonths int              `json:"warranty_duration_months" db:"warranty_duration_months"`
	Notes                  *string          `json:"notes,omitempty" db:"notes"`
	SerialNumber           *string          `json:"serial_number,omitempty" db:"serial_number"`
	Manufacturer           *string          `json:"manufacturer,omitempty" db:"manufacturer"`
	ModelNumber            *string          `json:"model_number,omitempty" db:"model_number"`
	DeletedAt              *time.Time       `json:"-" db:"deleted_at"`
}

// IsActive reports whether the warranty window still covers the given moment.
// Records without an end date are treated as active.
func (w *WarrantyRecord) IsActive(now time.Time) bool {
	if w.WarrantyEndDate == nil {
		return true
	}
	return !now.Truncate(24 * time.Hour).After(*w.WarrantyEndDate)
}

// DaysUntilExpiry returns nil when no end date is set.
func (w *WarrantyRecord) DaysUntilExpiry(now time.Time) *int {
	if w.WarrantyEndDate == nil {
		return nil
	}
	days := int(w.WarrantyEndDate.Sub(now.Truncate(24*time.Hour)).Hours() / 24)
	return &days
}

// Snapshot captures the auditable fields of the record as a flat map. Two
// snapshots of the same record shape are diffed by the audit recorder, so keys
// and value formats must stay stable.
func (w *WarrantyRecord) Snapshot() map[string]interface{} {
	snap := map[string]interface{}{
		"asset_external_id":        w.AssetExternalID,
		"asset_name":               w.AssetName,
		"status":                   w.Status.String(),
		"warranty_duration_months": w.WarrantyDurationMonths,
	}
	if w.Category != nil {
		snap["category"] = *w.Category
	}
	if w.Department != nil {
		snap["department"] = *w.Department
	}
	if w.Cost != nil {
		snap["cost"] = w.Cost.String()
	}
	if w.DatePurchased != nil {
		snap["date_purchased"] = w.DatePurchased.Format(DateLayout)
	}
	if w.WarrantyStartDate != nil {
		snap["warranty_start_date"] = w.WarrantyStartDate.Format(DateLayout)
	}
	if w.WarrantyEndDate != nil {
		snap["warranty_end_date"] = w.WarrantyEndDate.Format(DateLayout)
	}
	if w.RegisteredByExternalID != nil {
		snap["registered_by_external_id"] = *w.RegisteredByExternalID
	}
	if w.RegisteredByName != nil {
		snap["registered_by_name"] = *w.RegisteredByName
	}
	if w.Notes != nil {
		snap["notes"] = *w.Notes
	}
	if w.SerialNumber != nil {
		snap["serial_number"] = *w.SerialNumber
	}
	if w.Manufacturer != nil {
		snap["manufacturer"] = *w.Manufacturer
	}
	if w.ModelNumber != nil {
		snap["model_number"] = *w.ModelNumber
	}
	return snap
}

// FlatWarrantyRecord mirrors the warranty_registrations row for scanning.
type FlatWarrantyRecord struct {
	ID                     int                 `db:"id"`
	AssetExternalID        int64               `db:"asset_external_id"`
	AssetName              string              `db:"asset_name"`
	Category               sql.NullString      `db:"category"`
	Department             sql.NullString      `db:"department"`
	Cost                   decimal.NullDecimal `db:"cost"`
	DatePurchased          sql.NullTime        `db:"date_purchased"`
	AssetCreatedBy         sql.NullString      `db:"asset_created_by"`
	AssetCreatedAt         sql.NullTime        `db:"asset_created_at"`
	Status                 string              `db:"status"`
	RegisteredByExternalID sql.NullString      `db:"registered_by_external_id"`
	RegisteredByName       sql.NullString      `db:"registered_by_name"`
	RegisteredAt           time.Time           `db:"registered_at"`
	UpdatedAt              time.Time           `db:"updated_at"`
	WarrantyStartDate      sql.NullTime        `db:"warranty_start_date"`
	WarrantyEndDate        sql.NullTime        `db:"warranty_end_date"`
	WarrantyDurationMonths int                 `db:"warranty_duration_months"`
	Notes                  sql.NullString      `db:"notes"`
	SerialNumber           sql.NullString      `db:"serial_number"`
	Manufacturer           sql.NullString      `db:"manufacturer"`
	ModelNumber            sql.NullString      `db:"model_number"`
	DeletedAt              sql.NullTime        `db:"deleted_at"`
}

func (f *FlatWarrantyRecord) TransformToRecord() WarrantyRecord {
	status := metadata.Status(f.Status)

	record := WarrantyRecord{
		ID:                     f.ID,
		AssetExternalID:        f.AssetExternalID,
		AssetName:              f.AssetName,
		Category:               nullStringPtr(f.Category),
		Department:             nullStringPtr(f.Department),
		DatePurchased:          nullTimePtr(f.DatePurchased),
		AssetCreatedBy:         nullStringPtr(f.AssetCreatedBy),
		AssetCreatedAt:         nullTimePtr(f.AssetCreatedAt),
		Status:                 status,
		StatusLabel:            status.Label(),
		RegisteredByExternalID: nullStringPtr(f.RegisteredByExternalID),
		RegisteredByName:       nullStringPtr(f.RegisteredByName),
		RegisteredAt:           f.RegisteredAt,
		UpdatedAt:              f.UpdatedAt,
		WarrantyStartDate:      nullTimePtr(f.WarrantyStartDate),
		WarrantyEndDate:        nullTimePtr(f.WarrantyEndDate),
		WarrantyDurationMonths: f.WarrantyDurationMonths,
		Notes:                  nullStringPtr(f.Notes),
		SerialNumber:           nullStringPtr(f.SerialNumber),
		Manufacturer:           nullStringPtr(f.Manufacturer),
		ModelNumber:            nullStringPtr(f.ModelNumber),
		DeletedAt:              nullTimePtr(f.DeletedAt),
	}

	if f.Cost.Valid {
		cost := f.Cost.Decimal
		record.Cost = &cost
	}

	return record
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
