package models

import (
	"strings"
	"time"

	custom_error "github.com/Ngonie-x/warrant-register/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	DefaultWarrantyMonths = 12
	MaxWarrantyMonths     = 120
)

// RegisterWarrantyRequest is the asset payload pushed by the external
// asset-management system when a user registers a warranty.
type RegisterWarrantyRequest struct {
	AssetExternalID        int64            `json:"id"`
	AssetName              string           `json:"name"`
	Category               string           `json:"category"`
	Department             string           `json:"department"`
	Cost                   *decimal.Decimal `json:"cost"`
	DatePurchased          string           `json:"date_purchased"`
	CreatedBy              string           `json:"created_by"`
	CreatedAt              *time.Time       `json:"created_at"`
	RegisteredByID         string           `json:"registered_by_id"`
	RegisteredByName       string           `json:"registered_by_name"`
	WarrantyDurationMonths int              `json:"warranty_duration_months"`
	SerialNumber           string           `json:"serial_number"`
	Manufacturer           string           `json:"manufacturer"`
	ModelNumber            string           `json:"model_number"`
	Notes                  string           `json:"notes"`
}

// Validate checks the payload before any domain object is built from it. A
// zero duration means "not provided" and falls back to the default.
func (r *RegisterWarrantyRequest) Validate() error {
	problems := map[string]string{}

	if r.AssetExternalID <= 0 {
		problems["id"] = "asset id is required and must be a positive integer"
	}
	if strings.TrimSpace(r.AssetName) == "" {
		problems["name"] = "asset name is required"
	}
	if r.WarrantyDurationMonths < 0 || r.WarrantyDurationMonths > MaxWarrantyMonths {
		problems["warranty_duration_months"] = "must be between 1 and 120"
	}
	if r.DatePurchased != "" {
		if _, err := time.Parse(DateLayout, r.DatePurchased); err != nil {
			problems["date_purchased"] = "must be a valid date in YYYY-MM-DD format"
		}
	}

	if len(problems) > 0 {
		return custom_error.NewValidationError(problems)
	}
	return nil
}

// PurchaseDate returns the parsed purchase date, or nil when absent. Call
// Validate first; a malformed date is treated as absent here.
func (r *RegisterWarrantyRequest) PurchaseDate() *time.Time {
	if r.DatePurchased == "" {
		return nil
	}
	d, err := time.Parse(DateLayout, r.DatePurchased)
	if err != nil {
		return nil
	}
	return &d
}

// DurationMonths applies the default for omitted durations.
func (r *RegisterWarrantyRequest) DurationMonths() int {
	if r.WarrantyDurationMonths == 0 {
		return DefaultWarrantyMonths
	}
	return r.WarrantyDurationMonths
}

// UpdateWarrantyRequest carries a partial update; nil fields stay untouched.
// Status is deliberately absent, status moves go through the status endpoint.
type UpdateWarrantyRequest struct {
	AssetName              *string          `json:"asset_name"`
	Category               *string          `json:"category"`
	Department             *string          `json:"department"`
	Cost                   *decimal.Decimal `json:"cost"`
	DatePurchased          *string          `json:"date_purchased"`
	WarrantyDurationMonths *int             `json:"warranty_duration_months"`
	Notes                  *string          `json:"notes"`
	SerialNumber           *string          `json:"serial_number"`
	Manufacturer           *string          `json:"manufacturer"`
	ModelNumber            *string          `json:"model_number"`
}

func (r *UpdateWarrantyRequest) Validate() error {
	problems := map[string]string{}

	if r.AssetName != nil && strings.TrimSpace(*r.AssetName) == "" {
		problems["asset_name"] = "asset name cannot be blank"
	}
	if r.WarrantyDurationMonths != nil &&
		(*r.WarrantyDurationMonths < 1 || *r.WarrantyDurationMonths > MaxWarrantyMonths) {
		problems["warranty_duration_months"] = "must be between 1 and 120"
	}
	if r.DatePurchased != nil {
		if _, err := time.Parse(DateLayout, *r.DatePurchased); err != nil {
			problems["date_purchased"] = "must be a valid date in YYYY-MM-DD format"
		}
	}

	if len(problems) > 0 {
		return custom_error.NewValidationError(problems)
	}
	return nil
}

// StatusUpdateRequest is an explicit administrative status change. Override
// must be set to leave a terminal status.
type StatusUpdateRequest struct {
	Status   string `json:"status" binding:"required"`
	Notes    string `json:"notes"`
	Override bool   `json:"override"`
}

// RegistrationResult is the wire response for register calls. Dates are
// rendered as plain YYYY-MM-DD strings for the upstream system.
type RegistrationResult struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	Error             string `json:"error,omitempty"`
	Status            string `json:"status"`
	StatusLabel       string `json:"status_label"`
	WarrantyID        int    `json:"warranty_id"`
	AssetID           int64  `json:"asset_id"`
	RegisteredAt      string `json:"registered_at"`
	WarrantyStartDate string `json:"warranty_start_date,omitempty"`
	WarrantyEndDate   string `json:"warranty_end_date,omitempty"`
}

// WarrantyCheckResult answers "is this asset registered" for the upstream
// system; all detail fields are null when it is not.
type WarrantyCheckResult struct {
	Registered      bool    `json:"registered"`
	WarrantyID      *int    `json:"warranty_id"`
	Status          *string `json:"status"`
	StatusLabel     *string `json:"status_label"`
	RegisteredAt    *string `json:"registered_at"`
	WarrantyEndDate *string `json:"warranty_end_date"`
	IsActive        *bool   `json:"is_active"`
}

// WarrantyListResult is one page of records plus the unpaginated total.
type WarrantyListResult struct {
	Count   int              `json:"count"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
	Results []WarrantyRecord `json:"results"`
}

type DepartmentCount struct {
	Department string `json:"department" db:"department"`
	Count      int    `json:"count" db:"count"`
}

// WarrantyStatistics is the dashboard aggregate payload.
type WarrantyStatistics struct {
	TotalRegistrations   int               `json:"total_registrations"`
	ByStatus             map[string]int    `json:"by_status"`
	ExpiringSoon         int               `json:"expiring_soon"`
	TotalRegisteredValue decimal.Decimal   `json:"total_registered_value"`
	ByDepartment         []DepartmentCount `json:"by_department"`
}
