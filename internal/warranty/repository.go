package warranty

import (
	"fmt"
	"time"

	"github.com/Ngonie-x/warrant-register/internal/repository"
	custom_error "github.com/Ngonie-x/warrant-register/pkg/errors"
	"github.com/Ngonie-x/warrant-register/pkg/metadata"
	"github.com/Ngonie-x/warrant-register/pkg/models"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const warrantyTable = "warranty_registrations"

type WarrantyRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *WarrantyRepository {
	return &WarrantyRepository{repository: r}
}

func (r *WarrantyRepository) RunInTransaction(fn func(tx *goqu.TxDatabase) error) error {
	return r.repository.RunInTransaction(fn)
}

// GetByExternalIDForUpdate locks the row for the given asset inside tx so two
// concurrent registrations of the same asset serialize on it.
func (r *WarrantyRepository) GetByExternalIDForUpdate(tx *goqu.TxDatabase, assetExternalID int64) (*models.WarrantyRecord, error) {
	query := tx.From(warrantyTable).
		Where(goqu.Ex{"asset_external_id": assetExternalID}).
		ForUpdate(exp.Wait)

	var flat models.FlatWarrantyRecord
	found, err := query.Executor().ScanStruct(&flat)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, nil
	}

	record := flat.TransformToRecord()
	return &record, nil
}

func (r *WarrantyRepository) GetByExternalID(assetExternalID int64) (*models.WarrantyRecord, error) {
	query := r.repository.GoquDBWrapper.
		From(warrantyTable).
		Where(goqu.Ex{"asset_external_id": assetExternalID, "deleted_at": nil})

	var flat models.FlatWarrantyRecord
	found, err := query.Executor().ScanStruct(&flat)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, nil
	}

	record := flat.TransformToRecord()
	return &record, nil
}

func (r *WarrantyRepository) Get(id int) (*models.WarrantyRecord, error) {
	query := r.repository.GoquDBWrapper.
		From(warrantyTable).
		Where(goqu.Ex{"id": id, "deleted_at": nil})

	var flat models.FlatWarrantyRecord
	found, err := query.Executor().ScanStruct(&flat)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("warranty", fmt.Sprintf("%d", id))
	}

	record := flat.TransformToRecord()
	return &record, nil
}

// Insert writes a new registration row inside tx and returns its id. A unique
// violation on asset_external_id surfaces as a typed error.
func (r *WarrantyRepository) Insert(tx *goqu.TxDatabase, record *models.WarrantyRecord) (int, error) {
	row := goqu.Record{
		"asset_external_id":        record.AssetExternalID,
		"asset_name":               record.AssetName,
		"status":                   record.Status.String(),
		"registered_at":            record.RegisteredAt,
		"updated_at":               record.UpdatedAt,
		"warranty_duration_months": record.WarrantyDurationMonths,
	}
	addOptionalColumns(row, record)

	var id int
	_, err := tx.Insert(warrantyTable).
		Rows(row).
		Returning("id").
		Executor().ScanVal(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return 0, custom_error.WrapDBError(
				fmt.Sprintf("asset %d already has a warranty record", record.AssetExternalID),
				string(pqErr.Code),
			)
		}
		return 0, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return id, nil
}

// Reregister rewrites an existing row in place for a repeat registration of an
// asset whose previous warranty is no longer in force.
func (r *WarrantyRepository) Reregister(tx *goqu.TxDatabase, id int, record *models.WarrantyRecord) error {
	row := goqu.Record{
		"asset_name":                record.AssetName,
		"status":                    record.Status.String(),
		"registered_at":             record.RegisteredAt,
		"updated_at":                record.UpdatedAt,
		"warranty_duration_months":  record.WarrantyDurationMonths,
		"category":                  nil,
		"department":                nil,
		"cost":                      nil,
		"date_purchased":            nil,
		"registered_by_external_id": nil,
		"registered_by_name":        nil,
		"warranty_start_date":       nil,
		"warranty_end_date":         nil,
		"notes":                     nil,
		"serial_number":             nil,
		"manufacturer":              nil,
		"model_number":              nil,
		"deleted_at":                nil,
	}
	addOptionalColumns(row, record)

	_, err := tx.Update(warrantyTable).
		Set(row).
		Where(goqu.Ex{"id": id}).
		Executor().Exec()
	if err != nil {
		return fmt.Errorf("error executing SQL statement: %w", err)
	}

	return nil
}

func addOptionalColumns(row goqu.Record, record *models.WarrantyRecord) {
	if record.Category != nil {
		row["category"] = *record.Category
	}
	if record.Department != nil {
		row["department"] = *record.Department
	}
	if record.Cost != nil {
		row["cost"] = *record.Cost
	}
	if record.DatePurchased != nil {
		row["date_purchased"] = *record.DatePurchased
	}
	if record.AssetCreatedBy != nil {
		row["asset_created_by"] = *record.AssetCreatedBy
	}
	if record.AssetCreatedAt != nil {
		row["asset_created_at"] = *record.AssetCreatedAt
	}
	if record.RegisteredByExternalID != nil {
		row["registered_by_external_id"] = *record.RegisteredByExternalID
	}
	if record.RegisteredByName != nil {
		row["registered_by_name"] = *record.RegisteredByName
	}
	if record.WarrantyStartDate != nil {
		row["warranty_start_date"] = *record.WarrantyStartDate
	}
	if record.WarrantyEndDate != nil {
		row["warranty_end_date"] = *record.WarrantyEndDate
	}
	if record.Notes != nil {
		row["notes"] = *record.Notes
	}
	if record.SerialNumber != nil {
		row["serial_number"] = *record.SerialNumber
	}
	if record.Manufacturer != nil {
		row["manufacturer"] = *record.Manufacturer
	}
	if record.ModelNumber != nil {
		row["model_number"] = *record.ModelNumber
	}
}

// Update applies the already-validated column set to one row.
func (r *WarrantyRepository) Update(id int, updates goqu.Record) error {
	updates["updated_at"] = time.Now()

	result, err := r.repository.GoquDBWrapper.
		Update(warrantyTable).
		Set(updates).
		Where(goqu.Ex{"id": id, "deleted_at": nil}).
		Executor().Exec()
	if err != nil {
		return fmt.Errorf("error executing SQL statement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to read affected rows: %w", err)
	}
	if affected == 0 {
		return custom_error.NewNotFoundError("warranty", fmt.Sprintf("%d", id))
	}

	return nil
}

// SoftDelete hides the row from reads while keeping it for the audit trail.
func (r *WarrantyRepository) SoftDelete(id int) error {
	now := time.Now()
	result, err := r.repository.GoquDBWrapper.
		Update(warrantyTable).
		Set(goqu.Record{"deleted_at": now, "updated_at": now}).
		Where(goqu.Ex{"id": id, "deleted_at": nil}).
		Executor().Exec()
	if err != nil {
		return fmt.Errorf("error executing SQL statement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to read affected rows: %w", err)
	}
	if affected == 0 {
		return custom_error.NewNotFoundError("warranty", fmt.Sprintf("%d", id))
	}

	return nil
}

// List returns one page of records matching the query plus the total count.
func (r *WarrantyRepository) List(query *ListQuery) (*models.WarrantyListResult, error) {
	conditions, err := query.BuildConditions()
	if err != nil {
		return nil, err
	}
	conditions = append(conditions, goqu.Ex{"deleted_at": nil})

	var count int
	_, err = r.repository.GoquDBWrapper.
		From(warrantyTable).
		Select(goqu.COUNT("id")).
		Where(conditions...).
		Executor().ScanVal(&count)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	var flatRecords []models.FlatWarrantyRecord
	err = r.repository.GoquDBWrapper.
		From(warrantyTable).
		Where(conditions...).
		Order(goqu.I("registered_at").Desc()).
		Limit(uint(query.Limit)).
		Offset(uint(query.Offset)).
		Executor().ScanStructs(&flatRecords)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	results := make([]models.WarrantyRecord, len(flatRecords))
	for i, flat := range flatRecords {
		results[i] = flat.TransformToRecord()
	}

	return &models.WarrantyListResult{
		Count:   count,
		Limit:   query.Limit,
		Offset:  query.Offset,
		Results: results,
	}, nil
}

// Statistics aggregates the dashboard counters in a handful of queries.
func (r *WarrantyRepository) Statistics(horizonDays int) (*models.WarrantyStatistics, error) {
	stats := &models.WarrantyStatistics{
		ByStatus:             map[string]int{},
		TotalRegisteredValue: decimal.Zero,
	}

	type statusCount struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}

	var statusCounts []statusCount
	err := r.repository.GoquDBWrapper.
		From(warrantyTable).
		Select(goqu.I("status"), goqu.COUNT("id").As("count")).
		Where(goqu.Ex{"deleted_at": nil}).
		GroupBy(goqu.I("status")).
		Executor().ScanStructs(&statusCounts)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	for _, sc := range statusCounts {
		stats.ByStatus[sc.Status] = sc.Count
		stats.TotalRegistrations += sc.Count
	}

	now := time.Now()
	horizon := now.AddDate(0, 0, horizonDays)

	var expiring int
	_, err = r.repository.GoquDBWrapper.
		From(warrantyTable).
		Select(goqu.COUNT("id")).
		Where(
			goqu.Ex{"deleted_at": nil, "status": metadata.StatusRegistered.String()},
			goqu.I("warranty_end_date").Gte(now),
			goqu.I("warranty_end_date").Lte(horizon),
		).
		Executor().ScanVal(&expiring)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	stats.ExpiringSoon = expiring

	var totalValue decimal.NullDecimal
	_, err = r.repository.GoquDBWrapper.
		From(warrantyTable).
		Select(goqu.L("COALESCE(SUM(cost), 0)")).
		Where(
			goqu.Ex{"deleted_at": nil},
			goqu.Ex{"status": []string{
				metadata.StatusRegistered.String(),
				metadata.StatusClaimed.String(),
			}},
		).
		Executor().ScanVal(&totalValue)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if totalValue.Valid {
		stats.TotalRegisteredValue = totalValue.Decimal
	}

	var byDepartment []models.DepartmentCount
	err = r.repository.GoquDBWrapper.
		From(warrantyTable).
		Select(goqu.I("department"), goqu.COUNT("id").As("count")).
		Where(goqu.Ex{"deleted_at": nil}, goqu.I("department").IsNotNull()).
		GroupBy(goqu.I("department")).
		Order(goqu.I("count").Desc()).
		Limit(10).
		Executor().ScanStructs(&byDepartment)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	stats.ByDepartment = byDepartment

	return stats, nil
}

// Expiring lists registered warranties whose end date falls within the next
// given number of days.
func (r *WarrantyRepository) Expiring(days int) ([]models.WarrantyRecord, error) {
	now := time.Now()
	horizon := now.AddDate(0, 0, days)

	var flatRecords []models.FlatWarrantyRecord
	err := r.repository.GoquDBWrapper.
		From(warrantyTable).
		Where(
			goqu.Ex{"deleted_at": nil, "status": metadata.StatusRegistered.String()},
			goqu.I("warranty_end_date").Gte(now),
			goqu.I("warranty_end_date").Lte(horizon),
		).
		Order(goqu.I("warranty_end_date").Asc()).
		Executor().ScanStructs(&flatRecords)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	records := make([]models.WarrantyRecord, len(flatRecords))
	for i, flat := range flatRecords {
		records[i] = flat.TransformToRecord()
	}

	return records, nil
}

// MarkExpired flips every registered warranty whose end date has passed and
// returns the ids it touched so the sweep can audit each one.
func (r *WarrantyRepository) MarkExpired(now time.Time) ([]int, error) {
	var ids []int
	err := r.repository.GoquDBWrapper.
		Update(warrantyTable).
		Set(goqu.Record{
			"status":     metadata.StatusExpired.String(),
			"updated_at": now,
		}).
		Where(
			goqu.Ex{"deleted_at": nil, "status": metadata.StatusRegistered.String()},
			goqu.I("warranty_end_date").IsNotNull(),
			goqu.I("warranty_end_date").Lt(now),
		).
		Returning("id").
		Executor().ScanVals(&ids)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return ids, nil
}
