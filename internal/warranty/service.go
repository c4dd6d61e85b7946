package warranty

import (
	"errors"
	"fmt"
	"strings"
	"time"

	custom_error "github.com/Ngonie-x/warrant-register/pkg/errors"
	"github.com/Ngonie-x/warrant-register/pkg/metadata"
	"github.com/Ngonie-x/warrant-register/pkg/models"
	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyRegistered marks a register call against an asset whose
	// warranty is still in force. It is an expected outcome, not a failure.
	ErrAlreadyRegistered = errors.New("asset already has an active warranty registration")

	// ErrInvalidTransition marks a status move the lifecycle does not allow.
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// RecordStore is the repository surface the service mutates through.
type RecordStore interface {
	RunInTransaction(fn func(tx *goqu.TxDatabase) error) error
	GetByExternalIDForUpdate(tx *goqu.TxDatabase, assetExternalID int64) (*models.WarrantyRecord, error)
	GetByExternalID(assetExternalID int64) (*models.WarrantyRecord, error)
	Get(id int) (*models.WarrantyRecord, error)
	Insert(tx *goqu.TxDatabase, record *models.WarrantyRecord) (int, error)
	Reregister(tx *goqu.TxDatabase, id int, record *models.WarrantyRecord) error
	Update(id int, updates goqu.Record) error
	SoftDelete(id int) error
	MarkExpired(now time.Time) ([]int, error)
}

// ReferenceResolver maps external ids and loosely-cased names onto the synced
// reference tables. Implemented by internal/refdata.
type ReferenceResolver interface {
	ResolveCategoryName(value string) string
	ResolveDepartmentName(value string) string
	ResolveProfileName(externalID string) string
}

// AuditRecorder appends best-effort audit entries after mutations commit.
type AuditRecorder interface {
	Record(warrantyID int, action string, actor models.Actor, oldSnap, newSnap map[string]interface{})
}

// WarrantyService owns the registration lifecycle.
type WarrantyService struct {
	store    RecordStore
	resolver ReferenceResolver
	audit    AuditRecorder
	log      *zap.Logger
}

func NewWarrantyService(store RecordStore, resolver ReferenceResolver, audit AuditRecorder, log *zap.Logger) *WarrantyService {
	return &WarrantyService{
		store:    store,
		resolver: resolver,
		audit:    audit,
		log:      log,
	}
}

// AddMonths advances a date by calendar months, clamping the day to the last
// day of the target month (Jan 31 + 1 month = Feb 28 or 29).
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, t.Location())
}

// Register creates or refreshes the warranty record for one asset. The call is
// idempotent per asset: while a previous registration is still in force the
// request is rejected with ErrAlreadyRegistered and the existing record is
// reported back, so the upstream system can safely retry.
func (s *WarrantyService) Register(request *models.RegisterWarrantyRequest, actor models.Actor) (*models.RegistrationResult, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	record := s.buildRecord(request, now)

	var (
		existing   *models.WarrantyRecord
		reregister bool
	)

	err := s.store.RunInTransaction(func(tx *goqu.TxDatabase) error {
		current, err := s.store.GetByExternalIDForUpdate(tx, request.AssetExternalID)
		if err != nil {
			return err
		}

		if current == nil {
			id, err := s.store.Insert(tx, record)
			if err != nil {
				return err
			}
			record.ID = id
			return nil
		}

		existing = current
		if current.DeletedAt == nil && warrantyInForce(current.Status) {
			return ErrAlreadyRegistered
		}

		record.ID = current.ID
		reregister = true
		return s.store.Reregister(tx, current.ID, record)
	})

	if err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			return alreadyRegisteredResult(existing), ErrAlreadyRegistered
		}
		var uniqueErr *custom_error.UniqueViolationError
		if errors.As(err, &uniqueErr) {
			// Lost the race to a concurrent registration of the same asset.
			current, readErr := s.store.GetByExternalID(request.AssetExternalID)
			if readErr == nil && current != nil {
				return alreadyRegisteredResult(current), ErrAlreadyRegistered
			}
			return nil, err
		}
		return nil, err
	}

	if reregister {
		s.audit.Record(record.ID, models.ActionUpdated, actor, existing.Snapshot(), record.Snapshot())
		if existing.Status != record.Status {
			s.audit.Record(record.ID, models.ActionStatusChanged, actor,
				map[string]interface{}{"status": existing.Status.String()},
				map[string]interface{}{"status": record.Status.String()},
			)
		}
	} else {
		s.audit.Record(record.ID, models.ActionCreated, actor, nil, record.Snapshot())
	}

	s.log.Info("warranty registered",
		zap.Int("warranty_id", record.ID),
		zap.Int64("asset_external_id", record.AssetExternalID),
		zap.Bool("reregistered", reregister),
	)

	result := &models.RegistrationResult{
		Success:      true,
		Message:      "Warranty registered successfully",
		Status:       record.Status.String(),
		StatusLabel:  record.Status.Label(),
		WarrantyID:   record.ID,
		AssetID:      record.AssetExternalID,
		RegisteredAt: record.RegisteredAt.Format(models.DateLayout),
	}
	if record.WarrantyStartDate != nil {
		result.WarrantyStartDate = record.WarrantyStartDate.Format(models.DateLayout)
	}
	if record.WarrantyEndDate != nil {
		result.WarrantyEndDate = record.WarrantyEndDate.Format(models.DateLayout)
	}

	return result, nil
}

// warrantyInForce reports whether an existing record blocks a new
// registration. Pending, expired and void records may be registered over.
func warrantyInForce(status metadata.Status) bool {
	return status == metadata.StatusRegistered || status == metadata.StatusClaimed
}

func (s *WarrantyService) buildRecord(request *models.RegisterWarrantyRequest, now time.Time) *models.WarrantyRecord {
	record := &models.WarrantyRecord{
		AssetExternalID:        request.AssetExternalID,
		AssetName:              strings.TrimSpace(request.AssetName),
		Cost:                   request.Cost,
		DatePurchased:          request.PurchaseDate(),
		AssetCreatedAt:         request.CreatedAt,
		Status:                 metadata.StatusRegistered,
		RegisteredAt:           now,
		UpdatedAt:              now,
		WarrantyDurationMonths: request.DurationMonths(),
	}

	if request.Category != "" {
		category := s.resolver.ResolveCategoryName(request.Category)
		record.Category = &category
	}
	if request.Department != "" {
		department := s.resolver.ResolveDepartmentName(request.Department)
		record.Department = &department
	}
	if request.CreatedBy != "" {
		createdBy := request.CreatedBy
		record.AssetCreatedBy = &createdBy
	}
	if request.RegisteredByID != "" {
		registeredBy := request.RegisteredByID
		record.RegisteredByExternalID = &registeredBy
	}

	registeredByName := request.RegisteredByName
	if registeredByName == "" && request.RegisteredByID != "" {
		registeredByName = s.resolver.ResolveProfileName(request.RegisteredByID)
	}
	if registeredByName != "" {
		record.RegisteredByName = &registeredByName
	}

	if request.SerialNumber != "" {
		serial := request.SerialNumber
		record.SerialNumber = &serial
	}
	if request.Manufacturer != "" {
		manufacturer := request.Manufacturer
		record.Manufacturer = &manufacturer
	}
	if request.ModelNumber != "" {
		model := request.ModelNumber
		record.ModelNumber = &model
	}
	if request.Notes != "" {
		notes := request.Notes
		record.Notes = &notes
	}

	// The warranty window starts at the purchase date when known, otherwise
	// at registration time.
	start := now.Truncate(24 * time.Hour)
	if record.DatePurchased != nil {
		start = *record.DatePurchased
	}
	end := AddMonths(start, record.WarrantyDurationMonths)
	record.WarrantyStartDate = &start
	record.WarrantyEndDate = &end

	return record
}

func alreadyRegisteredResult(existing *models.WarrantyRecord) *models.RegistrationResult {
	result := &models.RegistrationResult{
		Success:     false,
		Message:     "Asset already has a warranty registration",
		Error:       "already_registered",
		Status:      existing.Status.String(),
		StatusLabel: existing.Status.Label(),
		WarrantyID:  existing.ID,
		AssetID:     existing.AssetExternalID,
	}
	result.RegisteredAt = existing.RegisteredAt.Format(models.DateLayout)
	if existing.WarrantyStartDate != nil {
		result.WarrantyStartDate = existing.WarrantyStartDate.Format(models.DateLayout)
	}
	if existing.WarrantyEndDate != nil {
		result.WarrantyEndDate = existing.WarrantyEndDate.Format(models.DateLayout)
	}
	return result
}

// Check answers the registration lookup the upstream system runs before it
// offers the register action.
func (s *WarrantyService) Check(assetExternalID int64) (*models.WarrantyCheckResult, error) {
	record, err := s.store.GetByExternalID(assetExternalID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &models.WarrantyCheckResult{Registered: false}, nil
	}

	status := record.Status.String()
	statusLabel := record.Status.Label()
	registeredAt := record.RegisteredAt.Format(models.DateLayout)
	isActive := record.Status == metadata.StatusRegistered && record.IsActive(time.Now())

	result := &models.WarrantyCheckResult{
		Registered:   true,
		WarrantyID:   &record.ID,
		Status:       &status,
		StatusLabel:  &statusLabel,
		RegisteredAt: &registeredAt,
		IsActive:     &isActive,
	}
	if record.WarrantyEndDate != nil {
		endDate := record.WarrantyEndDate.Format(models.DateLayout)
		result.WarrantyEndDate = &endDate
	}

	return result, nil
}

func (s *WarrantyService) Get(id int) (*models.WarrantyRecord, error) {
	return s.store.Get(id)
}

// Update applies a partial edit and audits the resulting field diff. A request
// that changes nothing is accepted and leaves no audit entry.
func (s *WarrantyService) Update(id int, request *models.UpdateWarrantyRequest, actor models.Actor) (*models.WarrantyRecord, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	updates := goqu.Record{}

	if request.AssetName != nil {
		updates["asset_name"] = strings.TrimSpace(*request.AssetName)
	}
	if request.Category != nil {
		updates["category"] = s.resolver.ResolveCategoryName(*request.Category)
	}
	if request.Department != nil {
		updates["department"] = s.resolver.ResolveDepartmentName(*request.Department)
	}
	if request.Cost != nil {
		updates["cost"] = *request.Cost
	}
	if request.DatePurchased != nil {
		purchased, _ := time.Parse(models.DateLayout, *request.DatePurchased)
		updates["date_purchased"] = purchased
	}
	if request.Notes != nil {
		updates["notes"] = *request.Notes
	}
	if request.SerialNumber != nil {
		updates["serial_number"] = *request.SerialNumber
	}
	if request.Manufacturer != nil {
		updates["manufacturer"] = *request.Manufacturer
	}
	if request.ModelNumber != nil {
		updates["model_number"] = *request.ModelNumber
	}

	if request.WarrantyDurationMonths != nil {
		updates["warranty_duration_months"] = *request.WarrantyDurationMonths
		if existing.WarrantyStartDate != nil {
			updates["warranty_end_date"] = AddMonths(*existing.WarrantyStartDate, *request.WarrantyDurationMonths)
		}
	}

	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.store.Update(id, updates); err != nil {
		return nil, err
	}

	updated, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(id, models.ActionUpdated, actor, existing.Snapshot(), updated.Snapshot())

	return updated, nil
}

// ChangeStatus moves a record through the lifecycle. Terminal statuses can
// only be left with the override flag set.
func (s *WarrantyService) ChangeStatus(id int, request *models.StatusUpdateRequest, actor models.Actor) (*models.WarrantyRecord, error) {
	target, err := metadata.NewStatus(request.Status)
	if err != nil {
		return nil, custom_error.NewValidationError(map[string]string{"status": err.Error()})
	}

	existing, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	if !existing.Status.CanTransition(target, request.Override) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, existing.Status, target)
	}

	updates := goqu.Record{"status": target.String()}
	if request.Notes != "" {
		updates["notes"] = request.Notes
	}

	if err := s.store.Update(id, updates); err != nil {
		return nil, err
	}

	updated, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(id, models.ActionStatusChanged, actor,
		map[string]interface{}{"status": existing.Status.String()},
		map[string]interface{}{"status": updated.Status.String()},
	)

	s.log.Info("warranty status changed",
		zap.Int("warranty_id", id),
		zap.String("from", existing.Status.String()),
		zap.String("to", updated.Status.String()),
		zap.Bool("override", request.Override),
	)

	return updated, nil
}

// Delete soft-deletes a record. The row and its audit trail survive for later
// inspection.
func (s *WarrantyService) Delete(id int, actor models.Actor) error {
	existing, err := s.store.Get(id)
	if err != nil {
		return err
	}

	if err := s.store.SoftDelete(id); err != nil {
		return err
	}

	s.audit.Record(id, models.ActionDeleted, actor, existing.Snapshot(), nil)

	return nil
}

// MarkExpired flips every overdue registered warranty to expired and audits
// each transition under the system actor. Returns how many rows were touched.
func (s *WarrantyService) MarkExpired(now time.Time) (int, error) {
	ids, err := s.store.MarkExpired(now)
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		s.audit.Record(id, models.ActionStatusChanged, models.SystemActor,
			map[string]interface{}{"status": metadata.StatusRegistered.String()},
			map[string]interface{}{"status": metadata.StatusExpired.String()},
		)
	}

	return len(ids), nil
}
