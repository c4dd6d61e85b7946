package warranty

import (
	"errors"
	"testing"
	"time"

	"github.com/Ngonie-x/warrant-register/pkg/metadata"
	"github.com/Ngonie-x/warrant-register/pkg/models"
	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) RunInTransaction(fn func(tx *goqu.TxDatabase) error) error {
	m.Called()
	return fn(nil)
}

func (m *MockRecordStore) GetByExternalIDForUpdate(tx *goqu.TxDatabase, assetExternalID int64) (*models.WarrantyRecord, error) {
	args := m.Called(tx, assetExternalID)
	if record, ok := args.Get(0).(*models.WarrantyRecord); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecordStore) GetByExternalID(assetExternalID int64) (*models.WarrantyRecord, error) {
	args := m.Called(assetExternalID)
	if record, ok := args.Get(0).(*models.WarrantyRecord); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecordStore) Get(id int) (*models.WarrantyRecord, error) {
	args := m.Called(id)
	if record, ok := args.Get(0).(*models.WarrantyRecord); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecordStore) Insert(tx *goqu.TxDatabase, record *models.WarrantyRecord) (int, error) {
	args := m.Called(tx, record)
	return args.Int(0), args.Error(1)
}

func (m *MockRecordStore) Reregister(tx *goqu.TxDatabase, id int, record *models.WarrantyRecord) error {
	args := m.Called(tx, id, record)
	return args.Error(0)
}

func (m *MockRecordStore) Update(id int, updates goqu.Record) error {
	args := m.Called(id, updates)
	return args.Error(0)
}

func (m *MockRecordStore) SoftDelete(id int) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockRecordStore) MarkExpired(now time.Time) ([]int, error) {
	args := m.Called(now)
	if ids, ok := args.Get(0).([]int); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveCategoryName(value string) string {
	args := m.Called(value)
	return args.String(0)
}

func (m *MockResolver) ResolveDepartmentName(value string) string {
	args := m.Called(value)
	return args.String(0)
}

func (m *MockResolver) ResolveProfileName(externalID string) string {
	args := m.Called(externalID)
	return args.String(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(warrantyID int, action string, actor models.Actor, oldSnap, newSnap map[string]interface{}) {
	m.Called(warrantyID, action, actor, oldSnap, newSnap)
}

func newTestService(store *MockRecordStore, resolver *MockResolver, recorder *MockRecorder) *WarrantyService {
	return NewWarrantyService(store, resolver, recorder, zap.NewNop())
}

func date(value string) time.Time {
	d, err := time.Parse(models.DateLayout, value)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		months   int
		expected string
	}{
		{"plain month add", "2024-03-15", 12, "2025-03-15"},
		{"jan 31 clamps to leap feb", "2024-01-31", 1, "2024-02-29"},
		{"jan 31 clamps to non-leap feb", "2023-01-31", 1, "2023-02-28"},
		{"may 31 clamps to june 30", "2024-05-31", 1, "2024-06-30"},
		{"multi year", "2024-01-15", 24, "2026-01-15"},
		{"end of december rolls year", "2024-12-31", 2, "2025-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AddMonths(date(tt.start), tt.months)
			assert.Equal(t, date(tt.expected), result)
		})
	}
}

func TestRegisterNewAsset(t *testing.T) {
	store := new(MockRecordStore)
	resolver := new(MockResolver)
	recorder := new(MockRecorder)
	service := newTestService(store, resolver, recorder)

	request := &models.RegisterWarrantyRequest{
		AssetExternalID:        123,
		AssetName:              "Dell Latitude 5540",
		Category:               "laptops",
		Department:             "engineering",
		DatePurchased:          "2024-01-15",
		RegisteredByID:         "usr-9",
		WarrantyDurationMonths: 24,
	}

	resolver.On("ResolveCategoryName", "laptops").Return("Laptops")
	resolver.On("ResolveDepartmentName", "engineering").Return("Engineering")
	resolver.On("ResolveProfileName", "usr-9").Return("Jordan Mbizo")

	store.On("RunInTransaction").Return()
	store.On("GetByExternalIDForUpdate", (*goqu.TxDatabase)(nil), int64(123)).Return(nil, nil)
	store.On("Insert", (*goqu.TxDatabase)(nil), mock.AnythingOfType("*models.WarrantyRecord")).Return(55, nil)
	recorder.On("Record", 55, models.ActionCreated, mock.Anything, mock.Anything, mock.Anything).Return()

	result, err := service.Register(request, models.Actor{ID: "usr-9"})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 55, result.WarrantyID)
	assert.Equal(t, int64(123), result.AssetID)
	assert.Equal(t, metadata.StatusRegistered.String(), result.Status)
	assert.Equal(t, "2024-01-15", result.WarrantyStartDate)
	assert.Equal(t, "2026-01-15", result.WarrantyEndDate)

	store.AssertExpectations(t)
	recorder.AssertExpectations(t)
}

func TestRegisterAlreadyRegistered(t *testing.T) {
	store := new(MockRecordStore)
	resolver := new(MockResolver)
	recorder := new(MockRecorder)
	service := newTestService(store, resolver, recorder)

	endDate := date("2026-06-30")
	existing := &models.WarrantyRecord{
		ID:              7,
		AssetExternalID: 123,
		Status:          metadata.StatusRegistered,
		RegisteredAt:    date("2025-06-30"),
		WarrantyEndDate: &endDate,
	}

	store.On("RunInTransaction").Return()
	store.On("GetByExternalIDForUpdate", (*goqu.TxDatabase)(nil), int64(123)).Return(existing, nil)

	request := &models.RegisterWarrantyRequest{AssetExternalID: 123, AssetName: "Dell Latitude 5540"}
	result, err := service.Register(request, models.Actor{ID: "usr-9"})

	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.False(t, result.Success)
	assert.Equal(t, "already_registered", result.Error)
	assert.Equal(t, 7, result.WarrantyID)
	assert.Equal(t, "2026-06-30", result.WarrantyEndDate)

	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterOverExpiredWarranty(t *testing.T) {
	store := new(MockRecordStore)
	resolver := new(MockResolver)
	recorder := new(MockRecorder)
	service := newTestService(store, resolver, recorder)

	existing := &models.WarrantyRecord{
		ID:              7,
		AssetExternalID: 123,
		Status:          metadata.StatusExpired,
	}

	store.On("RunInTransaction").Return()
	store.On("GetByExternalIDForUpdate", (*goqu.TxDatabase)(nil), int64(123)).Return(existing, nil)
	store.On("Reregister", (*goqu.TxDatabase)(nil), 7, mock.AnythingOfType("*models.WarrantyRecord")).Return(nil)
	recorder.On("Record", 7, models.ActionUpdated, mock.Anything, mock.Anything, mock.Anything).Return()
	recorder.On("Record", 7, models.ActionStatusChanged, mock.Anything,
		map[string]interface{}{"status": "expired"},
		map[string]interface{}{"status": "registered"},
	).Return()

	request := &models.RegisterWarrantyRequest{AssetExternalID: 123, AssetName: "Dell Latitude 5540"}
	result, err := service.Register(request, models.Actor{ID: "usr-9"})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 7, result.WarrantyID)

	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
	recorder.AssertExpectations(t)
}

func TestRegisterOverSoftDeletedRecordSkipsRedundantStatusAudit(t *testing.T) {
	store := new(MockRecordStore)
	resolver := new(MockResolver)
	recorder := new(MockRecorder)
	service := newTestService(store, resolver, recorder)

	deletedAt := date("2025-03-01")
	existing := &models.WarrantyRecord{
		ID:              7,
		AssetExternalID: 123,
		Status:          metadata.StatusRegistered,
		DeletedAt:       &deletedAt,
	}

	store.On("RunInTransaction").Return()
	store.On("GetByExternalIDForUpdate", (*goqu.TxDatabase)(nil), int64(123)).Return(existing, nil)
	store.On("Reregister", (*goqu.TxDatabase)(nil), 7, mock.AnythingOfType("*models.WarrantyRecord")).Return(nil)
	recorder.On("Record", 7, models.ActionUpdated, mock.Anything, mock.Anything, mock.Anything).Return()

	request := &models.RegisterWarrantyRequest{AssetExternalID: 123, AssetName: "Dell Latitude 5540"}
	result, err := service.Register(request, models.Actor{ID: "usr-9"})

	assert.NoError(t, err)
	assert.True(t, result.Success)

	// Status stays registered, so no empty-diff status_changed entry.
	recorder.AssertNotCalled(t, "Record", 7, models.ActionStatusChanged, mock.Anything, mock.Anything, mock.Anything)
	recorder.AssertExpectations(t)
}

func TestRegisterRejectsInvalidPayload(t *testing.T) {
	store := new(MockRecordStore)
	resolver := new(MockResolver)
	recorder := new(MockRecorder)
	service := newTestService(store, resolver, recorder)

	request := &models.RegisterWarrantyRequest{AssetExternalID: 0, AssetName: ""}
	_, err := service.Register(request, models.Actor{})

	assert.Error(t, err)
	store.AssertNotCalled(t, "RunInTransaction")
}

func TestRegisterDefaultsDuration(t *testing.T) {
	store := new(MockRecordStore)
	resolver := new(MockResolver)
	recorder := new(MockRecorder)
	service := newTestService(store, resolver, recorder)

	var inserted *models.WarrantyRecord
	store.On("RunInTransaction").Return()
	store.On("GetByExternalIDForUpdate", (*goqu.TxDatabase)(nil), int64(321)).Return(nil, nil)
	store.On("Insert", (*goqu.TxDatabase)(nil), mock.AnythingOfType("*models.WarrantyRecord")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(*models.WarrantyRecord)
		}).
		Return(8, nil)
	recorder.On("Record", 8, models.ActionCreated, mock.Anything, mock.Anything, mock.Anything).Return()

	request := &models.RegisterWarrantyRequest{AssetExternalID: 321, AssetName: "Monitor"}
	result, err := service.Register(request, models.Actor{})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.DefaultWarrantyMonths, inserted.WarrantyDurationMonths)
	assert.Equal(t, metadata.StatusRegistered, inserted.Status)
}

func TestCheckUnregisteredAsset(t *testing.T) {
	store := new(MockRecordStore)
	service := newTestService(store, new(MockResolver), new(MockRecorder))

	store.On("GetByExternalID", int64(999)).Return(nil, nil)

	result, err := service.Check(999)

	assert.NoError(t, err)
	assert.False(t, result.Registered)
	assert.Nil(t, result.WarrantyID)
	assert.Nil(t, result.Status)
}

func TestCheckRegisteredAsset(t *testing.T) {
	store := new(MockRecordStore)
	service := newTestService(store, new(MockResolver), new(MockRecorder))

	endDate := time.Now().AddDate(1, 0, 0)
	record := &models.WarrantyRecord{
		ID:              42,
		AssetExternalID: 123,
		Status:          metadata.StatusRegistered,
		RegisteredAt:    date("2025-02-01"),
		WarrantyEndDate: &endDate,
	}
	store.On("GetByExternalID", int64(123)).Return(record, nil)

	result, err := service.Check(123)

	assert.NoError(t, err)
	assert.True(t, result.Registered)
	assert.Equal(t, 42, *result.WarrantyID)
	assert.Equal(t, "registered", *result.Status)
	assert.Equal(t, "Warranty Registered", *result.StatusLabel)
	assert.True(t, *result.IsActive)
}

func TestChangeStatusInvalidTransition(t *testing.T) {
	store := new(MockRecordStore)
	recorder := new(MockRecorder)
	service := newTestService(store, new(MockResolver), recorder)

	existing := &models.WarrantyRecord{ID: 5, Status: metadata.StatusClaimed}
	store.On("Get", 5).Return(existing, nil)

	_, err := service.ChangeStatus(5, &models.StatusUpdateRequest{Status: "registered"}, models.Actor{})

	assert.ErrorIs(t, err, ErrInvalidTransition)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestChangeStatusTerminalWithOverride(t *testing.T) {
	store := new(MockRecordStore)
	recorder := new(MockRecorder)
	service := newTestService(store, new(MockResolver), recorder)

	existing := &models.WarrantyRecord{ID: 5, Status: metadata.StatusClaimed}
	updated := &models.WarrantyRecord{ID: 5, Status: metadata.StatusRegistered}

	store.On("Get", 5).Return(existing, nil).Once()
	store.On("Update", 5, mock.Anything).Return(nil)
	store.On("Get", 5).Return(updated, nil).Once()
	recorder.On("Record", 5, models.ActionStatusChanged, mock.Anything,
		map[string]interface{}{"status": "claimed"},
		map[string]interface{}{"status": "registered"},
	).Return()

	result, err := service.ChangeStatus(5, &models.StatusUpdateRequest{Status: "registered", Override: true}, models.Actor{ID: "admin-1"})

	assert.NoError(t, err)
	assert.Equal(t, metadata.StatusRegistered, result.Status)
	recorder.AssertExpectations(t)
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	store := new(MockRecordStore)
	service := newTestService(store, new(MockResolver), new(MockRecorder))

	_, err := service.ChangeStatus(5, &models.StatusUpdateRequest{Status: "broken"}, models.Actor{})

	assert.Error(t, err)
	store.AssertNotCalled(t, "Get", mock.Anything)
}

func TestUpdateRecomputesEndDate(t *testing.T) {
	store := new(MockRecordStore)
	recorder := new(MockRecorder)
	service := newTestService(store, new(MockResolver), recorder)

	startDate := date("2024-01-31")
	existing := &models.WarrantyRecord{
		ID:                     9,
		AssetExternalID:        123,
		AssetName:              "Printer",
		Status:                 metadata.StatusRegistered,
		WarrantyStartDate:      &startDate,
		WarrantyDurationMonths: 12,
	}
	updated := &models.WarrantyRecord{
		ID:                     9,
		AssetExternalID:        123,
		AssetName:              "Printer",
		Status:                 metadata.StatusRegistered,
		WarrantyStartDate:      &startDate,
		WarrantyDurationMonths: 13,
	}

	var captured goqu.Record
	store.On("Get", 9).Return(existing, nil).Once()
	store.On("Update", 9, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(goqu.Record)
		}).
		Return(nil)
	store.On("Get", 9).Return(updated, nil).Once()
	recorder.On("Record", 9, models.ActionUpdated, mock.Anything, mock.Anything, mock.Anything).Return()

	months := 13
	_, err := service.Update(9, &models.UpdateWarrantyRequest{WarrantyDurationMonths: &months}, models.Actor{})

	assert.NoError(t, err)
	assert.Equal(t, 13, captured["warranty_duration_months"])
	assert.Equal(t, date("2025-02-28"), captured["warranty_end_date"])
}

func TestUpdateWithoutChangesSkipsWrite(t *testing.T) {
	store := new(MockRecordStore)
	recorder := new(MockRecorder)
	service := newTestService(store, new(MockResolver), recorder)

	existing := &models.WarrantyRecord{ID: 9, AssetName: "Printer", Status: metadata.StatusRegistered}
	store.On("Get", 9).Return(existing, nil)

	result, err := service.Update(9, &models.UpdateWarrantyRequest{}, models.Actor{})

	assert.NoError(t, err)
	assert.Equal(t, existing, result)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteAuditsRemoval(t *testing.T) {
	store := new(MockRecordStore)
	recorder := new(MockRecorder)
	service := newTestService(store, new(MockResolver), recorder)

	existing := &models.WarrantyRecord{ID: 4, AssetName: "Scanner", Status: metadata.StatusVoid}
	store.On("Get", 4).Return(existing, nil)
	store.On("SoftDelete", 4).Return(nil)
	recorder.On("Record", 4, models.ActionDeleted, mock.Anything, mock.Anything, mock.Anything).Return()

	err := service.Delete(4, models.Actor{ID: "admin-1"})

	assert.NoError(t, err)
	store.AssertExpectations(t)
	recorder.AssertExpectations(t)
}

func TestMarkExpiredAuditsEachRecord(t *testing.T) {
	store := new(MockRecordStore)
	recorder := new(MockRecorder)
	service := newTestService(store, new(MockResolver), recorder)

	now := time.Now()
	store.On("MarkExpired", now).Return([]int{11, 12}, nil)
	recorder.On("Record", 11, models.ActionStatusChanged, models.SystemActor, mock.Anything, mock.Anything).Return()
	recorder.On("Record", 12, models.ActionStatusChanged, models.SystemActor, mock.Anything, mock.Anything).Return()

	count, err := service.MarkExpired(now)

	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	recorder.AssertExpectations(t)
}

func TestMarkExpiredPropagatesStoreError(t *testing.T) {
	store := new(MockRecordStore)
	recorder := new(MockRecorder)
	service := newTestService(store, new(MockResolver), recorder)

	now := time.Now()
	store.On("MarkExpired", now).Return(nil, errors.New("db down"))

	_, err := service.MarkExpired(now)

	assert.Error(t, err)
	recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
