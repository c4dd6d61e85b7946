package auditlog

import (
	"reflect"
	"time"

	"github.com/Ngonie-x/warrant-register/pkg/models"
	"go.uber.org/zap"
)

const persistAttempts = 3

// Store persists audit entries. Implemented by internal/auditlog.
type Store interface {
	PersistEntry(entry models.AuditEntry) error
}

// Recorder writes the audit trail for warranty mutations. Audit persistence is
// best-effort observability: a failed write is retried a bounded number of
// times and then escalated to the operator log, it never fails the mutation
// that produced it.
type Recorder struct {
	store Store
	log   *zap.Logger
}

func NewRecorder(store Store, log *zap.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

// Diff restricts two snapshots to the fields whose values differ. A field
// missing on one side and present on the other counts as changed.
func Diff(oldSnap, newSnap map[string]interface{}) (oldDiff, newDiff map[string]interface{}) {
	oldDiff = map[string]interface{}{}
	newDiff = map[string]interface{}{}

	for key, oldValue := range oldSnap {
		newValue, ok := newSnap[key]
		if !ok {
			oldDiff[key] = oldValue
			continue
		}
		if !reflect.DeepEqual(oldValue, newValue) {
			oldDiff[key] = oldValue
			newDiff[key] = newValue
		}
	}

	for key, newValue := range newSnap {
		if _, ok := oldSnap[key]; !ok {
			newDiff[key] = newValue
		}
	}

	return oldDiff, newDiff
}

// Record computes the field-level diff and persists one entry. Updates where
// nothing changed are silently skipped so the trail carries no noise entries.
func (r *Recorder) Record(warrantyID int, action string, actor models.Actor, oldSnap, newSnap map[string]interface{}) {
	oldDiff, newDiff := Diff(oldSnap, newSnap)

	if action == models.ActionUpdated && len(oldDiff) == 0 && len(newDiff) == 0 {
		return
	}

	entry := models.AuditEntry{
		WarrantyID:      warrantyID,
		Action:          action,
		PerformedBy:     actor.ID,
		PerformedByName: actor.Name,
		OldValue:        oldDiff,
		NewValue:        newDiff,
		IPAddress:       actor.IPAddress,
		UserAgent:       actor.UserAgent,
		CreatedAt:       time.Now(),
	}

	var err error
	for attempt := 0; attempt < persistAttempts; attempt++ {
		if err = r.store.PersistEntry(entry); err == nil {
			return
		}
	}

	r.log.Error("audit entry could not be persisted",
		zap.Int("warranty_id", warrantyID),
		zap.String("action", action),
		zap.String("performed_by", actor.ID),
		zap.Error(err),
	)
}
