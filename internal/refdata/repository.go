package refdata

import (
	"fmt"
	"time"

	"github.com/Ngonie-x/warrant-register/internal/repository"
	"github.com/Ngonie-x/warrant-register/pkg/models"
	"github.com/doug-martin/goqu/v9"
)

// ReferenceRepository mirrors the lookup tables owned by the external
// asset-management system. Rows are only written through sync batches.
type ReferenceRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *ReferenceRepository {
	return &ReferenceRepository{repository: r}
}

func (r *ReferenceRepository) SyncDepartments(items []models.NamedSyncItem) (*models.SyncResult, error) {
	return r.syncNamedEntities("departments", items)
}

func (r *ReferenceRepository) SyncCategories(items []models.NamedSyncItem) (*models.SyncResult, error) {
	return r.syncNamedEntities("categories", items)
}

func (r *ReferenceRepository) syncNamedEntities(table string, items []models.NamedSyncItem) (*models.SyncResult, error) {
	result := &models.SyncResult{Success: true}

	err := repository.WithTransaction(r.repository.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		for _, item := range items {
			var id int
			found, err := tx.Select(goqu.I("id")).
				From(table).
				Where(goqu.Ex{"external_id": item.ID}).
				Executor().ScanVal(&id)
			if err != nil {
				return fmt.Errorf("unable to look up %s %s: %w", table, item.ID, err)
			}

			if found {
				_, err = tx.Update(table).
					Set(goqu.Record{"name": item.Name, "synced_at": time.Now()}).
					Where(goqu.Ex{"id": id}).
					Executor().Exec()
				if err != nil {
					return fmt.Errorf("unable to update %s %s: %w", table, item.ID, err)
				}
				result.Updated++
				continue
			}

			row := goqu.Record{"external_id": item.ID, "name": item.Name}
			if item.CreatedAt != nil {
				row["created_at"] = *item.CreatedAt
			}
			_, err = tx.Insert(table).Rows(row).Executor().Exec()
			if err != nil {
				return fmt.Errorf("unable to insert %s %s: %w", table, item.ID, err)
			}
			result.Created++
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ReferenceRepository) SyncProfiles(items []models.ProfileSyncItem) (*models.SyncResult, error) {
	result := &models.SyncResult{Success: true}

	err := repository.WithTransaction(r.repository.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		for _, item := range items {
			var id int
			found, err := tx.Select(goqu.I("id")).
				From("profiles").
				Where(goqu.Ex{"external_id": item.ID}).
				Executor().ScanVal(&id)
			if err != nil {
				return fmt.Errorf("unable to look up profile %s: %w", item.ID, err)
			}

			row := goqu.Record{
				"full_name": item.FullName,
				"synced_at": time.Now(),
			}
			if item.Role != nil {
				row["role"] = *item.Role
			}
			if item.Department != nil {
				row["department"] = *item.Department
			}

			if found {
				_, err = tx.Update("profiles").Set(row).Where(goqu.Ex{"id": id}).Executor().Exec()
				if err != nil {
					return fmt.Errorf("unable to update profile %s: %w", item.ID, err)
				}
				result.Updated++
				continue
			}

			row["external_id"] = item.ID
			_, err = tx.Insert("profiles").Rows(row).Executor().Exec()
			if err != nil {
				return fmt.Errorf("unable to insert profile %s: %w", item.ID, err)
			}
			result.Created++
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResolveCategoryName maps an external id or a differently-cased name to the
// canonical category name. Resolution is best-effort: unknown values come
// back unchanged and are stored as free text.
func (r *ReferenceRepository) ResolveCategoryName(value string) string {
	return r.resolveName("categories", value)
}

func (r *ReferenceRepository) ResolveDepartmentName(value string) string {
	return r.resolveName("departments", value)
}

func (r *ReferenceRepository) resolveName(table, value string) string {
	if value == "" {
		return value
	}

	var name string
	found, err := r.repository.GoquDBWrapper.
		Select(goqu.I("name")).
		From(table).
		Where(goqu.Or(
			goqu.Ex{"external_id": value},
			goqu.I("name").ILike(value),
		)).
		Limit(1).
		Executor().ScanVal(&name)

	if err != nil || !found {
		return value
	}
	return name
}

// ResolveProfileName returns the synced full name for an external user id, or
// empty when unknown.
func (r *ReferenceRepository) ResolveProfileName(externalID string) string {
	if externalID == "" {
		return ""
	}

	var fullName string
	found, err := r.repository.GoquDBWrapper.
		Select(goqu.I("full_name")).
		From("profiles").
		Where(goqu.Ex{"external_id": externalID}).
		Executor().ScanVal(&fullName)

	if err != nil || !found {
		return ""
	}
	return fullName
}

func (r *ReferenceRepository) GetDepartments() ([]models.Department, error) {
	var departments []models.Department
	err := r.repository.GoquDBWrapper.
		From("departments").
		Order(goqu.I("name").Asc()).
		Executor().ScanStructs(&departments)
	if err != nil {
		return nil, fmt.Errorf("unable to select departments: %w", err)
	}
	return departments, nil
}

func (r *ReferenceRepository) GetCategories() ([]models.Category, error) {
	var categories []models.Category
	err := r.repository.GoquDBWrapper.
		From("categories").
		Order(goqu.I("name").Asc()).
		Executor().ScanStructs(&categories)
	if err != nil {
		return nil, fmt.Errorf("unable to select categories: %w", err)
	}
	return categories, nil
}

func (r *ReferenceRepository) GetProfiles() ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.repository.GoquDBWrapper.
		From("profiles").
		Order(goqu.I("full_name").Asc()).
		Executor().ScanStructs(&profiles)
	if err != nil {
		return nil, fmt.Errorf("unable to select profiles: %w", err)
	}
	return profiles, nil
}
