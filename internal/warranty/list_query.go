package warranty

import (
	"time"

	custom_error "github.com/Ngonie-x/warrant-register/pkg/errors"
	"github.com/Ngonie-x/warrant-register/pkg/metadata"
	"github.com/Ngonie-x/warrant-register/pkg/models"
	"github.com/doug-martin/goqu/v9"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListQuery carries the filter and pagination parameters of a list call.
type ListQuery struct {
	Status       string `form:"status"`
	Department   string `form:"department"`
	Category     string `form:"category"`
	Search       string `form:"search"`
	DateFrom     string `form:"date_from"`
	DateTo       string `form:"date_to"`
	RegisteredBy string `form:"registered_by"`
	Limit        int    `form:"limit"`
	Offset       int    `form:"offset"`
}

// Normalize clamps pagination to sane bounds.
func (q *ListQuery) Normalize() {
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// BuildConditions translates the filters into query expressions shared by the
// page select and the total count.
func (q *ListQuery) BuildConditions() ([]goqu.Expression, error) {
	var conditions []goqu.Expression

	if q.Status != "" {
		status, err := metadata.NewStatus(q.Status)
		if err != nil {
			return nil, custom_error.NewValidationError(map[string]string{"status": err.Error()})
		}
		conditions = append(conditions, goqu.Ex{"status": status.String()})
	}

	if q.Department != "" {
		conditions = append(conditions, goqu.I("department").ILike("%"+q.Department+"%"))
	}

	if q.Category != "" {
		conditions = append(conditions, goqu.I("category").ILike("%"+q.Category+"%"))
	}

	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		conditions = append(conditions, goqu.Or(
			goqu.I("asset_name").ILike(pattern),
			goqu.I("serial_number").ILike(pattern),
			goqu.I("registered_by_name").ILike(pattern),
		))
	}

	if q.RegisteredBy != "" {
		conditions = append(conditions, goqu.Ex{"registered_by_external_id": q.RegisteredBy})
	}

	if q.DateFrom != "" {
		from, err := time.Parse(models.DateLayout, q.DateFrom)
		if err != nil {
			return nil, custom_error.NewValidationError(map[string]string{"date_from": "must be a valid date in YYYY-MM-DD format"})
		}
		conditions = append(conditions, goqu.I("registered_at").Gte(from))
	}

	if q.DateTo != "" {
		to, err := time.Parse(models.DateLayout, q.DateTo)
		if err != nil {
			return nil, custom_error.NewValidationError(map[string]string{"date_to": "must be a valid date in YYYY-MM-DD format"})
		}
		// date_to is inclusive, so compare against the start of the next day
		conditions = append(conditions, goqu.I("registered_at").Lt(to.AddDate(0, 0, 1)))
	}

	return conditions, nil
}
