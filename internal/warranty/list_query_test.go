package warranty

import (
	"testing"

	custom_error "github.com/Ngonie-x/warrant-register/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeAppliesDefaults(t *testing.T) {
	tests := []struct {
		name           string
		query          ListQuery
		expectedLimit  int
		expectedOffset int
	}{
		{"zero values", ListQuery{}, defaultPageSize, 0},
		{"negative values", ListQuery{Limit: -5, Offset: -10}, defaultPageSize, 0},
		{"limit above cap", ListQuery{Limit: 500}, maxPageSize, 0},
		{"valid values kept", ListQuery{Limit: 50, Offset: 100}, 50, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.query.Normalize()
			assert.Equal(t, tt.expectedLimit, tt.query.Limit)
			assert.Equal(t, tt.expectedOffset, tt.query.Offset)
		})
	}
}

func TestBuildConditions(t *testing.T) {
	tests := []struct {
		name          string
		query         ListQuery
		expectedCount int
		expectError   bool
	}{
		{"no filters", ListQuery{}, 0, false},
		{"status filter", ListQuery{Status: "registered"}, 1, false},
		{"invalid status", ListQuery{Status: "bogus"}, 0, true},
		{"search plus department", ListQuery{Search: "latitude", Department: "IT"}, 2, false},
		{"date range", ListQuery{DateFrom: "2025-01-01", DateTo: "2025-06-30"}, 2, false},
		{"malformed date_from", ListQuery{DateFrom: "01/01/2025"}, 0, true},
		{"malformed date_to", ListQuery{DateTo: "yesterday"}, 0, true},
		{"everything", ListQuery{
			Status:       "registered",
			Department:   "IT",
			Category:     "Laptops",
			Search:       "dell",
			DateFrom:     "2025-01-01",
			DateTo:       "2025-06-30",
			RegisteredBy: "usr-9",
		}, 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conditions, err := tt.query.BuildConditions()
			if tt.expectError {
				// Filter problems are validation errors, so handlers can
				// keep them apart from database failures.
				var validationErr *custom_error.ValidationError
				assert.ErrorAs(t, err, &validationErr)
				return
			}
			assert.NoError(t, err)
			assert.Len(t, conditions, tt.expectedCount)
		})
	}
}
