package repository

import "github.com/doug-martin/goqu/v9"

// QueryBuilder turns request filters into goqu conditions.
type QueryBuilder interface {
	BuildConditions() ([]goqu.Expression, error)
}
