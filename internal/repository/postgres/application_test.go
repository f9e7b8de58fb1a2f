package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"titledesk/internal/domain/models"
)

func TestBuildApplicationFilter_HidesDeletedRows(t *testing.T) {
	qb := buildApplicationFilter(&models.ApplicationFilter{})

	assert.Equal(t, " WHERE status <> $1", qb.WhereClause())
	assert.Equal(t, []interface{}{models.StatusDeleted}, qb.Args())
}

func TestBuildApplicationFilter_StatusAndScope(t *testing.T) {
	qb := buildApplicationFilter(&models.ApplicationFilter{
		Status:       models.StatusQuery,
		Company:      "Acme Bank",
		CompanyNames: []string{"Acme Bank"},
	})

	assert.Equal(t, " WHERE status = $1 AND company_name = $2 AND company_name = ANY($3)", qb.WhereClause())
	assert.Equal(t, []interface{}{models.StatusQuery, "Acme Bank", []string{"Acme Bank"}}, qb.Args())
}
