package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryBuilder_Empty(t *testing.T) {
	b := NewQueryBuilder()
	assert.Equal(t, "", b.WhereClause())
	assert.Empty(t, b.Args())

	page, args := b.Paginate(20, 40)
	assert.Equal(t, " LIMIT $1 OFFSET $2", page)
	assert.Equal(t, []interface{}{20, 40}, args)
}

func TestQueryBuilder_RenumbersPlaceholders(t *testing.T) {
	b := NewQueryBuilder().
		WhereEq("status", "Login").
		WhereEq("branch_name", "").
		Search("acme", "company_name", "file_number").
		WhereAny("company_name", []string{"Acme Bank"})

	assert.Equal(t,
		" WHERE status = $1 AND (company_name ILIKE $2 OR file_number ILIKE $3) AND company_name = ANY($4)",
		b.WhereClause())
	assert.Equal(t, []interface{}{"Login", "%acme%", "%acme%", []string{"Acme Bank"}}, b.Args())

	page, args := b.Paginate(10, 0)
	assert.Equal(t, " LIMIT $5 OFFSET $6", page)
	assert.Len(t, args, 6)
	assert.Len(t, b.Args(), 4, "paginate must not mutate the count args")
}

func TestQueryBuilder_WhereAnyNilMatchesNothing(t *testing.T) {
	b := NewQueryBuilder().WhereAny("company_name", nil)
	assert.Equal(t, []interface{}{[]string{}}, b.Args())
}

func TestQueryBuilder_SearchEscapesWildcards(t *testing.T) {
	b := NewQueryBuilder().Search(` 50%_off\ `, "name")
	assert.Equal(t, []interface{}{`%50\%\_off\\%`}, b.Args())

	assert.Empty(t, NewQueryBuilder().Search("   ", "name").Args())
}

func TestQueryBuilder_ArgCountMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewQueryBuilder().Where("a = ? AND b = ?", 1)
	})
}

func TestQueryBuilder_Arg(t *testing.T) {
	b := NewQueryBuilder().WhereEq("status", "open")
	assert.Equal(t, "$2", b.Arg(5))
}
