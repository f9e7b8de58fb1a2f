package postgres

import (
	"fmt"
	"strings"
)

// QueryBuilder folds optional filter predicates and their arguments into a
// parameterized WHERE clause. Predicates use "?" for each argument; the
// builder renumbers them to $1..$n in the order they were added.
type QueryBuilder struct {
	predicates []string
	args       []interface{}
}

// NewQueryBuilder returns an empty builder
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// Where adds a predicate. The number of "?" in pred must equal len(args).
func (b *QueryBuilder) Where(pred string, args ...interface{}) *QueryBuilder {
	if strings.Count(pred, "?") != len(args) {
		panic(fmt.Sprintf("query builder: predicate %q expects %d args, got %d",
			pred, strings.Count(pred, "?"), len(args)))
	}

	var sb strings.Builder
	for _, r := range pred {
		if r == '?' {
			b.args = append(b.args, args[0])
			args = args[1:]
			fmt.Fprintf(&sb, "$%d", len(b.args))
			continue
		}
		sb.WriteRune(r)
	}
	b.predicates = append(b.predicates, sb.String())
	return b
}

// WhereIf adds the predicate only when cond is true
func (b *QueryBuilder) WhereIf(cond bool, pred string, args ...interface{}) *QueryBuilder {
	if cond {
		b.Where(pred, args...)
	}
	return b
}

// WhereEq adds "column = ?" when value is non-empty
func (b *QueryBuilder) WhereEq(column, value string) *QueryBuilder {
	return b.WhereIf(value != "", column+" = ?", value)
}

// WhereAny adds "column = ANY(?)" with values bound as one array parameter.
// An empty slice matches nothing.
func (b *QueryBuilder) WhereAny(column string, values []string) *QueryBuilder {
	if values == nil {
		values = []string{}
	}
	return b.Where(column+" = ANY(?)", values)
}

// Search adds a case-insensitive substring match across columns, OR-ed together.
// Blank terms are ignored.
func (b *QueryBuilder) Search(term string, columns ...string) *QueryBuilder {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return b
	}
	pattern := "%" + escapeLike(term) + "%"

	parts := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, c := range columns {
		parts[i] = c + " ILIKE ?"
		args[i] = pattern
	}
	return b.Where("("+strings.Join(parts, " OR ")+")", args...)
}

// Arg appends a bare argument (e.g. for LIMIT/OFFSET) and returns its placeholder
func (b *QueryBuilder) Arg(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// WhereClause renders " WHERE p1 AND p2 ..." or an empty string
func (b *QueryBuilder) WhereClause() string {
	if len(b.predicates) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.predicates, " AND ")
}

// Args returns the bound arguments in placeholder order
func (b *QueryBuilder) Args() []interface{} {
	return b.args
}

// Paginate renders " LIMIT $n OFFSET $m" on a copy of the args, so the same
// builder can serve both the page query and the COUNT query.
func (b *QueryBuilder) Paginate(limit, offset int) (string, []interface{}) {
	args := make([]interface{}, len(b.args), len(b.args)+2)
	copy(args, b.args)
	args = append(args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
