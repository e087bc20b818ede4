package core

import (
	"fmt"
	"strconv"
	"strings"
)

// bindMarker stands in for a clause's bind value until Build assigns it
// a position. Every occurrence within one clause refers to the same value.
const bindMarker = "$?"

// Criterion is an optional search value: either absent or present with a
// non-blank fragment. The zero value is absent.
type Criterion struct {
	value   string
	present bool
}

// Absent returns a criterion that does not filter.
func Absent() Criterion {
	return Criterion{}
}

// Present returns a criterion for value. Blank values (empty or only
// whitespace) are treated exactly like Absent. The value itself is kept
// verbatim, including any LIKE wildcards.
func Present(value string) Criterion {
	if strings.TrimSpace(value) == "" {
		return Criterion{}
	}
	return Criterion{value: value, present: true}
}

// Value returns the fragment and whether the criterion is present.
func (c Criterion) Value() (string, bool) {
	return c.value, c.present
}

// IsPresent reports whether the criterion filters.
func (c Criterion) IsPresent() bool {
	return c.present
}

// SearchCriteria holds the optional filters accepted by search and export.
type SearchCriteria struct {
	Name Criterion // matches nombre OR apellido
	City Criterion // matches ciudad
}

// NewSearchCriteria builds criteria from raw query parameter values.
func NewSearchCriteria(name, city string) SearchCriteria {
	return SearchCriteria{Name: Present(name), City: Present(city)}
}

// IsEmpty reports whether no criterion is present.
func (c SearchCriteria) IsEmpty() bool {
	return !c.Name.IsPresent() && !c.City.IsPresent()
}

// clause is one predicate template with its single bind value.
type clause struct {
	template string
	arg      any
}

// WhereBuilder accumulates predicate clauses and renders them as a
// WHERE clause with positional placeholders. Clauses are kept as a list
// and numbered only in Build, so positions never depend on which optional
// criteria happened to be present.
type WhereBuilder struct {
	clauses []clause
}

// NewWhereBuilder returns an empty builder. Building it yields no WHERE
// clause, which matches every row.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// AddClause appends a predicate whose template refers to its bind value
// with "$?". All markers in the template share one placeholder.
func (wb *WhereBuilder) AddClause(template string, arg any) {
	wb.clauses = append(wb.clauses, clause{template: template, arg: arg})
}

// AddContains appends a case-insensitive substring match of c against any
// of columns. Absent criteria and empty column lists add nothing.
func (wb *WhereBuilder) AddContains(c Criterion, columns ...string) {
	fragment, ok := c.Value()
	if !ok || len(columns) == 0 {
		return
	}

	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE %s", quoteIdentifier(col), bindMarker)
	}
	wb.AddClause("("+strings.Join(parts, " OR ")+")", containsPattern(fragment))
}

// AddCriteria appends the standard personas search predicates.
func (wb *WhereBuilder) AddCriteria(c SearchCriteria) {
	wb.AddContains(c.Name, "nombre", "apellido")
	wb.AddContains(c.City, "ciudad")
}

// Build renders the WHERE clause (with a leading space) and the bind
// values in placeholder order. With no clauses it returns "" and nil.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.clauses) == 0 {
		return "", nil
	}

	conditions := make([]string, len(wb.clauses))
	args := make([]any, len(wb.clauses))
	for i, c := range wb.clauses {
		conditions[i] = strings.ReplaceAll(c.template, bindMarker, "$"+strconv.Itoa(i+1))
		args[i] = c.arg
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// containsPattern wraps a fragment for substring matching. The fragment is
// not escaped: % and _ typed by the user act as LIKE wildcards.
func containsPattern(fragment string) string {
	return "%" + fragment + "%"
}

// buildSelect returns the personas SELECT statement for criteria, newest first.
func buildSelect(c SearchCriteria) (string, []any) {
	wb := NewWhereBuilder()
	wb.AddCriteria(c)
	where, args := wb.Build()

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s DESC",
		strings.Join(recordColumns, ", "),
		quoteIdentifier(TableName),
		where,
		quoteIdentifier("id"),
	)
	return query, args
}

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
