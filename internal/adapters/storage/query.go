package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the text format every timestamp column is stored in. The
// fraction is fixed width so that text order is time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Where accumulates parameterised WHERE conditions. Column names are always
// supplied by code; user input only ever reaches Args.
type Where struct {
	clauses []string
	args    []any
}

// NewWhere returns an empty condition set.
func NewWhere() *Where {
	return &Where{}
}

// Eq adds "col = ?".
func (w *Where) Eq(col string, v any) *Where {
	w.clauses = append(w.clauses, col+" = ?")
	w.args = append(w.args, v)
	return w
}

// EqIf adds "col = ?" when v is non-empty.
func (w *Where) EqIf(col, v string) *Where {
	if v == "" {
		return w
	}
	return w.Eq(col, v)
}

// BoolIf adds "col = 0|1" for the filter values "1"/"yes"/"true" and "0"/"no"/"false".
// Any other value is ignored.
func (w *Where) BoolIf(col, v string) *Where {
	switch strings.ToLower(v) {
	case "1", "yes", "true":
		return w.Eq(col, 1)
	case "0", "no", "false":
		return w.Eq(col, 0)
	}
	return w
}

// Search adds "(c1 LIKE ? ESCAPE '\' OR c2 LIKE ? ...)" for a non-empty term.
func (w *Where) Search(term string, cols ...string) *Where {
	term = strings.TrimSpace(term)
	if term == "" || len(cols) == 0 {
		return w
	}
	pattern := "%" + EscapeLike(term) + "%"
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + ` LIKE ? ESCAPE '\'`
		w.args = append(w.args, pattern)
	}
	w.clauses = append(w.clauses, "("+strings.Join(parts, " OR ")+")")
	return w
}

// Raw adds a literal condition with its bound args.
func (w *Where) Raw(clause string, args ...any) *Where {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
	return w
}

// SQL returns " WHERE ..." or "" when there are no conditions.
func (w *Where) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// Args returns a copy of the bound arguments in clause order.
func (w *Where) Args() []any {
	out := make([]any, len(w.args))
	copy(out, w.args)
	return out
}

// EscapeLike escapes LIKE wildcards so the term matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// OrderBy returns a safe ORDER BY clause. sort is looked up in allowed (request
// name to column expression); unknown names fall back to fallback.
func OrderBy(sort, dir string, allowed map[string]string, fallback string) string {
	col, ok := allowed[sort]
	if !ok {
		return " ORDER BY " + fallback
	}
	d := "ASC"
	if strings.EqualFold(dir, "desc") {
		d = "DESC"
	}
	return " ORDER BY " + col + " " + d
}

// Page returns the LIMIT/OFFSET suffix with its args appended. A non-positive
// limit means no limit.
func Page(args []any, limit, offset int) (string, []any) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	return " LIMIT ? OFFSET ?", append(args, limit, offset)
}

// Placeholders returns "?, ?, ?" for n values.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// StringArgs converts ids into a []any for IN clauses.
func StringArgs(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// NullTime returns nil for the zero time, otherwise FormatTime(t).
func NullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

// NullString returns nil for "", otherwise s.
func NullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ParseTime parses a stored timestamp, accepting variable-width fractions and
// the formats SQLite's datetime() produces.
func ParseTime(s string) (time.Time, error) {
	formats := []string{
		TimeLayout,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}

// ParseNullTime returns the zero time for NULL or unparsable values.
func ParseNullTime(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	t, _ := ParseTime(ns.String)
	return t
}

// Bool converts a Go bool to SQLite's 0/1 integer.
func Bool(b bool) int {
	if b {
		return 1
	}
	return 0
}

// NotFound wraps sql.ErrNoRows with the entity name so callers can errors.Is it.
func NotFound(entity string, err error) error {
	if err == sql.ErrNoRows {
		return fmt.Errorf("%s not found: %w", entity, err)
	}
	return err
}

// ListOptions carries the search, sort and page part shared by every list query.
type ListOptions struct {
	Search string
	Sort   string
	Dir    string
	Limit  int
	Offset int
}
