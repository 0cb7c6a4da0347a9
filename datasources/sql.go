/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package datasources

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/query"
)

// Placeholder is a SQL bind parameter style.
type Placeholder int

const (
	// Question binds with "?" (sqlite, mysql).
	Question Placeholder = iota
	// Dollar binds with "$1", "$2", ... (postgres).
	Dollar
)

// PlaceholderFor returns the bind style of a database/sql driver name.
func PlaceholderFor(driver string) Placeholder {
	switch strings.ToLower(driver) {
	case "pgx", "postgres", "postgresql":
		return Dollar
	}
	return Question
}

// schemaSampleSize bounds the rows read to infer a SQL object's schema.
const schemaSampleSize = 50

// SQLSource serves tables and views of a database/sql database. The
// object name is the table name.
type SQLSource struct {
	db          *sql.DB
	placeholder Placeholder
}

// NewSQLSource wraps db. driver selects the bind parameter style.
func NewSQLSource(db *sql.DB, driver string) *SQLSource {
	return &SQLSource{db: db, placeholder: PlaceholderFor(driver)}
}

// DB returns the underlying database handle.
func (s *SQLSource) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *SQLSource) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Find implements RowSource.
func (s *SQLSource) Find(ctx context.Context, object string, params FindParams) (*FindResult, error) {
	stmt, args := BuildSelect(object, params, s.placeholder)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", object, err)
	}
	defer rows.Close()

	data, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", object, err)
	}
	return &FindResult{Data: data}, nil
}

// GetSchema implements RowSource. Field types come from the driver's
// column types, falling back to inference over a small row sample.
func (s *SQLSource) GetSchema(ctx context.Context, object string) (*Schema, error) {
	stmt := fmt.Sprintf("SELECT * FROM %s LIMIT %d", QuoteIdent(object), schemaSampleSize)
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", object, err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", object, err)
	}
	sample, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", object, err)
	}

	order := make([]string, len(colTypes))
	fields := make(map[string]columns.FieldDescriptor, len(colTypes))
	for i, ct := range colTypes {
		order[i] = ct.Name()
		// Name-based rules take precedence over the storage type.
		if t, ok := columns.LookupType(sqlTypeName(ct.DatabaseTypeName())); ok && !nameImpliesType(ct.Name()) {
			fields[ct.Name()] = columns.FieldDescriptor{Name: ct.Name(), Type: string(t)}
		}
	}
	return inferSchema(order, fields, sample), nil
}

// nameImpliesType reports whether the field name alone decides the type.
func nameImpliesType(name string) bool {
	t, _ := columns.InferField(name, nil, 0)
	return t != columns.TypeText
}

// sqlTypeName maps a database type name to a semantic type spelling.
// Text-like and unknown types return "" so inference decides.
func sqlTypeName(dbType string) string {
	t := strings.ToUpper(dbType)
	switch {
	case strings.Contains(t, "INT"), strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"),
		strings.Contains(t, "REAL"), strings.Contains(t, "DOUBLE"), strings.Contains(t, "FLOAT"):
		return "number"
	case strings.Contains(t, "BOOL"):
		return "boolean"
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIME"):
		return "date"
	}
	return ""
}

// Objects implements Lister for sqlite and postgres databases.
func (s *SQLSource) Objects(ctx context.Context) ([]string, error) {
	stmt := `SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name`
	if s.placeholder == Dollar {
		stmt = `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name`
	}
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// scanRows reads every row into a map, converting []byte to string.
func scanRows(rows *sql.Rows) ([]columns.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []columns.Row
	values := make([]any, len(cols))
	valuePtrs := make([]any, len(cols))
	for rows.Next() {
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}
		row := make(columns.Row, len(cols))
		for i, col := range cols {
			val := values[i]
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// QuoteIdent quotes a SQL identifier with double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// BuildSelect renders the SELECT statement for a Find request.
func BuildSelect(object string, params FindParams, style Placeholder) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(params.Select) == 0 {
		b.WriteString("*")
	} else {
		for i, f := range params.Select {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(QuoteIdent(f))
		}
	}
	b.WriteString(" FROM ")
	b.WriteString(QuoteIdent(object))

	w := &whereBuilder{style: style}
	if clause := w.group(query.ParseSpecFilter(params.Filter)); clause != "" {
		b.WriteString(" WHERE ")
		b.WriteString(clause)
	}

	if items := query.ParseOrderBy(params.OrderBy); len(items) > 0 {
		b.WriteString(" ORDER BY ")
		for i, it := range items {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(QuoteIdent(it.Field))
			if it.Order == query.Desc {
				b.WriteString(" DESC")
			}
		}
	}
	if params.Top > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(params.Top))
	}
	return b.String(), w.args
}

type whereBuilder struct {
	style Placeholder
	args  []any
}

func (w *whereBuilder) bind(v any) string {
	if t, ok := v.(time.Time); ok {
		v = t.UTC()
	}
	w.args = append(w.args, v)
	if w.style == Dollar {
		return "$" + strconv.Itoa(len(w.args))
	}
	return "?"
}

func (w *whereBuilder) group(g query.ConditionGroup) string {
	if len(g.Conditions) == 0 {
		return ""
	}
	parts := make([]string, len(g.Conditions))
	for i, c := range g.Conditions {
		parts[i] = w.condition(c)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	joiner := " AND "
	if g.Logic == query.LogicOr {
		joiner = " OR "
	}
	for i, p := range parts {
		parts[i] = "(" + p + ")"
	}
	return strings.Join(parts, joiner)
}

func (w *whereBuilder) condition(c query.Condition) string {
	col := QuoteIdent(c.Field)
	text := "CAST(" + col + " AS TEXT)"
	switch c.Operator {
	case query.OpEquals:
		return col + " = " + w.bind(c.Value)
	case query.OpNotEquals:
		return col + " <> " + w.bind(c.Value)
	case query.OpGreaterThan, query.OpAfter:
		return col + " > " + w.bind(c.Value)
	case query.OpLessThan, query.OpBefore:
		return col + " < " + w.bind(c.Value)
	case query.OpGreaterOrEqual:
		return col + " >= " + w.bind(c.Value)
	case query.OpLessOrEqual:
		return col + " <= " + w.bind(c.Value)
	case query.OpContains:
		return "LOWER(" + text + ") LIKE " + w.bind(likePattern(c.Value)) + ` ESCAPE '\'`
	case query.OpNotContains:
		return col + " IS NULL OR LOWER(" + text + ") NOT LIKE " + w.bind(likePattern(c.Value)) + ` ESCAPE '\'`
	case query.OpIsEmpty:
		return col + " IS NULL OR " + text + " = ''"
	case query.OpIsNotEmpty:
		return col + " IS NOT NULL AND " + text + " <> ''"
	case query.OpIn, query.OpNotIn:
		list := query.ListValue(c.Value)
		if len(list) == 0 {
			if c.Operator == query.OpIn {
				return "1 = 0"
			}
			return "1 = 1"
		}
		binds := make([]string, len(list))
		for i, v := range list {
			binds[i] = w.bind(v)
		}
		op := " IN ("
		if c.Operator == query.OpNotIn {
			op = " NOT IN ("
		}
		return col + op + strings.Join(binds, ", ") + ")"
	case query.OpBetween:
		bounds := query.ListValue(c.Value)
		if len(bounds) != 2 {
			return "1 = 0"
		}
		return col + " BETWEEN " + w.bind(bounds[0]) + " AND " + w.bind(bounds[1])
	}
	return "1 = 0"
}

func likePattern(v any) string {
	s := strings.ToLower(columns.Stringify(v))
	s = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
	return "%" + s + "%"
}
