// Package patch builds owner-scoped partial UPDATE statements from
// caller-supplied field maps.
//
// The set of writable columns is fixed per entity type by a Schema. Field
// names from a request are only ever used as lookup keys into that schema;
// they never reach the generated SQL.
package patch

import (
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
)

// Kind is the value type a column accepts.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindBoolean
	KindDate
	KindTextArray
)

// String returns the kind name used in validation messages.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "string"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date (YYYY-MM-DD)"
	case KindTextArray:
		return "array of strings"
	default:
		return "unknown"
	}
}

// Column describes one allow-listed, caller-writable column.
type Column struct {
	Name     string
	Kind     Kind
	Nullable bool

	// MaxLen limits text values and array elements, in runes. Zero means no limit.
	MaxLen int
	// MaxItems limits text arrays. Zero means no limit.
	MaxItems int
	// Bounded enables the Min/Max range check for integers.
	Bounded  bool
	Min, Max int64
	// OneOf restricts text values to an enumeration.
	OneOf []string
}

// Text declares a nullable text column.
func Text(name string, maxLen int) Column {
	return Column{Name: name, Kind: KindText, Nullable: true, MaxLen: maxLen}
}

// Enum declares a text column restricted to the given values.
func Enum(name string, values ...string) Column {
	return Column{Name: name, Kind: KindText, Nullable: true, OneOf: values}
}

// Integer declares a nullable integer column limited to [min, max].
func Integer(name string, min, max int64) Column {
	return Column{Name: name, Kind: KindInteger, Nullable: true, Bounded: true, Min: min, Max: max}
}

// Boolean declares a nullable boolean column.
func Boolean(name string) Column {
	return Column{Name: name, Kind: KindBoolean, Nullable: true}
}

// Date declares a nullable date column.
func Date(name string) Column {
	return Column{Name: name, Kind: KindDate, Nullable: true}
}

// TextArray declares a nullable text[] column.
func TextArray(name string, maxItems, maxLen int) Column {
	return Column{Name: name, Kind: KindTextArray, Nullable: true, MaxItems: maxItems, MaxLen: maxLen}
}

// Required returns a copy of the column that rejects null and empty values.
func (c Column) Required() Column {
	c.Nullable = false
	return c
}

// SystemFields are identity, ownership and audit columns. They are stripped
// from every request regardless of schema.
var SystemFields = []string{
	"id",
	"firebase_uid",
	"customer_id",
	"member_since",
	"created_at",
	"updated_at",
}

// Schema is the fixed update contract of one entity type.
type Schema struct {
	// Table is the target table.
	Table string
	// Key is the primary key column used to address a single row.
	Key string
	// Owner is the column holding the owning account id. For the account
	// table itself Owner equals Key.
	Owner string
	// Modified is the audit column stamped on every successful update.
	Modified string
	// Protected lists extra columns stripped before the allow-list runs.
	Protected []string
	// Columns is the allow-list.
	Columns []Column
	// Returning lists the expressions returned for the updated row.
	Returning []string

	columns   map[string]Column
	protected map[string]struct{}
}

// MustSchema validates and indexes a schema. It panics when the allow-list
// overlaps the protected set, since such a schema could write an identity,
// ownership or audit column.
func MustSchema(s Schema) *Schema {
	if s.Table == "" || s.Key == "" || s.Owner == "" || s.Modified == "" {
		panic("patch: schema requires table, key, owner and modified columns")
	}
	if len(s.Returning) == 0 {
		panic(fmt.Sprintf("patch: schema %s has no returning list", s.Table))
	}

	s.protected = make(map[string]struct{}, len(SystemFields)+len(s.Protected)+3)
	for _, name := range SystemFields {
		s.protected[name] = struct{}{}
	}
	for _, name := range s.Protected {
		s.protected[name] = struct{}{}
	}
	s.protected[s.Key] = struct{}{}
	s.protected[s.Owner] = struct{}{}
	s.protected[s.Modified] = struct{}{}

	s.columns = make(map[string]Column, len(s.Columns))
	for _, col := range s.Columns {
		if _, bad := s.protected[col.Name]; bad {
			panic(fmt.Sprintf("patch: column %s.%s is protected and cannot be allow-listed", s.Table, col.Name))
		}
		if _, dup := s.columns[col.Name]; dup {
			panic(fmt.Sprintf("patch: column %s.%s declared twice", s.Table, col.Name))
		}
		s.columns[col.Name] = col
	}

	return &s
}

// IsProtected reports whether a field is never writable through this schema.
func (s *Schema) IsProtected(field string) bool {
	_, ok := s.protected[field]
	return ok
}

// Column returns the allow-listed column for a field name.
func (s *Schema) Column(field string) (Column, bool) {
	col, ok := s.columns[field]
	return col, ok
}

// Writable returns the sorted allow-listed field names.
func (s *Schema) Writable() []string {
	names := make([]string, 0, len(s.columns))
	for name := range s.columns {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
