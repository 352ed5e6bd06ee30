package patch

import (
	"encoding/json"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Request is a caller-supplied mapping from field name to new value, as
// decoded from a JSON body.
type Request map[string]any

// Assignment is one column write that survived filtering.
type Assignment struct {
	Column string
	Kind   Kind
	Value  any
}

// Plan is a filtered, validated update for one schema.
type Plan struct {
	schema *Schema

	// Set holds the column writes in column-name order.
	Set []Assignment
	// Stripped lists identity, ownership and audit fields removed from the request.
	Stripped []string
	// Ignored lists fields dropped because they are not in the allow-list.
	Ignored []string
}

// Prepare filters a request against a schema. Protected fields are removed
// first, then fields outside the allow-list are dropped, then the remaining
// values are checked against their column kinds.
//
// It returns ErrNoFieldsToUpdate when nothing writable remains.
func Prepare(s *Schema, req Request) (*Plan, error) {
	fields := make([]string, 0, len(req))
	for field := range req {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	plan := &Plan{schema: s}
	for _, field := range fields {
		if s.IsProtected(field) {
			plan.Stripped = append(plan.Stripped, field)
			continue
		}

		col, ok := s.Column(field)
		if !ok {
			plan.Ignored = append(plan.Ignored, field)
			continue
		}

		value, err := col.coerce(req[field])
		if err != nil {
			return nil, err
		}
		plan.Set = append(plan.Set, Assignment{Column: col.Name, Kind: col.Kind, Value: value})
	}

	if len(plan.Set) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	return plan, nil
}

// Schema returns the schema the plan was prepared for.
func (p *Plan) Schema() *Schema {
	return p.schema
}

// Columns returns the names of the columns the plan writes.
func (p *Plan) Columns() []string {
	names := make([]string, len(p.Set))
	for i, a := range p.Set {
		names[i] = a.Column
	}
	return names
}

func (c Column) coerce(v any) (any, error) {
	if v == nil {
		if !c.Nullable {
			return nil, invalid(c.Name, "must not be null")
		}
		if c.Kind == KindTextArray {
			// null clears an array column
			return []string{}, nil
		}
		return nil, nil
	}

	switch c.Kind {
	case KindText:
		s, ok := v.(string)
		if !ok {
			return nil, invalid(c.Name, "expected %s", c.Kind)
		}
		return s, c.checkText(s)

	case KindInteger:
		n, ok := toInt64(v)
		if !ok {
			return nil, invalid(c.Name, "expected %s", c.Kind)
		}
		if c.Bounded && (n < c.Min || n > c.Max) {
			return nil, invalid(c.Name, "must be between %d and %d", c.Min, c.Max)
		}
		return n, nil

	case KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, invalid(c.Name, "expected %s", c.Kind)
		}
		return b, nil

	case KindDate:
		s, ok := v.(string)
		if !ok {
			return nil, invalid(c.Name, "expected %s", c.Kind)
		}
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, invalid(c.Name, "expected %s", c.Kind)
		}
		// PostgreSQL has no year 0.
		if d.Year() < 1 {
			return nil, invalid(c.Name, "must be on or after 0001-01-01")
		}
		return s, nil

	case KindTextArray:
		items, ok := toStrings(v)
		if !ok {
			return nil, invalid(c.Name, "expected %s", c.Kind)
		}
		if c.MaxItems > 0 && len(items) > c.MaxItems {
			return nil, invalid(c.Name, "at most %d items allowed", c.MaxItems)
		}
		for _, item := range items {
			if strings.ContainsRune(item, 0) {
				return nil, invalid(c.Name, "items must not contain NUL characters")
			}
			if c.MaxLen > 0 && utf8.RuneCountInString(item) > c.MaxLen {
				return nil, invalid(c.Name, "items must be at most %d characters", c.MaxLen)
			}
		}
		return items, nil
	}

	return nil, invalid(c.Name, "unsupported column kind")
}

func (c Column) checkText(s string) error {
	if !c.Nullable && s == "" {
		return invalid(c.Name, "must not be empty")
	}
	if strings.ContainsRune(s, 0) {
		return invalid(c.Name, "must not contain NUL characters")
	}
	if c.MaxLen > 0 && utf8.RuneCountInString(s) > c.MaxLen {
		return invalid(c.Name, "must be at most %d characters", c.MaxLen)
	}
	if len(c.OneOf) > 0 && !slices.Contains(c.OneOf, s) {
		return invalid(c.Name, "must be one of %v", c.OneOf)
	}
	return nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func toStrings(v any) ([]string, bool) {
	switch items := v.(type) {
	case []string:
		return items, true
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
