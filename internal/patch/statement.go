package patch

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Scope restricts a statement to rows owned by one account.
type Scope struct {
	// OwnerID is the resolved account key of the caller. Always required.
	OwnerID string
	// RowID addresses a single row. Required when the schema's key differs
	// from its owner column.
	RowID string
}

// Statement is a parameterized SQL statement.
type Statement struct {
	SQL  string
	Args []any
}

// Statement renders the UPDATE for the plan. The owner predicate is always
// part of the WHERE clause, so a row owned by another account matches
// nothing. The audit column is set to now.
func (p *Plan) Statement(scope Scope, now time.Time) (Statement, error) {
	s := p.schema
	if err := s.checkScope(scope); err != nil {
		return Statement{}, err
	}

	var b strings.Builder
	args := make([]any, 0, len(p.Set)+3)

	b.WriteString("UPDATE ")
	b.WriteString(ident(s.Table))
	b.WriteString(" SET ")
	for _, a := range p.Set {
		args = append(args, a.arg())
		fmt.Fprintf(&b, "%s = $%d%s, ", ident(a.Column), len(args), a.cast())
	}
	args = append(args, now)
	fmt.Fprintf(&b, "%s = $%d", ident(s.Modified), len(args))

	b.WriteString(" WHERE ")
	args = s.writePredicate(&b, scope, args)

	b.WriteString(" RETURNING ")
	b.WriteString(strings.Join(s.Returning, ", "))

	return Statement{SQL: b.String(), Args: args}, nil
}

// InsertStatement renders an INSERT of the plan's columns as a new row with
// key id owned by ownerID. Every required column of the schema must be part
// of the plan. Both audit and creation time default to now.
func (p *Plan) InsertStatement(ownerID, id string, now time.Time) (Statement, error) {
	s := p.schema
	if ownerID == "" || id == "" || s.Key == s.Owner {
		return Statement{}, ErrMissingScope
	}
	for _, col := range s.Columns {
		if !col.Nullable && !p.has(col.Name) {
			return Statement{}, invalid(col.Name, "is required")
		}
	}

	names := []string{ident(s.Key), ident(s.Owner)}
	args := []any{id, ownerID}
	values := []string{"$1", "$2"}
	for _, a := range p.Set {
		args = append(args, a.arg())
		names = append(names, ident(a.Column))
		values = append(values, fmt.Sprintf("$%d%s", len(args), a.cast()))
	}
	args = append(args, now)
	names = append(names, ident(s.Modified))
	values = append(values, fmt.Sprintf("$%d", len(args)))

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		ident(s.Table),
		strings.Join(names, ", "),
		strings.Join(values, ", "),
		strings.Join(s.Returning, ", "),
	)

	return Statement{SQL: b.String(), Args: args}, nil
}

// LockStatement renders a SELECT ... FOR UPDATE over the same scope as the
// update, used to verify ownership inside the update transaction.
func (s *Schema) LockStatement(scope Scope) (Statement, error) {
	if err := s.checkScope(scope); err != nil {
		return Statement{}, err
	}

	var b strings.Builder
	b.WriteString("SELECT 1 FROM ")
	b.WriteString(ident(s.Table))
	b.WriteString(" WHERE ")
	args := s.writePredicate(&b, scope, nil)
	b.WriteString(" FOR UPDATE")

	return Statement{SQL: b.String(), Args: args}, nil
}

// DeleteStatement renders an owner-scoped DELETE returning the removed row.
func (s *Schema) DeleteStatement(scope Scope) (Statement, error) {
	if err := s.checkScope(scope); err != nil {
		return Statement{}, err
	}

	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(ident(s.Table))
	b.WriteString(" WHERE ")
	args := s.writePredicate(&b, scope, nil)
	b.WriteString(" RETURNING ")
	b.WriteString(strings.Join(s.Returning, ", "))

	return Statement{SQL: b.String(), Args: args}, nil
}

func (s *Schema) checkScope(scope Scope) error {
	if scope.OwnerID == "" {
		return ErrMissingScope
	}
	if s.Key != s.Owner && scope.RowID == "" {
		return ErrMissingScope
	}
	return nil
}

func (s *Schema) writePredicate(b *strings.Builder, scope Scope, args []any) []any {
	args = append(args, scope.OwnerID)
	fmt.Fprintf(b, "%s = $%d", ident(s.Owner), len(args))

	if scope.RowID != "" {
		args = append(args, scope.RowID)
		fmt.Fprintf(b, " AND %s = $%d", ident(s.Key), len(args))
	}

	return args
}

func (p *Plan) has(column string) bool {
	for _, a := range p.Set {
		if a.Column == column {
			return true
		}
	}
	return false
}

func (a Assignment) arg() any {
	if a.Kind == KindTextArray {
		if items, ok := a.Value.([]string); ok {
			return pq.Array(items)
		}
	}
	return a.Value
}

func (a Assignment) cast() string {
	switch a.Kind {
	case KindDate:
		return "::date"
	case KindTextArray:
		return "::text[]"
	default:
		return ""
	}
}
