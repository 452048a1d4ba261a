package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"vitrina/internal/catalog"
	"vitrina/internal/core/apperror"
)

// FetchAll reads this many rows per page; a short page ends the scan.
const pageSize = 1000

// Store implements catalog.Repository on top of PostgreSQL.
type Store struct {
	pool *Pool
}

// NewStore creates a catalog store backed by the given pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (s *Store) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Fetch returns all rows of table matching the query.
func (s *Store) Fetch(ctx context.Context, table string, q catalog.Query) ([]catalog.Row, error) {
	sql, args, err := s.buildSelect(table, q)
	if err != nil {
		return nil, err
	}

	var rows []catalog.Row
	if err := pgxscan.Select(ctx, s.pool, &rows, sql, args...); err != nil {
		return nil, apperror.NewDatabase("fetch "+table, err)
	}
	return rows, nil
}

// FetchByID returns a single row by id column, or nil when absent.
func (s *Store) FetchByID(ctx context.Context, table string, id int64, idColumn string) (catalog.Row, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	if err := validateIdentifier(idColumn); err != nil {
		return nil, err
	}

	sql, args, err := s.Builder().
		Select("*").
		From(table).
		Where(squirrel.Eq{idColumn: id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	row := catalog.Row{}
	if err := pgxscan.Get(ctx, s.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, apperror.NewDatabase("fetch "+table+" by id", err)
	}
	return row, nil
}

// FetchAll pages through table until a short page is returned.
func (s *Store) FetchAll(ctx context.Context, table string, q catalog.Query) ([]catalog.Row, error) {
	var all []catalog.Row
	for from := 0; ; from += pageSize {
		page := q
		page.Pagination = &catalog.Range{From: from, To: from + pageSize - 1}

		rows, err := s.Fetch(ctx, table, page)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) < pageSize {
			return all, nil
		}
	}
}

func (s *Store) buildSelect(table string, q catalog.Query) (string, []any, error) {
	if err := validateIdentifier(table); err != nil {
		return "", nil, err
	}

	sel := s.Builder().
		Select("*").
		From(table)

	for _, f := range q.Filters {
		if err := validateIdentifier(f.Column); err != nil {
			return "", nil, err
		}
		switch f.Operator {
		case catalog.Equal, catalog.InList:
			sel = sel.Where(squirrel.Eq{f.Column: f.Value})
		case catalog.NotEqual:
			sel = sel.Where(squirrel.NotEq{f.Column: f.Value})
		case catalog.Greater:
			sel = sel.Where(squirrel.Gt{f.Column: f.Value})
		case catalog.GreaterOrEqual:
			sel = sel.Where(squirrel.GtOrEq{f.Column: f.Value})
		case catalog.Less:
			sel = sel.Where(squirrel.Lt{f.Column: f.Value})
		case catalog.LessOrEqual:
			sel = sel.Where(squirrel.LtOrEq{f.Column: f.Value})
		case catalog.Like:
			sel = sel.Where(squirrel.Like{f.Column: f.Value})
		case catalog.ILike:
			sel = sel.Where(squirrel.ILike{f.Column: f.Value})
		default:
			return "", nil, apperror.NewValidation("unsupported filter operator").
				WithDetail("operator", string(f.Operator))
		}
	}

	if q.Order != nil {
		if err := validateIdentifier(q.Order.Column); err != nil {
			return "", nil, err
		}
		direction := "DESC"
		if q.Order.Ascending {
			direction = "ASC"
		}
		sel = sel.OrderBy(q.Order.Column + " " + direction)
	}

	if p := q.Pagination; p != nil {
		if p.To < p.From {
			return "", nil, apperror.NewValidation("invalid pagination range").
				WithDetail("from", p.From).
				WithDetail("to", p.To)
		}
		sel = sel.Offset(uint64(p.From)).Limit(uint64(p.To - p.From + 1))
	}

	sql, args, err := sel.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build query: %w", err)
	}
	return sql, args, nil
}

// validateIdentifier guards against SQL injection through table or column
// names, which squirrel interpolates verbatim.
func validateIdentifier(name string) error {
	if name == "" {
		return apperror.NewValidation("empty identifier")
	}
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return apperror.NewValidation("invalid identifier").WithDetail("name", name)
		}
	}
	return nil
}
