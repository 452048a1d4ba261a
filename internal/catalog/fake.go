package catalog

import (
	"context"
	"fmt"
	"strings"
)

// FakeRepository is an in-memory Repository for tests. Tables are plain
// row slices; filters are evaluated with the same semantics the real
// backend applies.
type FakeRepository struct {
	Tables map[string][]Row

	// Err, when set, fails every call.
	Err error

	// TableErrs fails calls for specific tables.
	TableErrs map[string]error

	// FetchCalls counts Fetch/FetchAll invocations per table.
	FetchCalls map[string]int
}

// NewFakeRepository creates an empty fake.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		Tables:     make(map[string][]Row),
		TableErrs:  make(map[string]error),
		FetchCalls: make(map[string]int),
	}
}

// Add appends rows to a table.
func (f *FakeRepository) Add(table string, rows ...Row) {
	f.Tables[table] = append(f.Tables[table], rows...)
}

// Fetch implements Repository.
func (f *FakeRepository) Fetch(ctx context.Context, table string, q Query) ([]Row, error) {
	if err := f.failure(table); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.FetchCalls[table]++

	var out []Row
	for _, row := range f.Tables[table] {
		if matchesAll(row, q.Filters) {
			out = append(out, row)
		}
	}
	if q.Pagination != nil {
		out = paginate(out, *q.Pagination)
	}
	return out, nil
}

// FetchByID implements Repository.
func (f *FakeRepository) FetchByID(ctx context.Context, table string, id int64, idColumn string) (Row, error) {
	if err := f.failure(table); err != nil {
		return nil, err
	}
	for _, row := range f.Tables[table] {
		if row.Int64(idColumn) == id {
			return row, nil
		}
	}
	return nil, nil
}

// FetchAll implements Repository.
func (f *FakeRepository) FetchAll(ctx context.Context, table string, q Query) ([]Row, error) {
	// The fake holds everything in memory, so one page is enough.
	q.Pagination = nil
	return f.Fetch(ctx, table, q)
}

func (f *FakeRepository) failure(table string) error {
	if f.Err != nil {
		return f.Err
	}
	return f.TableErrs[table]
}

func matchesAll(row Row, filters []Filter) bool {
	for _, flt := range filters {
		if !matches(row, flt) {
			return false
		}
	}
	return true
}

func matches(row Row, flt Filter) bool {
	switch flt.Operator {
	case Equal:
		return compare(row[flt.Column], flt.Value) == 0
	case NotEqual:
		return compare(row[flt.Column], flt.Value) != 0
	case Greater:
		return compare(row[flt.Column], flt.Value) > 0
	case GreaterOrEqual:
		return compare(row[flt.Column], flt.Value) >= 0
	case Less:
		return compare(row[flt.Column], flt.Value) < 0
	case LessOrEqual:
		return compare(row[flt.Column], flt.Value) <= 0
	case InList:
		for _, v := range toSlice(flt.Value) {
			if compare(row[flt.Column], v) == 0 {
				return true
			}
		}
		return false
	case Like:
		return matchPattern(fmt.Sprint(row[flt.Column]), fmt.Sprint(flt.Value))
	case ILike:
		return matchPattern(
			strings.ToLower(fmt.Sprint(row[flt.Column])),
			strings.ToLower(fmt.Sprint(flt.Value)),
		)
	default:
		return false
	}
}

// compare normalizes numeric and boolean values before comparing, since
// fixture rows may mix int, int64 and float64.
func compare(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func toSlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []int64:
		out := make([]any, len(s))
		for i, n := range s {
			out[i] = n
		}
		return out
	case []int:
		out := make([]any, len(s))
		for i, n := range s {
			out[i] = n
		}
		return out
	case []string:
		out := make([]any, len(s))
		for i, n := range s {
			out[i] = n
		}
		return out
	default:
		return []any{v}
	}
}

// matchPattern supports the %-wildcard shapes the services actually use.
func matchPattern(value, pattern string) bool {
	switch {
	case strings.HasPrefix(pattern, "%") && strings.HasSuffix(pattern, "%"):
		return strings.Contains(value, strings.Trim(pattern, "%"))
	case strings.HasPrefix(pattern, "%"):
		return strings.HasSuffix(value, strings.TrimPrefix(pattern, "%"))
	case strings.HasSuffix(pattern, "%"):
		return strings.HasPrefix(value, strings.TrimSuffix(pattern, "%"))
	default:
		return value == pattern
	}
}

func paginate(rows []Row, r Range) []Row {
	if r.From >= len(rows) {
		return nil
	}
	to := r.To + 1
	if to > len(rows) {
		to = len(rows)
	}
	return rows[r.From:to]
}
