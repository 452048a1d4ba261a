package catalog

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
)

// Operator is a filter comparison kind understood by the repository.
type Operator string

const (
	Equal          Operator = "eq"
	NotEqual       Operator = "neq"
	Greater        Operator = "gt"
	GreaterOrEqual Operator = "gte"
	Less           Operator = "lt"
	LessOrEqual    Operator = "lte"
	InList         Operator = "in"
	Like           Operator = "like"
	ILike          Operator = "ilike"
)

// Filter is one selection condition on a column.
type Filter struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Order specifies result ordering.
type Order struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

// Range is an inclusive row range for pagination.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Query bundles optional filtering, ordering and pagination.
type Query struct {
	Filters    []Filter `json:"filters,omitempty"`
	Order      *Order   `json:"order,omitempty"`
	Pagination *Range   `json:"pagination,omitempty"`
}

// Row is a raw record as returned by the repository.
type Row map[string]any

// Repository is the external collaborator providing raw catalog rows.
// Implementations decide the actual backend; the engine only relies on
// this contract.
type Repository interface {
	// Fetch returns all rows of table matching the query.
	Fetch(ctx context.Context, table string, q Query) ([]Row, error)

	// FetchByID returns a single row by id column, or nil when absent.
	FetchByID(ctx context.Context, table string, id int64, idColumn string) (Row, error)

	// FetchAll pages through table in fixed-size pages until a short
	// page is returned, concatenating the results.
	FetchAll(ctx context.Context, table string, q Query) ([]Row, error)
}

// --- Row accessors ---
// Backends differ in what Go types they produce for numeric columns, so
// the accessors normalize rather than assert a single type.

// Int64 reads an integer column.
func (r Row) Int64(column string) int64 {
	switch v := r[column].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// String reads a text column.
func (r Row) String(column string) string {
	if v, ok := r[column].(string); ok {
		return v
	}
	return ""
}

// Bool reads a boolean column.
func (r Row) Bool(column string) bool {
	if v, ok := r[column].(bool); ok {
		return v
	}
	return false
}

// Decimal reads a numeric column with full precision.
func (r Row) Decimal(column string) decimal.Decimal {
	switch v := r[column].(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int64:
		return decimal.NewFromInt(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
