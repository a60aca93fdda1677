// internal/domain/docstore/store_port.go
package docstore

import (
	"context"
	"errors"

	common "invoicer/internal/domain/common"
)

var (
	ErrNotFound        = errors.New("docstore: not found")
	ErrInvalidArgument = errors.New("docstore: invalid argument")

	// ErrStore wraps every backend failure (network, auth, quota).
	ErrStore = errors.New("docstore: store error")
)

// Document is one stored record addressed by collection + ID.
type Document struct {
	ID   string
	Data map[string]any
}

// Operators accepted in a Filter.
const (
	OpEqual          = "=="
	OpLessThan       = "<"
	OpLessOrEqual    = "<="
	OpGreaterThan    = ">"
	OpGreaterOrEqual = ">="
)

// Filter is a single field predicate.
type Filter struct {
	Field string
	Op    string
	Value any
}

// Query narrows and orders a List call. The zero value lists everything
// in store order.
type Query struct {
	Filters []Filter
	OrderBy string
	Order   common.SortOrder
	Limit   int
}

// Where is a convenience for an equality-filtered query.
func Where(field string, value any) Query {
	return Query{Filters: []Filter{{Field: field, Op: OpEqual, Value: value}}}
}

// Store is the document database contract.
//
//   - Put with a non-empty id creates or replaces that document (upsert).
//     With an empty id the store allocates a fresh one.
//   - Update overlays fields and fails with ErrNotFound when absent.
//   - Delete fails with ErrNotFound when absent.
//
// Implementations do not retry.
type Store interface {
	Put(ctx context.Context, collection, id string, data map[string]any) (string, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
}

// ValidOp reports whether op is a supported filter operator.
func ValidOp(op string) bool {
	switch op {
	case OpEqual, OpLessThan, OpLessOrEqual, OpGreaterThan, OpGreaterOrEqual:
		return true
	}
	return false
}
