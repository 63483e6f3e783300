package ports

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "templatehub/pkg/errors"
)

// Document is a record in the document store. The store assigned
// identifier is exposed under IDField as a hex string.
type Document = map[string]any

// IDField is the identifier key of every document.
const IDField = "_id"

// DefaultReadLimit caps ReadMany when no explicit limit is given.
const DefaultReadLimit int64 = 10

// SortField orders a read by one field.
type SortField struct {
	Field      string
	Descending bool
}

// ReadOptions shapes a document read. A zero Limit means DefaultReadLimit.
type ReadOptions struct {
	Projection []string
	Sort       []SortField
	Limit      int64
	Skip       int64
}

// EffectiveLimit returns the limit a ReadMany applies.
func (o ReadOptions) EffectiveLimit() int64 {
	if o.Limit <= 0 {
		return DefaultReadLimit
	}
	return o.Limit
}

// UpdateOperator is the closed set of partial update operators.
type UpdateOperator int

const (
	UpdateSet UpdateOperator = iota + 1
	UpdatePush
	UpdatePull
	UpdateUnset
	UpdateIncrement
)

var updateOperatorNames = map[UpdateOperator]string{
	UpdateSet:       "set",
	UpdatePush:      "push",
	UpdatePull:      "pull",
	UpdateUnset:     "unset",
	UpdateIncrement: "inc",
}

func (o UpdateOperator) String() string {
	if name, ok := updateOperatorNames[o]; ok {
		return name
	}
	return fmt.Sprintf("UpdateOperator(%d)", int(o))
}

// Valid reports whether o is one of the declared operators.
func (o UpdateOperator) Valid() bool {
	_, ok := updateOperatorNames[o]
	return ok
}

// ParseUpdateOperator maps set, push, pull, unset and inc to their
// operators. Anything else is an invalid argument.
func ParseUpdateOperator(s string) (UpdateOperator, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for op, n := range updateOperatorNames {
		if n == name {
			return op, nil
		}
	}
	return 0, pkgerrors.NewInvalidArgumentError("unsupported update operator %q: expected one of set, push, pull, unset, inc", s)
}

// Update applies one operator to every field in Fields. Multi extends the
// update to all matching documents instead of the first.
type Update struct {
	Operator UpdateOperator
	Fields   Document
	Multi    bool
}

// IndexKey is one component of a possibly compound index.
type IndexKey struct {
	Field      string
	Descending bool
}

// IndexSpec describes an index to create. Name is optional.
type IndexSpec struct {
	Keys   []IndexKey
	Unique bool
	Name   string
}

// SingleFieldIndex is shorthand for an ascending index on one field.
func SingleFieldIndex(field string, unique bool) IndexSpec {
	return IndexSpec{Keys: []IndexKey{{Field: field}}, Unique: unique}
}

// DocumentStore is generic CRUD and index management over named
// collections. A read that matches nothing is not an error: Read returns a
// nil document and ReadMany an empty slice.
type DocumentStore interface {
	Create(ctx context.Context, collection string, doc Document) (string, error)
	CreateMany(ctx context.Context, collection string, docs []Document) ([]string, error)

	Read(ctx context.Context, collection string, filter Document, opts ReadOptions) (Document, error)
	ReadMany(ctx context.Context, collection string, filter Document, opts ReadOptions) ([]Document, error)
	Count(ctx context.Context, collection string, filter Document) (int64, error)

	// Update returns the number of modified documents.
	Update(ctx context.Context, collection string, filter Document, update Update) (int64, error)

	// Delete returns the number of deleted documents; zero is not an error.
	Delete(ctx context.Context, collection string, filter Document, many bool) (int64, error)

	CreateIndex(ctx context.Context, collection string, spec IndexSpec) (string, error)
	// DropIndex succeeds without change when the index does not exist.
	DropIndex(ctx context.Context, collection, name string) error

	// Destructive operations for reset tooling.
	DropCollection(ctx context.Context, collection string) error
	DropDatabase(ctx context.Context) error
}
