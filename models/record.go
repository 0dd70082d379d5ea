// Package models defines the tenant-scoped entities and the request bodies
// the API accepts.
//
// Entities that live in a plain CRUD table embed Base and implement Record,
// which is all the generic repository needs to read and write them.
package models

import "time"

// Base holds the columns every CRUD table shares.
type Base struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Meta exposes the shared columns of any entity embedding Base.
func (b *Base) Meta() *Base { return b }

// Record describes how an entity maps onto its table.
// Columns lists the writable columns; Values and Fields return the matching
// values and scan destinations in the same order.
type Record interface {
	Meta() *Base
	TableName() string
	Columns() []string
	Values() []any
	Fields() []any
}

// Defaulter is implemented by entities whose zero value differs from the
// column defaults (e.g. status defaults to active).
type Defaulter interface {
	SetDefaults()
}
