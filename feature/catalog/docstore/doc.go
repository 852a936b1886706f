// Package docstore holds the write interface of the searchable document
// store consumed by the sync executor, plus an object-storage backed
// implementation.
//
// The search/embedding pipeline downstream of the document store is an
// external collaborator; this core only upserts and deletes canonical
// product documents. The ObjectStore implementation writes one JSON
// object per (merchant, sku) under catalog/<merchant>/<sku>.json.
//
// The mocks subpackage provides a testify mock of the Store interface
// for executor and handler tests.
package docstore
