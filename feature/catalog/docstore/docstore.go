package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"catalog-sync/core/storage"
	"catalog-sync/feature/catalog/models"

	"github.com/minio/minio-go/v7"
)

// Store is the write interface of the searchable document store. The
// indexing internals live elsewhere; the sync core only upserts and
// deletes canonical product documents.
type Store interface {
	// Upsert writes the canonical product document for a merchant.
	Upsert(ctx context.Context, merchantID string, product models.CanonicalProduct) error
	// Delete removes the product document for a sku.
	Delete(ctx context.Context, merchantID, sku string) error
	// Get reads a stored product document back, for diagnostics.
	Get(ctx context.Context, merchantID, sku string) (models.CanonicalProduct, error)
}

// ObjectStore persists canonical product documents as JSON objects in
// object storage, one object per (merchant, sku).
type ObjectStore struct {
	client storage.Client
	bucket string
}

// NewObjectStore creates a document store backed by the given bucket.
func NewObjectStore(client storage.Client, bucket string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket}
}

// objectName returns the storage key for a product document.
func objectName(merchantID, sku string) string {
	return fmt.Sprintf("catalog/%s/%s.json", merchantID, sku)
}

// Upsert writes the product document, overwriting any previous version.
func (s *ObjectStore) Upsert(ctx context.Context, merchantID string, product models.CanonicalProduct) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to encode product %s: %w", product.SKU, err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectName(merchantID, product.SKU),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to store product %s: %w", product.SKU, err)
	}
	return nil
}

// Delete removes the product document for a sku.
func (s *ObjectStore) Delete(ctx context.Context, merchantID, sku string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName(merchantID, sku), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", sku, err)
	}
	return nil
}

// Get reads a stored product document back.
func (s *ObjectStore) Get(ctx context.Context, merchantID, sku string) (models.CanonicalProduct, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName(merchantID, sku), minio.GetObjectOptions{})
	if err != nil {
		return models.CanonicalProduct{}, fmt.Errorf("failed to fetch product %s: %w", sku, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return models.CanonicalProduct{}, fmt.Errorf("failed to read product %s: %w", sku, err)
	}

	var product models.CanonicalProduct
	if err := json.Unmarshal(data, &product); err != nil {
		return models.CanonicalProduct{}, fmt.Errorf("failed to decode product %s: %w", sku, err)
	}
	return product, nil
}
