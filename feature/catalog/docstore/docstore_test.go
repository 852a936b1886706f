package docstore_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"catalog-sync/core/storage/mocks"
	"catalog-sync/feature/catalog/docstore"
	"catalog-sync/feature/catalog/models"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestObjectStoreUpsert(t *testing.T) {
	mockClient := new(mocks.Client)
	store := docstore.NewObjectStore(mockClient, "catalog")

	var written []byte
	mockClient.On("PutObject", mock.Anything, "catalog", "catalog/m1/A1.json",
		mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			data, err := io.ReadAll(args.Get(3).(io.Reader))
			require.NoError(t, err)
			written = data
		}).
		Return(minio.UploadInfo{}, nil)

	price := 19.99
	err := store.Upsert(context.Background(), "m1", models.CanonicalProduct{
		SKU: "A1", Title: "Mug", Description: "A mug", Price: &price,
	})
	require.NoError(t, err)

	assert.Contains(t, string(written), `"sku":"A1"`)
	assert.Contains(t, string(written), `"price":19.99`)
	mockClient.AssertExpectations(t)
}

func TestObjectStoreUpsertError(t *testing.T) {
	mockClient := new(mocks.Client)
	store := docstore.NewObjectStore(mockClient, "catalog")

	mockClient.On("PutObject", mock.Anything, "catalog", mock.Anything,
		mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, fmt.Errorf("bucket unreachable"))

	err := store.Upsert(context.Background(), "m1", models.CanonicalProduct{SKU: "A1"})
	assert.ErrorContains(t, err, "A1")
}

func TestObjectStoreDelete(t *testing.T) {
	mockClient := new(mocks.Client)
	store := docstore.NewObjectStore(mockClient, "catalog")

	mockClient.On("RemoveObject", mock.Anything, "catalog", "catalog/m1/A1.json", mock.Anything).
		Return(nil)

	err := store.Delete(context.Background(), "m1", "A1")
	require.NoError(t, err)
	mockClient.AssertExpectations(t)
}

func TestObjectStoreGet(t *testing.T) {
	mockClient := new(mocks.Client)
	store := docstore.NewObjectStore(mockClient, "catalog")

	doc := `{"sku": "A1", "title": "Mug", "description": "A mug"}`
	mockClient.On("GetObject", mock.Anything, "catalog", "catalog/m1/A1.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte(doc))), nil)

	product, err := store.Get(context.Background(), "m1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "A1", product.SKU)
	assert.Equal(t, "Mug", product.Title)
}
