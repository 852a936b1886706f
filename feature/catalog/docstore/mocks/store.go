package mocks

import (
	"context"

	"catalog-sync/feature/catalog/models"

	"github.com/stretchr/testify/mock"
)

// Store is a mock implementation of docstore.Store
type Store struct {
	mock.Mock
}

func (m *Store) Upsert(ctx context.Context, merchantID string, product models.CanonicalProduct) error {
	args := m.Called(ctx, merchantID, product)
	return args.Error(0)
}

func (m *Store) Delete(ctx context.Context, merchantID, sku string) error {
	args := m.Called(ctx, merchantID, sku)
	return args.Error(0)
}

func (m *Store) Get(ctx context.Context, merchantID, sku string) (models.CanonicalProduct, error) {
	args := m.Called(ctx, merchantID, sku)
	return args.Get(0).(models.CanonicalProduct), args.Error(1)
}
