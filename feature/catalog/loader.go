package catalog

import (
	"catalog-sync/core/storage"
	"catalog-sync/feature/catalog/engine"
	"catalog-sync/feature/catalog/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new catalog sync feature.
func NewFeature(repo *store.Repository, executor *engine.Executor, scheduler *engine.Scheduler, client storage.Client, bucket string, logger *zap.Logger) *Feature {
	svc := NewService(repo, executor, scheduler, client, bucket, logger)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Service returns the feature's service, for CLI wiring.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "catalog"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
