package mapper

import (
	"strings"

	"catalog-sync/core/value"
	"catalog-sync/feature/catalog/errs"
	"catalog-sync/feature/catalog/models"
)

// Canonical field names accepted as mapping targets.
const (
	FieldSKU         = "sku"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldImageURL    = "imageUrl"
	FieldCategory    = "category"

	// MetadataPrefix marks mapping targets that populate the open
	// metadata map, e.g. "metadata.vendor" -> "supplier.name".
	MetadataPrefix = "metadata."
)

var requiredFields = []string{FieldSKU, FieldTitle, FieldDescription}

// Map projects a raw source record into the canonical product schema
// using the merchant's field mapping (canonical field -> source path).
//
// A required field that does not resolve produces a terminal RecordError
// for this single record. Optional fields that do not resolve are
// omitted. Non-numeric price values are treated as absent rather than
// rejecting the record.
func Map(raw value.Value, mapping map[string]string) (models.CanonicalProduct, error) {
	var product models.CanonicalProduct

	// Resolve the sku first so failures can reference it
	skuVal, skuOK := lookup(raw, mapping, FieldSKU)
	if skuOK {
		product.SKU = skuVal.AsString()
	}

	for _, field := range requiredFields {
		v, ok := lookup(raw, mapping, field)
		if !ok || v.AsString() == "" {
			return models.CanonicalProduct{}, errs.Record(product.SKU, errs.StageMapping,
				"required field "+field+" not resolved at path "+mapping[field])
		}
		switch field {
		case FieldSKU:
			product.SKU = v.AsString()
		case FieldTitle:
			product.Title = v.AsString()
		case FieldDescription:
			product.Description = v.AsString()
		}
	}

	if v, ok := lookup(raw, mapping, FieldPrice); ok {
		// A cosmetic data issue must not reject the record: non-numeric
		// prices are dropped, not errors.
		if price, numeric := v.AsFloat(); numeric {
			product.Price = &price
		}
	}
	if v, ok := lookup(raw, mapping, FieldImageURL); ok {
		product.ImageURL = v.AsString()
	}
	if v, ok := lookup(raw, mapping, FieldCategory); ok {
		product.Category = v.AsString()
	}

	for target, path := range mapping {
		if !strings.HasPrefix(target, MetadataPrefix) {
			continue
		}
		key := strings.TrimPrefix(target, MetadataPrefix)
		if key == "" {
			continue
		}
		if v, ok := raw.Lookup(path); ok {
			if product.Metadata == nil {
				product.Metadata = make(map[string]any)
			}
			product.Metadata[key] = v.ToAny()
		}
	}

	return product, nil
}

// lookup resolves the mapped source path for a canonical field.
func lookup(raw value.Value, mapping map[string]string, field string) (value.Value, bool) {
	path, ok := mapping[field]
	if !ok || path == "" {
		return value.Value{}, false
	}
	return raw.Lookup(path)
}
