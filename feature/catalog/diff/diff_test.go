package diff_test

import (
	"testing"

	"catalog-sync/feature/catalog/diff"
	"catalog-sync/feature/catalog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(sku, title string, price float64) models.CanonicalProduct {
	return models.CanonicalProduct{
		SKU:         sku,
		Title:       title,
		Description: "desc",
		Price:       &price,
		Category:    "cat",
	}
}

func TestContentHash(t *testing.T) {
	a := product("A1", "Mug", 19.99)
	b := product("A1", "Mug", 19.99)
	assert.Equal(t, diff.ContentHash(a), diff.ContentHash(b))

	// Identity is not content: two skus with equal fields hash equal
	c := product("ZZ", "Mug", 19.99)
	assert.Equal(t, diff.ContentHash(a), diff.ContentHash(c))

	// Metadata is excluded from the comparison
	d := product("A1", "Mug", 19.99)
	d.Metadata = map[string]any{"vendor": "Acme"}
	assert.Equal(t, diff.ContentHash(a), diff.ContentHash(d))

	// Any comparable field changes the hash
	changed := product("A1", "Mug", 24.99)
	assert.NotEqual(t, diff.ContentHash(a), diff.ContentHash(changed))

	// A nil price and a zero price are different contents
	free := product("A1", "Mug", 0)
	noPrice := models.CanonicalProduct{SKU: "A1", Title: "Mug", Description: "desc", Category: "cat"}
	assert.NotEqual(t, diff.ContentHash(free), diff.ContentHash(noPrice))
}

func TestClassify(t *testing.T) {
	existing := product("A1", "Mug", 19.99)
	snapshots := map[string]models.ProductSnapshot{
		"A1": {MerchantID: "m1", SKU: "A1", Product: existing, ContentHash: diff.ContentHash(existing)},
	}

	unchanged := product("A1", "Mug", 19.99)
	repriced := product("A1", "Mug", 24.99)
	fresh := product("A2", "Bowl", 9.99)

	tests := []struct {
		name        string
		record      models.CanonicalProduct
		incremental bool
		want        diff.Op
	}{
		{name: "new sku is a create", record: fresh, incremental: true, want: diff.OpCreate},
		{name: "changed content is an update", record: repriced, incremental: true, want: diff.OpUpdate},
		{name: "equal hash with incremental is a skip", record: unchanged, incremental: true, want: diff.OpSkip},
		{name: "equal hash without incremental is an update", record: unchanged, incremental: false, want: diff.OpUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decisions := diff.Classify(snapshots, []models.CanonicalProduct{tt.record}, tt.incremental)
			require.Len(t, decisions, 1)
			assert.Equal(t, tt.want, decisions[0].Op)
			assert.Equal(t, diff.ContentHash(tt.record), decisions[0].Hash)
		})
	}
}

func TestDeletions(t *testing.T) {
	snapshots := map[string]models.ProductSnapshot{
		"A1": {SKU: "A1"},
		"A2": {SKU: "A2"},
		"A3": {SKU: "A3"},
	}
	seen := map[string]struct{}{"A2": {}}

	missing := diff.Deletions(snapshots, seen)
	assert.Equal(t, []string{"A1", "A3"}, missing)

	assert.Empty(t, diff.Deletions(map[string]models.ProductSnapshot{}, seen))
}
