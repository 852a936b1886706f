package value_test

import (
	"testing"

	"catalog-sync/core/value"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	v, err := value.FromJSON([]byte(`{
		"product": {
			"id": "A1",
			"images": [{"src": "http://img/1.png"}, {"src": "http://img/2.png"}],
			"deleted": null
		}
	}`))
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		want   string
		wantOK bool
	}{
		{name: "nested key", path: "product.id", want: "A1", wantOK: true},
		{name: "list index", path: "product.images.1.src", want: "http://img/2.png", wantOK: true},
		{name: "missing key", path: "product.missing", wantOK: false},
		{name: "index out of range", path: "product.images.5.src", wantOK: false},
		{name: "non-numeric index", path: "product.images.first.src", wantOK: false},
		{name: "child of scalar", path: "product.id.sub", wantOK: false},
		{name: "null resolves to absent", path: "product.deleted", wantOK: false},
		{name: "empty path", path: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := v.Lookup(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got.AsString())
			}
		})
	}
}

func TestCoercions(t *testing.T) {
	// Whole numbers stringify without a trailing ".0"
	assert.Equal(t, "42", value.Num(42).AsString())
	assert.Equal(t, "19.99", value.Num(19.99).AsString())
	assert.Equal(t, "true", value.Boolean(true).AsString())
	assert.Equal(t, "", value.ListOf().AsString())

	// Numeric strings parse, junk reports absent
	f, ok := value.Str(" 19.99 ").AsFloat()
	assert.True(t, ok)
	assert.Equal(t, 19.99, f)
	_, ok = value.Str("n/a").AsFloat()
	assert.False(t, ok)
	_, ok = value.Boolean(true).AsFloat()
	assert.False(t, ok)

	assert.True(t, value.Str("1").AsBool())
	assert.True(t, value.Str("TRUE").AsBool())
	assert.True(t, value.Num(1).AsBool())
	assert.False(t, value.Str("yes").AsBool())
}

func TestFromStringMap(t *testing.T) {
	v := value.FromStringMap(map[string]string{"sku": "A1", "price": "5"})
	assert.Equal(t, value.Map, v.Kind())

	sku, ok := v.Lookup("sku")
	require.True(t, ok)
	assert.Equal(t, "A1", sku.AsString())

	price, ok := v.Lookup("price")
	require.True(t, ok)
	f, numeric := price.AsFloat()
	assert.True(t, numeric)
	assert.Equal(t, 5.0, f)
}

func TestToAnyRoundTrip(t *testing.T) {
	raw := []byte(`{"a": [1, "two", true], "b": {"c": null}}`)
	v, err := value.FromJSON(raw)
	require.NoError(t, err)

	got := v.ToAny()
	want := map[string]any{
		"a": []any{1.0, "two", true},
		"b": map[string]any{"c": nil},
	}
	assert.Equal(t, want, got)
}
