package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDevices() []Device {
	return []Device{
		{ID: "d1", Manufacturer: "Apple", Model: "iPhone 15 Pro Max 128GB", Category: "smartphones", Grade: "A", Region: "Miami", Storage: "128GB", UnitPrice: 89900, TotalQuantity: 10, LocationQuantities: map[string]int{"Miami": 10}},
		{ID: "d2", Manufacturer: "Apple", Model: "iPhone 15 Pro Max 256GB", Category: "smartphones", Grade: "A", Region: "Dubai", Storage: "256GB", UnitPrice: 99900, TotalQuantity: 4, LocationQuantities: map[string]int{"Dubai": 4}},
		{ID: "d3", Manufacturer: "Samsung", Model: "Galaxy A07 64GB", Category: "smartphones", Grade: "B", Region: "Miami", Storage: "64GB", UnitPrice: 10900, TotalQuantity: 25, LocationQuantities: map[string]int{"Miami": 20, "Dubai": 5}},
		{ID: "d4", Manufacturer: "Samsung", Model: "Galaxy S24 256GB", Category: "smartphones", Grade: "A", Region: "Dubai", Storage: "256GB", UnitPrice: 64900, TotalQuantity: 7, LocationQuantities: map[string]int{"Dubai": 7}},
		{ID: "d5", Manufacturer: "Apple", Model: "iPad Air 64GB", Category: "tablets", Grade: "A", Region: "Miami", Storage: "64GB", UnitPrice: 44900, TotalQuantity: 3, LocationQuantities: map[string]int{"Miami": 3}},
	}
}

func TestModelFamily(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"iPhone 15 Pro Max 128GB", "iPhone 15 Pro Max"},
		{"Galaxy A07 64GB", "Galaxy A07"},
		{"MacBook Pro 1TB", "MacBook Pro"},
		{"Pixel 8 128gb", "Pixel 8"},
		{"128GB", ""},
		{"", ""},
		{"Galaxy S24", "Galaxy S24"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, ModelFamily(tt.model))
		})
	}
}

func TestRun_NoFilters(t *testing.T) {
	result := Run(testDevices(), NewQuery("smartphones"))

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 1, result.TotalPages)
	assert.Len(t, result.Items, 4)
}

func TestRun_CategoryScoping(t *testing.T) {
	result := Run(testDevices(), NewQuery("tablets"))

	require.Equal(t, 1, result.Total)
	assert.Equal(t, "d5", result.Items[0].ID)

	// Facet candidates come only from the scoped category.
	for _, opt := range result.Facets[FieldManufacturer] {
		assert.NotEqual(t, "Samsung", opt.Value)
	}
}

func TestRun_FreeTextSearch(t *testing.T) {
	q := NewQuery("smartphones").WithSearch("galaxy a07")
	result := Run(testDevices(), q)

	require.Equal(t, 1, result.Total)
	assert.Equal(t, "d3", result.Items[0].ID)
}

func TestRun_SearchMatchesDerivedFamily(t *testing.T) {
	// "iPhone 15 Pro Max" appears in the derived family of d1 and d2.
	q := NewQuery("smartphones").WithSearch("iphone 15 pro max")
	result := Run(testDevices(), q)

	assert.Equal(t, 2, result.Total)
}

func TestRun_FacetSelection(t *testing.T) {
	q := NewQuery("smartphones").Toggle(FieldRegion, "Miami")
	result := Run(testDevices(), q)

	require.Equal(t, 2, result.Total)
	for _, d := range result.Items {
		assert.Equal(t, "Miami", d.Region)
	}
}

func TestRun_NarrowingNeverIncreasesTotal(t *testing.T) {
	devices := testDevices()
	base := NewQuery("smartphones")
	baseTotal := Run(devices, base).Total

	for _, field := range FacetFields {
		for _, opt := range Run(devices, base).Facets[field] {
			narrowed := Run(devices, base.Toggle(field, opt.Value))
			assert.LessOrEqual(t, narrowed.Total, baseTotal,
				"selecting %s=%s must not grow the result", field, opt.Value)
		}
	}
}

func TestRun_SelfFieldExclusion(t *testing.T) {
	// Selecting region=Miami narrows storage options to Miami devices, but
	// the region field's own options stay fully enabled.
	q := NewQuery("smartphones").Toggle(FieldRegion, "Miami")
	result := Run(testDevices(), q)

	storageEnabled := map[string]bool{}
	for _, opt := range result.Facets[FieldStorage] {
		storageEnabled[opt.Value] = opt.Enabled
	}
	assert.True(t, storageEnabled["128GB"])
	assert.True(t, storageEnabled["64GB"])
	assert.False(t, storageEnabled["256GB"], "no Miami smartphone has 256GB")

	for _, opt := range result.Facets[FieldRegion] {
		assert.True(t, opt.Enabled, "own field options must remain enabled: %s", opt.Value)
	}
}

func TestRun_SelectedButUnreachableStaysEnabled(t *testing.T) {
	// Miami + 256GB matches nothing, but both selections stay visible and
	// enabled so the user can back out.
	q := NewQuery("smartphones").Toggle(FieldRegion, "Miami").Toggle(FieldStorage, "256GB")
	result := Run(testDevices(), q)

	assert.Equal(t, 0, result.Total)

	var found bool
	for _, opt := range result.Facets[FieldStorage] {
		if opt.Value == "256GB" {
			found = true
			assert.True(t, opt.Selected)
			assert.True(t, opt.Enabled)
		}
	}
	assert.True(t, found, "selected value must still appear in the option list")
}

func TestRun_OptionOrdering(t *testing.T) {
	q := NewQuery("smartphones").Toggle(FieldRegion, "Miami")
	result := Run(testDevices(), q)

	options := result.Facets[FieldStorage]
	require.NotEmpty(t, options)

	sawDisabled := false
	var prev *Option
	for i := range options {
		opt := options[i]
		if !opt.Enabled {
			sawDisabled = true
		} else {
			assert.False(t, sawDisabled, "enabled option after a disabled one")
		}
		if prev != nil && prev.Enabled == opt.Enabled {
			assert.LessOrEqual(t, prev.Value, opt.Value)
		}
		prev = &opt
	}
}

func TestRun_StaleSelectionDropped(t *testing.T) {
	// A selected value absent from the snapshot behaves as if unset.
	q := NewQuery("smartphones").Toggle(FieldRegion, "Atlantis")
	result := Run(testDevices(), q)

	assert.Equal(t, 4, result.Total)
}

func TestRun_EmptySnapshot(t *testing.T) {
	q := NewQuery("smartphones").Toggle(FieldRegion, "Miami")

	result := Run(nil, q)

	assert.Equal(t, 0, result.Total)
	assert.Empty(t, result.Items)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 1, result.TotalPages)
	for _, field := range FacetFields {
		assert.Empty(t, result.Facets[field])
	}
}

func TestRun_PaginationCompleteness(t *testing.T) {
	var devices []Device
	for i := 0; i < 95; i++ {
		devices = append(devices, Device{
			ID:           fmt.Sprintf("d%03d", i),
			Manufacturer: "Apple",
			Model:        "iPhone 15 128GB",
			Category:     "smartphones",
			Region:       "Miami",
			Storage:      "128GB",
		})
	}

	q := NewQuery("smartphones")
	first := Run(devices, q)
	assert.Equal(t, 95, first.Total)
	assert.Equal(t, 3, first.TotalPages)

	seen := make(map[string]int)
	for page := 1; page <= first.TotalPages; page++ {
		result := Run(devices, q.WithPage(page))
		for _, d := range result.Items {
			seen[d.ID]++
		}
	}

	assert.Len(t, seen, 95, "union of pages must reproduce the filtered set")
	for id, count := range seen {
		assert.Equal(t, 1, count, "device %s appeared on more than one page", id)
	}
}

func TestRun_PageClamping(t *testing.T) {
	devices := testDevices()
	q := NewQuery("smartphones")

	tests := []struct {
		name     string
		page     int
		wantPage int
	}{
		{"below range", 0, 1},
		{"negative", -3, 1},
		{"above range", 99, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Run(devices, q.WithPage(tt.page))
			assert.Equal(t, tt.wantPage, result.Page)
			assert.Len(t, result.Items, result.Total)
		})
	}
}

func TestQuery_ChangesResetPage(t *testing.T) {
	q := NewQuery("smartphones").WithPage(3)

	assert.Equal(t, 1, q.WithSearch("iphone").Page)
	assert.Equal(t, 1, q.Toggle(FieldRegion, "Miami").Page)
}

func TestQuery_ToggleIsSetSemantics(t *testing.T) {
	q := NewQuery("smartphones")

	q = q.Toggle(FieldRegion, "Miami")
	assert.True(t, q.IsSelected(FieldRegion, "Miami"))

	q = q.Toggle(FieldRegion, "Miami")
	assert.False(t, q.IsSelected(FieldRegion, "Miami"))
}

func TestQuery_CloneIsolation(t *testing.T) {
	q1 := NewQuery("smartphones").Toggle(FieldRegion, "Miami")
	q2 := q1.Toggle(FieldRegion, "Dubai")

	assert.False(t, q1.IsSelected(FieldRegion, "Dubai"))
	assert.True(t, q2.IsSelected(FieldRegion, "Miami"))
}

func TestDevice_FieldValue(t *testing.T) {
	d := Device{Manufacturer: "Apple", Model: "iPhone 15 128GB", Region: "Miami", Storage: "128GB"}

	assert.Equal(t, "Apple", d.FieldValue(FieldManufacturer))
	assert.Equal(t, "iPhone 15", d.FieldValue(FieldModelFamily))
	assert.Equal(t, "Miami", d.FieldValue(FieldRegion))
	assert.Equal(t, "128GB", d.FieldValue(FieldStorage))
	assert.Empty(t, d.FieldValue("grade"))
}
