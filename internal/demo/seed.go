package demo

import "github.com/example/device-portal/internal/catalog"

// Seed populates the backend with the reference demo data set: one active
// buyer, one admin, one account awaiting approval, and a small smartphone
// and tablet inventory spanning two regions.
func Seed(b *Backend) error {
	if err := b.AddAccount("buyer@acme.example", "Buy3r!pass", "Acme Trading", "buyer", true); err != nil {
		return err
	}
	if err := b.AddAccount("admin@portal.example", "Adm1n!pass", "Portal Ops", "admin", true); err != nil {
		return err
	}
	if err := b.AddAccount("pending@acme.example", "P3nding!pass", "Acme Trading", "buyer", false); err != nil {
		return err
	}

	b.SetDevices([]catalog.Device{
		{ID: "dev-001", Manufacturer: "Apple", Model: "iPhone 15 Pro Max 128GB", Category: "smartphones", Grade: "A", Region: "Miami", Storage: "128GB", UnitPrice: 89900, TotalQuantity: 12, LocationQuantities: map[string]int{"Miami": 12}},
		{ID: "dev-002", Manufacturer: "Apple", Model: "iPhone 15 Pro Max 256GB", Category: "smartphones", Grade: "A", Region: "Dubai", Storage: "256GB", UnitPrice: 99900, TotalQuantity: 6, LocationQuantities: map[string]int{"Dubai": 6}},
		{ID: "dev-003", Manufacturer: "Apple", Model: "iPhone 14 128GB", Category: "smartphones", Grade: "B", Region: "Miami", Storage: "128GB", UnitPrice: 54900, TotalQuantity: 30, LocationQuantities: map[string]int{"Miami": 22, "Dubai": 8}},
		{ID: "dev-004", Manufacturer: "Samsung", Model: "Galaxy A07 64GB", Category: "smartphones", Grade: "B", Region: "Miami", Storage: "64GB", UnitPrice: 10900, TotalQuantity: 40, LocationQuantities: map[string]int{"Miami": 40}},
		{ID: "dev-005", Manufacturer: "Samsung", Model: "Galaxy S24 256GB", Category: "smartphones", Grade: "A", Region: "Dubai", Storage: "256GB", UnitPrice: 64900, TotalQuantity: 9, LocationQuantities: map[string]int{"Dubai": 9}},
		{ID: "dev-006", Manufacturer: "Apple", Model: "iPad Air 64GB", Category: "tablets", Grade: "A", Region: "Miami", Storage: "64GB", UnitPrice: 44900, TotalQuantity: 5, LocationQuantities: map[string]int{"Miami": 5}},
		{ID: "dev-007", Manufacturer: "Samsung", Model: "Galaxy Tab S9 256GB", Category: "tablets", Grade: "A", Region: "Dubai", Storage: "256GB", UnitPrice: 59900, TotalQuantity: 7, LocationQuantities: map[string]int{"Dubai": 7}},
	})
	return nil
}
