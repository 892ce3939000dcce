package device

import "time"

const (
	EventDeviceSynced        = "DeviceSynced"
	EventDeviceStockAdjusted = "DeviceStockAdjusted"
	EventDeviceRetired       = "DeviceRetired"
)

// DeviceSynced is emitted when a device record arrives from the upstream
// inventory feed. Carries the full catalog facet set.
type DeviceSynced struct {
	DeviceID           string         `json:"device_id"`
	Manufacturer       string         `json:"manufacturer"`
	Model              string         `json:"model"`
	Category           string         `json:"category"`
	Grade              string         `json:"grade"`
	Region             string         `json:"region"`
	Storage            string         `json:"storage"`
	UnitPrice          int            `json:"unit_price"`
	TotalQuantity      int            `json:"total_quantity"`
	LocationQuantities map[string]int `json:"location_quantities"`
	SyncedAt           time.Time      `json:"synced_at"`
}

// DeviceStockAdjusted is emitted when stock changes at one location
type DeviceStockAdjusted struct {
	DeviceID   string    `json:"device_id"`
	Location   string    `json:"location"`
	Delta      int       `json:"delta"`
	Reason     string    `json:"reason"`
	AdjustedAt time.Time `json:"adjusted_at"`
}

// DeviceRetired is emitted when a device is withdrawn from the catalog
type DeviceRetired struct {
	DeviceID  string    `json:"device_id"`
	Reason    string    `json:"reason"`
	RetiredAt time.Time `json:"retired_at"`
}
