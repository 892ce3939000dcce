package command

// Device commands (issued by the upstream inventory feed or admins)

type SyncDevice struct {
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
}

type AdjustDeviceStock struct {
	DeviceID string `json:"device_id"`
	Location string `json:"location"`
	Delta    int    `json:"delta"`
	Reason   string `json:"reason"`
}

type RetireDevice struct {
	DeviceID string `json:"device_id"`
	Reason   string `json:"reason"`
}

// Cart commands

type AddToCart struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
	Quantity int    `json:"quantity"`
}

type RemoveFromCart struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
}

type SetCartItemQuantity struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
	Quantity int    `json:"quantity"`
}

type ClearCart struct {
	UserID string `json:"user_id"`
}

// Request commands

type SubmitRequest struct {
	UserID  string `json:"user_id"`
	Company string `json:"company"`
}

type CancelRequest struct {
	RequestID string `json:"request_id"`
	Reason    string `json:"reason"`
}

type StartProcessingRequest struct {
	RequestID string `json:"request_id"`
	AdminID   string `json:"admin_id"`
}

type CompleteRequest struct {
	RequestID string `json:"request_id"`
	AdminID   string `json:"admin_id"`
}

// Account commands

type ActivateUser struct {
	UserID  string `json:"user_id"`
	AdminID string `json:"admin_id"`
}

type DeactivateUser struct {
	UserID  string `json:"user_id"`
	AdminID string `json:"admin_id"`
}
