package readmodel

import "time"

// DeviceReadModel is the read model for catalog devices. Facet fields
// mirror the catalog engine's device shape.
type DeviceReadModel struct {
	ID                 string         `json:"id"`
	Manufacturer       string         `json:"manufacturer"`
	Model              string         `json:"model"`
	ModelFamily        string         `json:"model_family"`
	Category           string         `json:"category"`
	Grade              string         `json:"grade"`
	Region             string         `json:"region"`
	Storage            string         `json:"storage"`
	UnitPrice          int            `json:"unit_price"`
	TotalQuantity      int            `json:"total_quantity"`
	LocationQuantities map[string]int `json:"location_quantities,omitempty"`
	SyncedAt           time.Time      `json:"synced_at"`
	Retired            bool           `json:"retired,omitempty"`
}

// CartItemReadModel represents one line item in a cart
type CartItemReadModel struct {
	DeviceID  string `json:"device_id"`
	Model     string `json:"model"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

// CartReadModel is the read model for a buyer's cart
type CartReadModel struct {
	ID     string              `json:"id"`
	UserID string              `json:"user_id"`
	Items  []CartItemReadModel `json:"items"`
	Total  int                 `json:"total"`
}

// RequestItemReadModel represents one line item in a submitted request
type RequestItemReadModel struct {
	DeviceID  string `json:"device_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

// RequestReadModel is the read model for order requests
type RequestReadModel struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Company   string                 `json:"company"`
	Items     []RequestItemReadModel `json:"items"`
	Total     int                    `json:"total"`
	Status    string                 `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// UserReadModel is the read model for portal accounts
type UserReadModel struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Company      string    `json:"company"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionReadModel is the read model for server-side refresh sessions
type SessionReadModel struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	IPAddress        string    `json:"ip_address"`
	UserAgent        string    `json:"user_agent"`
}

// ResetCodeReadModel tracks an outstanding password reset code. Codes are
// stored hashed and deleted on first use.
type ResetCodeReadModel struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CodeHash  string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
