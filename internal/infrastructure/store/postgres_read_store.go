package store

import (
	"database/sql"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/example/device-portal/internal/readmodel"
)

// PostgresReadStore implements ReadStoreInterface using PostgreSQL
type PostgresReadStore struct {
	db *sql.DB
	mu sync.RWMutex // for thread-safe operations
}

// NewPostgresReadStore creates a new PostgreSQL-based read store
func NewPostgresReadStore(db *sql.DB) *PostgresReadStore {
	return &PostgresReadStore{db: db}
}

// Set stores a read model
func (rs *PostgresReadStore) Set(collection, id string, data any) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	switch collection {
	case CollectionDevices:
		rs.setDeviceUnsafe(id, data.(*readmodel.DeviceReadModel))
	case CollectionUsers:
		rs.setUserUnsafe(id, data.(*readmodel.UserReadModel))
	case CollectionSessions:
		rs.setSessionUnsafe(id, data.(*readmodel.SessionReadModel))
	case CollectionCarts:
		rs.setCartUnsafe(id, data.(*readmodel.CartReadModel))
	case CollectionRequests:
		rs.setRequestUnsafe(id, data.(*readmodel.RequestReadModel))
	case CollectionResets:
		rs.setResetUnsafe(id, data.(*readmodel.ResetCodeReadModel))
	}
}

// Get retrieves a read model by id
func (rs *PostgresReadStore) Get(collection, id string) (any, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	switch collection {
	case CollectionDevices:
		return unwrap(rs.getDeviceUnsafe(id))
	case CollectionUsers:
		return unwrap(rs.getUserUnsafe(id))
	case CollectionSessions:
		return unwrap(rs.getSessionUnsafe(id))
	case CollectionCarts:
		return unwrap(rs.getCartUnsafe(id))
	case CollectionRequests:
		return unwrap(rs.getRequestUnsafe(id))
	case CollectionResets:
		return unwrap(rs.getResetUnsafe(id))
	}
	return nil, false
}

// unwrap keeps a typed nil pointer from leaking into the any return value
func unwrap[T any](v *T, ok bool) (any, bool) {
	if !ok {
		return nil, false
	}
	return v, true
}

// GetAll retrieves all items in a collection
func (rs *PostgresReadStore) GetAll(collection string) []any {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	switch collection {
	case CollectionDevices:
		return rs.getAllDevices()
	case CollectionUsers:
		return rs.getAllUsers()
	case CollectionSessions:
		return rs.getAllSessions()
	case CollectionCarts:
		return rs.getAllCarts()
	case CollectionRequests:
		return rs.getAllRequests()
	}
	return nil
}

// Delete removes a read model
func (rs *PostgresReadStore) Delete(collection, id string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	var tableName string
	switch collection {
	case CollectionDevices:
		tableName = "read_devices"
	case CollectionUsers:
		tableName = "read_users"
	case CollectionSessions:
		tableName = "user_sessions"
	case CollectionCarts:
		tableName = "read_carts"
	case CollectionRequests:
		tableName = "read_requests"
	case CollectionResets:
		tableName = "reset_codes"
	default:
		return
	}

	_, err := rs.db.Exec("DELETE FROM "+tableName+" WHERE id = $1", id)
	if err != nil {
		log.Printf("[PostgresReadStore] Error deleting from %s: %v", collection, err)
	}
}

// Update modifies a read model using an update function
func (rs *PostgresReadStore) Update(collection, id string, updateFn func(current any) any) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	var current any
	var found bool

	switch collection {
	case CollectionDevices:
		current, found = unwrap(rs.getDeviceUnsafe(id))
	case CollectionUsers:
		current, found = unwrap(rs.getUserUnsafe(id))
	case CollectionSessions:
		current, found = unwrap(rs.getSessionUnsafe(id))
	case CollectionCarts:
		current, found = unwrap(rs.getCartUnsafe(id))
	case CollectionRequests:
		current, found = unwrap(rs.getRequestUnsafe(id))
	case CollectionResets:
		current, found = unwrap(rs.getResetUnsafe(id))
	}

	if !found {
		return false
	}

	updated := updateFn(current)

	switch collection {
	case CollectionDevices:
		rs.setDeviceUnsafe(id, updated.(*readmodel.DeviceReadModel))
	case CollectionUsers:
		rs.setUserUnsafe(id, updated.(*readmodel.UserReadModel))
	case CollectionSessions:
		rs.setSessionUnsafe(id, updated.(*readmodel.SessionReadModel))
	case CollectionCarts:
		rs.setCartUnsafe(id, updated.(*readmodel.CartReadModel))
	case CollectionRequests:
		rs.setRequestUnsafe(id, updated.(*readmodel.RequestReadModel))
	case CollectionResets:
		rs.setResetUnsafe(id, updated.(*readmodel.ResetCodeReadModel))
	}

	return true
}

// Device operations

func (rs *PostgresReadStore) setDeviceUnsafe(id string, d *readmodel.DeviceReadModel) {
	locationsJSON, _ := json.Marshal(d.LocationQuantities)
	_, err := rs.db.Exec(`
		INSERT INTO read_devices (id, manufacturer, model, model_family, category, grade, region, storage,
			unit_price, total_quantity, location_quantities, synced_at, retired)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			manufacturer = EXCLUDED.manufacturer,
			model = EXCLUDED.model,
			model_family = EXCLUDED.model_family,
			category = EXCLUDED.category,
			grade = EXCLUDED.grade,
			region = EXCLUDED.region,
			storage = EXCLUDED.storage,
			unit_price = EXCLUDED.unit_price,
			total_quantity = EXCLUDED.total_quantity,
			location_quantities = EXCLUDED.location_quantities,
			synced_at = EXCLUDED.synced_at,
			retired = EXCLUDED.retired
	`, d.ID, d.Manufacturer, d.Model, d.ModelFamily, d.Category, d.Grade, d.Region, d.Storage,
		d.UnitPrice, d.TotalQuantity, locationsJSON, d.SyncedAt, d.Retired)
	if err != nil {
		log.Printf("[PostgresReadStore] Error setting device: %v", err)
	}
}

func (rs *PostgresReadStore) getDeviceUnsafe(id string) (*readmodel.DeviceReadModel, bool) {
	var d readmodel.DeviceReadModel
	var locationsJSON []byte
	err := rs.db.QueryRow(`
		SELECT id, manufacturer, model, model_family, category, grade, region, storage,
			unit_price, total_quantity, location_quantities, synced_at, retired
		FROM read_devices WHERE id = $1
	`, id).Scan(&d.ID, &d.Manufacturer, &d.Model, &d.ModelFamily, &d.Category, &d.Grade, &d.Region, &d.Storage,
		&d.UnitPrice, &d.TotalQuantity, &locationsJSON, &d.SyncedAt, &d.Retired)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PostgresReadStore] Error getting device: %v", err)
		}
		return nil, false
	}
	json.Unmarshal(locationsJSON, &d.LocationQuantities)
	return &d, true
}

func (rs *PostgresReadStore) getAllDevices() []any {
	rows, err := rs.db.Query(`
		SELECT id, manufacturer, model, model_family, category, grade, region, storage,
			unit_price, total_quantity, location_quantities, synced_at, retired
		FROM read_devices ORDER BY manufacturer, model
	`)
	if err != nil {
		log.Printf("[PostgresReadStore] Error getting all devices: %v", err)
		return nil
	}
	defer rows.Close()

	var devices []any
	for rows.Next() {
		var d readmodel.DeviceReadModel
		var locationsJSON []byte
		if err := rows.Scan(&d.ID, &d.Manufacturer, &d.Model, &d.ModelFamily, &d.Category, &d.Grade, &d.Region, &d.Storage,
			&d.UnitPrice, &d.TotalQuantity, &locationsJSON, &d.SyncedAt, &d.Retired); err != nil {
			log.Printf("[PostgresReadStore] Error scanning device: %v", err)
			continue
		}
		json.Unmarshal(locationsJSON, &d.LocationQuantities)
		devices = append(devices, &d)
	}
	return devices
}

// User operations

func (rs *PostgresReadStore) setUserUnsafe(id string, u *readmodel.UserReadModel) {
	_, err := rs.db.Exec(`
		INSERT INTO read_users (id, email, password_hash, company, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			company = EXCLUDED.company,
			role = EXCLUDED.role,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`, u.ID, u.Email, u.PasswordHash, u.Company, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		log.Printf("[PostgresReadStore] Error setting user: %v", err)
	}
}

func (rs *PostgresReadStore) getUserUnsafe(id string) (*readmodel.UserReadModel, bool) {
	var u readmodel.UserReadModel
	err := rs.db.QueryRow(`
		SELECT id, email, password_hash, company, role, is_active, created_at, updated_at
		FROM read_users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Company, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PostgresReadStore] Error getting user: %v", err)
		}
		return nil, false
	}
	return &u, true
}

// GetUserByEmail retrieves a user by email
func (rs *PostgresReadStore) GetUserByEmail(email string) (*readmodel.UserReadModel, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	var u readmodel.UserReadModel
	err := rs.db.QueryRow(`
		SELECT id, email, password_hash, company, role, is_active, created_at, updated_at
		FROM read_users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Company, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PostgresReadStore] Error getting user by email: %v", err)
		}
		return nil, false
	}
	return &u, true
}

func (rs *PostgresReadStore) getAllUsers() []any {
	rows, err := rs.db.Query(`
		SELECT id, email, password_hash, company, role, is_active, created_at, updated_at
		FROM read_users ORDER BY created_at DESC
	`)
	if err != nil {
		log.Printf("[PostgresReadStore] Error getting all users: %v", err)
		return nil
	}
	defer rows.Close()

	var users []any
	for rows.Next() {
		var u readmodel.UserReadModel
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Company, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			log.Printf("[PostgresReadStore] Error scanning user: %v", err)
			continue
		}
		users = append(users, &u)
	}
	return users
}

// Session operations

func (rs *PostgresReadStore) setSessionUnsafe(id string, s *readmodel.SessionReadModel) {
	_, err := rs.db.Exec(`
		INSERT INTO user_sessions (id, user_id, refresh_token_hash, expires_at, created_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			refresh_token_hash = EXCLUDED.refresh_token_hash,
			expires_at = EXCLUDED.expires_at
	`, s.ID, s.UserID, s.RefreshTokenHash, s.ExpiresAt, s.CreatedAt, s.IPAddress, s.UserAgent)
	if err != nil {
		log.Printf("[PostgresReadStore] Error setting session: %v", err)
	}
}

func (rs *PostgresReadStore) getSessionUnsafe(id string) (*readmodel.SessionReadModel, bool) {
	var s readmodel.SessionReadModel
	err := rs.db.QueryRow(`
		SELECT id, user_id, refresh_token_hash, expires_at, created_at, ip_address, user_agent
		FROM user_sessions WHERE id = $1
	`, id).Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.ExpiresAt, &s.CreatedAt, &s.IPAddress, &s.UserAgent)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PostgresReadStore] Error getting session: %v", err)
		}
		return nil, false
	}
	return &s, true
}

// GetSessionByTokenHash retrieves an unexpired session by refresh token hash
func (rs *PostgresReadStore) GetSessionByTokenHash(tokenHash string) (*readmodel.SessionReadModel, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	var s readmodel.SessionReadModel
	err := rs.db.QueryRow(`
		SELECT id, user_id, refresh_token_hash, expires_at, created_at, ip_address, user_agent
		FROM user_sessions WHERE refresh_token_hash = $1 AND expires_at > NOW()
	`, tokenHash).Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.ExpiresAt, &s.CreatedAt, &s.IPAddress, &s.UserAgent)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PostgresReadStore] Error getting session by token hash: %v", err)
		}
		return nil, false
	}
	return &s, true
}

// DeleteSessionsByUserID deletes all sessions for a user
func (rs *PostgresReadStore) DeleteSessionsByUserID(userID string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	_, err := rs.db.Exec(`DELETE FROM user_sessions WHERE user_id = $1`, userID)
	if err != nil {
		log.Printf("[PostgresReadStore] Error deleting sessions: %v", err)
	}
}

// DeleteExpiredSessions removes expired sessions
func (rs *PostgresReadStore) DeleteExpiredSessions() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	_, err := rs.db.Exec(`DELETE FROM user_sessions WHERE expires_at < NOW()`)
	if err != nil {
		log.Printf("[PostgresReadStore] Error deleting expired sessions: %v", err)
	}
}

func (rs *PostgresReadStore) getAllSessions() []any {
	rows, err := rs.db.Query(`
		SELECT id, user_id, refresh_token_hash, expires_at, created_at, ip_address, user_agent
		FROM user_sessions ORDER BY created_at DESC
	`)
	if err != nil {
		log.Printf("[PostgresReadStore] Error getting all sessions: %v", err)
		return nil
	}
	defer rows.Close()

	var sessions []any
	for rows.Next() {
		var s readmodel.SessionReadModel
		if err := rows.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.ExpiresAt, &s.CreatedAt, &s.IPAddress, &s.UserAgent); err != nil {
			log.Printf("[PostgresReadStore] Error scanning session: %v", err)
			continue
		}
		sessions = append(sessions, &s)
	}
	return sessions
}

// Cart operations

func (rs *PostgresReadStore) setCartUnsafe(id string, c *readmodel.CartReadModel) {
	itemsJSON, _ := json.Marshal(c.Items)
	_, err := rs.db.Exec(`
		INSERT INTO read_carts (id, user_id, items, total, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			items = EXCLUDED.items,
			total = EXCLUDED.total,
			updated_at = EXCLUDED.updated_at
	`, c.ID, c.UserID, itemsJSON, c.Total, time.Now())
	if err != nil {
		log.Printf("[PostgresReadStore] Error setting cart: %v", err)
	}
}

func (rs *PostgresReadStore) getCartUnsafe(id string) (*readmodel.CartReadModel, bool) {
	var c readmodel.CartReadModel
	var itemsJSON []byte
	err := rs.db.QueryRow(`
		SELECT id, user_id, items, total FROM read_carts WHERE id = $1
	`, id).Scan(&c.ID, &c.UserID, &itemsJSON, &c.Total)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PostgresReadStore] Error getting cart: %v", err)
		}
		return nil, false
	}
	json.Unmarshal(itemsJSON, &c.Items)
	return &c, true
}

func (rs *PostgresReadStore) getAllCarts() []any {
	rows, err := rs.db.Query(`SELECT id, user_id, items, total FROM read_carts`)
	if err != nil {
		log.Printf("[PostgresReadStore] Error getting all carts: %v", err)
		return nil
	}
	defer rows.Close()

	var carts []any
	for rows.Next() {
		var c readmodel.CartReadModel
		var itemsJSON []byte
		if err := rows.Scan(&c.ID, &c.UserID, &itemsJSON, &c.Total); err != nil {
			log.Printf("[PostgresReadStore] Error scanning cart: %v", err)
			continue
		}
		json.Unmarshal(itemsJSON, &c.Items)
		carts = append(carts, &c)
	}
	return carts
}

// Request operations

func (rs *PostgresReadStore) setRequestUnsafe(id string, r *readmodel.RequestReadModel) {
	itemsJSON, _ := json.Marshal(r.Items)
	_, err := rs.db.Exec(`
		INSERT INTO read_requests (id, user_id, company, items, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			items = EXCLUDED.items,
			total = EXCLUDED.total,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, r.ID, r.UserID, r.Company, itemsJSON, r.Total, r.Status, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		log.Printf("[PostgresReadStore] Error setting request: %v", err)
	}
}

func (rs *PostgresReadStore) getRequestUnsafe(id string) (*readmodel.RequestReadModel, bool) {
	var r readmodel.RequestReadModel
	var itemsJSON []byte
	err := rs.db.QueryRow(`
		SELECT id, user_id, company, items, total, status, created_at, updated_at
		FROM read_requests WHERE id = $1
	`, id).Scan(&r.ID, &r.UserID, &r.Company, &itemsJSON, &r.Total, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PostgresReadStore] Error getting request: %v", err)
		}
		return nil, false
	}
	json.Unmarshal(itemsJSON, &r.Items)
	return &r, true
}

// GetRequestsByUserID returns all requests submitted by a user, newest first
func (rs *PostgresReadStore) GetRequestsByUserID(userID string) []*readmodel.RequestReadModel {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	rows, err := rs.db.Query(`
		SELECT id, user_id, company, items, total, status, created_at, updated_at
		FROM read_requests WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		log.Printf("[PostgresReadStore] Error getting requests by user: %v", err)
		return nil
	}
	defer rows.Close()

	var requests []*readmodel.RequestReadModel
	for rows.Next() {
		var r readmodel.RequestReadModel
		var itemsJSON []byte
		if err := rows.Scan(&r.ID, &r.UserID, &r.Company, &itemsJSON, &r.Total, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			log.Printf("[PostgresReadStore] Error scanning request: %v", err)
			continue
		}
		json.Unmarshal(itemsJSON, &r.Items)
		requests = append(requests, &r)
	}
	return requests
}

func (rs *PostgresReadStore) getAllRequests() []any {
	rows, err := rs.db.Query(`
		SELECT id, user_id, company, items, total, status, created_at, updated_at
		FROM read_requests ORDER BY created_at DESC
	`)
	if err != nil {
		log.Printf("[PostgresReadStore] Error getting all requests: %v", err)
		return nil
	}
	defer rows.Close()

	var requests []any
	for rows.Next() {
		var r readmodel.RequestReadModel
		var itemsJSON []byte
		if err := rows.Scan(&r.ID, &r.UserID, &r.Company, &itemsJSON, &r.Total, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			log.Printf("[PostgresReadStore] Error scanning request: %v", err)
			continue
		}
		json.Unmarshal(itemsJSON, &r.Items)
		requests = append(requests, &r)
	}
	return requests
}

// Reset code operations. Keyed by user ID, one outstanding code per user.

func (rs *PostgresReadStore) setResetUnsafe(id string, rc *readmodel.ResetCodeReadModel) {
	_, err := rs.db.Exec(`
		INSERT INTO reset_codes (id, email, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			code_hash = EXCLUDED.code_hash,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at
	`, id, rc.Email, rc.CodeHash, rc.ExpiresAt, rc.CreatedAt)
	if err != nil {
		log.Printf("[PostgresReadStore] Error setting reset code: %v", err)
	}
}

func (rs *PostgresReadStore) getResetUnsafe(id string) (*readmodel.ResetCodeReadModel, bool) {
	var rc readmodel.ResetCodeReadModel
	err := rs.db.QueryRow(`
		SELECT id, email, code_hash, expires_at, created_at
		FROM reset_codes WHERE id = $1
	`, id).Scan(&rc.UserID, &rc.Email, &rc.CodeHash, &rc.ExpiresAt, &rc.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PostgresReadStore] Error getting reset code: %v", err)
		}
		return nil, false
	}
	return &rc, true
}
