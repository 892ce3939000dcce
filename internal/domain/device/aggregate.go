package device

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/example/device-portal/internal/domain/aggregate"
	"github.com/example/device-portal/internal/infrastructure/store"
)

const AggregateType = "Device"

var (
	ErrDeviceNotFound     = errors.New("device not found")
	ErrInvalidQuantities  = errors.New("location quantities must sum to total quantity")
	ErrNegativeStock      = errors.New("stock cannot go below zero")
	ErrUnknownLocation    = errors.New("unknown stock location")
	ErrDeviceRetired      = errors.New("device is retired")
	ErrMissingDeviceField = errors.New("device id, manufacturer and model are required")
)

// Device represents a catalog device aggregate
type Device struct {
	ID                 string         `json:"id"`
	Manufacturer       string         `json:"manufacturer"`
	Model              string         `json:"model"`
	Category           string         `json:"category"`
	Grade              string         `json:"grade"`
	Region             string         `json:"region"`
	Storage            string         `json:"storage"`
	UnitPrice          int            `json:"unit_price"`
	TotalQuantity      int            `json:"total_quantity"`
	LocationQuantities map[string]int `json:"location_quantities"`
	Retired            bool           `json:"retired"`
	SyncedAt           time.Time      `json:"synced_at"`
	Version            int            `json:"version"`
}

// Aggregate interface implementation
func (d *Device) GetID() string    { return d.ID }
func (d *Device) GetVersion() int  { return d.Version }
func (d *Device) SetVersion(v int) { d.Version = v }

// ApplyEvent applies a single event to the device state (implements aggregate.Aggregate)
func (d *Device) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventDeviceSynced:
		var data DeviceSynced
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		d.ID = data.DeviceID
		d.Manufacturer = data.Manufacturer
		d.Model = data.Model
		d.Category = data.Category
		d.Grade = data.Grade
		d.Region = data.Region
		d.Storage = data.Storage
		d.UnitPrice = data.UnitPrice
		d.TotalQuantity = data.TotalQuantity
		d.LocationQuantities = data.LocationQuantities
		d.Retired = false
		d.SyncedAt = data.SyncedAt
	case EventDeviceStockAdjusted:
		var data DeviceStockAdjusted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if d.LocationQuantities == nil {
			d.LocationQuantities = make(map[string]int)
		}
		d.LocationQuantities[data.Location] += data.Delta
		d.TotalQuantity += data.Delta
	case EventDeviceRetired:
		var data DeviceRetired
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		d.Retired = true
	}
	d.Version = event.Version
	return nil
}

// Service handles device domain operations
type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Load rebuilds a device from its event history
func (s *Service) Load(ctx context.Context, deviceID string) (*Device, error) {
	d, found, err := aggregate.LoadAggregate(ctx, s.eventStore, deviceID, func() *Device {
		return &Device{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrDeviceNotFound
	}
	return d, nil
}

// Sync records the device state delivered by the upstream inventory feed.
// Per-location quantities must account for the whole total.
func (s *Service) Sync(ctx context.Context, data DeviceSynced) (*Device, error) {
	if data.DeviceID == "" || data.Manufacturer == "" || data.Model == "" {
		return nil, ErrMissingDeviceField
	}

	sum := 0
	for _, q := range data.LocationQuantities {
		if q < 0 {
			return nil, ErrNegativeStock
		}
		sum += q
	}
	if sum != data.TotalQuantity {
		return nil, ErrInvalidQuantities
	}

	if data.SyncedAt.IsZero() {
		data.SyncedAt = time.Now()
	}

	storedEvent, err := s.eventStore.Append(ctx, data.DeviceID, AggregateType, EventDeviceSynced, data)
	if err != nil {
		return nil, err
	}

	d := &Device{
		ID:                 data.DeviceID,
		Manufacturer:       data.Manufacturer,
		Model:              data.Model,
		Category:           data.Category,
		Grade:              data.Grade,
		Region:             data.Region,
		Storage:            data.Storage,
		UnitPrice:          data.UnitPrice,
		TotalQuantity:      data.TotalQuantity,
		LocationQuantities: data.LocationQuantities,
		SyncedAt:           data.SyncedAt,
	}
	if storedEvent != nil {
		d.Version = storedEvent.Version
	}

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, d, AggregateType); err != nil {
		log.Printf("[Device] Failed to create snapshot for device %s: %v", d.ID, err)
	}

	return d, nil
}

// AdjustStock changes stock at a single location. The resulting quantity at
// the location must stay non-negative, which keeps the sum invariant intact.
func (s *Service) AdjustStock(ctx context.Context, deviceID, location string, delta int, reason string) error {
	d, err := s.Load(ctx, deviceID)
	if err != nil {
		return err
	}
	if d.Retired {
		return ErrDeviceRetired
	}

	current, ok := d.LocationQuantities[location]
	if !ok && delta < 0 {
		return ErrUnknownLocation
	}
	if current+delta < 0 {
		return ErrNegativeStock
	}

	event := DeviceStockAdjusted{
		DeviceID:   deviceID,
		Location:   location,
		Delta:      delta,
		Reason:     reason,
		AdjustedAt: time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, deviceID, AggregateType, EventDeviceStockAdjusted, event)
	if err != nil {
		return err
	}

	d.LocationQuantities[location] += delta
	d.TotalQuantity += delta
	if storedEvent != nil {
		d.Version = storedEvent.Version
	}

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, d, AggregateType); err != nil {
		log.Printf("[Device] Failed to create snapshot for device %s: %v", d.ID, err)
	}

	return nil
}

// Retire withdraws a device from the catalog
func (s *Service) Retire(ctx context.Context, deviceID, reason string) error {
	d, err := s.Load(ctx, deviceID)
	if err != nil {
		return err
	}
	if d.Retired {
		return ErrDeviceRetired
	}

	event := DeviceRetired{
		DeviceID:  deviceID,
		Reason:    reason,
		RetiredAt: time.Now(),
	}

	_, err = s.eventStore.Append(ctx, deviceID, AggregateType, EventDeviceRetired, event)
	return err
}
