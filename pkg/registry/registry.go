package registry

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/stromtarif/stromtarif/pkg/types"
)

// ErrDeviceNotFound is returned when a device ID is not in the registry.
var ErrDeviceNotFound = errors.New("device not found")

// ValidationError lists the problems with a device. The messages are shown
// to users as-is.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid device: " + strings.Join(e.Messages, " ")
}

// ValidateDevice returns the problems with a device, or nil.
func ValidateDevice(d types.Device) []string {
	var msgs []string
	if strings.TrimSpace(d.Name) == "" {
		msgs = append(msgs, "Bitte geben Sie einen Gerätenamen ein.")
	}
	if !finiteNonNegative(d.Watts) {
		msgs = append(msgs, "Die Leistung (Watt) muss eine Zahl größer oder gleich 0 sein.")
	}
	if d.Baseload {
		return msgs
	}
	if !finiteNonNegative(d.UsageAmount) {
		msgs = append(msgs, "Die Nutzungsdauer muss eine Zahl größer oder gleich 0 sein.")
	}
	if _, err := d.UsagePeriod.PeriodsPerYear(); err != nil {
		msgs = append(msgs, "Unbekannter Nutzungszeitraum.")
	}
	if !finiteNonNegative(d.DurationHours) || d.DurationHours > types.HoursPerDay {
		msgs = append(msgs, "Die Laufzeit pro Tag muss zwischen 0 und 24 Stunden liegen.")
	}
	for _, w := range d.Windows {
		if w.StartHour < 0 || w.StartHour >= types.HoursPerDay || w.EndHour < 0 || w.EndHour >= types.HoursPerDay {
			msgs = append(msgs, fmt.Sprintf("Ungültiges Zeitfenster %d-%d (Stunden 0 bis 23).", w.StartHour, w.EndHour))
		}
	}
	return msgs
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Registry is the set of appliances owned by one session.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]types.Device
	newID   func() string
}

// New returns a registry pre-filled with the catalog devices.
func New(catalog Catalog) *Registry {
	r := &Registry{
		devices: make(map[string]types.Device, len(catalog.Devices)),
		newID:   uuid.NewString,
	}
	for _, d := range catalog.Devices {
		r.devices[d.ID] = cloneDevice(d)
	}
	return r
}

func cloneDevice(d types.Device) types.Device {
	d.Windows = append([]types.TimeWindow(nil), d.Windows...)
	return d
}

// Add validates a device and stores it under a new ID.
func (r *Registry) Add(d types.Device) (types.Device, error) {
	if msgs := ValidateDevice(d); len(msgs) > 0 {
		return types.Device{}, &ValidationError{Messages: msgs}
	}
	d = cloneDevice(d)
	d.Name = strings.TrimSpace(d.Name)

	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = r.newID()
	r.devices[d.ID] = d
	return cloneDevice(d), nil
}

// Update replaces the device with the given ID.
func (r *Registry) Update(id string, d types.Device) (types.Device, error) {
	if msgs := ValidateDevice(d); len(msgs) > 0 {
		return types.Device{}, &ValidationError{Messages: msgs}
	}
	d = cloneDevice(d)
	d.ID = id
	d.Name = strings.TrimSpace(d.Name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[id]; !ok {
		return types.Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	r.devices[id] = d
	return cloneDevice(d), nil
}

// Remove deletes the device with the given ID.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[id]; !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	delete(r.devices, id)
	return nil
}

// Get returns the device with the given ID.
func (r *Registry) Get(id string) (types.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[id]
	if !ok {
		return types.Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return cloneDevice(d), nil
}

// List returns all devices sorted by name and then ID.
func (r *Registry) List() []types.Device {
	r.mu.RLock()
	devices := make([]types.Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, cloneDevice(d))
	}
	r.mu.RUnlock()

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Name != devices[j].Name {
			return devices[i].Name < devices[j].Name
		}
		return devices[i].ID < devices[j].ID
	})
	return devices
}
