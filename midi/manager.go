package midi

import (
	"context"
	"slices"
	"sync"
	"time"

	"go-pianoroll/debug"
)

// DeviceEvent is emitted when an output port appears or disappears
type DeviceEvent struct {
	Type DeviceEventType
	Name string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

func (t DeviceEventType) String() string {
	if t == DeviceConnected {
		return "connected"
	}
	return "disconnected"
}

// DeviceManager handles hot-plug detection of MIDI output ports
type DeviceManager struct {
	mu       sync.RWMutex
	ports    map[string]bool
	events   chan DeviceEvent
	pollRate time.Duration
	list     func() ([]string, error)
}

// NewDeviceManager creates a new device manager
func NewDeviceManager() *DeviceManager {
	return &DeviceManager{
		ports:    make(map[string]bool),
		events:   make(chan DeviceEvent, 16),
		pollRate: time.Second,
		list:     OutPortNames,
	}
}

// Events returns a channel of connect/disconnect events. It is closed when
// Run returns.
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Ports returns the currently known port names, sorted
func (dm *DeviceManager) Ports() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	names := make([]string, 0, len(dm.ports))
	for n := range dm.ports {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()
	defer close(dm.events)

	// Initial scan
	dm.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dm.scan(ctx)
		}
	}
}

func (dm *DeviceManager) scan(ctx context.Context) {
	names, err := dm.list()
	if err != nil {
		// Backend is hung or unavailable - skip this scan
		debug.LogEvery(10, "midi", "port scan failed: %v", err)
		return
	}

	seen := make(map[string]bool, len(names))
	var events []DeviceEvent

	dm.mu.Lock()
	for _, n := range names {
		seen[n] = true
		if !dm.ports[n] {
			dm.ports[n] = true
			events = append(events, DeviceEvent{Type: DeviceConnected, Name: n})
		}
	}
	for n := range dm.ports {
		if !seen[n] {
			delete(dm.ports, n)
			events = append(events, DeviceEvent{Type: DeviceDisconnected, Name: n})
		}
	}
	dm.mu.Unlock()

	for _, ev := range events {
		debug.Log("midi", "port %s: %s", ev.Type, ev.Name)
		select {
		case dm.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
