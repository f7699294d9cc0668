// Package state provides thread-safe state management for the application.
package state

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/litescript/ls-exoplanets/internal/astro"
	"github.com/litescript/ls-exoplanets/internal/camera"
	"github.com/litescript/ls-exoplanets/internal/catalog"
	"github.com/litescript/ls-exoplanets/internal/projector"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventCatalogLoaded    EventType = "CATALOG_LOADED"
	EventRecordAdded      EventType = "RECORD_ADDED"
	EventRecordUpdated    EventType = "RECORD_UPDATED"
	EventSelectionChanged EventType = "SELECTION_CHANGED"
	EventSelectionLost    EventType = "SELECTION_LOST"
	EventUnitChanged      EventType = "UNIT_CHANGED"
	EventPolicyChanged    EventType = "POLICY_CHANGED"
)

// ErrEmptyName is returned when adding a record without a name.
var ErrEmptyName = errors.New("record has no name")

// Event represents a change to the working set or view.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Observer receives projection and targeting results. The metrics
// package implements it.
type Observer interface {
	ObserveProjection(p projector.Projection, took time.Duration)
	ObserveCamera(status camera.Status)
}

// Manager owns the caller's working set with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Working set
	records []catalog.Record
	index   map[string]int
	source  string

	// Last catalog load
	lastLoad     time.Time
	lastError    error
	loadDuration time.Duration

	// View
	unit     astro.Unit
	policy   projector.Policy
	filter   catalog.Characteristics
	selected string
	camera   camera.Config

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	version  uint64
	observer Observer
}

// Config holds configuration for the state manager.
type Config struct {
	Unit      astro.Unit
	Policy    projector.Policy
	Camera    camera.Config
	MaxEvents int
	Observer  Observer
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Unit:      astro.Parsec,
		Policy:    projector.DefaultPolicy(),
		Camera:    camera.DefaultConfig(),
		MaxEvents: 50, // Last 50 events
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	return &Manager{
		index:     make(map[string]int),
		unit:      cfg.Unit,
		policy:    cfg.Policy,
		camera:    cfg.Camera,
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		observer:  cfg.Observer,
	}
}

// SetCatalog replaces the working set. On error the previous records are
// kept and only the load status is updated.
func (m *Manager) SetCatalog(records []catalog.Record, source string, took time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastLoad = time.Now()
	m.lastError = err
	m.loadDuration = took

	if err != nil {
		return
	}

	m.records = make([]catalog.Record, 0, len(records))
	m.index = make(map[string]int, len(records))
	for _, r := range records {
		if _, dup := m.index[r.Name]; dup && r.Name != "" {
			continue
		}
		if r.Name != "" {
			m.index[r.Name] = len(m.records)
		}
		m.records = append(m.records, r)
	}
	m.source = source

	m.addEvent(Event{Type: EventCatalogLoaded, Timestamp: m.lastLoad, Detail: source})
	m.revalidateSelection()
	m.version++
}

// AddRecord appends r to the working set and selects it. When a record
// with the same name already exists nothing is added; the existing record
// is selected instead and added is false. A predicted class on r replaces
// the existing record's class.
func (m *Manager) AddRecord(r catalog.Record) (added bool, err error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return false, ErrEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if idx, exists := m.index[r.Name]; exists {
		if cls := r.PredictedClass; cls != "" && m.records[idx].PredictedClass != cls {
			m.records[idx] = m.records[idx].WithPrediction(cls)
			m.addEvent(Event{Type: EventRecordUpdated, Timestamp: time.Now(), Name: r.Name, Detail: cls})
			m.version++
		}
	} else {
		m.index[r.Name] = len(m.records)
		m.records = append(m.records, r)
		m.addEvent(Event{Type: EventRecordAdded, Timestamp: time.Now(), Name: r.Name})
		m.version++
		added = true
	}
	m.selectLocked(r.Name)
	return added, nil
}

// Select focuses the view on name; an empty name clears the selection.
func (m *Manager) Select(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectLocked(strings.TrimSpace(name))
}

// ClearSelection returns the view to the default pose.
func (m *Manager) ClearSelection() {
	m.Select("")
}

func (m *Manager) selectLocked(name string) {
	if name == m.selected {
		return
	}
	m.selected = name
	m.addEvent(Event{Type: EventSelectionChanged, Timestamp: time.Now(), Name: name})
	m.version++
}

// SetUnit changes the projection unit.
func (m *Manager) SetUnit(u astro.Unit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u == m.unit {
		return
	}
	m.unit = u
	m.addEvent(Event{Type: EventUnitChanged, Timestamp: time.Now(), Detail: u.Label()})
	m.version++
}

// SetPolicy changes filtering and colouring.
func (m *Manager) SetPolicy(p projector.Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setPolicyLocked(p)
}

// ToggleStellarFilter flips the stellar temperature filter and returns
// the new setting.
func (m *Manager) ToggleStellarFilter() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.policy
	p.StellarTempFilter = !p.StellarTempFilter
	m.setPolicyLocked(p)
	return p.StellarTempFilter
}

func (m *Manager) setPolicyLocked(p projector.Policy) {
	if p == m.policy {
		return
	}
	m.policy = p
	m.addEvent(Event{Type: EventPolicyChanged, Timestamp: time.Now(), Detail: describePolicy(p)})
	m.revalidateSelection()
	m.version++
}

// SetFilter narrows the working set by planet characteristics.
func (m *Manager) SetFilter(c catalog.Characteristics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c == m.filter {
		return
	}
	m.filter = c
	m.addEvent(Event{Type: EventPolicyChanged, Timestamp: time.Now(), Detail: c.Describe()})
	m.revalidateSelection()
	m.version++
}

func describePolicy(p projector.Policy) string {
	s := "color: " + p.ColorMode.String()
	if p.StellarTempFilter {
		s += ", stellar filter on"
	}
	return s
}

// revalidateSelection drops the selection when its record can no longer
// be projected under the current filters. Caller holds the write lock.
func (m *Manager) revalidateSelection() {
	if m.selected == "" {
		return
	}
	idx, ok := m.index[m.selected]
	if ok {
		r := m.records[idx]
		if _, eligible := projector.Check(r, m.policy); eligible &&
			len(catalog.FilterByCharacteristics([]catalog.Record{r}, m.filter)) == 1 {
			return
		}
	}
	m.addEvent(Event{Type: EventSelectionLost, Timestamp: time.Now(), Name: m.selected})
	m.selected = ""
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Records      []catalog.Record
	Source       string
	LastLoad     time.Time
	LastError    error
	LoadDuration time.Duration
	Unit         astro.Unit
	Policy       projector.Policy
	Filter       catalog.Characteristics
	Selected     string
	Projection   projector.Projection
	Camera       camera.Result
	CameraConfig camera.Config
	Events       []Event
	Version      uint64
}

// Overrides replace session settings for a single snapshot. Nil fields
// keep the session value.
type Overrides struct {
	Unit      *astro.Unit
	ColorMode *projector.ColorMode
	Selected  *string
}

// Snapshot copies the working set and projects it. Projection runs
// outside the lock.
func (m *Manager) Snapshot() Snapshot {
	return m.SnapshotWith(Overrides{})
}

// SnapshotWith projects the working set with o applied. The session
// itself is not changed.
func (m *Manager) SnapshotWith(o Overrides) Snapshot {
	m.mu.RLock()
	records := make([]catalog.Record, len(m.records))
	copy(records, m.records)
	snap := Snapshot{
		Records:      records,
		Source:       m.source,
		LastLoad:     m.lastLoad,
		LastError:    m.lastError,
		LoadDuration: m.loadDuration,
		Unit:         m.unit,
		Policy:       m.policy,
		Filter:       m.filter,
		Selected:     m.selected,
		CameraConfig: m.camera,
		Events:       m.getEventsOrdered(),
		Version:      m.version,
	}
	m.mu.RUnlock()

	if o.Unit != nil {
		snap.Unit = *o.Unit
	}
	if o.ColorMode != nil {
		snap.Policy.ColorMode = *o.ColorMode
	}
	if o.Selected != nil {
		snap.Selected = strings.TrimSpace(*o.Selected)
	}

	start := time.Now()
	working := catalog.FilterByCharacteristics(records, snap.Filter)
	snap.Projection = projector.Project(working, snap.Unit, snap.Policy)
	took := time.Since(start)

	snap.Camera = camera.Target(snap.Projection.Points, snap.Unit, snap.Selected, snap.CameraConfig)

	if m.observer != nil {
		m.observer.ObserveProjection(snap.Projection, took)
		m.observer.ObserveCamera(snap.Camera.Status)
	}
	return snap
}

// Status is the load state of the session, read without projecting.
type Status struct {
	Records   int
	Source    string
	LastLoad  time.Time
	LastError error
	Selected  string
	Version   uint64
}

// Status returns the current load state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Status{
		Records:   len(m.records),
		Source:    m.source,
		LastLoad:  m.lastLoad,
		LastError: m.lastError,
		Selected:  m.selected,
		Version:   m.version,
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// Records returns a copy of the working set.
func (m *Manager) Records() []catalog.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]catalog.Record, len(m.records))
	copy(out, m.records)
	return out
}

// Record looks up a record by name.
func (m *Manager) Record(name string) (catalog.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.index[name]
	if !ok {
		return catalog.Record{}, false
	}
	return m.records[idx], true
}

// Unit returns the projection unit.
func (m *Manager) Unit() astro.Unit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.unit
}

// Policy returns the projector policy.
func (m *Manager) Policy() projector.Policy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.policy
}

// Selected returns the selected record name, or "".
func (m *Manager) Selected() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// Version increases on every change that affects a Snapshot.
func (m *Manager) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// HasData returns true once a catalog has been loaded or a record added.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records) > 0
}
