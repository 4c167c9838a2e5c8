// Package registry maps component type tags to their field schemas, default
// props, and containment capabilities. The registry is the single authority
// consulted by the document store when validating insert and move targets,
// and by the renderer when degrading unknown types to placeholders.
package registry

import (
	"sync"
	"time"
)

// Axis describes how a container lays out its children, which the drag-drop
// engine uses to pick the insertion index comparison direction.
type Axis string

const (
	AxisVertical   Axis = "vertical"
	AxisHorizontal Axis = "horizontal"
	AxisGrid       Axis = "grid"
)

// FieldSpec describes one prop field of a component type.
type FieldSpec struct {
	// Name is the field identifier
	Name string `yaml:"name"`
	// Type is the declared value type: string, int, float, bool, or any
	Type string `yaml:"type"`
	// Responsive marks fields that accept breakpoint overrides
	Responsive bool `yaml:"responsive,omitempty"`
	// Default is the palette default for this field
	Default any `yaml:"default,omitempty"`
}

// SlotSpec describes one named containment zone of a container type.
type SlotSpec struct {
	// Name is the zone name ("" is the default zone)
	Name string `yaml:"name"`
	// Accepts restricts child types; empty accepts any type
	Accepts []string `yaml:"accepts,omitempty"`
}

// ComponentDef is the registry entry for one component type.
type ComponentDef struct {
	// Type is the component type tag
	Type string `yaml:"type"`
	// DisplayName is the human-readable palette label
	DisplayName string `yaml:"display_name,omitempty"`
	// Description documents the component
	Description string `yaml:"description,omitempty"`
	// Fields declares the prop schema
	Fields []FieldSpec `yaml:"fields,omitempty"`
	// AcceptsChildren marks container types
	AcceptsChildren bool `yaml:"accepts_children,omitempty"`
	// Slots lists named zones; a container without slots has one default zone
	Slots []SlotSpec `yaml:"slots,omitempty"`
	// LayoutAxis is the container layout direction, vertical when unset
	LayoutAxis Axis `yaml:"layout_axis,omitempty"`
}

// Field returns the field spec for name.
func (d *ComponentDef) Field(name string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Slot returns the slot spec for name. A container without declared slots
// exposes a single unrestricted default zone.
func (d *ComponentDef) Slot(name string) (SlotSpec, bool) {
	if len(d.Slots) == 0 {
		if name == "" && d.AcceptsChildren {
			return SlotSpec{}, true
		}
		return SlotSpec{}, false
	}
	for _, s := range d.Slots {
		if s.Name == name {
			return s, true
		}
	}
	return SlotSpec{}, false
}

// DefaultProps builds a fresh props map from the field defaults.
func (d *ComponentDef) DefaultProps() map[string]any {
	props := make(map[string]any)
	for _, f := range d.Fields {
		if f.Default != nil {
			props[f.Name] = f.Default
		}
	}
	return props
}

// EventType represents the type of registry event.
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

// Event represents a change in the component registry.
type Event struct {
	Type      EventType
	Component *ComponentDef
	Timestamp time.Time
}

// Registry manages all registered component definitions.
type Registry struct {
	components map[string]*ComponentDef
	templates  map[string]*TemplateDef
	mutex      sync.RWMutex
	watchers   []chan Event
}

// New creates an empty component registry.
func New() *Registry {
	return &Registry{
		components: make(map[string]*ComponentDef),
		templates:  make(map[string]*TemplateDef),
		watchers:   make([]chan Event, 0),
	}
}

// Register adds or updates a component definition.
func (r *Registry) Register(def *ComponentDef) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if _, exists := r.components[def.Type]; exists {
		eventType = EventTypeUpdated
	}
	r.components[def.Type] = def

	r.notify(Event{Type: eventType, Component: def, Timestamp: time.Now()})
}

// Get retrieves a component definition by type tag.
func (r *Registry) Get(componentType string) (*ComponentDef, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	def, exists := r.components[componentType]
	return def, exists
}

// GetAll returns all registered component definitions.
func (r *Registry) GetAll() map[string]*ComponentDef {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make(map[string]*ComponentDef, len(r.components))
	for t, def := range r.components {
		result[t] = def
	}
	return result
}

// Remove removes a component definition.
func (r *Registry) Remove(componentType string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	def, exists := r.components[componentType]
	if !exists {
		return
	}
	delete(r.components, componentType)

	r.notify(Event{Type: EventTypeRemoved, Component: def, Timestamp: time.Now()})
}

// Count returns the number of registered component definitions.
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.components)
}

// Accepts reports whether a parent type allows a child of childType in the
// named slot. Unregistered parent types accept nothing.
func (r *Registry) Accepts(parentType, slot, childType string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	def, exists := r.components[parentType]
	if !exists || !def.AcceptsChildren {
		return false
	}
	spec, ok := def.Slot(slot)
	if !ok {
		return false
	}
	if len(spec.Accepts) == 0 {
		return true
	}
	for _, t := range spec.Accepts {
		if t == childType {
			return true
		}
	}
	return false
}

// Watch returns a channel that receives registry events.
func (r *Registry) Watch() <-chan Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan Event, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it.
func (r *Registry) UnWatch(ch <-chan Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// notify fans an event out to watchers without blocking. Callers hold the
// write lock.
func (r *Registry) notify(event Event) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
