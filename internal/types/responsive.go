package types

import "encoding/json"

// Breakpoint names a viewport class. Values cascade mobile-first: the base
// value covers mobile, larger breakpoints may override it.
type Breakpoint string

const (
	BreakpointMobile  Breakpoint = "mobile"
	BreakpointTablet  Breakpoint = "tablet"
	BreakpointDesktop Breakpoint = "desktop"
)

// BreakpointOrder lists breakpoints smallest to largest.
var BreakpointOrder = []Breakpoint{BreakpointMobile, BreakpointTablet, BreakpointDesktop}

// BreakpointIndex returns the position of bp in BreakpointOrder, or -1 for an
// unknown breakpoint.
func BreakpointIndex(bp Breakpoint) int {
	for i, b := range BreakpointOrder {
		if b == bp {
			return i
		}
	}
	return -1
}

// ResponsiveValue is a prop value with a mandatory base and optional
// larger-breakpoint overrides. The base covers mobile; overrides exist only
// for tablet and desktop.
type ResponsiveValue struct {
	// Base is the mobile value and the fallback for every breakpoint
	Base any `json:"base"`
	// Overrides maps tablet/desktop to their override values
	Overrides map[Breakpoint]any `json:"overrides,omitempty"`
}

// Clone returns a copy of the responsive value.
func (rv *ResponsiveValue) Clone() *ResponsiveValue {
	if rv == nil {
		return nil
	}
	c := &ResponsiveValue{Base: rv.Base}
	if rv.Overrides != nil {
		c.Overrides = make(map[Breakpoint]any, len(rv.Overrides))
		for k, v := range rv.Overrides {
			c.Overrides[k] = v
		}
	}
	return c
}

// responsiveTag marks a serialized ResponsiveValue inside a props map so the
// codec can tell it apart from a plain object value.
const responsiveTag = "$responsive"

type responsiveJSON struct {
	Responsive bool               `json:"$responsive"`
	Base       any                `json:"base"`
	Overrides  map[Breakpoint]any `json:"overrides,omitempty"`
}

// MarshalJSON writes the tagged wire form of the responsive value.
func (rv *ResponsiveValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(responsiveJSON{
		Responsive: true,
		Base:       rv.Base,
		Overrides:  rv.Overrides,
	})
}

// UnmarshalJSON reads the tagged wire form.
func (rv *ResponsiveValue) UnmarshalJSON(data []byte) error {
	var raw responsiveJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rv.Base = raw.Base
	rv.Overrides = raw.Overrides
	return nil
}

// IsResponsiveObject reports whether a decoded JSON value carries the
// responsive tag, meaning it should be rebuilt as a *ResponsiveValue.
func IsResponsiveObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	if tag, ok := m[responsiveTag].(bool); !ok || !tag {
		return nil, false
	}
	return m, true
}
