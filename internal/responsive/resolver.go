// Package responsive resolves breakpoint-keyed prop values for a concrete
// viewport. Values cascade mobile-first: the mandatory base covers mobile and
// every breakpoint without an override inherits from the next smaller one,
// so resolution never fails.
package responsive

import "github.com/conneroisu/pagewright/internal/types"

// Resolve returns the concrete value of rv at the given breakpoint: the
// override at bp if present, else the override at the next smaller defined
// breakpoint, else the base. An unknown breakpoint resolves to the base.
func Resolve(rv *types.ResponsiveValue, bp types.Breakpoint) any {
	if rv == nil {
		return nil
	}
	idx := types.BreakpointIndex(bp)
	// Index 0 is mobile, which is the base by definition.
	for i := idx; i >= 1; i-- {
		if v, ok := rv.Overrides[types.BreakpointOrder[i]]; ok {
			return v
		}
	}
	return rv.Base
}

// ResolveProp resolves a prop value that may or may not be responsive.
// Scalars pass through unchanged.
func ResolveProp(v any, bp types.Breakpoint) any {
	if rv, ok := v.(*types.ResponsiveValue); ok {
		return Resolve(rv, bp)
	}
	return v
}

// ToResponsive converts a scalar to responsive form. The conversion is
// lossless: the scalar becomes the base. A value that is already responsive
// is returned as a copy.
func ToResponsive(v any) *types.ResponsiveValue {
	if rv, ok := v.(*types.ResponsiveValue); ok {
		return rv.Clone()
	}
	return &types.ResponsiveValue{Base: v}
}

// ToScalar collapses a responsive value back to its base, discarding all
// overrides. The loss is deliberate and decided by the caller.
func ToScalar(rv *types.ResponsiveValue) any {
	if rv == nil {
		return nil
	}
	return rv.Base
}

// Merge combines a patch into an existing responsive value. With replace set
// the patch wins wholesale. Otherwise the patch base replaces the existing
// base only when non-nil, and override keys merge individually so a patch may
// touch a single breakpoint.
func Merge(existing, patch *types.ResponsiveValue, replace bool) *types.ResponsiveValue {
	if patch == nil {
		return existing.Clone()
	}
	if replace || existing == nil {
		return patch.Clone()
	}
	out := existing.Clone()
	if patch.Base != nil {
		out.Base = patch.Base
	}
	if len(patch.Overrides) > 0 {
		if out.Overrides == nil {
			out.Overrides = make(map[types.Breakpoint]any, len(patch.Overrides))
		}
		for bp, v := range patch.Overrides {
			if v == nil {
				delete(out.Overrides, bp)
				continue
			}
			out.Overrides[bp] = v
		}
	}
	return out
}
