package types

// Subtree is a declarative node tree used for bulk insertion: template
// expansion and symbol instantiation both materialize a Subtree through the
// document store, which assigns fresh node ids.
type Subtree struct {
	// Type is the component type tag
	Type string `json:"type" yaml:"type"`
	// Slot names the containment zone in the parent subtree node
	Slot string `json:"slot,omitempty" yaml:"slot,omitempty"`
	// Props holds initial field values
	Props map[string]any `json:"props,omitempty" yaml:"props,omitempty"`
	// Children lists nested subtrees in order
	Children []*Subtree `json:"children,omitempty" yaml:"children,omitempty"`
}
