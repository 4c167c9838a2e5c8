package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	reg := New()

	assert.NotNil(t, reg)
	assert.Equal(t, 0, reg.Count())
	assert.Empty(t, reg.GetAll())
}

func TestRegistry_Register(t *testing.T) {
	reg := New()

	def := &ComponentDef{
		Type:        "Button",
		DisplayName: "Button",
		Fields: []FieldSpec{
			{Name: "label", Type: "string", Default: "Click me"},
		},
	}
	reg.Register(def)

	retrieved, exists := reg.Get("Button")
	assert.True(t, exists)
	assert.Equal(t, def, retrieved)
	assert.Equal(t, 1, reg.Count())

	all := reg.GetAll()
	assert.Len(t, all, 1)
	assert.Equal(t, def, all["Button"])
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	reg := New()
	reg.Register(&ComponentDef{Type: "Button", DisplayName: "Old"})
	reg.Register(&ComponentDef{Type: "Button", DisplayName: "New"})

	def, _ := reg.Get("Button")
	assert.Equal(t, "New", def.DisplayName)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_Remove(t *testing.T) {
	reg := New()
	reg.Register(&ComponentDef{Type: "Button"})
	reg.Remove("Button")

	_, exists := reg.Get("Button")
	assert.False(t, exists)

	// Removing a missing type is a no-op
	reg.Remove("Ghost")
	assert.Equal(t, 0, reg.Count())
}

func TestRegistry_Accepts(t *testing.T) {
	reg := New()
	reg.Register(&ComponentDef{Type: "Section", AcceptsChildren: true})
	reg.Register(&ComponentDef{Type: "Card", AcceptsChildren: true, Slots: []SlotSpec{
		{Name: "header", Accepts: []string{"Text"}},
		{Name: "body"},
	}})
	reg.Register(&ComponentDef{Type: "Button"})
	reg.Register(&ComponentDef{Type: "Text"})

	tests := []struct {
		name                    string
		parent, slot, childType string
		want                    bool
	}{
		{"default zone accepts anything", "Section", "", "Button", true},
		{"leaf rejects children", "Button", "", "Text", false},
		{"unregistered parent rejects", "Ghost", "", "Text", false},
		{"restricted slot accepts listed type", "Card", "header", "Text", true},
		{"restricted slot rejects other types", "Card", "header", "Button", false},
		{"unrestricted named slot accepts anything", "Card", "body", "Button", true},
		{"unknown slot rejects", "Card", "footer", "Text", false},
		{"slotted container has no default zone", "Card", "", "Text", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reg.Accepts(tt.parent, tt.slot, tt.childType))
		})
	}
}

func TestComponentDef_DefaultProps(t *testing.T) {
	def := &ComponentDef{Type: "Button", Fields: []FieldSpec{
		{Name: "label", Type: "string", Default: "Click me"},
		{Name: "variant", Type: "string", Default: "primary"},
		{Name: "href", Type: "string"},
	}}

	props := def.DefaultProps()
	assert.Equal(t, "Click me", props["label"])
	assert.Equal(t, "primary", props["variant"])
	_, ok := props["href"]
	assert.False(t, ok)

	// Fresh map each call
	props["label"] = "mutated"
	assert.Equal(t, "Click me", def.DefaultProps()["label"])
}

func TestRegistry_Watch(t *testing.T) {
	reg := New()
	ch := reg.Watch()

	def := &ComponentDef{Type: "Button"}
	reg.Register(def)

	select {
	case event := <-ch:
		assert.Equal(t, EventTypeAdded, event.Type)
		assert.Equal(t, def, event.Component)
	case <-time.After(time.Second):
		t.Fatal("expected registry event")
	}

	reg.Register(def)
	select {
	case event := <-ch:
		assert.Equal(t, EventTypeUpdated, event.Type)
	case <-time.After(time.Second):
		t.Fatal("expected update event")
	}

	reg.UnWatch(ch)
	_, open := <-ch
	assert.False(t, open)
}

func TestRegistry_Templates(t *testing.T) {
	reg := New()
	require.Empty(t, reg.TemplateNames())

	reg.RegisterTemplate(&TemplateDef{Name: "hero"})
	reg.RegisterTemplate(&TemplateDef{Name: "footer"})

	assert.Equal(t, []string{"footer", "hero"}, reg.TemplateNames())
	tpl, ok := reg.Template("hero")
	require.True(t, ok)
	assert.Equal(t, "hero", tpl.Name)
}
