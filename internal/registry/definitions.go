package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/pagewright/internal/types"
)

// TemplateDef is a named reusable subtree inserted in bulk through the
// document store.
type TemplateDef struct {
	// Name identifies the template in the library
	Name string `yaml:"name"`
	// Description documents the template
	Description string `yaml:"description,omitempty"`
	// Root is the subtree to materialize
	Root *types.Subtree `yaml:"root"`
}

// definitionFile is the YAML shape of a component definition file.
type definitionFile struct {
	Components []*ComponentDef `yaml:"components"`
	Templates  []*TemplateDef  `yaml:"templates"`
}

// RegisterTemplate adds or updates a template definition.
func (r *Registry) RegisterTemplate(def *TemplateDef) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.templates[def.Name] = def
}

// Template retrieves a template by name.
func (r *Registry) Template(name string) (*TemplateDef, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	t, ok := r.templates[name]
	return t, ok
}

// TemplateNames returns all template names sorted.
func (r *Registry) TemplateNames() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFile parses one YAML definition file and registers its components and
// templates.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading definition file %s: %w", path, err)
	}

	var file definitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing definition file %s: %w", path, err)
	}

	for _, def := range file.Components {
		if err := validateDef(def); err != nil {
			return fmt.Errorf("definition file %s: %w", path, err)
		}
		r.Register(def)
	}
	for _, tpl := range file.Templates {
		if tpl.Name == "" || tpl.Root == nil {
			return fmt.Errorf("definition file %s: template requires name and root", path)
		}
		r.RegisterTemplate(tpl)
	}
	return nil
}

// LoadDir loads every .yml/.yaml definition file under dir, sorted for
// deterministic registration order. A missing directory is not an error.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading definition dir %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yml" || ext == ".yaml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := r.LoadFile(path); err != nil {
			return err
		}
	}
	return nil
}

// validateDef checks a parsed component definition for internal consistency.
func validateDef(def *ComponentDef) error {
	if def == nil || strings.TrimSpace(def.Type) == "" {
		return fmt.Errorf("component definition requires a type tag")
	}
	seen := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		if f.Name == "" {
			return fmt.Errorf("component %s: field without a name", def.Type)
		}
		if seen[f.Name] {
			return fmt.Errorf("component %s: duplicate field %s", def.Type, f.Name)
		}
		seen[f.Name] = true
		switch f.Type {
		case "", "string", "int", "float", "bool", "any":
		default:
			return fmt.Errorf("component %s: field %s has unsupported type %s", def.Type, f.Name, f.Type)
		}
	}
	if len(def.Slots) > 0 && !def.AcceptsChildren {
		return fmt.Errorf("component %s: slots declared but accepts_children is false", def.Type)
	}
	slotSeen := make(map[string]bool, len(def.Slots))
	for _, s := range def.Slots {
		if slotSeen[s.Name] {
			return fmt.Errorf("component %s: duplicate slot %q", def.Type, s.Name)
		}
		slotSeen[s.Name] = true
	}
	switch def.LayoutAxis {
	case "", AxisVertical, AxisHorizontal, AxisGrid:
	default:
		return fmt.Errorf("component %s: unsupported layout axis %s", def.Type, def.LayoutAxis)
	}
	return nil
}
