package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/pagewright/internal/config"
	"github.com/conneroisu/pagewright/internal/registry"
)

var componentsFormat string

// componentsCmd lists the registered component types.
var componentsCmd = &cobra.Command{
	Use:     "components",
	Aliases: []string{"c"},
	Short:   "List registered component types",
	Long: `Load the configured component definitions and list every registered
type with its fields and containment rules.`,
	RunE: runComponents,
}

func init() {
	rootCmd.AddCommand(componentsCmd)
	componentsCmd.Flags().StringVarP(&componentsFormat, "format", "f", "text", "Output format (text, json)")
}

func runComponents(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	reg := registry.New()
	for _, dir := range cfg.Components.DefinitionPaths {
		if err := reg.LoadDir(dir); err != nil {
			return fmt.Errorf("loading component definitions from %s: %w", dir, err)
		}
	}

	defs := reg.GetAll()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	if componentsFormat == "json" {
		ordered := make([]*registry.ComponentDef, 0, len(names))
		for _, name := range names {
			ordered = append(ordered, defs[name])
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ordered)
	}

	titler := cases.Title(language.English)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tDISPLAY NAME\tFIELDS\tCHILDREN\tSLOTS")
	for _, name := range names {
		def := defs[name]
		display := def.DisplayName
		if display == "" {
			display = titler.String(name)
		}
		slots := "-"
		if len(def.Slots) > 0 {
			slots = ""
			for i, slot := range def.Slots {
				if i > 0 {
					slots += ","
				}
				slots += slot.Name
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%s\n",
			def.Type, display, len(def.Fields), def.AcceptsChildren, slots)
	}
	return w.Flush()
}
