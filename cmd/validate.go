package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/pagewright/internal/document"
	"github.com/conneroisu/pagewright/internal/persistence"
)

// validateCmd checks a saved page document file for structural validity.
var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a saved page document",
	Long: `Decode a saved page document JSON file and check its structural
invariants: schema version, root reachability, parent/child agreement,
and acyclicity.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	body, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	doc, err := persistence.DecodeDocument(body)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	if err := document.CheckInvariants(doc); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	fmt.Printf("%s: ok (%d nodes, %d symbols, schema v%d)\n",
		args[0], len(doc.Nodes), len(doc.Symbols), doc.SchemaVersion)
	return nil
}
