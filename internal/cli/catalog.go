package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/chazuruo/tmplconv/internal/catalog"
)

// CatalogOptions contains the options for the catalog command.
type CatalogOptions struct {
	Paths bool
	JSON  bool
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand() *cobra.Command {
	opts := &CatalogOptions{}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List recognized placeholders and their data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(cmd.OutOrStdout(), opts, catalog.Default())
		},
	}
	cmd.Annotations = map[string]string{skipConfigAnnotation: "true"}

	cmd.Flags().BoolVar(&opts.Paths, "paths", false, "list only the distinct data paths")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output in JSON format")

	return cmd
}

func runCatalog(w io.Writer, opts *CatalogOptions, cat *catalog.Catalog) error {
	if opts.Paths {
		if opts.JSON {
			return writeJSON(w, cat.Paths())
		}
		for _, p := range cat.Paths() {
			fmt.Fprintln(w, p)
		}
		return nil
	}

	if opts.JSON {
		type item struct {
			Name string `json:"name"`
			Path string `json:"path"`
		}
		items := make([]item, 0, cat.Len())
		for _, e := range cat.Entries() {
			items = append(items, item{Name: e.Name, Path: e.Path})
		}
		return writeJSON(w, map[string]any{
			"placeholders": items,
			"helpers":      cat.Helpers(),
		})
	}

	tbl := table.New("Placeholder", "Path").WithWriter(w)
	for _, e := range cat.Entries() {
		tbl.AddRow("["+e.Name+"]", e.Path)
	}
	tbl.Print()
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
