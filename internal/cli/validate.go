package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazuruo/tmplconv/internal/convert"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <expression>",
		Short: "Check the shape of a template expression",
		Long: `Check an expression with the same rules used to accept generated output.

Exits non-zero and prints the failed rule when the expression is rejected.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := strings.Join(args, " ")
			if err := convert.Validate(expr); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
	cmd.Annotations = map[string]string{skipConfigAnnotation: "true"}

	return cmd
}
