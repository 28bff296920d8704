package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbckr/staticscan/internal/apperr"
	"github.com/tbckr/staticscan/internal/extract"
)

func newCheckCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "check <domain|url>",
		Short: "Classify a single domain and show the DNS evidence",
		Example: `  staticscan check example.github.io
  staticscan check https://blog.example.com/post --resolver doh`,
		Args:    cobra.ExactArgs(1),
		GroupID: "scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, ok := extract.Domain(args[0])
			if !ok {
				return fmt.Errorf("%w: %q is not a domain or URL", apperr.ErrInvalidInput, args[0])
			}
			c, err := d.newClassifier()
			if err != nil {
				return err
			}
			out := c.Classify(cmd.Context(), host)
			return writeResult(cmd.OutOrStdout(), d, &out)
		},
	}
}
