package cli

import "github.com/spf13/cobra"

func newPatternsCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "patterns",
		Short:   "Print the provider fingerprints used for classification",
		Long:    "Print the effective GitHub Pages and Netlify fingerprints: the built-in set, or the file named by patterns_file.",
		Args:    cobra.NoArgs,
		GroupID: "utility",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := d.loadPatterns()
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), d, &p)
		},
	}
}
