// Package cli provides the Cobra command tree for staticscan.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tbckr/staticscan/internal/config"
	"github.com/tbckr/staticscan/internal/input"
	"github.com/tbckr/staticscan/internal/output"
	"github.com/tbckr/staticscan/internal/version"
)

// option adjusts resolved dependencies before a subcommand runs. Tests use it
// to swap in a stub resolver.
type option func(*deps)

// newRootCmd builds the top-level command.
func newRootCmd(opts ...option) *cobra.Command {
	// d is populated by PersistentPreRunE before any subcommand's RunE runs.
	// Cobra only runs the innermost PersistentPreRunE, so subcommands must not
	// define their own unless they do not need d (see completion).
	var d deps

	cmd := &cobra.Command{
		Use:   "staticscan",
		Short: "Classify domains by static hosting provider",
		Long: `staticscan resolves the A and CNAME records of each domain in a list and sorts
the domains into GitHub Pages, Netlify, and everything else.

Lists are processed as background jobs; progress is logged while they run and
the partitioned results are printed, or written to one file per category.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := buildDeps(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			for _, opt := range opts {
				opt(resolved)
			}
			d = *resolved
			return nil
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())
	config.RegisterFlagCompletions(cmd)

	cmd.Version = version.Version
	cmd.SetVersionTemplate("staticscan version {{.Version}}\n")

	cmd.AddGroup(
		&cobra.Group{ID: "scan", Title: "Scan Commands:"},
		&cobra.Group{ID: "utility", Title: "Utility Commands:"},
	)

	cmd.AddCommand(
		newClassifyCmd(&d),
		newCheckCmd(&d),
		newPatternsCmd(&d),
		newConfigCmd(&d),
		newCompletionCmd(),
		newVersionCmd(&d),
	)

	return cmd
}

// Execute builds the root command and runs it with args.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// resolveInputs returns positional args, or reads non-empty lines from stdin when
// no args are provided. Reading from an interactive terminal is refused so a
// forgotten argument does not hang the command.
func resolveInputs(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	r := cmd.InOrStdin()
	if output.IsTerminal(r) {
		return nil, fmt.Errorf("no input: pass domains as arguments, use --file, or pipe stdin")
	}
	return input.Read(r)
}
