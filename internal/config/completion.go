package config

import "github.com/spf13/cobra"

// RegisterFlagCompletions wires shell completion for enumerated flags on cmd.
func RegisterFlagCompletions(cmd *cobra.Command) {
	for _, s := range keySpecs {
		if len(s.enum) == 0 {
			continue
		}
		values := s.enum
		_ = cmd.RegisterFlagCompletionFunc(flagName(s.key), func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return values, cobra.ShellCompDirectiveNoFileComp
		})
	}
}
