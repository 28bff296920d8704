package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tbckr/staticscan/internal/config"
	"github.com/tbckr/staticscan/internal/output"
)

func newConfigCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Read and write staticscan config file values",
		GroupID: "utility",
	}
	cmd.AddCommand(
		newConfigPathCmd(d),
		newConfigShowCmd(d),
		newConfigGetCmd(d),
		newConfigSetCmd(d),
		newConfigEditCmd(d),
	)
	return cmd
}

func newConfigPathCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), d.cfg.ConfigFile)
			return err
		},
	}
}

// settings is the effective configuration as ordered key/value pairs. It shows
// resolved values (defaults, env vars, flags), not just what the file holds.
type settings struct {
	keys   []string
	values map[string]string
}

func effectiveSettings(cfg *config.Config) settings {
	s := settings{keys: config.ValidKeys(), values: map[string]string{}}
	for _, k := range s.keys {
		s.values[k] = cfg.Value(k)
	}
	return s
}

func (s settings) MarshalJSON() ([]byte, error) { return json.Marshal(s.values) }

func (s settings) WriteTable(w io.Writer) error {
	table := output.NewWrappingTable(w, 20, 6)
	table.Header([]string{"Key", "Value"})
	rows := make([][]string, len(s.keys))
	for i, k := range s.keys {
		rows[i] = []string{k, s.values[k]}
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func (s settings) WritePlain(w io.Writer) error {
	for _, k := range s.keys {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, s.values[k]); err != nil {
			return err
		}
	}
	return nil
}

func newConfigShowCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Aliases: []string{"cat"},
		Short:   "Display all effective config settings",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeResult(cmd.OutOrStdout(), d, effectiveSettings(d.cfg))
		},
	}
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return config.ValidKeys(), cobra.ShellCompDirectiveNoFileComp
	case 1:
		return config.KeyCompletions(args[0]), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func newConfigGetCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:               "get <key>",
		Short:             "Print the effective value of a config key",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateKey(args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), d.cfg.Value(config.NormalizeKey(args[0])))
			return err
		},
	}
}

func newConfigSetCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:               "set <key> <value>",
		Short:             "Set a config value and persist it to the config file",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeKeys,
		RunE: func(_ *cobra.Command, args []string) error {
			key := config.NormalizeKey(args[0])
			if err := config.ValidateKey(key); err != nil {
				return err
			}
			typed, err := config.ParseValue(key, args[1])
			if err != nil {
				return err
			}
			return setFileValue(d.cfg.ConfigFile, key, typed)
		},
	}
}

// setFileValue writes key into the YAML file at path, keeping every other key
// already present. Values that only come from defaults, env vars, or flags are
// never written.
func setFileValue(path, key string, value any) error {
	raw := map[string]any{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	}
	raw[key] = value

	out, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func newConfigEditCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the config file in $EDITOR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = os.Getenv("VISUAL")
			}
			if editor == "" {
				editor = "vi"
			}
			c := exec.CommandContext(cmd.Context(), editor, d.cfg.ConfigFile) //nolint:gosec // editor comes from the user's environment
			c.Stdin = cmd.InOrStdin()
			c.Stdout = cmd.OutOrStdout()
			c.Stderr = cmd.ErrOrStderr()
			return c.Run()
		},
	}
}
