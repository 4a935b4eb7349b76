package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Yanjo96/annonex2embl/internal/annotate"
)

// configKey describes one setting the convert and products commands read
// from ~/.annonex2embl.yaml. parse validates the raw value and returns the
// typed value to store.
type configKey struct {
	usage string
	parse func(string) (any, error)
}

var configKeys = map[string]configKey{
	"email": {
		usage: "contact address sent with Entrez product lookups",
		parse: func(v string) (any, error) {
			if !strings.Contains(v, "@") {
				return nil, fmt.Errorf("%q does not look like an email address", v)
			}
			return v, nil
		},
	},
	"outformat": {
		usage: "default output format: embl or gb",
		parse: func(v string) (any, error) {
			if v != "embl" && v != "gb" {
				return nil, fmt.Errorf("unknown output format %q (want embl or gb)", v)
			}
			return v, nil
		},
	},
	"table": {
		usage: "default NCBI genetic code table for translation checks",
		parse: func(v string) (any, error) {
			id, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("genetic code table must be a number, got %q", v)
			}
			if _, err := annotate.TableByID(id); err != nil {
				return nil, err
			}
			return id, nil
		},
	},
}

func configKeyNames() []string {
	names := make([]string, 0, len(configKeys))
	for name := range configKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage annonex2embl configuration",
		Long: `Show, get, or set the defaults read from ~/.annonex2embl.yaml.

Keys:
  email      contact address sent with Entrez product lookups
  outformat  default output format: embl or gb
  table      default NCBI genetic code table for translation checks`,
		Example: `  annonex2embl config                   # show current settings
  annonex2embl config set email user@example.org
  annonex2embl config set table 11      # plastid genetic code
  annonex2embl config get outformat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

// runConfigShow prints the known keys that are set. Keys the tool does not
// read are left out even if present in the file.
func runConfigShow(out io.Writer) error {
	settings := map[string]any{}
	for name := range configKeys {
		if viper.IsSet(name) {
			settings[name] = viper.Get(name)
		}
	}
	if len(settings) == 0 {
		fmt.Fprintln(out, "# No configuration set. Config file: ~/.annonex2embl.yaml")
		return nil
	}

	text, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(out, string(text))
	return nil
}

func runConfigSet(out io.Writer, key, value string) error {
	def, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (keys: %s)", key, strings.Join(configKeyNames(), ", "))
	}
	parsed, err := def.parse(value)
	if err != nil {
		return err
	}
	viper.Set(key, parsed)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".annonex2embl.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(out, "Set %s = %v in %s\n", key, parsed, cfgFile)
	return nil
}

func runConfigGet(out io.Writer, key string) error {
	if _, ok := configKeys[key]; !ok {
		return fmt.Errorf("unknown config key %q (keys: %s)", key, strings.Join(configKeyNames(), ", "))
	}
	if !viper.IsSet(key) {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(out, viper.Get(key))
	return nil
}
