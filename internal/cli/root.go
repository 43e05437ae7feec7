// Package cli implements the tweakkit command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Execute runs the root command against the process stdio.
func Execute() error {
	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		printError(os.Stderr, "%v", err)
		return err
	}
	return nil
}

// NewRootCommand builds the command tree writing to out and errOut. Logs go
// to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	return newRootCommand(&app{}, out, errOut)
}

func newRootCommand(a *app, out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "tweakkit",
		Short: "Inspect and edit runtime tweaks",
		Long: `tweakkit manages typed runtime parameters ("tweaks") defined in a YAML catalog.

Overrides are persisted to a YAML file or a SQLite database and can be edited
from the command line or through the HTTP admin server.

Examples:
  tweakkit list
  tweakkit show Layout
  tweakkit set layout.cornerRadius 12
  tweakkit serve --addr 127.0.0.1:8080`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsStore(cmd) {
				return nil
			}
			return a.open(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetVersionTemplate(fmt.Sprintf("tweakkit %s\n", Version))

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./tweakkit.yaml if present)")
	pf.String("catalog", "", "tweak catalog file")
	pf.String("storage-backend", "", "override storage: yaml or sqlite")
	pf.String("storage-path", "", "override storage file")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")

	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newGetCmd(a),
		newSetCmd(a),
		newClearCmd(a),
		newResetCmd(a),
		newOverridesCmd(a),
		newCatalogCmd(a),
		newServeCmd(a),
	)
	// PersistentPostRunE is skipped when RunE fails, so each command closes
	// the store itself.
	for _, c := range root.Commands() {
		if c.RunE != nil {
			c.RunE = a.closing(c.RunE)
		}
	}
	return root
}

// needsStore reports whether cmd operates on the store. Help and shell
// completion commands run without a catalog.
func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}
