package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evan-idocoding/tweakkit/catalog"
	"github.com/evan-idocoding/tweakkit/rt/tweak"
)

// --- list ---

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections sorted by title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows [][]string
			for _, c := range a.store.SortedCollections() {
				rows = append(rows, []string{c.Title, strconv.Itoa(c.Count)})
			}
			return renderTable(cmd.OutOrStdout(), []string{"COLLECTION", "TWEAKS"}, rows)
		},
	}
}

// --- show ---

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <title>",
		Short: "Show the tweaks of one collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, ok := a.store.CollectionItems(args[0])
			if !ok {
				return fmt.Errorf("collection %q not found", args[0])
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				src := it.Source.String()
				if it.Source == tweak.SourceDefault {
					src = muted(out, src)
				}
				rows = append(rows, []string{
					it.Key, it.Name, it.Kind.String(), it.Value.String(), it.DefaultValue.String(), src, formatRange(it.Constraints),
				})
			}
			return renderTable(out, []string{"KEY", "NAME", "KIND", "VALUE", "DEFAULT", "SOURCE", "RANGE"}, rows)
		},
	}
}

func formatRange(c tweak.Constraints) string {
	if c.Min == nil && c.Max == nil {
		return ""
	}
	lo, hi := "", ""
	if c.Min != nil {
		lo = *c.Min
	}
	if c.Max != nil {
		hi = *c.Max
	}
	s := lo + ".." + hi
	if c.Step != nil {
		s += " step " + *c.Step
	}
	return s
}

// --- get ---

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a tweak",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.store.Value(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}
}

// --- set / clear / reset ---

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Override a tweak",
		Long: `Override a tweak. The value is parsed by the tweak's kind:

  bool     true/false, yes/no, on/off, 1/0
  int      base-10 integer
  float32  decimal number
  float64  decimal number
  color    #rrggbb or #rrggbbaa`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := a.store.SetFromString(key, args[1]); err != nil {
				return err
			}
			v, _ := a.store.Value(key)
			printSuccess(cmd.OutOrStdout(), "%s = %s", key, v)
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <key>",
		Short: "Remove the override of a tweak",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := a.store.ClearOverride(key); err != nil {
				return err
			}
			v, _ := a.store.Value(key)
			printSuccess(cmd.OutOrStdout(), "%s = %s (default)", key, v)
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove every override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cleared, err := a.store.ResetChecked(nil)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "cleared %d overrides", len(cleared))
			return nil
		},
	}
}

// --- overrides / catalog ---

func newOverridesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overrides",
		Short: "Print current overrides as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.store.ExportOverridesJSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the loaded catalog in normalized form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cs []tweak.CollectionInfo
			for _, c := range a.store.SortedCollections() {
				if c.Title != builtinCollection {
					cs = append(cs, c)
				}
			}
			return catalog.Encode(cmd.OutOrStdout(), cs)
		},
	}
}
