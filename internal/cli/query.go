package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/arborist-lang/arborist/internal/types"
)

func newQueryCmd(flags *rootFlags) *cobra.Command {
	query := &cobra.Command{
		Use:   "query",
		Short: "Inspect the binding and reference index of an analyzed path",
	}
	query.AddCommand(newQueryBindingsCmd(flags))
	query.AddCommand(newQueryRefsCmd(flags))
	return query
}

// colorizer returns an identity function on a non-terminal stdout
// (piped to a file, or the test harness), so query output stays
// diffable; on a real terminal it wraps s in the given SGR code.
func colorizer() func(code, s string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return func(_, s string) string { return s }
	}
	return func(code, s string) string { return "\x1b[" + code + "m" + s + "\x1b[0m" }
}

func newQueryBindingsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "bindings <path>",
		Short: "List every binding discovered while analyzing path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, c, err := newAnalyzer(flags.buildConfig())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			if err := a.Analyze(args[0]); err != nil {
				return fmt.Errorf("analyzing %s: %w", args[0], err)
			}
			a.Finish()

			color := colorizer()
			for _, b := range a.GetAllBindings() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s  (%s:%d)\n",
					color("33", b.Kind.String()), b.QName, b.Type.String(), b.File, b.Start)
			}
			return nil
		},
	}
}

func newQueryRefsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "refs <path>",
		Short: "List every reference recorded while analyzing path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, c, err := newAnalyzer(flags.buildConfig())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			if err := a.Analyze(args[0]); err != nil {
				return fmt.Errorf("analyzing %s: %w", args[0], err)
			}
			a.Finish()

			color := colorizer()
			for _, b := range a.GetAllBindings() {
				for _, r := range b.Refs() {
					key := types.RefKey(*r)
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s  (%s)\n",
						color("36", key), b.QName, b.File)
				}
			}
			return nil
		},
	}
}
