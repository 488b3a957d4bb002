package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <path>",
		Short: "Analyze a file or directory and print its diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.buildConfig()
			a, c, err := newAnalyzer(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			path := args[0]
			if err := a.Analyze(path); err != nil {
				// A directory walk error or unreadable file is an
				// argument-level problem, unlike a per-file parse
				// failure, which Finish reports as a diagnostic instead.
				return fmt.Errorf("analyzing %s: %w", path, err)
			}
			problems := a.Finish()

			if !cfg.Quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s diagnostics\n", path, humanize.Comma(int64(len(problems))))
			}
			for _, d := range problems {
				fmt.Fprintln(cmd.OutOrStdout(), d.Error())
			}
			if cfg.Debug {
				fmt.Fprintf(os.Stderr, "%# v\n", pretty.Formatter(a.GetAllBindings()))
			}
			return nil
		},
	}
}
