package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/arborist-lang/arborist/internal/demo/linker"
	"github.com/arborist-lang/arborist/internal/demo/styler"
)

func newHTMLCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "html <path> <outdir>",
		Short: "Render path as cross-linked, syntax-highlighted HTML into outdir",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, outdir := args[0], args[1]
			cfg := flags.buildConfig()
			a, c, err := newAnalyzer(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if err := a.Analyze(path); err != nil {
				return fmt.Errorf("analyzing %s: %w", path, err)
			}
			a.Finish()

			l := linker.New(a)
			var totalBytes int64

			err = filepath.Walk(path, func(file string, fi os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if fi.IsDir() {
					return nil
				}
				mod, ok := a.GetAstForFile(file)
				if !ok {
					return nil
				}
				src, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				page := styler.Render(a, mod, src, file, l)

				rel, err := filepath.Rel(path, linker.OutputName(file))
				if err != nil {
					rel = filepath.Base(linker.OutputName(file))
				}
				dest := filepath.Join(outdir, rel)
				if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(dest, []byte(page), 0o644); err != nil {
					return err
				}
				totalBytes += int64(len(page))
				if !cfg.Quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", file, dest)
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("rendering %s: %w", path, err)
			}
			if !cfg.Quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s of HTML to %s\n", humanize.Bytes(uint64(totalBytes)), outdir)
			}
			return nil
		},
	}
}
