package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/FretDNA/pkg/fretdna"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/chord"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
)

func newFormulaCmd(o *cliOptions) *cobra.Command {
	var find bool
	var format string
	cmd := &cobra.Command{
		Use:   "formula <root> [quality]",
		Short: "Spell a chord from its root and quality",
		Long: `formula prints the notes of a chord built from a root and a quality.
Known qualities: ` + strings.Join(chord.Qualities(), ", ") + `.`,
		Example: `  fretdna formula A m7
  fretdna formula G 7 --find`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := pitch.Parse(args[0])
			if err != nil {
				return fmt.Errorf("root %q: %w", args[0], err)
			}
			quality := ""
			if len(args) == 2 {
				quality = args[1]
			}
			target, err := chord.Formula(root, quality)
			if err != nil {
				return err
			}
			if !find {
				fmt.Fprintln(cmd.OutOrStdout(), target)
				return nil
			}

			svc, err := o.service(false)
			if err != nil {
				return err
			}
			defer svc.Close()
			req := fretdna.Request{Chord: args[0] + quality, Target: target, Root: root.String()}
			if r := o.rootNote(); r != "" {
				req.Root = r
			}
			ans, err := svc.Find(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeAnswers(cmd.OutOrStdout(), o, []fretdna.Answer{*ans}, format)
		},
	}
	cmd.Flags().BoolVar(&find, "find", false, "also show fingerings")
	cmd.Flags().StringVar(&format, "format", "text", "fingering output format (text|tab|json)")
	return cmd
}
