package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/FretDNA/pkg/fretdna"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/diagram"
)

type findFlags struct {
	format string
}

func newFindCmd(o *cliOptions) *cobra.Command {
	var ff findFlags
	cmd := &cobra.Command{
		Use:   "find [chord...]",
		Short: "Show fingerings for chords given as arguments or on stdin",
		Example: `  fretdna find C E G
  fretdna find -f 0 -n 4 -r C "C E G"
  printf 'C E G\nA C E\n' | fretdna find --format tab`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, o, args, ff)
		},
	}
	cmd.Flags().StringVar(&ff.format, "format", "text", "output format (text|tab|json)")
	return cmd
}

// runFind treats all arguments as one chord; without arguments each stdin
// line is a chord.
func runFind(cmd *cobra.Command, o *cliOptions, args []string, ff findFlags) error {
	svc, err := o.service(false)
	if err != nil {
		return err
	}
	defer svc.Close()

	var in io.Reader = cmd.InOrStdin()
	if len(args) > 0 {
		in = strings.NewReader(strings.Join(args, " "))
	}
	answers, err := svc.FindAll(cmd.Context(), in, fretdna.Params{Root: o.rootNote()})
	if err != nil {
		return err
	}
	return writeAnswers(cmd.OutOrStdout(), o, answers, ff.format)
}

func writeAnswers(w io.Writer, o *cliOptions, answers []fretdna.Answer, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(answers)
	case "tab":
		for _, a := range answers {
			tabs := make([]string, len(a.Fingerings))
			for i, f := range a.Fingerings {
				tabs[i] = f.Tab
			}
			fmt.Fprintf(w, "%s: %s\n", a.Target, strings.Join(tabs, " "))
		}
		return nil
	case "text", "":
		for _, a := range answers {
			writeDiagrams(w, a)
			o.log.Debugf("%s: examined %s assignments in %s, %s qualify",
				a.Target, humanize.Comma(int64(a.Examined)), a.Duration, humanize.Comma(int64(a.Total)))
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (text|tab|json)", format)
	}
}

func writeDiagrams(w io.Writer, a fretdna.Answer) {
	n := len(a.Fingerings)
	for k, f := range a.Fingerings {
		fmt.Fprintf(w, "\n%s\n\n", diagram.Header(k+1, n))
		for _, line := range f.Diagram.Lines {
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
	}
}
