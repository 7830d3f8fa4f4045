package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/FretDNA/pkg/fretdna"
)

func newChordsCmd(o *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chords",
		Short: "Manage the saved chord library",
	}

	var root string
	add := &cobra.Command{
		Use:     "add <name> <notes...>",
		Short:   "Save a named chord",
		Example: `  fretdna chords add Am7 A C E G`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := o.service(true)
			if err != nil {
				return err
			}
			defer svc.Close()

			c, err := svc.SaveChord(args[0], strings.Join(args[1:], " "), root)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Saved %s (%s)\n   ID: %s\n", c.Name, c.Notes, c.ID)
			return nil
		},
	}
	add.Flags().StringVar(&root, "as-root", "", "root stored with the chord")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved chords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := o.service(true)
			if err != nil {
				return err
			}
			defer svc.Close()

			chords, err := svc.ListChords()
			if err != nil {
				return err
			}
			writeChordList(cmd.OutOrStdout(), chords)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <id|name>",
		Short: "Show one saved chord",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := o.service(true)
			if err != nil {
				return err
			}
			defer svc.Close()

			c, err := svc.GetChord(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:    %s\n", c.Name)
			fmt.Fprintf(out, "Notes:   %s\n", c.Notes)
			if c.Root != "" {
				fmt.Fprintf(out, "Root:    %s\n", c.Root)
			}
			fmt.Fprintf(out, "ID:      %s\n", c.ID)
			fmt.Fprintf(out, "Saved:   %s\n", humanize.Time(c.CreatedAt))
			return nil
		},
	}

	del := &cobra.Command{
		Use:     "delete <id|name>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved chord",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := o.service(true)
			if err != nil {
				return err
			}
			defer svc.Close()

			c, err := svc.GetChord(args[0])
			if err != nil {
				return err
			}
			if err := svc.DeleteChord(c.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted %s\n", c.Name)
			return nil
		},
	}

	var format string
	find := &cobra.Command{
		Use:   "find <id|name>",
		Short: "Show fingerings for a saved chord",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := o.service(true)
			if err != nil {
				return err
			}
			defer svc.Close()

			c, err := svc.GetChord(args[0])
			if err != nil {
				return err
			}
			req := fretdna.Request{Chord: c.Name, Target: c.Notes, Root: c.Root}
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
	find.Flags().StringVar(&format, "format", "text", "output format (text|tab|json)")

	cache := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached search results in the library",
	}
	cache.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached search result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := o.service(true)
			if err != nil {
				return err
			}
			defer svc.Close()

			n, err := svc.ClearCache()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🧹 Cleared %s cached searches\n", humanize.Comma(n))
			return nil
		},
	})

	cmd.AddCommand(add, list, show, del, find, cache)
	return cmd
}

func writeChordList(w io.Writer, chords []fretdna.Chord) {
	if len(chords) == 0 {
		fmt.Fprintln(w, "📚 Chord library is empty")
		return
	}

	nameWidth, notesWidth := runewidth.StringWidth("NAME"), runewidth.StringWidth("NOTES")
	for _, c := range chords {
		nameWidth = max(nameWidth, runewidth.StringWidth(c.Name))
		notesWidth = max(notesWidth, runewidth.StringWidth(c.Notes.String()))
	}

	fmt.Fprintf(w, "📚 %d chords\n\n", len(chords))
	fmt.Fprintf(w, "%s  %s  %-4s  %s\n",
		runewidth.FillRight("NAME", nameWidth), runewidth.FillRight("NOTES", notesWidth), "ROOT", "SAVED")
	for _, c := range chords {
		fmt.Fprintf(w, "%s  %s  %-4s  %s\n",
			runewidth.FillRight(c.Name, nameWidth),
			runewidth.FillRight(c.Notes.String(), notesWidth),
			c.Root,
			humanize.Time(c.CreatedAt))
	}
}
