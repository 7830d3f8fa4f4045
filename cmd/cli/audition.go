package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/FretDNA/pkg/fretdna"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/audio"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/chroma"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
)

func newAuditionCmd(o *cliOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "audition <frets>",
		Short: "Render a fingering as a strummed WAV file",
		Example: `  fretdna audition x32010
  fretdna audition 3-5-5-4-3-3 -o f-barre.wav`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sol, err := search.ParseSolution(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = sol.String() + ".wav"
			}

			svc, err := o.service(false)
			if err != nil {
				return err
			}
			defer svc.Close()

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := svc.Audition(cmd.Context(), sol, f); err != nil {
				f.Close()
				os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			size := "?"
			if st, err := os.Stat(output); err == nil {
				size = humanize.Bytes(uint64(st.Size()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🎸 Wrote %s (%s)\n", output, size)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "WAV file to write (default <frets>.wav)")
	return cmd
}

func newDetectCmd(o *cliOptions) *cobra.Command {
	var find bool
	var format string
	cmd := &cobra.Command{
		Use:   "detect <file.wav>",
		Short: "Estimate the notes sounding in a WAV recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := o.service(false)
			if err != nil {
				return err
			}
			defer svc.Close()

			target, err := svc.Detect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !find {
				fmt.Fprintln(cmd.OutOrStdout(), target)
				return nil
			}
			ans, err := svc.Find(cmd.Context(), fretdna.Request{Chord: strings.TrimSpace(target.String()), Target: target, Root: o.rootNote()})
			if err != nil {
				return err
			}
			return writeAnswers(cmd.OutOrStdout(), o, []fretdna.Answer{*ans}, format)
		},
	}
	cmd.Flags().BoolVar(&find, "find", false, "also show fingerings for the detected notes")
	cmd.Flags().StringVar(&format, "format", "text", "fingering output format (text|tab|json)")
	return cmd
}

func newSpectrogramCmd() *cobra.Command {
	var output string
	var width, height int
	cmd := &cobra.Command{
		Use:   "spectrogram <file.wav>",
		Short: "Save a PNG spectrogram of a WAV recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, sr, err := audio.ReadWavAsFloat64(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".png"
			}
			if err := chroma.SpectrogramPNG(samples, sr, width, height, output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🖼️  Wrote %s (%s samples at %d Hz)\n", output, humanize.Comma(int64(len(samples))), sr)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG file to write (default <file>.png)")
	cmd.Flags().IntVar(&width, "width", chroma.ImageWidth, "image width in pixels")
	cmd.Flags().IntVar(&height, "height", chroma.ImageHeight, "image height in pixels (frequency bins)")
	return cmd
}
