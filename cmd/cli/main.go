package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/FretDNA/pkg/fretdna"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/storage"
	"github.com/himanishpuri/FretDNA/pkg/logger"
)

// cliOptions holds the persistent flags and the state derived from them
// before a command runs.
type cliOptions struct {
	first      int
	frets      int
	root       string
	tuningFile string
	trace      int
	dbPath     string
	configPath string
	cache      bool
	filters    search.Filters

	cmd  *cobra.Command
	file *fretdna.FileConfig
	log  *logger.Logger
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func newRootCmd() *cobra.Command {
	o := &cliOptions{log: logger.GetLogger()}

	root := &cobra.Command{
		Use:   "fretdna [chord...]",
		Short: "Find every way to finger a chord on a guitar fretboard",
		Long: `fretdna lists the fingerings of a chord inside a fret window and draws
each one as a text diagram. Chords are given as note names, e.g. "C E G";
with no arguments one chord per line is read from standard input.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.prepare(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, o, args, findFlags{format: "text"})
		},
	}

	pf := root.PersistentFlags()
	pf.IntVarP(&o.first, "first", "f", search.DefaultWindow.First, "first fret of the search window")
	pf.IntVarP(&o.frets, "frets", "n", search.DefaultWindow.Length, "number of frets in the search window")
	pf.StringVarP(&o.root, "root", "r", "", "root note (default: first note of each chord)")
	pf.StringVarP(&o.tuningFile, "tuning-file", "T", "", "file holding six open-string notes, low to high")
	pf.IntVarP(&o.trace, "trace", "t", 0, "trace level; any value above 0 enables debug output")
	pf.StringVar(&o.dbPath, "db", getEnvOrDefault("FRETDNA_DB_PATH", storage.DefaultDBFile), "path to the SQLite chord library")
	pf.StringVar(&o.configPath, "config", "", "config file (default $FRETDNA_CONFIG or ./fretdna.toml)")
	pf.BoolVar(&o.cache, "cache", false, "cache search results in the chord library")
	pf.IntVar(&o.filters.MinSounding, "min-strings", 0, "skip fingerings with fewer sounding strings (0 = off)")
	pf.BoolVar(&o.filters.RequireRoot, "require-root", false, "skip fingerings on which the root does not sound")
	pf.IntVar(&o.filters.MaxSpan, "max-span", 0, "skip fingerings whose fretted notes span more frets (0 = off)")

	root.Version = version
	root.AddCommand(
		newFindCmd(o),
		newChordsCmd(o),
		newFormulaCmd(o),
		newAuditionCmd(o),
		newDetectCmd(o),
		newSpectrogramCmd(),
		newVersionCmd(),
	)
	return root
}

// prepare loads the config file and sets the log level. Flags override the
// file, which overrides built-in defaults.
func (o *cliOptions) prepare(cmd *cobra.Command) error {
	o.cmd = cmd

	path := o.configPath
	if path == "" {
		path = fretdna.FindConfigFile()
	}
	if path != "" {
		cfg, err := fretdna.LoadConfigFile(path)
		if err != nil {
			return err
		}
		o.file = cfg
		o.log.Debugf("Loaded config %s", path)
	}

	switch {
	case o.trace > 0:
		o.log.SetLevel(logger.LevelForTrace(o.trace))
	case o.file != nil && o.file.Log.Level != "":
		lvl, _ := logger.ParseLevel(o.file.Log.Level)
		o.log.SetLevel(lvl)
	}
	return nil
}

func (o *cliOptions) changed(name string) bool {
	return o.cmd != nil && o.cmd.Flags().Changed(name)
}

// window resolves the search window and rejects it before any search runs.
func (o *cliOptions) window() (search.Window, error) {
	w := search.DefaultWindow
	if o.file != nil {
		w = o.file.Window(w)
	}
	if o.changed("first") {
		w.First = o.first
	}
	if o.changed("frets") {
		w.Length = o.frets
	}
	return w, w.Validate()
}

// rootNote returns the root flag, falling back to the config file.
func (o *cliOptions) rootNote() string {
	if o.changed("root") || o.file == nil {
		return o.root
	}
	return o.file.Search.Root
}

// checkRoot rejects a bad root before any chord is read.
func (o *cliOptions) checkRoot() error {
	r := o.rootNote()
	if r == "" {
		return nil
	}
	if _, err := pitch.Parse(r); err != nil {
		return fmt.Errorf("root %q: %w", r, err)
	}
	return nil
}

// playability merges the filter flags over the config file.
func (o *cliOptions) playability() search.Filters {
	f := search.Filters{}
	if o.file != nil {
		f = o.file.Filters()
	}
	if o.changed("min-strings") {
		f.MinSounding = o.filters.MinSounding
	}
	if o.changed("require-root") {
		f.RequireRoot = o.filters.RequireRoot
	}
	if o.changed("max-span") {
		f.MaxSpan = o.filters.MaxSpan
	}
	return f
}

func (o *cliOptions) cacheEnabled() bool {
	if o.changed("cache") {
		return o.cache
	}
	return o.file != nil && o.file.Storage.Cache
}

// service builds a Service. library opens the chord database even when
// no cache is requested.
func (o *cliOptions) service(library bool) (fretdna.Service, error) {
	opts := []fretdna.Option{fretdna.WithLogger(o.log)}

	if o.file != nil {
		fileOpts, err := o.file.Options()
		if err != nil {
			return nil, err
		}
		opts = append(opts, fileOpts...)
	}

	w, err := o.window()
	if err != nil {
		return nil, err
	}
	if err := o.checkRoot(); err != nil {
		return nil, err
	}
	opts = append(opts, fretdna.WithWindow(w), fretdna.WithFilters(o.playability()))

	if o.tuningFile != "" {
		t, err := fretdna.ReadTuningFile(o.tuningFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fretdna.WithTuning(t))
	}

	cache := o.cacheEnabled()
	opts = append(opts, fretdna.WithCache(cache))
	fileDB := o.file != nil && o.file.Storage.DBPath != ""
	if o.changed("db") || ((library || cache) && !fileDB) {
		opts = append(opts, fretdna.WithDBPath(o.dbPath))
	}

	return fretdna.NewService(opts...)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fretdna: %v\n", err)
		os.Exit(1)
	}
}
