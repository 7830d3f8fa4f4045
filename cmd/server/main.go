package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/FretDNA/pkg/fretdna"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/audio"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/storage"
	"github.com/himanishpuri/FretDNA/pkg/logger"
)

type serverFlags struct {
	port           int
	dbPath         string
	tempDir        string
	sampleRate     int
	allowedOrigins string
	configPath     string
	accessLog      bool
	cache          bool
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseOrigins(s string) []string {
	if s == "*" {
		return []string{"*"}
	}
	origins := strings.Split(s, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

func newRootCmd() *cobra.Command {
	var f serverFlags
	cmd := &cobra.Command{
		Use:           "fretdna-server",
		Short:         "Serve chord fingering search over HTTP",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.IntVar(&f.port, "port", 8080, "HTTP server port")
	fl.StringVar(&f.dbPath, "db", getEnvOrDefault("FRETDNA_DB_PATH", storage.DefaultDBFile), "path to the SQLite chord library")
	fl.StringVar(&f.tempDir, "temp", getEnvOrDefault("FRETDNA_TEMP_DIR", os.TempDir()), "temporary directory for audio files")
	fl.IntVar(&f.sampleRate, "rate", audio.DefaultSampleRate, "audition sample rate")
	fl.StringVar(&f.allowedOrigins, "origins", "*", "comma-separated list of allowed CORS origins (use * for all)")
	fl.StringVar(&f.configPath, "config", "", "config file (default $FRETDNA_CONFIG or ./fretdna.toml)")
	fl.BoolVar(&f.accessLog, "access-log", false, "log every request")
	fl.BoolVar(&f.cache, "cache", false, "cache search results in the chord library")
	return cmd
}

func run(cmd *cobra.Command, f serverFlags) error {
	log := logger.GetLogger()

	opts := []fretdna.Option{fretdna.WithLogger(log)}
	window := search.DefaultWindow
	fileDB := false

	path := f.configPath
	if path == "" {
		path = fretdna.FindConfigFile()
	}
	if path != "" {
		cfg, err := fretdna.LoadConfigFile(path)
		if err != nil {
			return err
		}
		fileOpts, err := cfg.Options()
		if err != nil {
			return err
		}
		opts = append(opts, fileOpts...)
		window = cfg.Window(window)
		if cfg.Log.Level != "" {
			lvl, _ := logger.ParseLevel(cfg.Log.Level)
			log.SetLevel(lvl)
		}
		if !cmd.Flags().Changed("cache") {
			f.cache = cfg.Storage.Cache
		}
		fileDB = cfg.Storage.DBPath != ""
		if fileDB && !cmd.Flags().Changed("db") {
			f.dbPath = cfg.Storage.DBPath
		}
		if !cmd.Flags().Changed("rate") && cfg.Audio.SampleRate > 0 {
			f.sampleRate = cfg.Audio.SampleRate
		}
	}

	if cmd.Flags().Changed("db") || !fileDB {
		opts = append(opts, fretdna.WithDBPath(f.dbPath))
	}
	opts = append(opts,
		fretdna.WithSampleRate(f.sampleRate),
		fretdna.WithWindow(window),
		fretdna.WithCache(f.cache),
	)
	service, err := fretdna.NewService(opts...)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer service.Close()

	server := NewServer(service, &ServerConfig{
		Port:           f.port,
		DBPath:         f.dbPath,
		TempDir:        f.tempDir,
		SampleRate:     f.sampleRate,
		Window:         window,
		AllowedOrigins: parseOrigins(f.allowedOrigins),
		AccessLog:      f.accessLog,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Start(ctx)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "fretdna-server: %v\n", err)
		os.Exit(1)
	}
}
