// Command psdtool lists stored vibration channels, computes averaged and
// maximax PSDs with fractional-octave bands, and ingests CSV recordings.
//
// Usage:
//
//	psdtool <command> [flags]
//
// Commands:
//
//	channels  list the channels of a dataset
//	psd       averaged (Welch) PSD of a channel or time range
//	maximax   maximax envelope PSD of a channel or time range
//	ingest    store one CSV column as a channel
//
// Settings come from the YAML file given with -config; flags override it.
//
// Examples:
//
//	psdtool ingest -dataset FT-104 -channel wing.ax -rate 2048 -unit g wing.csv
//	psdtool channels -dataset FT-104
//	psdtool psd -dataset FT-104 -channel wing.ax -df 0.5 -fraction 3
//	psdtool maximax -dataset FT-104 -channel wing.ax -window 2 -format json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-psd/channel"
	"github.com/cwbudde/algo-psd/internal/config"
	"github.com/cwbudde/algo-psd/internal/logging"
	"github.com/cwbudde/algo-psd/store/parquetstore"
	"github.com/cwbudde/algo-psd/store/sqlitestore"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string, stdout io.Writer) error
}

var commands = []command{
	{"channels", "list the channels of a dataset", runChannels},
	{"psd", "averaged (Welch) PSD of a channel or time range", runPSD},
	{"maximax", "maximax envelope PSD of a channel or time range", runMaximax},
	{"ingest", "store one CSV column as a channel", runIngest},
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: psdtool <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(os.Stderr, "\nRun 'psdtool <command> -h' for the flags of a command.\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	name := os.Args[1]
	if name == "-h" || name == "-help" || name == "help" {
		usage()
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(ctx, os.Args[2:], os.Stdout); err != nil {
			if !errors.Is(err, flag.ErrHelp) {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			cancel()
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "error: unknown command %q\n\n", name)
	usage()
	os.Exit(2)
}

// globalFlags are accepted by every command.
type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
	storeKind string
	storePath string
}

func (g *globalFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&g.config, "config", "", "YAML configuration file")
	fs.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&g.logFormat, "log-format", "", "log format (console, json)")
	fs.StringVar(&g.storeKind, "store", "", "store kind (sqlite, parquet)")
	fs.StringVar(&g.storePath, "path", "", "sqlite database file or parquet directory")
}

// load reads the configuration file, applies the global flag overrides and
// validates the result.
func (g *globalFlags) load(fs *flag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if g.config != "" {
		var err error
		if cfg, err = config.Load(g.config); err != nil {
			return config.Config{}, err
		}
	}

	visit(fs, map[string]func(){
		"log-level":  func() { cfg.Settings.LogLevel = g.logLevel },
		"log-format": func() { cfg.Settings.LogFormat = g.logFormat },
		"store":      func() { cfg.Store.Kind = config.StoreKind(g.storeKind) },
		"path":       func() { cfg.Store.Path = g.storePath },
	})

	return cfg, nil
}

// visit calls the override of every flag set on the command line.
func visit(fs *flag.FlagSet, overrides map[string]func()) {
	fs.Visit(func(f *flag.Flag) {
		if apply, ok := overrides[f.Name]; ok {
			apply()
		}
	})
}

// env is what a command needs after flags are parsed.
type env struct {
	cfg   config.Config
	log   *zap.Logger
	store channel.Store
	// ingest writes one complete channel.
	ingest func(ctx context.Context, desc channel.Descriptor, samples []float64) error
	close  func() error
}

func open(cfg config.Config) (*env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Settings.LogLevel, cfg.Settings.LogFormat)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: log}
	switch cfg.Store.Kind {
	case config.StoreParquet:
		s, err := parquetstore.Open(cfg.Store.Path, parquetstore.WithLogger(log))
		if err != nil {
			return nil, err
		}
		e.store = s
		e.ingest = s.Write
		e.close = func() error { return nil }
	default:
		s := sqlitestore.New(cfg.Store.Path, sqlitestore.WithLogger(log))
		e.store = s
		e.ingest = func(ctx context.Context, desc channel.Descriptor, samples []float64) error {
			id, err := s.Create(ctx, desc)
			if err != nil {
				return err
			}
			return s.Append(ctx, id, samples)
		}
		e.close = s.Close
	}

	log.Debug("opened store", zap.String("kind", string(cfg.Store.Kind)), zap.String("path", cfg.Store.Path))

	return e, nil
}

func (e *env) Close() error {
	_ = e.log.Sync()
	return e.close()
}
